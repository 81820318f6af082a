package fixtures

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStageCopiesTestdataTree(t *testing.T) {
	overlay, err := Stage("../../testdata/simple")
	if err != nil {
		t.Fatalf("Stage = %v", err)
	}
	defer overlay.Cleanup()

	if _, err := os.Stat(filepath.Join(overlay.Dir, "dev-lang", "go-1.20", "metadata")); err != nil {
		t.Errorf("expected staged metadata file to exist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(overlay.Dir, "dev-libs", "foo-1.0", "metadata")); err != nil {
		t.Errorf("expected staged metadata file to exist: %v", err)
	}
}

func TestStageLeavesOriginalUntouched(t *testing.T) {
	overlay, err := Stage("../../testdata/simple")
	if err != nil {
		t.Fatalf("Stage = %v", err)
	}
	defer overlay.Cleanup()

	if err := WriteMetadata(overlay.Dir, "dev-libs", "bar-2.0", map[string]string{"SLOT": "0"}); err != nil {
		t.Fatalf("WriteMetadata = %v", err)
	}
	if _, err := os.Stat(filepath.Join("..", "..", "testdata", "simple", "dev-libs", "bar-2.0")); !os.IsNotExist(err) {
		t.Errorf("expected the source testdata tree to be unaffected by writes to the staged copy")
	}
}

func TestWriteMetadataOnlyWritesKnownKeys(t *testing.T) {
	dir := t.TempDir()
	if err := WriteMetadata(dir, "dev-libs", "baz-1.0", map[string]string{
		"SLOT":    "0",
		"UNKNOWN": "ignored-by-callers-reading-back-via-localrepo",
	}); err != nil {
		t.Fatalf("WriteMetadata = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "dev-libs", "baz-1.0", "metadata"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "SLOT=0\n" {
		t.Errorf("metadata = %q, want only the SLOT line (unknown keys are dropped by design)", data)
	}
}

func TestCleanupRemovesScratchDir(t *testing.T) {
	overlay, err := Stage("../../testdata/simple")
	if err != nil {
		t.Fatalf("Stage = %v", err)
	}
	scratchRoot := filepath.Dir(overlay.Dir)
	if err := overlay.Cleanup(); err != nil {
		t.Fatalf("Cleanup = %v", err)
	}
	if _, err := os.Stat(scratchRoot); !os.IsNotExist(err) {
		t.Errorf("expected Cleanup to remove the scratch dir, stat err = %v", err)
	}
}
