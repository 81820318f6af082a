package localrepo

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	paludis "github.com/exherbo/paludis-resolve"
)

func writeMetadata(t *testing.T, dir string, fields map[string]string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(filepath.Join(dir, "metadata"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	for k, v := range fields {
		if _, err := f.WriteString(k + "=" + v + "\n"); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCategoryAndPackageNames(t *testing.T) {
	root := t.TempDir()
	writeMetadata(t, filepath.Join(root, "dev-lang", "go-1.20"), map[string]string{"SLOT": "0"})
	writeMetadata(t, filepath.Join(root, "dev-lang", "go-1.21"), map[string]string{"SLOT": "0"})
	writeMetadata(t, filepath.Join(root, "dev-libs", "foo-1.0"), map[string]string{"SLOT": "0"})

	repo := New(Config{Name: "test", Root: root})
	ctx := context.Background()

	cats, err := repo.CategoryNames(ctx)
	if err != nil {
		t.Fatalf("CategoryNames = %v", err)
	}
	if len(cats) != 2 {
		t.Fatalf("expected 2 categories, got %+v", cats)
	}

	pkgs, err := repo.PackageNames(ctx, "dev-lang")
	if err != nil {
		t.Fatalf("PackageNames = %v", err)
	}
	if len(pkgs) != 1 || string(pkgs[0]) != "go" {
		t.Fatalf("expected just [go], got %+v", pkgs)
	}
}

func TestPackageIDsParsesMetadata(t *testing.T) {
	root := t.TempDir()
	writeMetadata(t, filepath.Join(root, "dev-lang", "go-1.20"), map[string]string{
		"SLOT":     "0",
		"KEYWORDS": "amd64 ~x86",
		"IUSE":     "+static debug",
		"RDEPEND":  "dev-libs/foo",
	})

	repo := New(Config{Name: "test", Root: root})
	qpn, _ := paludis.NewQualifiedPackageName("dev-lang/go")
	ids, err := repo.PackageIDs(context.Background(), qpn)
	if err != nil {
		t.Fatalf("PackageIDs = %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("expected 1 id, got %d", len(ids))
	}
	id := ids[0]
	if id.Version().String() != "1.20" {
		t.Errorf("Version = %q", id.Version())
	}
	if paludis.SlotOf(id) != "0" {
		t.Errorf("Slot = %q", paludis.SlotOf(id))
	}
	ck := id.ChoicesKey()
	if ck == nil {
		t.Fatal("expected a ChoicesKey")
	}
	choices, err := ck.ChoicesValue()
	if err != nil {
		t.Fatalf("ChoicesValue = %v", err)
	}
	if !choices.IsEnabled("static") {
		t.Errorf("expected static (declared with a leading +) to default enabled")
	}
	if choices.IsEnabled("debug") {
		t.Errorf("expected debug to default disabled")
	}
	if id.RunDependenciesKey() == nil {
		t.Errorf("expected a RunDependenciesKey from RDEPEND")
	}
}

func TestPackageIDsRejectsBadVersion(t *testing.T) {
	root := t.TempDir()
	writeMetadata(t, filepath.Join(root, "dev-lang", "go-1.0_bogus"), map[string]string{"SLOT": "0"})
	repo := New(Config{Name: "test", Root: root})
	qpn, _ := paludis.NewQualifiedPackageName("dev-lang/go")
	if _, err := repo.PackageIDs(context.Background(), qpn); err == nil {
		t.Errorf("expected a malformed version directory to error")
	}
}

func TestCategoryNamesOnMissingRootIsEmptyNotError(t *testing.T) {
	repo := New(Config{Name: "test", Root: filepath.Join(t.TempDir(), "does-not-exist")})
	cats, err := repo.CategoryNames(context.Background())
	if err != nil {
		t.Fatalf("CategoryNames = %v", err)
	}
	if len(cats) != 0 {
		t.Errorf("expected no categories for a missing root, got %+v", cats)
	}
}

func TestInstalledRootKeyReflectsConfig(t *testing.T) {
	notInstalled := New(Config{Name: "test", Root: "/tmp/x"})
	if notInstalled.InstalledRootKey() != "" {
		t.Errorf("expected an empty InstalledRootKey for a non-installed tree")
	}
	installed := New(Config{Name: "test", Root: "/tmp/x", InstalledRoot: true})
	if installed.InstalledRootKey() != "/tmp/x" {
		t.Errorf("InstalledRootKey = %q", installed.InstalledRootKey())
	}
}

func TestSplitPackageVersionDir(t *testing.T) {
	cases := []struct {
		dir, name, version string
		ok                 bool
	}{
		{"go-1.20", "go", "1.20", true},
		{"foo-bar-2.0", "foo-bar", "2.0", true},
		{"nodash", "", "", false},
	}
	for _, c := range cases {
		name, version, ok := splitPackageVersionDir(c.dir)
		if name != c.name || version != c.version || ok != c.ok {
			t.Errorf("splitPackageVersionDir(%q) = (%q, %q, %v), want (%q, %q, %v)",
				c.dir, name, version, ok, c.name, c.version, c.ok)
		}
	}
}
