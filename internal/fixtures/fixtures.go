// Package fixtures materializes testdata trees into a scratch directory for
// tests that exercise internal/localrepo against real files on disk,
// grounded on the teacher's filesystem_test.go harness (a filesystemState
// describing dirs/files/links, asserted against the real filesystem) but
// using github.com/termie/go-shutil's CopyTree for the copy itself rather
// than a hand-rolled filepath.Walk, since shutil already exists in the pack
// for exactly this "stage a tree of testdata into a temp dir" purpose.
package fixtures

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	shutil "github.com/termie/go-shutil"
)

// Overlay is a testdata repository tree copied into a temporary directory,
// torn down by Cleanup.
type Overlay struct {
	Dir string
}

// Stage copies src (a testdata fixture tree, e.g. "testdata/simple-overlay")
// into a fresh temp directory and returns it as an Overlay. Symlinks inside
// src are copied as symlinks, matching the teacher's own filesystemState
// handling of fsLink entries.
func Stage(src string) (*Overlay, error) {
	tmp, err := ioutil.TempDir("", "paludis-resolve-fixture-")
	if err != nil {
		return nil, errors.Wrap(err, "creating fixture scratch dir")
	}

	dst := filepath.Join(tmp, filepath.Base(src))
	if err := shutil.CopyTree(src, dst, nil); err != nil {
		os.RemoveAll(tmp)
		return nil, errors.Wrapf(err, "staging fixture %s", src)
	}

	return &Overlay{Dir: dst}, nil
}

// Cleanup removes the staged tree.
func (o *Overlay) Cleanup() error {
	return os.RemoveAll(filepath.Dir(o.Dir))
}

// WriteMetadata writes a category/package-version/metadata file under the
// overlay, the on-disk shape internal/localrepo parses, so tests can build
// small fixture trees inline instead of checking in testdata for every
// case.
func WriteMetadata(overlayDir, category, packageVersionDir string, fields map[string]string) error {
	dir := filepath.Join(overlayDir, category, packageVersionDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}

	var buf []byte
	for _, key := range []string{"SLOT", "KEYWORDS", "IUSE", "DEPEND", "RDEPEND", "PDEPEND", "SUGGESTED"} {
		v, ok := fields[key]
		if !ok {
			continue
		}
		buf = append(buf, []byte(key+"="+v+"\n")...)
	}
	return errors.Wrapf(
		ioutil.WriteFile(filepath.Join(dir, "metadata"), buf, 0o644),
		"writing metadata for %s", dir,
	)
}
