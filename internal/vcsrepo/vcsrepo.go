// Package vcsrepo syncs a Paludis overlay checked out from a VCS remote
// (the "live ::git repository" case Paludis supports alongside plain
// on-disk trees), grounded on the teacher's vcs_repo.go wrapper around
// github.com/Masterminds/vcs. Where the teacher's gitRepo/svnRepo/bzrRepo/
// hgRepo types add Windows-path and detached-HEAD workarounds for fetching
// Go import paths, this package only needs Get/Update/Version — enough to
// keep a local mirror of an overlay's category/package tree current before
// internal/localrepo walks it.
package vcsrepo

import (
	"github.com/Masterminds/semver"
	"github.com/Masterminds/vcs"
	"github.com/pkg/errors"

	paludis "github.com/exherbo/paludis-resolve"
)

// Overlay is a VCS-backed repository mirror: a remote URL synced to a local
// path, the source internal/localrepo reads package metadata from.
type Overlay struct {
	repo vcs.Repo
}

// NewOverlay creates (but does not yet sync) an Overlay for remote, checked
// out at localPath. vcsType selects the backend the same way the teacher's
// vcs.NewRepo dispatches on a detected or declared VCS kind.
func NewOverlay(vcsType, remote, localPath string) (*Overlay, error) {
	var repo vcs.Repo
	var err error
	switch vcsType {
	case "git":
		repo, err = vcs.NewGitRepo(remote, localPath)
	case "hg":
		repo, err = vcs.NewHgRepo(remote, localPath)
	case "bzr":
		repo, err = vcs.NewBzrRepo(remote, localPath)
	case "svn":
		repo, err = vcs.NewSvnRepo(remote, localPath)
	default:
		return nil, errors.Errorf("unsupported vcs type %q", vcsType)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s repo for %s", vcsType, remote)
	}
	return &Overlay{repo: repo}, nil
}

// Sync clones the overlay if LocalPath doesn't exist yet, or updates it in
// place otherwise — the "sync" step Paludis runs before resolving against a
// ::git-backed repository.
func (o *Overlay) Sync() error {
	if !o.repo.CheckLocal() {
		return errors.Wrap(o.repo.Get(), "cloning overlay")
	}
	return errors.Wrap(o.repo.Update(), "updating overlay")
}

// LocalPath returns the checked-out tree's filesystem root, the path
// internal/localrepo should walk for category/package directories.
func (o *Overlay) LocalPath() string { return o.repo.LocalPath() }

// Version returns the currently checked-out revision, used as part of the
// repository's FormatKey for cache invalidation.
func (o *Overlay) Version() (string, error) {
	v, err := o.repo.Version()
	return v, errors.Wrap(err, "reading overlay version")
}

// tagLister is the subset of the teacher's vcs.Repo-adjacent Git-specific
// surface this package needs; only GitRepo exposes Tags() among the
// backends this module's Masterminds/vcs vendoring carries.
type tagLister interface {
	Tags() ([]string, error)
}

// TaggedVersions lists the overlay's VCS tags that parse as a semver tag
// (github.com/Masterminds/semver), converted into paludis.Version, the same
// way the teacher's vcs_source.go filters gopkg.in-style branch/tag names
// down to ones semver.NewVersion accepts before treating them as real
// versions. Tags that aren't semver-shaped, or whose semver-valid text
// doesn't separately parse under this module's own version grammar, are
// silently skipped rather than erroring the whole listing.
func (o *Overlay) TaggedVersions() ([]paludis.Version, error) {
	lister, ok := o.repo.(tagLister)
	if !ok {
		return nil, nil
	}
	tags, err := lister.Tags()
	if err != nil {
		return nil, errors.Wrap(err, "listing overlay tags")
	}

	var out []paludis.Version
	for _, tag := range tags {
		if _, err := semver.NewVersion(tag); err != nil {
			continue
		}
		v, err := paludis.ParseVersion(tag)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}
