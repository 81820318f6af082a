// Package localrepo implements paludis.Repository over an on-disk
// category/package/version directory tree, the "ordinary ::repository"
// case Paludis resolves against alongside installed-root and virtual
// repositories. Directory trees are walked with github.com/karrick/godirwalk
// rather than the stdlib's filepath.Walk or os.ReadDir: the teacher's own
// GOPATH scanning (cmd/dep's gopath_scanner.go) pays a Lstat per entry it
// visits, and godirwalk's ReadDirents reports each entry's type from the
// directory read itself on platforms that support it, which matters here
// since a short-name lookup enumerates every category and package directory
// in the overlay.
//
// Each package version is a directory "name-version" holding a flat
// "metadata" key=value file (SLOT, KEYWORDS, IUSE, DEPEND, RDEPEND, PDEPEND,
// SUGGESTED), the same shape VDB entries and ebuild-cache files take in the
// system this module models.
package localrepo

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"

	paludis "github.com/exherbo/paludis-resolve"
)

// Repository is a read-only, on-disk-backed paludis.Repository. Metadata is
// read fresh from disk on every PackageIDs call; nothing here is cached
// across calls, matching the teacher's treatment of the local filesystem as
// authoritative rather than something to shadow in memory.
type Repository struct {
	name       paludis.RepositoryName
	formatKey  string
	root       string
	installed  bool // true if this tree models an installed root
	destIface  paludis.DestinationInterface
	eapi       paludis.EAPI
}

// Config names the repository and where its tree lives.
type Config struct {
	Name         paludis.RepositoryName
	Root         string
	InstalledRoot bool
	Destination  paludis.DestinationInterface
	EAPI         paludis.EAPI
}

// New builds a Repository rooted at cfg.Root. The directory need not exist
// yet; CategoryNames and PackageNames report empty results until it does,
// matching how fetching/syncing a ::git overlay can leave a not-yet-cloned
// local path behind it (see internal/vcsrepo.Overlay.LocalPath).
func New(cfg Config) *Repository {
	eapi := cfg.EAPI
	if eapi.Name == "" {
		eapi = paludis.DefaultEAPI
	}
	return &Repository{
		name:      cfg.Name,
		formatKey: "e",
		root:      cfg.Root,
		installed: cfg.InstalledRoot,
		destIface: cfg.Destination,
		eapi:      eapi,
	}
}

func (r *Repository) Name() paludis.RepositoryName { return r.name }
func (r *Repository) FormatKey() string            { return r.formatKey }

func (r *Repository) InstalledRootKey() string {
	if r.installed {
		return r.root
	}
	return ""
}

func (r *Repository) DestinationInterface() paludis.DestinationInterface { return r.destIface }

// SomeIDsMightSupportAction reports true unconditionally for Install,
// Fetch, Pretend and Info on a non-installed tree, and for Uninstall and
// Info on an installed-root tree; this module has no per-ID action-support metadata file, so it
// errs toward "might support" and lets the caller's actual attempt fail.
func (r *Repository) SomeIDsMightSupportAction(kind paludis.ActionKind) bool {
	if r.installed {
		return kind == paludis.ActionUninstall || kind == paludis.ActionInfo
	}
	switch kind {
	case paludis.ActionInstall, paludis.ActionFetch, paludis.ActionPretend, paludis.ActionInfo:
		return true
	default:
		return false
	}
}

// CategoryNames lists every top-level category directory under root.
func (r *Repository) CategoryNames(ctx context.Context) ([]paludis.CategoryName, error) {
	dirs, err := listDirs(r.root)
	if err != nil {
		return nil, err
	}
	out := make([]paludis.CategoryName, 0, len(dirs))
	for _, d := range dirs {
		cat, err := paludis.NewCategoryName(d)
		if err != nil {
			continue // skip non-category junk directories (e.g. ".git")
		}
		out = append(out, cat)
	}
	return out, nil
}

// PackageNames lists every distinct package base name under cat, derived
// from its "name-version" subdirectories.
func (r *Repository) PackageNames(ctx context.Context, cat paludis.CategoryName) ([]paludis.PackageNamePart, error) {
	dirs, err := listDirs(filepath.Join(r.root, string(cat)))
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var names []string
	for _, d := range dirs {
		name, _, ok := splitPackageVersionDir(d)
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]paludis.PackageNamePart, 0, len(names))
	for _, n := range names {
		part, err := paludis.NewPackageNamePart(n)
		if err != nil {
			continue
		}
		out = append(out, part)
	}
	return out, nil
}

// PackageIDs reads every "name-version" directory under qpn's category that
// matches qpn's package part, parsing each one's metadata file into a
// PackageID.
func (r *Repository) PackageIDs(ctx context.Context, qpn paludis.QualifiedPackageName) ([]paludis.PackageID, error) {
	dirs, err := listDirs(filepath.Join(r.root, string(qpn.Category)))
	if err != nil {
		return nil, err
	}
	var ids []paludis.PackageID
	for _, d := range dirs {
		name, verText, ok := splitPackageVersionDir(d)
		if !ok || name != string(qpn.Package) {
			continue
		}
		version, err := paludis.ParseVersion(verText)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing version of %s", d)
		}
		id, err := r.readMetadata(qpn, version, filepath.Join(r.root, string(qpn.Category), d))
		if err != nil {
			return nil, errors.Wrapf(err, "reading metadata for %s", d)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// readMetadata parses dir's flat "metadata" key=value file into a
// PackageIDSpec and builds a PackageID from it.
func (r *Repository) readMetadata(qpn paludis.QualifiedPackageName, version paludis.Version, dir string) (paludis.PackageID, error) {
	fields, err := readKeyValueFile(filepath.Join(dir, "metadata"))
	if err != nil {
		return nil, err
	}

	spec := paludis.PackageIDSpec{
		Name:       qpn,
		Version:    version,
		Repository: r.name,
		Actions:    map[paludis.ActionKind]bool{paludis.ActionInstall: true, paludis.ActionFetch: true, paludis.ActionPretend: true},
	}
	if r.installed {
		spec.Actions = map[paludis.ActionKind]bool{paludis.ActionUninstall: true, paludis.ActionInfo: true}
	}

	if slot := fields["SLOT"]; slot != "" {
		s, err := paludis.NewSlotName(slot)
		if err != nil {
			return nil, errors.Wrapf(err, "bad SLOT in %s", dir)
		}
		spec.Slot = s
	}

	for _, kw := range strings.Fields(fields["KEYWORDS"]) {
		k, err := paludis.NewKeywordName(kw)
		if err != nil {
			return nil, errors.Wrapf(err, "bad KEYWORDS entry in %s", dir)
		}
		spec.Keywords = append(spec.Keywords, k)
	}

	builder := paludis.NewChoicesBuilder(r.eapi)
	for _, flag := range strings.Fields(fields["IUSE"]) {
		defaultEnabled := strings.HasPrefix(flag, "+")
		flag = strings.TrimPrefix(strings.TrimPrefix(flag, "+"), "-")
		builder.Declare(paludis.ChoicePrefixName(""), flag, defaultEnabled)
	}
	spec.Choices = builder.Build()

	for key, dest := range map[string]**paludis.DepSpecNode{
		"DEPEND":    &spec.BuildDeps,
		"RDEPEND":   &spec.RunDeps,
		"PDEPEND":   &spec.PostDeps,
		"SUGGESTED": &spec.Suggested,
	} {
		text := fields[key]
		if text == "" {
			continue
		}
		node, err := paludis.ParseDependency(text, r.eapi, r.installed)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s in %s", key, dir)
		}
		*dest = node
	}

	return paludis.NewPackageID(spec), nil
}

// listDirs lists the immediate subdirectories of dir using godirwalk's
// ReadDirents rather than os.ReadDir, so the entry-type check doesn't cost a
// second Lstat where the platform's directory read already reports it.
func listDirs(dir string) ([]string, error) {
	entries, err := godirwalk.ReadDirents(dir, nil)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", dir)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// splitPackageVersionDir splits "name-1.2.3" into ("name", "1.2.3") at the
// last "-" immediately followed by a digit, the same boundary
// ParseDependency's package-atom grammar uses to separate a name from an
// attached version requirement.
func splitPackageVersionDir(dir string) (name, version string, ok bool) {
	for i := len(dir) - 1; i > 0; i-- {
		if dir[i-1] == '-' && dir[i] >= '0' && dir[i] <= '9' {
			return dir[:i-1], dir[i:], true
		}
	}
	return "", "", false
}

// readKeyValueFile reads a flat KEY=value metadata file, one assignment per
// line, blank lines and "#"-prefixed comments ignored.
func readKeyValueFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	out := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.IndexByte(line, '=')
		if idx < 0 {
			continue
		}
		out[strings.TrimSpace(line[:idx])] = strings.TrimSpace(line[idx+1:])
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "scanning %s", path)
	}
	return out, nil
}
