package paludis

import "context"

// DestinationType enumerates where an install lands (§3's Resolvent facet).
type DestinationType uint8

const (
	DestinationInstallToRoot DestinationType = iota
	DestinationInstallToChroot
	DestinationCreateBinary
)

// Repository enumerates categories/packages/IDs and answers capability
// probes (§4.4, §6). Implementations are read-only from the resolver's
// point of view; population happens out of band (fixtures, a real on-disk
// backend, a VCS-backed mirror — see internal/vcsrepo).
type Repository interface {
	Name() RepositoryName
	FormatKey() string
	InstalledRootKey() string // empty string means "not an installed-root repository"
	CategoryNames(ctx context.Context) ([]CategoryName, error)
	PackageNames(ctx context.Context, cat CategoryName) ([]PackageNamePart, error)
	PackageIDs(ctx context.Context, qpn QualifiedPackageName) ([]PackageID, error)
	SomeIDsMightSupportAction(kind ActionKind) bool
	DestinationInterface() DestinationInterface
}

// DestinationInterface is the narrow slice of the action layer (§6) a
// repository exposes to let the resolver ask "could a ChangesToMake land
// here". A nil DestinationInterface means the repository is not a valid
// install destination.
type DestinationInterface interface {
	SupportsDestination(t DestinationType) bool
}

// Set is a named collection of package/set specs resolved from the
// Environment (e.g. a "world" file or a repository-provided set).
type Set struct {
	Name string
	Tree *DepSpecNode
}

// Environment is the resolver's window onto everything outside the core
// (§6): choice/keyword/license queries, mask computation, the repository
// database, named sets, the notification sink, and the active distribution
// tag.
type Environment interface {
	QueryUse(flag string, id PackageID) bool
	AcceptKeywords(kws []KeywordName, id PackageID) bool
	AcceptLicense(spec *DepSpecNode, id PackageID) bool
	MaskReasons(id PackageID) []Mask
	PackageDatabase() PackageDatabase
	Set(name string) (*Set, bool)
	TriggerNotifier(ev NotificationEvent)
	Distribution() string
	OverridePredicates() OverridePredicates
}

// PackageDatabase is the collection of Repositories an Environment exposes,
// ordered by importance (earlier repositories are more important).
type PackageDatabase interface {
	Repositories() []Repository
	RepositoryNamed(name RepositoryName) (Repository, bool)
	Importance(name RepositoryName) int
}

// simplePackageDatabase is the in-memory PackageDatabase used by fixtures
// and tests.
type simplePackageDatabase struct {
	repos []Repository
}

// NewPackageDatabase builds a PackageDatabase from an ordered repository
// list (first is most important).
func NewPackageDatabase(repos ...Repository) PackageDatabase {
	return &simplePackageDatabase{repos: repos}
}

func (d *simplePackageDatabase) Repositories() []Repository { return d.repos }

func (d *simplePackageDatabase) RepositoryNamed(name RepositoryName) (Repository, bool) {
	for _, r := range d.repos {
		if r.Name() == name {
			return r, true
		}
	}
	return nil, false
}

func (d *simplePackageDatabase) Importance(name RepositoryName) int {
	for i, r := range d.repos {
		if r.Name() == name {
			return len(d.repos) - i
		}
	}
	return 0
}
