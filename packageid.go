package paludis

import (
	"fmt"
	"sync"
)

// ActionKind enumerates the action types a PackageID may support, mirroring
// the external action layer's SupportsActionTest<kind> probe (§6).
type ActionKind uint8

const (
	ActionInstall ActionKind = iota
	ActionUninstall
	ActionFetch
	ActionPretend
	ActionInfo
)

// CanonicalFormKind selects how CanonicalForm renders a PackageID.
type CanonicalFormKind uint8

const (
	// CanonicalFull renders "name-version:slot::repository".
	CanonicalFull CanonicalFormKind = iota
	// CanonicalNoVersion renders "name::repository".
	CanonicalNoVersion
)

// PackageID is a contract, not a class hierarchy (§4.3): any type may
// implement it, but in practice every ID in this module is built through
// NewPackageID and mutated only through its lazy metadata-key accessors.
type PackageID interface {
	Name() QualifiedPackageName
	Version() Version
	Repository() RepositoryName
	CanonicalForm(CanonicalFormKind) string
	SupportsAction(ActionKind) bool
	Masked() bool
	Masks() []Mask
	OverriddenMasks() []Mask
	ArbitraryLessThan(other PackageID) bool
	ExtraHash() uint64

	KeywordsKey() *MetadataKey
	ChoicesKey() *MetadataKey
	BuildDependenciesKey() *MetadataKey
	RunDependenciesKey() *MetadataKey
	PostDependenciesKey() *MetadataKey
	SuggestedDependenciesKey() *MetadataKey
	ProvideKey() *MetadataKey
	SlotKey() *MetadataKey
	TransientKey() *MetadataKey
	FromRepositoriesKey() *MetadataKey
	ContainsKey() *MetadataKey
	ContainedInKey() *MetadataKey
}

// packageID is the concrete, arena-friendly implementation of PackageID.
// Instances are immutable after construction: NewPackageID builds every
// metadata key already realized, and no method takes mu.
type packageID struct {
	mu sync.Mutex

	name       QualifiedPackageName
	version    Version
	repository RepositoryName
	actions    map[ActionKind]bool
	masks      []Mask
	overridden []Mask

	keywords   *MetadataKey
	choices    *MetadataKey
	buildDeps  *MetadataKey
	runDeps    *MetadataKey
	postDeps   *MetadataKey
	suggested  *MetadataKey
	provide    *MetadataKey
	slot       *MetadataKey
	transient  *MetadataKey
	fromRepos  *MetadataKey
	contains   *MetadataKey
	containedIn *MetadataKey
}

// PackageIDSpec describes the construction-time data for a packageID; it
// exists so NewPackageID has one clear, named-field call site instead of a
// dozen positional arguments.
type PackageIDSpec struct {
	Name       QualifiedPackageName
	Version    Version
	Repository RepositoryName
	Actions    map[ActionKind]bool
	Masks      []Mask
	Overridden []Mask

	Keywords  []KeywordName
	Choices   Choices
	BuildDeps *DepSpecNode
	RunDeps   *DepSpecNode
	PostDeps  *DepSpecNode
	Suggested *DepSpecNode
	Slot      SlotName
	Transient bool
}

// NewPackageID builds an immutable PackageID from a spec, eagerly wrapping
// every facet into its MetadataKey (the facets are already in memory in
// tests/fixtures, so there is nothing to lazily defer; a real repository
// backend would instead pass NewLazySpecTreeKey-style keys built from
// on-disk metadata).
func NewPackageID(spec PackageIDSpec) PackageID {
	id := &packageID{
		name: spec.Name, version: spec.Version, repository: spec.Repository,
		actions: spec.Actions, masks: spec.Masks, overridden: spec.Overridden,
	}
	if spec.Keywords != nil {
		id.keywords = NewKeywordSetKey("KEYWORDS", spec.Keywords)
	}
	id.choices = NewChoicesKey("IUSE", spec.Choices)
	if spec.BuildDeps != nil {
		id.buildDeps = NewSpecTreeKey("DEPEND", KindSpecTreeDependency, spec.BuildDeps)
	}
	if spec.RunDeps != nil {
		id.runDeps = NewSpecTreeKey("RDEPEND", KindSpecTreeDependency, spec.RunDeps)
	}
	if spec.PostDeps != nil {
		id.postDeps = NewSpecTreeKey("PDEPEND", KindSpecTreeDependency, spec.PostDeps)
	}
	if spec.Suggested != nil {
		id.suggested = NewSpecTreeKey("SUGGESTED", KindSpecTreeDependency, spec.Suggested)
	}
	if spec.Slot != "" {
		id.slot = &MetadataKey{Human: "SLOT", Tag: TagSignificant, Kind: KindValueSlot, slotValue: spec.Slot, realized: true}
	}
	id.transient = &MetadataKey{Human: "TRANSIENT", Tag: TagInternal, Kind: KindValueBool, boolValue: spec.Transient, realized: true}
	return id
}

func (p *packageID) Name() QualifiedPackageName   { return p.name }
func (p *packageID) Version() Version             { return p.version }
func (p *packageID) Repository() RepositoryName   { return p.repository }

func (p *packageID) CanonicalForm(kind CanonicalFormKind) string {
	switch kind {
	case CanonicalNoVersion:
		return fmt.Sprintf("%s::%s", p.name, p.repository)
	default:
		slot := ""
		if p.slot != nil {
			slot = ":" + string(p.slot.slotValue)
		}
		return fmt.Sprintf("%s-%s%s::%s", p.name, p.version, slot, p.repository)
	}
}

func (p *packageID) SupportsAction(kind ActionKind) bool { return p.actions[kind] }
func (p *packageID) Masked() bool                        { return len(p.masks) > 0 }
func (p *packageID) Masks() []Mask                        { return p.masks }
func (p *packageID) OverriddenMasks() []Mask               { return p.overridden }

// ArbitraryLessThan is PackageIDComparator's tie-break: compares version
// first, then falls back to repository name for a total, if arbitrary,
// order.
func (p *packageID) ArbitraryLessThan(other PackageID) bool {
	if c := p.version.Compare(other.Version()); c != 0 {
		return c < 0
	}
	return p.repository < other.Repository()
}

func (p *packageID) ExtraHash() uint64 {
	return p.version.Hash() ^ uint64(len(p.repository))
}

func (p *packageID) KeywordsKey() *MetadataKey               { return p.keywords }
func (p *packageID) ChoicesKey() *MetadataKey                 { return p.choices }
func (p *packageID) BuildDependenciesKey() *MetadataKey       { return p.buildDeps }
func (p *packageID) RunDependenciesKey() *MetadataKey         { return p.runDeps }
func (p *packageID) PostDependenciesKey() *MetadataKey        { return p.postDeps }
func (p *packageID) SuggestedDependenciesKey() *MetadataKey   { return p.suggested }
func (p *packageID) ProvideKey() *MetadataKey                 { return p.provide }
func (p *packageID) SlotKey() *MetadataKey                    { return p.slot }
func (p *packageID) TransientKey() *MetadataKey               { return p.transient }
func (p *packageID) FromRepositoriesKey() *MetadataKey        { return p.fromRepos }
func (p *packageID) ContainsKey() *MetadataKey                { return p.contains }
func (p *packageID) ContainedInKey() *MetadataKey             { return p.containedIn }

// SlotOf returns the id's slot name, or "" if it carries no SlotKey.
func SlotOf(id PackageID) SlotName {
	k := id.SlotKey()
	if k == nil {
		return ""
	}
	return k.slotValue
}

// IsTransient reports whether the id is marked transient (e.g. a virtual
// stand-in, never actually fetched/built).
func IsTransient(id PackageID) bool {
	k := id.TransientKey()
	return k != nil && k.boolValue
}

// PackageIDComparator fixes a total order over PackageIDs: version first,
// then repository importance (destination-aware — installed roots rank
// above mirrors of the same name), then ArbitraryLessThan as a last resort.
type PackageIDComparator struct {
	// RepositoryImportance ranks repositories; higher sorts first. Missing
	// entries rank as 0.
	RepositoryImportance map[RepositoryName]int
	// InstalledRoots marks which repositories are installed-root repositories,
	// which outrank same-named mirror repositories at equal version.
	InstalledRoots map[RepositoryName]bool
}

// Less reports whether a sorts before b under this comparator.
func (c PackageIDComparator) Less(a, b PackageID) bool {
	if cv := a.Version().Compare(b.Version()); cv != 0 {
		return cv > 0 // higher version sorts first in "best" order
	}
	ai, bi := installedHelper(a, c), installedHelper(b, c)
	if ai != bi {
		return ai
	}
	if imp := c.RepositoryImportance; imp != nil {
		if imp[a.Repository()] != imp[b.Repository()] {
			return imp[a.Repository()] > imp[b.Repository()]
		}
	}
	return a.ArbitraryLessThan(b)
}

// installedHelper is a tiny adapter so Less can treat "is this an installed-root
// repository" as a property of the comparator's configuration rather than
// the PackageID interface itself.
func installedHelper(id PackageID, c PackageIDComparator) bool {
	if c.InstalledRoots == nil {
		return false
	}
	return c.InstalledRoots[id.Repository()]
}
