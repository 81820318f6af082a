package paludis

import "fmt"

// SlotHintKind distinguishes a Resolvent's slot facet: pinned to an exact
// slot, or "any" (the resolver picks one per best-installable).
type SlotHintKind uint8

const (
	SlotHintAny SlotHintKind = iota
	SlotHintExact
)

// SlotHint is the slot facet of a Resolvent.
type SlotHint struct {
	Kind SlotHintKind
	Slot SlotName
}

func (h SlotHint) String() string {
	if h.Kind == SlotHintExact {
		return string(h.Slot)
	}
	return "*"
}

// Resolvent is the resolver's grouping key: package name + slot hint +
// destination type (§3, GLOSSARY).
type Resolvent struct {
	Package     QualifiedPackageName
	Slot        SlotHint
	Destination DestinationType
}

func (r Resolvent) String() string {
	return fmt.Sprintf("%s:%s/%d", r.Package, r.Slot, r.Destination)
}

// ReasonKind discriminates the sealed Reason union (§3).
type ReasonKind uint8

const (
	ReasonTarget ReasonKind = iota
	ReasonSet
	ReasonDependency
	ReasonPreset
	ReasonDependent
	ReasonWasUsedBy
)

// Reason explains why a Constraint exists.
type Reason struct {
	Kind ReasonKind

	SetName       string  // ReasonSet
	Inner         *Reason // ReasonSet's optional inner reason

	FromResolvent Resolvent            // ReasonDependency
	SanitisedDep  SanitisedDependency  // ReasonDependency
}

func (r Reason) String() string {
	switch r.Kind {
	case ReasonTarget:
		return "target"
	case ReasonSet:
		return "set:" + r.SetName
	case ReasonDependency:
		return "dependency from " + r.FromResolvent.String()
	case ReasonPreset:
		return "preset"
	case ReasonDependent:
		return "dependent"
	case ReasonWasUsedBy:
		return "was used by"
	default:
		return "reason"
	}
}

// UseExistingPolicy governs Decide's choice between an existing installed
// ID and a fresh installable one (§4.7.2).
type UseExistingPolicy uint8

const (
	UseExistingNever UseExistingPolicy = iota
	UseExistingOnlyIfTransient
	UseExistingIfSame
	UseExistingIfSameVersion
	UseExistingIfPossible
)

// stricter returns the stricter (more change-favoring) of a, b. Ordered
// from strictest to laxest: Never/OnlyIfTransient > IfSameVersion > IfSame >
// IfPossible.
func stricterUseExisting(a, b UseExistingPolicy) UseExistingPolicy {
	rank := map[UseExistingPolicy]int{
		UseExistingNever: 0, UseExistingOnlyIfTransient: 0,
		UseExistingIfSameVersion: 1, UseExistingIfSame: 2, UseExistingIfPossible: 3,
	}
	if rank[a] <= rank[b] {
		return a
	}
	return b
}

// Constraint is a single demand on a resolvent (§3).
type Constraint struct {
	Spec              *PackageDepSpec
	Block             *BlockSpec
	Reason            Reason
	DestinationType   DestinationType
	NothingIsFineToo  bool
	Untaken           bool
	UseExisting       UseExistingPolicy
}

// Render renders the constraint's spec facet for diagnostics.
func (c Constraint) Render() string {
	if c.Block != nil {
		return c.Block.Render()
	}
	if c.Spec != nil {
		return c.Spec.Render()
	}
	return "<empty constraint>"
}

// Matches reports whether id satisfies this constraint's spec/block facet.
func (c Constraint) Matches(env Environment, id PackageID) bool {
	if c.Block != nil {
		return !MatchPackage(env, c.Block.Spec, id, MatchOptions{})
	}
	if c.Spec != nil {
		return MatchPackage(env, c.Spec, id, MatchOptions{})
	}
	return true
}

// DecisionKind discriminates the sealed Decision union (§3).
type DecisionKind uint8

const (
	DecisionChangesToMake DecisionKind = iota
	DecisionExistingNoChange
	DecisionNothingNoChange
	DecisionRemove
	DecisionUnableToMake
	DecisionBreak
)

// Decision is the resolver's committed outcome for a resolvent (§3).
type Decision struct {
	Kind Kind
	// ChangesToMake
	OriginID    PackageID
	Best        bool
	Destination *DestinationType
	// ExistingNoChange
	ExistingID    PackageID
	IsSame        bool
	IsSameVersion bool
	IsTransient   bool
	// RemoveDecision
	RemoveIDs []PackageID
	// UnableToMake
	UnsuitableCandidates []UnsuitableCandidate
	// common
	Taken bool
}

// Kind is an alias retained for readability at call sites (Decision.Kind).
type Kind = DecisionKind

// IsChangeOrRemove reports whether this decision represents actual work
// (ChangesToMake or RemoveDecision), as opposed to a no-op or failure.
func (d Decision) IsChangeOrRemove() bool {
	return d.Kind == DecisionChangesToMake || d.Kind == DecisionRemove
}

// ID returns the decision's "subject" PackageID where one exists: the
// origin ID for a change, the existing ID for a no-change decision. It
// returns nil for Remove/UnableToMake/Break.
func (d Decision) ID() PackageID {
	switch d.Kind {
	case DecisionChangesToMake:
		return d.OriginID
	case DecisionExistingNoChange:
		return d.ExistingID
	default:
		return nil
	}
}

// Resolution is the accumulated decision state for one resolvent (§3).
type Resolution struct {
	Resolvent           Resolvent
	Constraints         []Constraint
	Decision            *Decision
	SanitisedDeps       []SanitisedDependency
	AlreadyOrdered      bool
	Arrows              []Arrow
}

// Arrow is a dependency edge recorded against a Resolution during
// apply_constraint, later consumed by the orderer to build the NAG (§3).
type Arrow struct {
	To     Resolvent
	Labels []DependencyLabel
}

// debugDump renders a resolution's full decision/constraint/mask history
// for diagnostics, in the style of cave's show command. Nothing calls it,
// and it is not reachable from a CLI surface.
func (r *Resolution) debugDump() string {
	out := r.Resolvent.String() + "\n"
	for _, c := range r.Constraints {
		out += "  constraint: " + c.Render() + " (" + c.Reason.String() + ")\n"
	}
	if r.Decision != nil {
		out += fmt.Sprintf("  decision: kind=%d taken=%v\n", r.Decision.Kind, r.Decision.Taken)
	}
	return out
}
