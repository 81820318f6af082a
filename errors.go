package paludis

import (
	"fmt"
	"strings"
)

// paludisError is the sealing method shared by every error type the core
// raises, so a reviewer can grep one identifier to find the whole taxonomy.
type paludisErrorMarker interface {
	paludisError()
}

// AmbiguousPackageName reports that a short name matched more than one
// category.
type AmbiguousPackageName struct {
	Input      string
	Candidates []QualifiedPackageName
}

func (e *AmbiguousPackageName) Error() string {
	names := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		names[i] = c.String()
	}
	return fmt.Sprintf("ambiguous package name %q, candidates: %s", e.Input, strings.Join(names, ", "))
}
func (*AmbiguousPackageName) paludisError() {}

// NoSuchPackage reports that no repository knows the requested name.
type NoSuchPackage struct {
	Name string
}

func (e *NoSuchPackage) Error() string { return fmt.Sprintf("no such package %q", e.Name) }
func (*NoSuchPackage) paludisError()   {}

// UnsuitableCandidate pairs a candidate PackageID with the constraints it
// failed to satisfy, used by UnableToMakeDecision.
type UnsuitableCandidate struct {
	ID             PackageID
	UnmetReasons   []string
	MaskReasons    []Mask
}

// UnableToMakeDecision reports one resolvent the resolver could not decide:
// either it had no matching candidate at all, or every candidate it found
// was masked or failed some other constraint. Resolve never raises this as
// a fatal error; it is recorded on the Decision (DecisionUnableToMake) and
// surfaced to collaborators via Resolver.ResolutionLists().Errors (§6).
type UnableToMakeDecision struct {
	Resolvent  Resolvent
	Candidates []UnsuitableCandidate
}

func (e *UnableToMakeDecision) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "unable to make a decision for %s:", e.Resolvent)
	for _, c := range e.Candidates {
		fmt.Fprintf(&b, "\n\t%s: %d mask(s)", c.ID.CanonicalForm(CanonicalFull), len(c.MaskReasons))
	}
	if len(e.Candidates) == 0 {
		b.WriteString(" no candidates found")
	}
	return b.String()
}
func (*UnableToMakeDecision) paludisError() {}

// UseRequirementsNotMet reports that a choice predicate attached to a spec
// cannot be satisfied by the given id.
type UseRequirementsNotMet struct {
	Spec  *PackageDepSpec
	ID    PackageID
	Which string
}

func (e *UseRequirementsNotMet) Error() string {
	return fmt.Sprintf("use requirement %q not met by %s for %s", e.Which, e.ID.CanonicalForm(CanonicalFull), e.Spec.Render())
}
func (*UseRequirementsNotMet) paludisError() {}

// NoResolvableOption reports that every child of an Any group failed.
type NoResolvableOption struct {
	Errors []error
}

func (e *NoResolvableOption) Error() string {
	var b strings.Builder
	b.WriteString("no resolvable option among alternatives:")
	for _, err := range e.Errors {
		fmt.Fprintf(&b, "\n\t%s", err.Error())
	}
	return b.String()
}
func (*NoResolvableOption) paludisError() {}

// CircularDependency reports a cycle the orderer could not break.
type CircularDependency struct {
	Path []Resolvent
}

func (e *CircularDependency) Error() string {
	parts := make([]string, len(e.Path))
	for i, r := range e.Path {
		parts[i] = r.String()
	}
	return "circular dependency: " + strings.Join(parts, " -> ")
}
func (*CircularDependency) paludisError() {}

// StackTooDeep reports that decide()'s recursion limit was hit.
type StackTooDeep struct {
	Depth int
}

func (e *StackTooDeep) Error() string {
	return fmt.Sprintf("resolution stack too deep (depth %d), raise the limit or narrow the request", e.Depth)
}
func (*StackTooDeep) paludisError() {}

// BlockError reports that a strong block could not be satisfied.
type BlockError struct {
	Blocker  PackageID
	Blocked  []PackageID
	Msg      string
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("block error: %s", e.Msg)
}
func (*BlockError) paludisError() {}

// MultipleSetTargets reports that more than one set name was requested when
// at most one was permitted.
type MultipleSetTargets struct {
	Names []string
}

func (e *MultipleSetTargets) Error() string {
	return "multiple set targets: " + strings.Join(e.Names, ", ")
}
func (*MultipleSetTargets) paludisError() {}

// HadBothPackageAndSetTargets reports a mixed target list that mixed
// package specs and set names where that combination is disallowed.
type HadBothPackageAndSetTargets struct{}

func (e *HadBothPackageAndSetTargets) Error() string {
	return "targets mixed package specs and set names"
}
func (*HadBothPackageAndSetTargets) paludisError() {}

// RecursivelyDefinedSet reports that a named set referenced itself while
// being expanded.
type RecursivelyDefinedSet struct {
	Name string
}

func (e *RecursivelyDefinedSet) Error() string {
	return fmt.Sprintf("set %q is recursively defined", e.Name)
}
func (*RecursivelyDefinedSet) paludisError() {}

// suggestRestart is the resolver's internal, non-fatal control signal
// described in §4.7.3 / §4.9. It is never returned from a public method; the
// driver loop in Resolver.Resolve recognizes and consumes it directly. Kept
// as a typed error value rather than a panic, per the design notes in §9.
type suggestRestart struct {
	resolvent         Resolvent
	old               Decision
	constraint        Constraint
	new               Decision
	preloadConstraint Constraint
}

func (e *suggestRestart) Error() string {
	return fmt.Sprintf("suggest restart for %s", e.resolvent)
}
func (*suggestRestart) paludisError() {}
