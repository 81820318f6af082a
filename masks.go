package paludis

// MaskKind discriminates the sealed Mask variant union from §3:
// Unaccepted(which-key), Unsupported(reason), Association(other-id), User,
// Repository(file, comment-lines).
type MaskKind uint8

const (
	MaskUnaccepted MaskKind = iota
	MaskUnsupported
	MaskAssociation
	MaskUser
	MaskRepository
)

// Mask is a structured reason an ID is not installable. Exactly the fields
// relevant to Kind are populated; this flat-tagged-struct shape follows the
// same closed-union approach as DepSpecNode (§9's "tagged sum types" note).
type Mask struct {
	Kind MaskKind

	WhichKey       string   // Unaccepted
	UnsupportedWhy string   // Unsupported
	AssociatedWith PackageID // Association
	RepoFile       string   // Repository
	RepoComment    []string // Repository
}

func (m Mask) String() string {
	switch m.Kind {
	case MaskUnaccepted:
		return "unaccepted " + m.WhichKey
	case MaskUnsupported:
		return "unsupported: " + m.UnsupportedWhy
	case MaskAssociation:
		return "associated with " + m.AssociatedWith.CanonicalForm(CanonicalFull)
	case MaskUser:
		return "user-masked"
	case MaskRepository:
		return "repository-masked (" + m.RepoFile + ")"
	default:
		return "masked"
	}
}

// OverridePredicate decides whether a particular mask on a particular ID
// can be overridden by the environment's configured policy.
type OverridePredicate func(id PackageID, m Mask) bool

// OverridePredicates is an ordered list of OverridePredicate; a mask is
// overridable if any predicate in the list returns true for it.
type OverridePredicates []OverridePredicate

// Overridable reports whether m on id is overridden by any predicate.
func (ps OverridePredicates) Overridable(id PackageID, m Mask) bool {
	for _, p := range ps {
		if p(id, m) {
			return true
		}
	}
	return false
}

// StronglyMasked reports whether id carries at least one mask that remains
// after applying the override predicates — i.e. at least one of id.Masks()
// is not overridable (§4.5).
func StronglyMasked(id PackageID, overrides OverridePredicates) bool {
	for _, m := range id.Masks() {
		if !overrides.Overridable(id, m) {
			return true
		}
	}
	return false
}

// NotStronglyMasked is the complement, provided for readability at call
// sites (§4.5's "not strongly masked packages may still be offered").
func NotStronglyMasked(id PackageID, overrides OverridePredicates) bool {
	return !StronglyMasked(id, overrides)
}

// maskAssociationsFor turns each ID in an id's ContainedInKey into an
// Association mask (ContainsKey is not consulted), grounded on
// e_installed_repository_id.cc's add_installed_keys (§3 of SPEC_FULL.md).
func maskAssociationsFor(id PackageID) []Mask {
	var out []Mask
	if k := id.ContainedInKey(); k != nil {
		for _, other := range k.idSeq {
			out = append(out, Mask{Kind: MaskAssociation, AssociatedWith: other})
		}
	}
	return out
}
