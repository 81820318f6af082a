package paludis

import (
	"context"
	"sort"

	"github.com/exherbo/paludis-resolve/internal/radix"
)

// Generator produces an initial (possibly large) candidate ID sequence
// from a PackageDatabase. Filters then narrow it; a Selection imposes
// final ordering semantics (§4.4).
type Generator func(ctx context.Context, db PackageDatabase) ([]PackageID, error)

// Filter narrows a candidate sequence.
type Filter func(ids []PackageID) []PackageID

// Query composes one Generator with zero or more Filters.
type Query struct {
	Gen     Generator
	Filters []Filter
}

// Run executes the generator then applies every filter in order.
func (q Query) Run(ctx context.Context, db PackageDatabase) ([]PackageID, error) {
	ids, err := q.Gen(ctx, db)
	if err != nil {
		return nil, err
	}
	for _, f := range q.Filters {
		ids = f(ids)
	}
	return ids, nil
}

// And appends filters to the query, returning a new Query value (Query is
// small and value-typed, so this never aliases the receiver's slice).
func (q Query) And(filters ...Filter) Query {
	q2 := q
	q2.Filters = append(append([]Filter(nil), q.Filters...), filters...)
	return q2
}

// buildNameIndex indexes every bare package name a PackageDatabase currently
// knows about onto the qualified names (one or more categories) it appears
// under, backing resolveShortName's disambiguation below. Built afresh on
// every short-name lookup and then discarded, so each lookup lists every
// repository's categories and their packages; any caching of those listings
// is left to the repositories (§4.4 "lazy and cached").
func buildNameIndex(ctx context.Context, db PackageDatabase) (radix.StringSetTrie, error) {
	idx := radix.New()
	for _, repo := range db.Repositories() {
		cats, err := repo.CategoryNames(ctx)
		if err != nil {
			return idx, err
		}
		for _, cat := range cats {
			pkgs, err := repo.PackageNames(ctx, cat)
			if err != nil {
				return idx, err
			}
			for _, pkg := range pkgs {
				key := string(pkg)
				qpn := string(cat) + "/" + string(pkg)
				existing, _ := idx.Get(key)
				if !containsString(existing, qpn) {
					idx.Insert(key, append(existing, qpn))
				}
			}
		}
	}
	return idx, nil
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// resolveShortName disambiguates a bare package name (no category given) by
// looking it up in buildNameIndex against every repository db currently
// knows about (§4.1): NoSuchPackage if no category provides it,
// AmbiguousPackageName if more than one does.
func resolveShortName(ctx context.Context, db PackageDatabase, name PackageNamePart) (QualifiedPackageName, error) {
	idx, err := buildNameIndex(ctx, db)
	if err != nil {
		return QualifiedPackageName{}, err
	}
	matches, ok := idx.Get(string(name))
	if !ok || len(matches) == 0 {
		return QualifiedPackageName{}, &NoSuchPackage{Name: string(name)}
	}
	if len(matches) > 1 {
		candidates := make([]QualifiedPackageName, 0, len(matches))
		for _, m := range matches {
			qpn, err := NewQualifiedPackageName(m)
			if err != nil {
				return QualifiedPackageName{}, err
			}
			candidates = append(candidates, qpn)
		}
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].Less(candidates[j]) })
		return QualifiedPackageName{}, &AmbiguousPackageName{Input: string(name), Candidates: candidates}
	}
	return NewQualifiedPackageName(matches[0])
}

// GeneratorAll yields every ID from every repository.
func GeneratorAll() Generator {
	return func(ctx context.Context, db PackageDatabase) ([]PackageID, error) {
		var out []PackageID
		for _, repo := range db.Repositories() {
			cats, err := repo.CategoryNames(ctx)
			if err != nil {
				return nil, err
			}
			for _, cat := range cats {
				pkgs, err := repo.PackageNames(ctx, cat)
				if err != nil {
					return nil, err
				}
				for _, pkg := range pkgs {
					ids, err := repo.PackageIDs(ctx, QualifiedPackageName{Category: cat, Package: pkg})
					if err != nil {
						return nil, err
					}
					out = append(out, ids...)
				}
			}
		}
		return out, nil
	}
}

// GeneratorPackage yields every ID for exactly one qualified package name,
// across every repository in db.
func GeneratorPackage(qpn QualifiedPackageName) Generator {
	return func(ctx context.Context, db PackageDatabase) ([]PackageID, error) {
		var out []PackageID
		for _, repo := range db.Repositories() {
			ids, err := repo.PackageIDs(ctx, qpn)
			if err != nil {
				return nil, err
			}
			out = append(out, ids...)
		}
		return out, nil
	}
}

// GeneratorInRepository yields every ID known to a single named repository.
func GeneratorInRepository(name RepositoryName) Generator {
	return func(ctx context.Context, db PackageDatabase) ([]PackageID, error) {
		repo, ok := db.RepositoryNamed(name)
		if !ok {
			return nil, nil
		}
		cats, err := repo.CategoryNames(ctx)
		if err != nil {
			return nil, err
		}
		var out []PackageID
		for _, cat := range cats {
			pkgs, err := repo.PackageNames(ctx, cat)
			if err != nil {
				return nil, err
			}
			for _, pkg := range pkgs {
				ids, err := repo.PackageIDs(ctx, QualifiedPackageName{Category: cat, Package: pkg})
				if err != nil {
					return nil, err
				}
				out = append(out, ids...)
			}
		}
		return out, nil
	}
}

// MatchOptions tunes match_package's strictness (§4.4).
type MatchOptions struct {
	// IgnoreAdditionalRequirements skips choice predicates entirely.
	IgnoreAdditionalRequirements bool
}

// GeneratorMatches yields every ID, across every repository, that
// MatchPackage accepts for spec. A short name (Category empty, Package set)
// is disambiguated via resolveShortName before generating candidates; a
// fully wildcarded spec (neither set) still falls back to scanning
// everything.
func GeneratorMatches(env Environment, spec *PackageDepSpec, opts MatchOptions) Generator {
	return func(ctx context.Context, db PackageDatabase) ([]PackageID, error) {
		var gen Generator
		switch {
		case spec.Category != "":
			gen = GeneratorPackage(spec.QPN())
		case spec.Package != "":
			resolved, err := resolveShortName(ctx, db, spec.Package)
			if err != nil {
				return nil, err
			}
			gen = GeneratorPackage(resolved)
		default:
			gen = GeneratorAll()
		}
		ids, err := gen(ctx, db)
		if err != nil {
			return nil, err
		}
		var out []PackageID
		for _, id := range ids {
			if MatchPackage(env, spec, id, opts) {
				out = append(out, id)
			}
		}
		return out, nil
	}
}

// FilterSupportsAction keeps only IDs supporting the given action.
func FilterSupportsAction(kind ActionKind) Filter {
	return func(ids []PackageID) []PackageID {
		var out []PackageID
		for _, id := range ids {
			if id.SupportsAction(kind) {
				out = append(out, id)
			}
		}
		return out
	}
}

// FilterNotMasked keeps only unmasked IDs.
func FilterNotMasked() Filter {
	return func(ids []PackageID) []PackageID {
		var out []PackageID
		for _, id := range ids {
			if !id.Masked() {
				out = append(out, id)
			}
		}
		return out
	}
}

// FilterInstalledAtRoot keeps only IDs whose repository is an installed-root
// repository at the given root. Unlike the filters above it needs the
// PackageDatabase, to map an ID back to its Repository.
func FilterInstalledAtRoot(db PackageDatabase, root string) Filter {
	return func(ids []PackageID) []PackageID {
		var out []PackageID
		for _, id := range ids {
			repo, ok := db.RepositoryNamed(id.Repository())
			if ok && repo.InstalledRootKey() == root {
				out = append(out, id)
			}
		}
		return out
	}
}

// FilterSlot keeps only IDs in the given slot.
func FilterSlot(slot SlotName) Filter {
	return func(ids []PackageID) []PackageID {
		var out []PackageID
		for _, id := range ids {
			if SlotOf(id) == slot {
				out = append(out, id)
			}
		}
		return out
	}
}

// SelectAllVersionsSorted returns every ID best-version-first.
func SelectAllVersionsSorted(ids []PackageID, cmp PackageIDComparator) []PackageID {
	out := append([]PackageID(nil), ids...)
	sort.SliceStable(out, func(i, j int) bool { return cmp.Less(out[i], out[j]) })
	return out
}

// SelectAllVersionsUnsorted returns ids verbatim.
func SelectAllVersionsUnsorted(ids []PackageID) []PackageID { return ids }

// SelectBestVersionOnly returns the single best ID under cmp, or nil.
func SelectBestVersionOnly(ids []PackageID, cmp PackageIDComparator) PackageID {
	sorted := SelectAllVersionsSorted(ids, cmp)
	if len(sorted) == 0 {
		return nil
	}
	return sorted[0]
}

// SelectBestVersionInEachSlot groups by slot and returns each slot's best.
func SelectBestVersionInEachSlot(ids []PackageID, cmp PackageIDComparator) []PackageID {
	grouped := SelectAllVersionsGroupedBySlot(ids, cmp)
	var out []PackageID
	for _, g := range grouped {
		if len(g) > 0 {
			out = append(out, g[0])
		}
	}
	return out
}

// SelectAllVersionsGroupedBySlot groups ids by slot, each group sorted
// best-first, with groups ordered by each group's best ID under cmp.
func SelectAllVersionsGroupedBySlot(ids []PackageID, cmp PackageIDComparator) [][]PackageID {
	bySlot := map[SlotName][]PackageID{}
	var order []SlotName
	for _, id := range ids {
		slot := SlotOf(id)
		if _, seen := bySlot[slot]; !seen {
			order = append(order, slot)
		}
		bySlot[slot] = append(bySlot[slot], id)
	}
	groups := make([][]PackageID, 0, len(order))
	for _, slot := range order {
		groups = append(groups, SelectAllVersionsSorted(bySlot[slot], cmp))
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if len(groups[i]) == 0 || len(groups[j]) == 0 {
			return len(groups[i]) > len(groups[j])
		}
		return cmp.Less(groups[i][0], groups[j][0])
	})
	return groups
}

// SelectSomeArbitraryVersion returns any one matching ID, preferring the
// first the underlying generator produced (no sort, for speed when the
// caller only needs existence).
func SelectSomeArbitraryVersion(ids []PackageID) PackageID {
	if len(ids) == 0 {
		return nil
	}
	return ids[0]
}

// MatchPackage returns true iff id satisfies spec's category, package,
// version requirements, exact slot, in-repository, from-repository and
// (unless opts ignores them) additional-requirement facets. The
// installed-at-path and installable-to facets are not checked.
func MatchPackage(env Environment, spec *PackageDepSpec, id PackageID, opts MatchOptions) bool {
	if spec.Category != "" && spec.Category != id.Name().Category {
		return false
	}
	if spec.Package != "" && spec.Package != id.Name().Package {
		return false
	}
	if !spec.Versions.Matches(id.Version()) {
		return false
	}
	switch spec.Slot.Kind {
	case SlotExact:
		if SlotOf(id) != spec.Slot.Slot {
			return false
		}
	}
	if spec.InRepository != "" && spec.InRepository != id.Repository() {
		return false
	}
	if spec.FromRepository != "" {
		k := id.FromRepositoriesKey()
		if k == nil {
			return false
		}
		found := false
		for _, s := range k.stringSeq {
			if s == string(spec.FromRepository) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !opts.IgnoreAdditionalRequirements {
		ck := id.ChoicesKey()
		var choices Choices
		if ck != nil {
			choices, _ = ck.ChoicesValue()
		}
		for _, req := range spec.AdditionalRequirements {
			if !req.ConditionMet(choices) {
				return false
			}
		}
	}
	return true
}
