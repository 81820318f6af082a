package paludis

// AnyGroupID identifies one Any group instance within a single
// sanitization walk, letting the resolver treat its alternatives as a
// scored set (§4.6, §4.7.4).
type AnyGroupID int

// SanitisedDependency is a flattened, label-tagged item produced from an
// ID's raw dependency tree (§3, §4.6).
type SanitisedDependency struct {
	Package    *PackageDepSpec
	Block      *BlockSpec
	Labels     []DependencyLabel
	AlreadyMet bool
	AnyGroup   AnyGroupID // zero means "not part of an Any group"
	Untaken    bool       // never set by the sanitizer; the resolver sets it on suggestions kept for visibility only (SuggestedShow)
}

// InstalledLookup answers "does an installed-at-root ID matching spec
// exist" and its block-complement, used to compute AlreadyMet (§4.6).
type InstalledLookup interface {
	HasInstalledMatch(spec *PackageDepSpec) bool
}

// sanitizer walks a raw dependency tree for one PackageID and role,
// producing the flat SanitisedDependency list.
type sanitizer struct {
	choices      Choices
	eapi         EAPI
	installed    InstalledLookup
	env          Environment
	inProgress   map[string]bool
	nextAnyGroup AnyGroupID
	out          []SanitisedDependency
}

// SanitiseDependencies flattens tree (the raw spec for one dependency role:
// build/run/post/suggested) against id's resolved choices, producing the
// ordered, duplicate-collapsed list described in §4.6.
func SanitiseDependencies(env Environment, eapi EAPI, id PackageID, tree *DepSpecNode, installed InstalledLookup) ([]SanitisedDependency, error) {
	ck := id.ChoicesKey()
	var choices Choices
	if ck != nil {
		choices, _ = ck.ChoicesValue()
	}
	s := &sanitizer{
		choices:    choices,
		eapi:       eapi,
		installed:  installed,
		env:        env,
		inProgress: map[string]bool{},
	}
	if err := s.walk(tree, eapi.DefaultLabels); err != nil {
		return nil, err
	}
	return dedupeSanitised(s.out), nil
}

func (s *sanitizer) walk(n *DepSpecNode, activeLabels []DependencyLabel) error {
	if n == nil {
		return nil
	}
	if len(activeLabels) == 0 {
		// invariant: every emitted item's label set is non-empty (§4.6).
		activeLabels = DefaultLabels
	}
	switch n.Kind {
	case NodeAll:
		labels := activeLabels
		for _, c := range n.Children {
			if c.Kind == NodeLabel {
				labels = c.Labels
				continue
			}
			if err := s.walk(c, labels); err != nil {
				return err
			}
		}
	case NodeConditional:
		if !n.Conditional.ConditionMet(s.choices) {
			return nil
		}
		for _, c := range n.Children {
			if err := s.walk(c, activeLabels); err != nil {
				return err
			}
		}
	case NodeAny:
		s.nextAnyGroup++
		group := s.nextAnyGroup
		for _, c := range n.Children {
			if err := s.walkInAnyGroup(c, activeLabels, group); err != nil {
				return err
			}
		}
	case NodeLabel:
		// A label node outside an All has no following siblings to apply
		// to and is ignored; NodeAll applies labels interleaved with its
		// children to the siblings that follow them.
	case NodeNamedSet:
		if s.inProgress[n.SetName] {
			return &RecursivelyDefinedSet{Name: n.SetName}
		}
		set, ok := s.env.Set(n.SetName)
		if !ok || set == nil {
			return nil
		}
		s.inProgress[n.SetName] = true
		err := s.walk(set.Tree, activeLabels)
		s.inProgress[n.SetName] = false
		return err
	case NodePackage:
		s.out = append(s.out, SanitisedDependency{
			Package:    n.Package,
			Labels:     activeLabels,
			AlreadyMet: s.installed != nil && s.installed.HasInstalledMatch(n.Package),
		})
	case NodeBlock:
		met := true
		if s.installed != nil {
			met = !s.installed.HasInstalledMatch(n.Block.Spec)
		}
		s.out = append(s.out, SanitisedDependency{
			Block:      n.Block,
			Labels:     activeLabels,
			AlreadyMet: met,
		})
	}
	return nil
}

func (s *sanitizer) walkInAnyGroup(n *DepSpecNode, activeLabels []DependencyLabel, group AnyGroupID) error {
	before := len(s.out)
	if err := s.walk(n, activeLabels); err != nil {
		return err
	}
	for i := before; i < len(s.out); i++ {
		s.out[i].AnyGroup = group
	}
	return nil
}

func dedupeSanitised(in []SanitisedDependency) []SanitisedDependency {
	type key struct {
		render string
		block  bool
	}
	seen := map[key]bool{}
	var out []SanitisedDependency
	for _, d := range in {
		var k key
		if d.Package != nil {
			k = key{render: d.Package.Render()}
		} else if d.Block != nil {
			k = key{render: d.Block.Render(), block: true}
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, d)
	}
	return out
}
