package paludis

import "testing"

type stubInstalledLookup struct {
	installed map[string]bool
}

func (s stubInstalledLookup) HasInstalledMatch(spec *PackageDepSpec) bool {
	return s.installed[spec.QPN().String()]
}

type stubEnvForSanitize struct {
	sets map[string]*Set
}

func (e stubEnvForSanitize) QueryUse(flag string, id PackageID) bool                 { return false }
func (e stubEnvForSanitize) AcceptKeywords(kws []KeywordName, id PackageID) bool     { return true }
func (e stubEnvForSanitize) AcceptLicense(spec *DepSpecNode, id PackageID) bool      { return true }
func (e stubEnvForSanitize) MaskReasons(id PackageID) []Mask                         { return nil }
func (e stubEnvForSanitize) PackageDatabase() PackageDatabase                        { return nil }
func (e stubEnvForSanitize) TriggerNotifier(ev NotificationEvent)                    {}
func (e stubEnvForSanitize) Distribution() string                                    { return "amd64" }
func (e stubEnvForSanitize) OverridePredicates() OverridePredicates                   { return nil }
func (e stubEnvForSanitize) Set(name string) (*Set, bool) {
	s, ok := e.sets[name]
	return s, ok
}

func mustParseDep(t *testing.T, text string) *DepSpecNode {
	t.Helper()
	tree, err := ParseDependency(text, DefaultEAPI, false)
	if err != nil {
		t.Fatalf("ParseDependency(%q) = %v", text, err)
	}
	return tree
}

func buildIDWithChoices(t *testing.T, choices Choices) PackageID {
	t.Helper()
	qpn, err := NewQualifiedPackageName("dev-lang/go")
	if err != nil {
		t.Fatal(err)
	}
	return NewPackageID(PackageIDSpec{
		Name:    qpn,
		Version: Version{},
		Choices: choices,
	})
}

func TestSanitiseDependenciesFlattensAndLabels(t *testing.T) {
	tree := mustParseDep(t, "dev-libs/foo dev-libs/bar")
	id := buildIDWithChoices(t, Choices{})

	deps, err := SanitiseDependencies(stubEnvForSanitize{}, DefaultEAPI, id, tree, nil)
	if err != nil {
		t.Fatalf("SanitiseDependencies = %v", err)
	}
	if len(deps) != 2 {
		t.Fatalf("expected 2 deps, got %d", len(deps))
	}
	for _, d := range deps {
		if len(d.Labels) == 0 {
			t.Errorf("expected every item to carry a non-empty label set")
		}
	}
}

func TestSanitiseDependenciesSkipsUnmetConditional(t *testing.T) {
	b := NewChoicesBuilder(DefaultEAPI)
	b.Declare("", "static", false)
	id := buildIDWithChoices(t, b.Build())

	tree := mustParseDep(t, "static? ( dev-libs/foo )")
	deps, err := SanitiseDependencies(stubEnvForSanitize{}, DefaultEAPI, id, tree, nil)
	if err != nil {
		t.Fatalf("SanitiseDependencies = %v", err)
	}
	if len(deps) != 0 {
		t.Fatalf("expected conditional with unmet flag to drop its subtree, got %+v", deps)
	}
}

func TestSanitiseDependenciesKeepsMetConditional(t *testing.T) {
	b := NewChoicesBuilder(DefaultEAPI)
	b.Declare("", "static", true)
	id := buildIDWithChoices(t, b.Build())

	tree := mustParseDep(t, "static? ( dev-libs/foo )")
	deps, err := SanitiseDependencies(stubEnvForSanitize{}, DefaultEAPI, id, tree, nil)
	if err != nil {
		t.Fatalf("SanitiseDependencies = %v", err)
	}
	if len(deps) != 1 {
		t.Fatalf("expected conditional with met flag to keep its subtree, got %+v", deps)
	}
}

func TestSanitiseDependenciesAnyGroupTagging(t *testing.T) {
	id := buildIDWithChoices(t, Choices{})
	tree := mustParseDep(t, "|| ( dev-lang/go dev-lang/rust )")
	deps, err := SanitiseDependencies(stubEnvForSanitize{}, DefaultEAPI, id, tree, nil)
	if err != nil {
		t.Fatalf("SanitiseDependencies = %v", err)
	}
	if len(deps) != 2 {
		t.Fatalf("expected 2 any-group alternatives, got %d", len(deps))
	}
	if deps[0].AnyGroup == 0 || deps[0].AnyGroup != deps[1].AnyGroup {
		t.Errorf("expected both alternatives tagged with the same nonzero AnyGroup, got %+v", deps)
	}
}

func TestSanitiseDependenciesAlreadyMet(t *testing.T) {
	id := buildIDWithChoices(t, Choices{})
	tree := mustParseDep(t, "dev-libs/foo")
	lookup := stubInstalledLookup{installed: map[string]bool{"dev-libs/foo": true}}

	deps, err := SanitiseDependencies(stubEnvForSanitize{}, DefaultEAPI, id, tree, lookup)
	if err != nil {
		t.Fatalf("SanitiseDependencies = %v", err)
	}
	if !deps[0].AlreadyMet {
		t.Errorf("expected AlreadyMet=true when an installed match exists")
	}
}

func TestSanitiseDependenciesDeduplicates(t *testing.T) {
	id := buildIDWithChoices(t, Choices{})
	tree := mustParseDep(t, "dev-libs/foo dev-libs/foo")
	deps, err := SanitiseDependencies(stubEnvForSanitize{}, DefaultEAPI, id, tree, nil)
	if err != nil {
		t.Fatalf("SanitiseDependencies = %v", err)
	}
	if len(deps) != 1 {
		t.Fatalf("expected duplicate atoms to collapse to one entry, got %d", len(deps))
	}
}

func TestSanitiseDependenciesNamedSetRecursionGuard(t *testing.T) {
	recursive := &Set{Name: "loop"}
	recursive.Tree = NamedSetNode("loop")
	id := buildIDWithChoices(t, Choices{})

	_, err := SanitiseDependencies(stubEnvForSanitize{sets: map[string]*Set{"loop": recursive}}, DefaultEAPI, id, recursive.Tree, nil)
	if err == nil {
		t.Fatalf("expected RecursivelyDefinedSet error")
	}
	if _, ok := err.(*RecursivelyDefinedSet); !ok {
		t.Errorf("expected *RecursivelyDefinedSet, got %T", err)
	}
}
