package paludis

import (
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
)

func TestParseDependencySimpleAtom(t *testing.T) {
	tree, err := ParseDependency("dev-lang/go", DefaultEAPI, false)
	if err != nil {
		t.Fatalf("ParseDependency = %v", err)
	}
	if tree.Kind != NodeAll || len(tree.Children) != 1 {
		t.Fatalf("expected single-child All, got %+v", tree)
	}
	child := tree.Children[0]
	if child.Kind != NodePackage {
		t.Fatalf("expected NodePackage, got kind %v", child.Kind)
	}
	if child.Package.QPN().String() != "dev-lang/go" {
		t.Errorf("QPN = %q", child.Package.QPN())
	}
}

func TestParseDependencyBareShortName(t *testing.T) {
	tree, err := ParseDependency("go", DefaultEAPI, false)
	if err != nil {
		t.Fatalf("ParseDependency = %v", err)
	}
	spec := tree.Children[0].Package
	if spec.Category != "" {
		t.Errorf("expected a bare short name to leave Category empty, got %q", spec.Category)
	}
	if spec.Package != "go" {
		t.Errorf("Package = %q, want %q", spec.Package, "go")
	}
}

func TestParseDependencyVersionedAtom(t *testing.T) {
	tree, err := ParseDependency(">=dev-lang/go-1.20", DefaultEAPI, false)
	if err != nil {
		t.Fatalf("ParseDependency = %v", err)
	}
	spec := tree.Children[0].Package
	if len(spec.Versions.Items) != 1 || spec.Versions.Items[0].Op != OpGreaterEqual {
		t.Fatalf("unexpected version requirements: %+v", spec.Versions)
	}
	if spec.Versions.Items[0].Ver.String() != "1.20" {
		t.Errorf("version = %q", spec.Versions.Items[0].Ver)
	}
}

func TestParseDependencyAnyGroup(t *testing.T) {
	tree, err := ParseDependency("|| ( dev-lang/go dev-lang/rust )", DefaultEAPI, false)
	if err != nil {
		t.Fatalf("ParseDependency = %v", err)
	}
	any := tree.Children[0]
	if any.Kind != NodeAny || len(any.Children) != 2 {
		t.Fatalf("expected a 2-child Any node, got %+v", any)
	}
}

func TestParseDependencyConditional(t *testing.T) {
	tree, err := ParseDependency("static? ( dev-libs/foo )", DefaultEAPI, false)
	if err != nil {
		t.Fatalf("ParseDependency = %v", err)
	}
	cond := tree.Children[0]
	if cond.Kind != NodeConditional || cond.Conditional.Flag != "static" || cond.Conditional.Negated {
		t.Fatalf("unexpected conditional node: %+v", cond)
	}
}

func TestParseDependencyBlocks(t *testing.T) {
	tree, err := ParseDependency("!dev-lang/go !!dev-lang/rust", DefaultEAPI, false)
	if err != nil {
		t.Fatalf("ParseDependency = %v", err)
	}
	if tree.Children[0].Kind != NodeBlock || tree.Children[0].Block.Strong {
		t.Errorf("expected weak block first")
	}
	if tree.Children[1].Kind != NodeBlock || !tree.Children[1].Block.Strong {
		t.Errorf("expected strong block second")
	}
}

func TestParseDependencyRejectsUnterminatedGroup(t *testing.T) {
	if _, err := ParseDependency("|| ( dev-lang/go", DefaultEAPI, false); err == nil {
		t.Errorf("expected error for unterminated || group")
	}
}

func TestForEachVisitsImmediateChildren(t *testing.T) {
	tree, err := ParseDependency("dev-lang/go static? ( dev-libs/foo !dev-libs/bar )", DefaultEAPI, false)
	if err != nil {
		t.Fatalf("ParseDependency = %v", err)
	}
	var kinds []SpecNodeKind
	ForEach(tree, func(n *DepSpecNode) { kinds = append(kinds, n.Kind) })
	if len(kinds) != 2 || kinds[0] != NodePackage || kinds[1] != NodeConditional {
		t.Errorf("ForEach visited %v, want [NodePackage NodeConditional]", kinds)
	}
}

func TestRenderRoundTripsThroughReparse(t *testing.T) {
	const atom = ">=dev-lang/go-1.20:0"
	tree, err := ParseDependency(atom, DefaultEAPI, false)
	if err != nil {
		t.Fatalf("ParseDependency = %v", err)
	}
	rendered := tree.Children[0].Package.Render()

	reparsed, err := ParseDependency(rendered, DefaultEAPI, false)
	if err != nil {
		t.Fatalf("ParseDependency(rendered) = %v", err)
	}
	reRendered := reparsed.Children[0].Package.Render()

	if rendered != reRendered {
		dmp := diffmatchpatch.New()
		diffs := dmp.DiffMain(rendered, reRendered, false)
		t.Errorf("Render did not round-trip:\n%s", dmp.DiffPrettyText(diffs))
	}
}

func TestDepSpecNodeCloneIsDeep(t *testing.T) {
	tree, err := ParseDependency("dev-lang/go", DefaultEAPI, false)
	if err != nil {
		t.Fatal(err)
	}
	clone := tree.Clone()
	clone.Children[0].Package.Category = "mutated"
	if tree.Children[0].Package.Category == "mutated" {
		t.Errorf("Clone did not deep-copy the package spec")
	}
}
