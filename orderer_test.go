package paludis

import "testing"

func jobKinds(jobs []Job) []JobKind {
	out := make([]JobKind, len(jobs))
	for i, j := range jobs {
		out[i] = j.Kind
	}
	return out
}

func resolventIndex(jobs []Job, r Resolvent) int {
	for i, j := range jobs {
		if j.Resolvent == r {
			return i
		}
	}
	return -1
}

func TestOrdererOrdersDependencyBeforeDependent(t *testing.T) {
	appR := resolventFor(t, "dev-libs/app")
	libR := resolventFor(t, "dev-libs/lib")
	appID := buildID(t, "dev-libs/app", "1.0", PackageIDSpec{Repository: "gentoo"})
	libID := buildID(t, "dev-libs/lib", "1.0", PackageIDSpec{Repository: "gentoo"})

	g := BuildNAG([]*Resolution{
		{Resolvent: appR, Decision: changeDecision(appID), Arrows: []Arrow{{To: libR, Labels: []DependencyLabel{LabelRun}}}},
		{Resolvent: libR, Decision: changeDecision(libID)},
	})
	jobs, err := NewOrderer(g, nil).Order()
	if err != nil {
		t.Fatalf("Order = %v", err)
	}
	if len(jobs) != 6 {
		t.Fatalf("expected 6 jobs (pretend+fetch+install each), got %d", len(jobs))
	}
	if resolventIndex(jobs, libR) > resolventIndex(jobs, appR) {
		t.Errorf("expected lib's jobs to precede app's, got order %+v", jobs)
	}

	appStart := resolventIndex(jobs, appR)
	if got := jobKinds(jobs[appStart : appStart+3]); got[0] != JobPretend || got[1] != JobFetch || got[2] != JobInstall {
		t.Fatalf("expected app's jobs in pretend, fetch, install order, got %+v", got)
	}

	var install Job
	for _, j := range jobs {
		if j.Resolvent == appR && j.Kind == JobInstall {
			install = j
		}
	}
	var sawOwnFetch, sawLibRequirement bool
	for _, req := range install.Requirements {
		if req.On == appR && req.Kind == RequireAlways {
			sawOwnFetch = true
		}
		if req.On == libR && req.Kind == RequireForSatisfied {
			sawLibRequirement = true
		}
	}
	if !sawOwnFetch {
		t.Errorf("expected app's install job to require its own fetch, got %+v", install.Requirements)
	}
	if !sawLibRequirement {
		t.Errorf("expected app's install job to require lib (run dep), got %+v", install.Requirements)
	}
}

func TestOrdererBreaksCycleOnIndependentEdge(t *testing.T) {
	aR := resolventFor(t, "dev-libs/a")
	bR := resolventFor(t, "dev-libs/b")
	aID := buildID(t, "dev-libs/a", "1.0", PackageIDSpec{Repository: "gentoo"})
	bID := buildID(t, "dev-libs/b", "1.0", PackageIDSpec{Repository: "gentoo"})

	g := BuildNAG([]*Resolution{
		{Resolvent: aR, Decision: changeDecision(aID), Arrows: []Arrow{{To: bR, Labels: []DependencyLabel{LabelRun}}}},
		{Resolvent: bR, Decision: changeDecision(bID), Arrows: []Arrow{{To: aR, Labels: []DependencyLabel{LabelSuggestion}}}},
	})
	jobs, err := NewOrderer(g, nil).Order()
	if err != nil {
		t.Fatalf("expected the suggestion edge to be droppable, got error %v", err)
	}
	if len(jobs) != 6 {
		t.Fatalf("expected both nodes' jobs (pretend+fetch+install each) to survive, got %d", len(jobs))
	}
}

func TestOrdererReportsCircularDependencyWhenUnbreakable(t *testing.T) {
	aR := resolventFor(t, "dev-libs/a")
	bR := resolventFor(t, "dev-libs/b")
	aID := buildID(t, "dev-libs/a", "1.0", PackageIDSpec{Repository: "gentoo"})
	bID := buildID(t, "dev-libs/b", "1.0", PackageIDSpec{Repository: "gentoo"})

	g := BuildNAG([]*Resolution{
		{Resolvent: aR, Decision: changeDecision(aID), Arrows: []Arrow{{To: bR, Labels: []DependencyLabel{LabelBuild}}}},
		{Resolvent: bR, Decision: changeDecision(bID), Arrows: []Arrow{{To: aR, Labels: []DependencyLabel{LabelBuild}}}},
	})
	_, err := NewOrderer(g, nil).Order()
	if err == nil {
		t.Fatalf("expected an unbreakable build-dep cycle to fail")
	}
	if _, ok := err.(*CircularDependency); !ok {
		t.Errorf("expected *CircularDependency, got %T: %v", err, err)
	}
}

func TestTarjanSCCFindsCycle(t *testing.T) {
	aR := resolventFor(t, "dev-libs/a")
	bR := resolventFor(t, "dev-libs/b")
	cR := resolventFor(t, "dev-libs/c")
	wg := &workGraph{
		out:   map[Resolvent][]NAGEdge{aR: {{From: aR, To: bR}}, bR: {{From: bR, To: aR}}, cR: nil},
		order: []Resolvent{aR, bR, cR},
	}
	sccs := tarjanSCC(wg)
	var sawCycle, sawSingleton bool
	for _, scc := range sccs {
		if len(scc) == 2 {
			sawCycle = true
		}
		if len(scc) == 1 && scc[0] == cR {
			sawSingleton = true
		}
	}
	if !sawCycle || !sawSingleton {
		t.Errorf("expected one 2-node SCC and one singleton, got %+v", sccs)
	}
}

func TestTopoSortLinearChain(t *testing.T) {
	aR := resolventFor(t, "dev-libs/a")
	bR := resolventFor(t, "dev-libs/b")
	wg := &workGraph{
		out:   map[Resolvent][]NAGEdge{aR: {{From: aR, To: bR}}, bR: nil},
		order: []Resolvent{aR, bR},
	}
	sorted, err := topoSort(wg)
	if err != nil {
		t.Fatalf("topoSort = %v", err)
	}
	if len(sorted) != 2 || sorted[0] != aR || sorted[1] != bR {
		t.Fatalf("expected [a b], got %+v", sorted)
	}
}

func TestTopoSortReportsCycle(t *testing.T) {
	aR := resolventFor(t, "dev-libs/a")
	bR := resolventFor(t, "dev-libs/b")
	wg := &workGraph{
		out:   map[Resolvent][]NAGEdge{aR: {{From: aR, To: bR}}, bR: {{From: bR, To: aR}}},
		order: []Resolvent{aR, bR},
	}
	_, err := topoSort(wg)
	if err == nil {
		t.Fatalf("expected topoSort to report a cycle")
	}
	if _, ok := err.(*CircularDependency); !ok {
		t.Errorf("expected *CircularDependency, got %T", err)
	}
}
