package main

import (
	"strings"

	paludis "github.com/exherbo/paludis-resolve"
)

// simpleEnvironment is a minimal Environment good enough to drive a
// one-shot CLI resolve: a USE flag takes its -use override if one was given,
// else the ID's own choice value, else false; a keyword list is accepted if
// it is empty or names the distribution, "~" plus the distribution, or an
// extra keyword passed to newSimpleEnvironment; no masks are computed beyond
// whatever the repository itself already attached to an ID, and named sets
// are looked up in an in-memory table that starts empty and that nothing
// fills. This is the CLI's analogue of the teacher's dep.Context: a
// single concrete configuration object built once in main() and threaded
// through, not a pluggable abstraction layer.
type simpleEnvironment struct {
	db           paludis.PackageDatabase
	distribution string
	enabledUse   map[string]bool
	acceptedKws  map[string]bool
	sets         map[string]*paludis.Set
	overrides    paludis.OverridePredicates
	sink         paludis.NotificationSink
}

func newSimpleEnvironment(db paludis.PackageDatabase, distribution string, extraUse, extraKeywords []string, sink paludis.NotificationSink) *simpleEnvironment {
	e := &simpleEnvironment{
		db:           db,
		distribution: distribution,
		enabledUse:   map[string]bool{},
		acceptedKws:  map[string]bool{distribution: true, "~" + distribution: true},
		sets:         map[string]*paludis.Set{},
		sink:         sink,
	}
	for _, u := range extraUse {
		e.enabledUse[strings.TrimPrefix(u, "-")] = !strings.HasPrefix(u, "-")
	}
	for _, k := range extraKeywords {
		e.acceptedKws[k] = true
	}
	return e
}

func (e *simpleEnvironment) QueryUse(flag string, id paludis.PackageID) bool {
	if v, ok := e.enabledUse[flag]; ok {
		return v
	}
	if id.ChoicesKey() != nil {
		choices, err := id.ChoicesKey().ChoicesValue()
		if err == nil {
			return choices.IsEnabled(flag)
		}
	}
	return false
}

func (e *simpleEnvironment) AcceptKeywords(kws []paludis.KeywordName, id paludis.PackageID) bool {
	if len(kws) == 0 {
		return true
	}
	for _, kw := range kws {
		if e.acceptedKws[string(kw)] {
			return true
		}
	}
	return false
}

func (e *simpleEnvironment) AcceptLicense(spec *paludis.DepSpecNode, id paludis.PackageID) bool {
	return true
}

func (e *simpleEnvironment) MaskReasons(id paludis.PackageID) []paludis.Mask {
	return id.Masks()
}

func (e *simpleEnvironment) PackageDatabase() paludis.PackageDatabase { return e.db }

func (e *simpleEnvironment) Set(name string) (*paludis.Set, bool) {
	s, ok := e.sets[name]
	return s, ok
}

func (e *simpleEnvironment) TriggerNotifier(ev paludis.NotificationEvent) {
	if e.sink != nil {
		e.sink.Notify(ev)
	}
}

func (e *simpleEnvironment) Distribution() string { return e.distribution }

func (e *simpleEnvironment) OverridePredicates() paludis.OverridePredicates { return e.overrides }
