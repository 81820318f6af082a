package paludis

import "testing"

func TestChoicesBuilderDeclareAndBuild(t *testing.T) {
	b := NewChoicesBuilder(DefaultEAPI)
	b.Declare("", "static", false)
	b.Declare("", "debug", true)
	choices := b.Build()

	if choices.IsEnabled("static") {
		t.Errorf("expected static disabled by default")
	}
	if !choices.IsEnabled("debug") {
		t.Errorf("expected debug enabled by default")
	}
	if !choices.ExplicitlyListed("static") {
		t.Errorf("expected static to be explicitly listed")
	}
	if choices.IsEnabled("nonexistent") {
		t.Errorf("unknown flags must read as disabled, not error")
	}
}

func TestChoicesBuilderQueryEnvironmentOverridesDefault(t *testing.T) {
	b := NewChoicesBuilder(DefaultEAPI)
	b.Declare("", "static", false)
	b.QueryEnvironment(func(flag string) (bool, bool) {
		if flag == "static" {
			return true, true
		}
		return false, false
	})
	choices := b.Build()
	if !choices.IsEnabled("static") {
		t.Errorf("expected QueryEnvironment override to enable static")
	}
}

func TestChoicesBuilderForcedAndMaskedLock(t *testing.T) {
	b := NewChoicesBuilder(DefaultEAPI)
	b.Declare("", "static", false)
	b.Declare("", "debug", true)
	b.ApplyForcedAndLocked(map[string]bool{"static": true}, map[string]bool{"debug": true})
	choices := b.Build()

	if !choices.IsEnabled("static") {
		t.Errorf("expected forced flag to be enabled")
	}
	if choices.IsEnabled("debug") {
		t.Errorf("expected masked flag to be disabled")
	}
}

func TestChoicePrefixNameWithPrefix(t *testing.T) {
	b := NewChoicesBuilder(EAPI{ChoicePrefixSep: "_"})
	b.Declare(ChoicePrefixName("cpu"), "sse2", true)
	choices := b.Build()
	if !choices.IsEnabled("cpu_sse2") {
		t.Errorf("expected to resolve a flag by its prefixed name")
	}
	if !choices.IsEnabled("sse2") {
		t.Errorf("expected to resolve a flag by its unprefixed name too")
	}
}

func TestChangedChoicesShadowsBaseWithoutMutating(t *testing.T) {
	b := NewChoicesBuilder(DefaultEAPI)
	b.Declare("", "static", false)
	base := b.Build()

	shadow := NewChangedChoices(base)
	shadow.Set("static", true)

	if !shadow.IsEnabled("static") {
		t.Errorf("expected shadow override to read true")
	}
	if base.IsEnabled("static") {
		t.Errorf("shadow Set must not mutate the base Choices")
	}
}

func TestChoicePredicateConditionMet(t *testing.T) {
	b := NewChoicesBuilder(DefaultEAPI)
	b.Declare("", "static", true)
	choices := b.Build()

	pos := ChoicePredicate{Flag: "static"}
	neg := ChoicePredicate{Flag: "static", Negated: true}
	if !pos.ConditionMet(choices) {
		t.Errorf("expected positive predicate to be met")
	}
	if neg.ConditionMet(choices) {
		t.Errorf("expected negated predicate to not be met")
	}
}
