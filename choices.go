package paludis

// ChoiceValue is one flag within a Choice group: {enabled, locked,
// explicitly-listed, description, unprefixed-name, name-with-prefix}.
type ChoiceValue struct {
	UnprefixedName   string
	Description      string
	Enabled          bool
	Locked           bool
	ExplicitlyListed bool
	prefix           ChoicePrefixName
	sep              string
}

// NameWithPrefix renders "prefix + separator + unprefixed", or just the
// unprefixed name when there is no prefix.
func (v ChoiceValue) NameWithPrefix() string {
	if v.prefix == "" {
		return v.UnprefixedName
	}
	return string(v.prefix) + v.sep + v.UnprefixedName
}

// Choice is an ordered group of ChoiceValues sharing a prefix.
type Choice struct {
	Prefix         ChoicePrefixName
	ShowNoPrefix   bool
	Hidden         bool
	Values         []ChoiceValue
}

// Choices is an ordered collection of Choice groups, the full resolved
// choice (USE) state for one PackageID.
type Choices struct {
	Groups []Choice
}

// find locates a value by either its unprefixed or prefixed name.
func (c Choices) find(name string) (ChoiceValue, bool) {
	for _, g := range c.Groups {
		for _, v := range g.Values {
			if v.UnprefixedName == name || v.NameWithPrefix() == name {
				return v, true
			}
		}
	}
	return ChoiceValue{}, false
}

// IsEnabled reports whether the named flag is enabled. An unknown flag is
// treated as disabled — matching Paludis's convention that referencing an
// IUSE-absent flag in a conditional is false, not an error.
func (c Choices) IsEnabled(name string) bool {
	v, ok := c.find(name)
	return ok && v.Enabled
}

// ExplicitlyListed reports whether name appears in the id's declared choice
// set at all (IUSE-like), regardless of its enabled state.
func (c Choices) ExplicitlyListed(name string) bool {
	v, ok := c.find(name)
	return ok && v.ExplicitlyListed
}

// ChangedChoices is a shadow view over a base Choices in which individual
// flags' Enabled bits can be overridden, leaving everything else identical.
// Used to build the "would this be satisfied if we changed these flags"
// view without mutating the original (ChangedChoices in §4.5).
type ChangedChoices struct {
	base      Choices
	overrides map[string]bool
}

// NewChangedChoices starts a shadow view over base with no overrides yet.
func NewChangedChoices(base Choices) *ChangedChoices {
	return &ChangedChoices{base: base, overrides: map[string]bool{}}
}

// Set records a hypothetical override for a flag.
func (c *ChangedChoices) Set(name string, value bool) {
	c.overrides[name] = value
}

// IsEnabled evaluates name against the shadow overrides, falling back to
// the base Choices when no override is recorded.
func (c *ChangedChoices) IsEnabled(name string) bool {
	if v, ok := c.overrides[name]; ok {
		return v
	}
	return c.base.IsEnabled(name)
}

// ConditionMetUnder evaluates a ChoicePredicate against a ChangedChoices
// shadow view.
func (p ChoicePredicate) ConditionMetUnder(cc *ChangedChoices) bool {
	enabled := cc.IsEnabled(p.Flag)
	if p.Negated {
		return !enabled
	}
	return enabled
}

// ChoicesBuilder assembles a Choices value declaratively; it mirrors the
// repository profile layer's role of enumerating IUSE, applying USE_EXPAND
// prefixes, and then layering forces/locks/environment queries on top.
type ChoicesBuilder struct {
	groups map[ChoicePrefixName]*Choice
	order  []ChoicePrefixName
	sep    string
}

// NewChoicesBuilder starts a builder using the given EAPI's choice-prefix
// separator.
func NewChoicesBuilder(eapi EAPI) *ChoicesBuilder {
	return &ChoicesBuilder{groups: map[ChoicePrefixName]*Choice{}, sep: eapi.ChoicePrefixSep}
}

// Declare registers one IUSE-like flag under the given prefix (empty for
// the unprefixed/default group).
func (b *ChoicesBuilder) Declare(prefix ChoicePrefixName, unprefixedName string, defaultEnabled bool) {
	g, ok := b.groups[prefix]
	if !ok {
		g = &Choice{Prefix: prefix, ShowNoPrefix: prefix == ""}
		b.groups[prefix] = g
		b.order = append(b.order, prefix)
	}
	g.Values = append(g.Values, ChoiceValue{
		UnprefixedName:   unprefixedName,
		Enabled:          defaultEnabled,
		ExplicitlyListed: true,
		prefix:           prefix,
		sep:              b.sep,
	})
}

// QueryEnvironment resolves each declared value's Enabled bit against an
// Environment.QueryUse callback (step 2 of §4.5's choice resolution), XORed
// with inversion when referenced from a negated predicate is the caller's
// business, not the builder's — QueryEnvironment only asks the plain
// enabled question.
func (b *ChoicesBuilder) QueryEnvironment(query func(flag string) (bool, bool)) {
	for _, prefix := range b.order {
		g := b.groups[prefix]
		for i, v := range g.Values {
			if enabled, explicit := query(v.NameWithPrefix()); explicit {
				g.Values[i].Enabled = enabled
			}
		}
	}
}

// ApplyForcedAndLocked applies the repository profile layer's two booleans
// per value (step 3 of §4.5): forced values become enabled+locked, masked
// values become disabled+locked.
func (b *ChoicesBuilder) ApplyForcedAndLocked(forced, masked map[string]bool) {
	for _, prefix := range b.order {
		g := b.groups[prefix]
		for i, v := range g.Values {
			name := v.NameWithPrefix()
			if forced[name] {
				g.Values[i].Enabled = true
				g.Values[i].Locked = true
			}
			if masked[name] {
				g.Values[i].Enabled = false
				g.Values[i].Locked = true
			}
		}
	}
}

// Build finalizes the Choices value.
func (b *ChoicesBuilder) Build() Choices {
	c := Choices{}
	for _, prefix := range b.order {
		c.Groups = append(c.Groups, *b.groups[prefix])
	}
	return c
}
