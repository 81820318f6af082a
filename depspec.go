package paludis

import (
	"strings"
)

// SlotRequirementKind distinguishes the three ways a PackageDepSpec can
// pin a slot.
type SlotRequirementKind uint8

const (
	// SlotNone means the spec carries no slot requirement at all.
	SlotNone SlotRequirementKind = iota
	// SlotExact requires a specific named slot.
	SlotExact
	// SlotAnyLocked requires "any slot, but lock whichever is chosen".
	SlotAnyLocked
	// SlotAnyUnlocked requires "any slot, and don't lock the choice".
	SlotAnyUnlocked
)

// SlotRequirement is the slot facet of a PackageDepSpec.
type SlotRequirement struct {
	Kind SlotRequirementKind
	Slot SlotName // meaningful only when Kind == SlotExact
}

// RepositoryPathRequirement is the shared shape of the "installed-at-path"
// and "installable-to-repo/path" facets, each of which carries an
// "include masked" flag.
type RepositoryPathRequirement struct {
	Path           string
	Repository     RepositoryName
	IncludeMasked  bool
	set            bool
}

// IsSet reports whether this optional facet was populated.
func (r RepositoryPathRequirement) IsSet() bool { return r.set }

// ChoicePredicate is a boolean condition over an id's Choices, used both by
// Conditional spec nodes and by a PackageDepSpec's "additional requirements"
// facet.
type ChoicePredicate struct {
	Flag    string // unprefixed or prefixed flag name
	Negated bool
}

// ConditionMet evaluates the predicate against a resolved Choices set.
func (p ChoicePredicate) ConditionMet(choices Choices) bool {
	enabled := choices.IsEnabled(p.Flag)
	if p.Negated {
		return !enabled
	}
	return enabled
}

func (p ChoicePredicate) String() string {
	if p.Negated {
		return "!" + p.Flag + "?"
	}
	return p.Flag + "?"
}

// PackageDepSpec is the "Package(...)" node contents: a name/version/slot/
// repository-location match together with additional choice predicates.
type PackageDepSpec struct {
	Category   CategoryName // empty means wildcard
	Package    PackageNamePart
	Versions   VersionRequirements
	Slot       SlotRequirement
	InRepository   RepositoryName
	FromRepository RepositoryName
	InstalledAtPath       RepositoryPathRequirement
	InstallableToRepo     RepositoryPathRequirement
	InstallableToPath     RepositoryPathRequirement
	AdditionalRequirements []ChoicePredicate
	Annotations            map[string]string
}

// QPN renders the qualified package name this spec matches (empty category
// means "any category").
func (p *PackageDepSpec) QPN() QualifiedPackageName {
	return QualifiedPackageName{Category: p.Category, Package: p.Package}
}

// Render produces the stable textual round-trip form used for caching and
// diagnostics.
func (p *PackageDepSpec) Render() string {
	var b strings.Builder
	if len(p.Versions.Items) == 1 {
		b.WriteString(p.Versions.Items[0].Op.String())
	}
	if p.Category != "" {
		b.WriteString(string(p.Category))
		b.WriteByte('/')
	}
	b.WriteString(string(p.Package))
	if len(p.Versions.Items) == 1 {
		b.WriteByte('-')
		b.WriteString(p.Versions.Items[0].Ver.String())
	} else if len(p.Versions.Items) > 1 {
		b.WriteByte('[')
		for i, it := range p.Versions.Items {
			if i > 0 {
				if p.Versions.Mode == CombineOr {
					b.WriteByte(',')
				} else {
					b.WriteByte('&')
				}
			}
			b.WriteString(it.String())
		}
		b.WriteByte(']')
	}
	switch p.Slot.Kind {
	case SlotExact:
		b.WriteByte(':')
		b.WriteString(string(p.Slot.Slot))
	case SlotAnyLocked:
		b.WriteString(":=")
	case SlotAnyUnlocked:
		b.WriteString(":*")
	}
	if p.InRepository != "" {
		b.WriteString("::")
		b.WriteString(string(p.InRepository))
	}
	for _, req := range p.AdditionalRequirements {
		b.WriteByte('[')
		b.WriteString(req.String())
		b.WriteByte(']')
	}
	return b.String()
}

// Clone performs a deep structural copy preserving annotations.
func (p *PackageDepSpec) Clone() *PackageDepSpec {
	c := *p
	c.Versions.Items = append([]VersionRequirement(nil), p.Versions.Items...)
	c.AdditionalRequirements = append([]ChoicePredicate(nil), p.AdditionalRequirements...)
	if p.Annotations != nil {
		c.Annotations = make(map[string]string, len(p.Annotations))
		for k, v := range p.Annotations {
			c.Annotations[k] = v
		}
	}
	return &c
}

// BlockSpec is the "Block(...)" node contents.
type BlockSpec struct {
	Spec   *PackageDepSpec
	Strong bool
}

func (b *BlockSpec) Render() string {
	prefix := "!"
	if b.Strong {
		prefix = "!!"
	}
	return prefix + b.Spec.Render()
}

func (b *BlockSpec) Clone() *BlockSpec {
	return &BlockSpec{Spec: b.Spec.Clone(), Strong: b.Strong}
}

// DependencyLabel tags a portion of a dependency tree with its class
// (build/run/post/fetch/...). A LabelSet node carries one or more of these.
type DependencyLabel string

const (
	LabelBuild          DependencyLabel = "build"
	LabelRun            DependencyLabel = "run"
	LabelPost           DependencyLabel = "post"
	LabelTest           DependencyLabel = "test"
	LabelInstall        DependencyLabel = "install"
	LabelCompileAgainst DependencyLabel = "compile_against"
	LabelFetch          DependencyLabel = "fetch"
	LabelSuggestion     DependencyLabel = "suggestion"
	LabelRecommendation DependencyLabel = "recommendation"
)

// DefaultLabels is the fallback label set used when an EAPI gives no
// labels, per §4.6's invariant that every emitted item's active label set
// is non-empty.
var DefaultLabels = []DependencyLabel{LabelBuild, LabelRun}

// SpecNodeKind discriminates the sealed DepSpecNode union. Closed unions
// make every new variant surface every missing arm at compile time (§9).
type SpecNodeKind uint8

const (
	NodePackage SpecNodeKind = iota
	NodeBlock
	NodeAll
	NodeAny
	NodeConditional
	NodeNamedSet
	NodeLabel
)

// DepSpecNode is one node of an immutable, shareable spec tree. Exactly one
// of the typed fields is populated, selected by Kind; this mirrors the
// teacher's sealed-interface pattern but as a flat tagged struct, which is
// cheaper to clone for trees that are mostly leaves.
type DepSpecNode struct {
	Kind        SpecNodeKind
	Package     *PackageDepSpec
	Block       *BlockSpec
	Children    []*DepSpecNode // All, Any
	Conditional ChoicePredicate
	SetName     string
	Labels      []DependencyLabel
	Annotations map[string]string
}

// All builds an All(children...) group node.
func All(children ...*DepSpecNode) *DepSpecNode {
	return &DepSpecNode{Kind: NodeAll, Children: children}
}

// Any builds an Any(children...) ("|| ( ... )") group node. Children are
// whole subgroups, not individual atoms.
func Any(children ...*DepSpecNode) *DepSpecNode {
	return &DepSpecNode{Kind: NodeAny, Children: children}
}

// Conditional builds a Conditional(pred, children...) node.
func ConditionalNode(pred ChoicePredicate, children ...*DepSpecNode) *DepSpecNode {
	return &DepSpecNode{Kind: NodeConditional, Conditional: pred, Children: children}
}

// PackageNode builds a Package(spec) leaf.
func PackageNode(spec *PackageDepSpec) *DepSpecNode {
	return &DepSpecNode{Kind: NodePackage, Package: spec}
}

// BlockNode builds a Block(spec, strong) leaf.
func BlockNode(spec *BlockSpec) *DepSpecNode {
	return &DepSpecNode{Kind: NodeBlock, Block: spec}
}

// NamedSetNode builds a NamedSet(name) leaf, only valid inside set trees.
func NamedSetNode(name string) *DepSpecNode {
	return &DepSpecNode{Kind: NodeNamedSet, SetName: name}
}

// LabelNode builds a label-set node that replaces the active label stack
// for its subtree during sanitization.
func LabelNode(labels ...DependencyLabel) *DepSpecNode {
	return &DepSpecNode{Kind: NodeLabel, Labels: labels}
}

// Clone performs a deep structural copy preserving annotations.
func (n *DepSpecNode) Clone() *DepSpecNode {
	if n == nil {
		return nil
	}
	c := &DepSpecNode{
		Kind:        n.Kind,
		Conditional: n.Conditional,
		SetName:     n.SetName,
		Labels:      append([]DependencyLabel(nil), n.Labels...),
	}
	if n.Package != nil {
		c.Package = n.Package.Clone()
	}
	if n.Block != nil {
		c.Block = n.Block.Clone()
	}
	if n.Children != nil {
		c.Children = make([]*DepSpecNode, len(n.Children))
		for i, ch := range n.Children {
			c.Children[i] = ch.Clone()
		}
	}
	if n.Annotations != nil {
		c.Annotations = make(map[string]string, len(n.Annotations))
		for k, v := range n.Annotations {
			c.Annotations[k] = v
		}
	}
	return c
}

// ForEach visits the immediate children of All/Any/Conditional nodes. It
// does not evaluate conditionals — callers that care whether a Conditional
// subtree is active must check ConditionMet themselves (see the sanitizer).
func ForEach(n *DepSpecNode, visit func(*DepSpecNode)) {
	if n == nil {
		return
	}
	switch n.Kind {
	case NodeAll, NodeAny, NodeConditional:
		for _, c := range n.Children {
			visit(c)
		}
	}
}

// Render produces a stable textual form suitable for caching and
// diagnostics.
func Render(n *DepSpecNode) string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case NodePackage:
		return n.Package.Render()
	case NodeBlock:
		return n.Block.Render()
	case NodeAll:
		parts := make([]string, len(n.Children))
		for i, c := range n.Children {
			parts[i] = Render(c)
		}
		return strings.Join(parts, " ")
	case NodeAny:
		parts := make([]string, len(n.Children))
		for i, c := range n.Children {
			parts[i] = Render(c)
		}
		return "|| ( " + strings.Join(parts, " ") + " )"
	case NodeConditional:
		parts := make([]string, len(n.Children))
		for i, c := range n.Children {
			parts[i] = Render(c)
		}
		return n.Conditional.String() + " ( " + strings.Join(parts, " ") + " )"
	case NodeNamedSet:
		return "@" + n.SetName
	case NodeLabel:
		labels := make([]string, len(n.Labels))
		for i, l := range n.Labels {
			labels[i] = string(l)
		}
		return strings.Join(labels, "+") + ":"
	default:
		return ""
	}
}

// EAPI tags the dependency/spec grammar dialect used to parse a given
// dependency string: which facets (labels, operators, choices) it permits.
type EAPI struct {
	Name              string
	ChoicePrefixSep   string // separator between a choice's prefix and its unprefixed name
	DefaultLabels     []DependencyLabel
	SupportsSlotDeps  bool
}

// DefaultEAPI is a reasonable stand-in EAPI used when the caller has no
// stronger preference; Paludis itself keys real dialects by name via its
// EAPIData singleton, replaced here by an explicit value per §9.
var DefaultEAPI = EAPI{Name: "0", ChoicePrefixSep: "_", DefaultLabels: DefaultLabels}

// ParseDependency parses a textual dependency specification into a
// DepSpecNode tree. The same grammar is accepted for every eapi, and
// isInstalled is not consulted.
//
// The grammar accepted is a whitespace-tokenized s-expression-like form:
//
//	pkg/name-1.0    a bare package atom
//	!pkg/name       a weak block
//	!!pkg/name      a strong block
//	( a b c )       an All group (parens are optional at the top level)
//	|| ( a b )      an Any group
//	flag? ( a b )   a Conditional group
//	build+run:      a label-set marker, applies to the remainder of its group
//	@setname        a NamedSet reference
func ParseDependency(text string, eapi EAPI, isInstalled bool) (*DepSpecNode, error) {
	toks := tokenizeDepString(text)
	p := &depParser{toks: toks, eapi: eapi}
	node, err := p.parseGroup()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, &BadVersionSpec{Text: text, Reason: "unexpected trailing tokens in dependency spec"}
	}
	return node, nil
}

func tokenizeDepString(text string) []string {
	var toks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		switch r {
		case ' ', '\t', '\n':
			flush()
		case '(', ')':
			flush()
			toks = append(toks, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

type depParser struct {
	toks []string
	pos  int
	eapi EAPI
}

func (p *depParser) peek() string {
	if p.pos >= len(p.toks) {
		return ""
	}
	return p.toks[p.pos]
}

func (p *depParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

// parseGroup parses a sequence of atoms/groups until a closing ')' or EOF,
// returning an All node (the implicit top-level grouping).
func (p *depParser) parseGroup() (*DepSpecNode, error) {
	var children []*DepSpecNode
	for {
		tok := p.peek()
		if tok == "" || tok == ")" {
			break
		}
		node, err := p.parseOne()
		if err != nil {
			return nil, err
		}
		children = append(children, node)
	}
	return All(children...), nil
}

func (p *depParser) parseOne() (*DepSpecNode, error) {
	tok := p.next()
	switch {
	case tok == "||":
		if p.peek() != "(" {
			return nil, &BadVersionSpec{Text: tok, Reason: "expected '(' after ||"}
		}
		p.next()
		inner, err := p.parseGroup()
		if err != nil {
			return nil, err
		}
		if p.peek() != ")" {
			return nil, &BadVersionSpec{Text: tok, Reason: "unterminated || group"}
		}
		p.next()
		return Any(inner.Children...), nil
	case tok == "(":
		inner, err := p.parseGroup()
		if err != nil {
			return nil, err
		}
		if p.peek() != ")" {
			return nil, &BadVersionSpec{Text: tok, Reason: "unterminated ( group"}
		}
		p.next()
		return inner, nil
	case strings.HasSuffix(tok, "?"):
		pred, err := parseChoicePredicate(tok)
		if err != nil {
			return nil, err
		}
		if p.peek() != "(" {
			return nil, &BadVersionSpec{Text: tok, Reason: "expected '(' after conditional"}
		}
		p.next()
		inner, err := p.parseGroup()
		if err != nil {
			return nil, err
		}
		if p.peek() != ")" {
			return nil, &BadVersionSpec{Text: tok, Reason: "unterminated conditional group"}
		}
		p.next()
		return ConditionalNode(pred, inner.Children...), nil
	case strings.HasSuffix(tok, ":") && tok != ":":
		labelNames := strings.Split(strings.TrimSuffix(tok, ":"), "+")
		labels := make([]DependencyLabel, len(labelNames))
		for i, l := range labelNames {
			labels[i] = DependencyLabel(l)
		}
		return LabelNode(labels...), nil
	case strings.HasPrefix(tok, "@"):
		return NamedSetNode(tok[1:]), nil
	case strings.HasPrefix(tok, "!!"):
		spec, err := parsePackageAtom(tok[2:])
		if err != nil {
			return nil, err
		}
		return BlockNode(&BlockSpec{Spec: spec, Strong: true}), nil
	case strings.HasPrefix(tok, "!"):
		spec, err := parsePackageAtom(tok[1:])
		if err != nil {
			return nil, err
		}
		return BlockNode(&BlockSpec{Spec: spec, Strong: false}), nil
	default:
		spec, err := parsePackageAtom(tok)
		if err != nil {
			return nil, err
		}
		return PackageNode(spec), nil
	}
}

func parseChoicePredicate(tok string) (ChoicePredicate, error) {
	body := strings.TrimSuffix(tok, "?")
	if strings.HasPrefix(body, "!") {
		return ChoicePredicate{Flag: body[1:], Negated: true}, nil
	}
	return ChoicePredicate{Flag: body}, nil
}

// parsePackageAtom parses a single "cat/pkg-OPver:slot::repo[req]" atom.
func parsePackageAtom(atom string) (*PackageDepSpec, error) {
	spec := &PackageDepSpec{}
	s := atom

	// additional requirements: trailing [req] blocks.
	for strings.HasSuffix(s, "]") {
		idx := strings.LastIndex(s, "[")
		if idx < 0 {
			return nil, &BadVersionSpec{Text: atom, Reason: "unbalanced ["}
		}
		req := s[idx+1 : len(s)-1]
		pred, err := parseChoicePredicateBody(req)
		if err != nil {
			return nil, err
		}
		spec.AdditionalRequirements = append([]ChoicePredicate{pred}, spec.AdditionalRequirements...)
		s = s[:idx]
	}

	if idx := strings.Index(s, "::"); idx >= 0 {
		repo, err := NewRepositoryName(s[idx+2:])
		if err != nil {
			return nil, err
		}
		spec.InRepository = repo
		s = s[:idx]
	}

	if idx := strings.LastIndex(s, ":"); idx >= 0 {
		slotTxt := s[idx+1:]
		switch slotTxt {
		case "=":
			spec.Slot = SlotRequirement{Kind: SlotAnyLocked}
		case "*":
			spec.Slot = SlotRequirement{Kind: SlotAnyUnlocked}
		default:
			slot, err := NewSlotName(slotTxt)
			if err != nil {
				return nil, err
			}
			spec.Slot = SlotRequirement{Kind: SlotExact, Slot: slot}
		}
		s = s[:idx]
	}

	op, rest := leadingOperator(s)
	s = rest

	// A bare name with no "/" is a short name: leave Category empty (the
	// wildcard value) so the query engine resolves it against every
	// category a repository knows, via resolveShortName (§4.1).
	var catTxt, nameVer string
	if catSep := strings.Index(s, "/"); catSep >= 0 {
		catTxt, nameVer = s[:catSep], s[catSep+1:]
	} else {
		nameVer = s
	}
	if catTxt != "" && catTxt != "*" {
		cat, err := NewCategoryName(catTxt)
		if err != nil {
			return nil, err
		}
		spec.Category = cat
	}

	pkgTxt, verTxt := splitNameVersion(nameVer, true)
	pkg, err := NewPackageNamePart(pkgTxt)
	if err != nil {
		return nil, err
	}
	spec.Package = pkg

	if verTxt != "" {
		ver, err := ParseVersion(verTxt)
		if err != nil {
			return nil, err
		}
		spec.Versions = VersionRequirements{Items: []VersionRequirement{{Op: op, Ver: ver}}}
	}

	return spec, nil
}

func leadingOperator(s string) (VersionOperator, string) {
	switch {
	case strings.HasPrefix(s, "=*"):
		return OpEqualStarNum, s[2:]
	case strings.HasPrefix(s, "~>"):
		return OpTildeGreater, s[2:]
	case strings.HasPrefix(s, ">="):
		return OpGreaterEqual, s[2:]
	case strings.HasPrefix(s, "<="):
		return OpLessEqual, s[2:]
	case strings.HasPrefix(s, "="):
		return OpEqual, s[1:]
	case strings.HasPrefix(s, "~"):
		return OpTilde, s[1:]
	case strings.HasPrefix(s, ">"):
		return OpGreater, s[1:]
	case strings.HasPrefix(s, "<"):
		return OpLess, s[1:]
	default:
		return OpEqual, s
	}
}

// splitNameVersion splits "name-1.2.3" into ("name", "1.2.3") by finding the
// last "-" followed by a digit. When hasVersion is false, the whole string
// is the name.
func splitNameVersion(s string, hasVersion bool) (name, ver string) {
	if !hasVersion {
		return s, ""
	}
	for i := len(s) - 1; i > 0; i-- {
		if s[i-1] == '-' && isDigit(s[i]) {
			return s[:i-1], s[i:]
		}
	}
	return s, ""
}

func parseChoicePredicateBody(req string) (ChoicePredicate, error) {
	if strings.HasSuffix(req, "?") {
		return parseChoicePredicate(req)
	}
	if strings.HasPrefix(req, "!") {
		return ChoicePredicate{Flag: req[1:], Negated: true}, nil
	}
	return ChoicePredicate{Flag: req}, nil
}
