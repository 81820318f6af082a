package paludis

import (
	"strconv"
	"strings"
)

// BadVersionSpec reports that the version parser rejected its input.
type BadVersionSpec struct {
	Text   string
	Reason string
}

func (e *BadVersionSpec) Error() string {
	return "bad version spec '" + e.Text + "': " + e.Reason
}

func (*BadVersionSpec) paludisError() {}

// suffixKind enumerates the fixed ordering class of version suffixes.
// alpha < beta < pre < rc < (none) < patch.
type suffixKind uint8

const (
	suffixAlpha suffixKind = iota
	suffixBeta
	suffixPre
	suffixRC
	suffixNone
	suffixPatch
)

var suffixNames = map[string]suffixKind{
	"alpha": suffixAlpha,
	"beta":  suffixBeta,
	"pre":   suffixPre,
	"rc":    suffixRC,
	"p":     suffixPatch,
}

// versionPart is one numeric-dot component of a version, e.g. "1", "0", "01".
type versionPart struct {
	text string // original text, leading zeros preserved
	num  int64  // numeric value
}

// versionSuffix is one trailing alpha/beta/pre/rc/patch run, e.g. "_rc2".
type versionSuffix struct {
	kind suffixKind
	num  int64
}

// Version is a parsed Paludis version spec: number → letter? →
// (alpha|beta|pre|rc|patch)* → try? → scm? → revision*.
type Version struct {
	text     string
	parts    []versionPart
	letter   byte // 0 if absent
	suffixes []versionSuffix
	hasTry   bool
	isSCM    bool
	revision int64 // 0 means r0 (no explicit revision)
}

// ParseVersion parses the canonical textual form of a Paludis version spec.
func ParseVersion(text string) (Version, error) {
	if text == "" {
		return Version{}, &BadVersionSpec{Text: text, Reason: "cannot be empty"}
	}
	v := Version{text: text}
	s := text

	if rest, ok := stripCI(s, "scm"); ok {
		v.isSCM = true
		s = rest
	} else {
		first := true
		for {
			n, rest, ok := takeDigits(s)
			if !ok {
				if first {
					return Version{}, &BadVersionSpec{Text: text, Reason: "expected a number"}
				}
				break
			}
			v.parts = append(v.parts, versionPart{text: n, num: mustAtoi(n)})
			s = rest
			first = false
			if len(s) > 0 && s[0] == '.' {
				s = s[1:]
				continue
			}
			break
		}

		if len(s) > 0 && isLower(s[0]) {
			if len(s) == 1 || !isDigit(s[1]) {
				v.letter = s[0]
				s = s[1:]
			}
		}

		for len(s) > 0 && s[0] == '_' {
			rest := s[1:]
			matched := false
			// Fixed order, so "pre" is tried before its prefix "p".
			for _, name := range []string{"alpha", "beta", "pre", "rc", "p"} {
				kind := suffixNames[name]
				if strings.HasPrefix(rest, name) {
					rem := rest[len(name):]
					num, rem2, _ := takeDigits(rem)
					sfx := versionSuffix{kind: kind}
					if num != "" {
						sfx.num = mustAtoi(num)
					}
					v.suffixes = append(v.suffixes, sfx)
					s = rem2
					matched = true
					break
				}
			}
			if !matched {
				return Version{}, &BadVersionSpec{Text: text, Reason: "unrecognized suffix"}
			}
		}

		if rest, ok := stripCI(s, "-try"); ok {
			v.hasTry = true
			s = rest
		}

		if rest, ok := stripCI(s, "-scm"); ok {
			v.isSCM = true
			s = rest
		}
	}

	for strings.HasPrefix(s, "-r") {
		num, rest, ok := takeDigits(s[2:])
		if !ok {
			break
		}
		v.revision = mustAtoi(num)
		s = rest
	}

	if s != "" {
		return Version{}, &BadVersionSpec{Text: text, Reason: "unrecognized trailing text: " + s}
	}

	return v, nil
}

func stripCI(s, prefix string) (string, bool) {
	if len(s) < len(prefix) {
		return s, false
	}
	if !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

func takeDigits(s string) (digits, rest string, ok bool) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i == 0 {
		return "", s, false
	}
	return s[:i], s[i:], true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isLower(b byte) bool { return b >= 'a' && b <= 'z' }

func mustAtoi(s string) int64 {
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		return 0
	}
	n, _ := strconv.ParseInt(trimmed, 10, 64)
	return n
}

// String renders the version back to its original textual form.
func (v Version) String() string { return v.text }

// IsSCM reports whether this version is flagged "scm" for policy purposes:
// carries an scm suffix, has revision 9999, or is four-or-more leading 9s.
func (v Version) IsSCM() bool {
	if v.isSCM {
		return true
	}
	if v.revision == 9999 {
		return true
	}
	nines := 0
	for _, p := range v.parts {
		s := strings.TrimLeft(p.text, "0")
		if s == "" {
			s = "0"
		}
		for _, c := range s {
			if c != '9' {
				return nines >= 4
			}
			nines++
		}
	}
	return nines >= 4
}

// RemoveRevision returns a copy of v with its revision cleared to r0.
func (v Version) RemoveRevision() Version {
	v2 := v
	v2.revision = 0
	return v2
}

// Revision renders the revision component, "r0" when absent.
func (v Version) Revision() string {
	return "r" + strconv.FormatInt(v.revision, 10)
}

// compareParts compares two dotted-numeric sequences component-wise, padding
// the shorter sequence with a zero-valued end sentinel.
func compareParts(a, b []versionPart) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		var pa, pb versionPart
		if i < len(a) {
			pa = a[i]
		}
		if i < len(b) {
			pb = b[i]
		}
		if c := compareOneNumericComponent(pa, pb, i); c != 0 {
			return c
		}
	}
	return 0
}

// compareOneNumericComponent compares a single numeric component. Past the
// first position, if either side has a leading-zero component, comparison
// falls back to comparing text with trailing zeros stripped.
func compareOneNumericComponent(a, b versionPart, pos int) int {
	aLZ := pos > 0 && len(a.text) > 1 && a.text[0] == '0'
	bLZ := pos > 0 && len(b.text) > 1 && b.text[0] == '0'
	if aLZ || bLZ {
		as := strings.TrimRight(a.text, "0")
		bs := strings.TrimRight(b.text, "0")
		if as == bs {
			return 0
		}
		if as < bs {
			return -1
		}
		return 1
	}
	return cmpInt(a.num, b.num)
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Compare implements the full strict ordering from §4.1. scm is strictly
// greater than any non-scm value at the same position.
func (v Version) Compare(o Version) int {
	if v.isSCM != o.isSCM {
		if v.isSCM {
			return 1
		}
		return -1
	}
	if c := compareParts(v.parts, o.parts); c != 0 {
		return c
	}
	if v.letter != o.letter {
		if v.letter < o.letter {
			return -1
		}
		return 1
	}
	if c := compareSuffixes(v.suffixes, o.suffixes); c != 0 {
		return c
	}
	if v.hasTry != o.hasTry {
		if v.hasTry {
			return 1
		}
		return -1
	}
	return cmpInt(v.revision, o.revision)
}

// rankOf returns the effective suffix rank of a run, or suffixNone for an
// empty run (no suffix present at that position).
func rankOf(sfxs []versionSuffix, i int) (suffixKind, int64) {
	if i >= len(sfxs) {
		return suffixNone, 0
	}
	return sfxs[i].kind, sfxs[i].num
}

func compareSuffixes(a, b []versionSuffix) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ak, an := rankOf(a, i)
		bk, bn := rankOf(b, i)
		if ak != bk {
			if ak < bk {
				return -1
			}
			return 1
		}
		if c := cmpInt(an, bn); c != 0 {
			return c
		}
	}
	return 0
}

// Less reports v < o under Compare.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// Equal reports full structural equality, including revision.
func (v Version) Equal(o Version) bool { return v.Compare(o) == 0 }

// EqualIgnoringRevision implements the "~" tilde-equal operator.
func (v Version) EqualIgnoringRevision(o Version) bool {
	return v.RemoveRevision().Compare(o.RemoveRevision()) == 0
}

// Hash computes a structural hash ignoring r0, keyed by numeric components
// (leading-zero count preserved, value normalized) and suffix types.
func (v Version) Hash() uint64 {
	var h uint64 = 14695981039346656037
	mix := func(x uint64) {
		h ^= x
		h *= 1099511628211
	}
	for _, p := range v.parts {
		mix(uint64(len(p.text)))
		mix(uint64(p.num))
	}
	mix(uint64(v.letter))
	for _, s := range v.suffixes {
		mix(uint64(s.kind))
		mix(uint64(s.num))
	}
	if v.revision != 0 {
		mix(uint64(v.revision))
	}
	return h
}

// bump increments the last number-only component and drops everything after
// it, per the ~> ("tilde-greater") bump rule.
func (v Version) bump() Version {
	v2 := v
	v2.parts = make([]versionPart, len(v.parts))
	copy(v2.parts, v.parts)
	if len(v2.parts) > 0 {
		last := len(v2.parts) - 1
		bumped := v2.parts[last].num + 1
		v2.parts[last] = versionPart{num: bumped, text: strconv.FormatInt(bumped, 10)}
	}
	v2.letter = 0
	v2.suffixes = nil
	v2.hasTry = false
	v2.revision = 0
	return v2
}

// TildeGreater implements "~>": v >= w && v < bump(w).
func TildeGreater(v, w Version) bool {
	return !v.Less(w) && v.Less(w.bump())
}

// VersionOperator enumerates the comparison operators a VersionRequirement
// may use.
type VersionOperator uint8

const (
	OpEqual         VersionOperator = iota // =
	OpLess                                 // <
	OpLessEqual                            // <=
	OpGreater                              // >
	OpGreaterEqual                         // >=
	OpTilde                                // ~ (revision-insensitive equal)
	OpTildeGreater                         // ~> (bump-limited range)
	OpEqualStarNum                         // =* numeric-prefix semantics
	OpEqualStarText                        // =* stringy-prefix semantics
)

func (op VersionOperator) String() string {
	switch op {
	case OpEqual:
		return "="
	case OpLess:
		return "<"
	case OpLessEqual:
		return "<="
	case OpGreater:
		return ">"
	case OpGreaterEqual:
		return ">="
	case OpTilde:
		return "~"
	case OpTildeGreater:
		return "~>"
	case OpEqualStarNum, OpEqualStarText:
		return "=*"
	default:
		return "?"
	}
}

// VersionRequirement pairs an operator with the version it is measured
// against.
type VersionRequirement struct {
	Op  VersionOperator
	Ver Version
}

func (r VersionRequirement) String() string { return r.Op.String() + r.Ver.String() }

// Matches reports whether candidate satisfies this single requirement.
func (r VersionRequirement) Matches(candidate Version) bool {
	switch r.Op {
	case OpEqual:
		return candidate.Equal(r.Ver)
	case OpLess:
		return candidate.Less(r.Ver)
	case OpLessEqual:
		return candidate.Less(r.Ver) || candidate.Equal(r.Ver)
	case OpGreater:
		return r.Ver.Less(candidate)
	case OpGreaterEqual:
		return r.Ver.Less(candidate) || candidate.Equal(r.Ver)
	case OpTilde:
		return candidate.EqualIgnoringRevision(r.Ver)
	case OpTildeGreater:
		return TildeGreater(candidate, r.Ver)
	case OpEqualStarNum:
		return prefixMatchNumeric(candidate, r.Ver)
	case OpEqualStarText:
		return prefixMatchText(candidate, r.Ver)
	default:
		return false
	}
}

// prefixMatchNumeric implements one "=*" variant: the candidate's leading
// numeric components must compare numerically equal to the pattern's, one
// for one.
func prefixMatchNumeric(candidate, pattern Version) bool {
	if len(pattern.parts) == 0 {
		return true
	}
	if len(candidate.parts) < len(pattern.parts) {
		return false
	}
	for i := range pattern.parts {
		if candidate.parts[i].num != pattern.parts[i].num {
			return false
		}
	}
	return true
}

// prefixMatchText implements the alternate "=*" variant: the candidate's
// rendered text must carry the pattern's text as a literal string prefix,
// so leading zeros in the trailing numeric segment must match exactly.
func prefixMatchText(candidate, pattern Version) bool {
	return strings.HasPrefix(candidate.text, strings.TrimSuffix(pattern.text, "."))
}

// CombineMode selects how sibling VersionRequirements inside a single
// PackageDepSpec's version-requirements facet are combined.
type CombineMode uint8

const (
	CombineAnd CombineMode = iota
	CombineOr
)

// VersionRequirements is an ordered list of requirements plus their combine
// mode.
type VersionRequirements struct {
	Mode  CombineMode
	Items []VersionRequirement
}

// Matches reports whether candidate satisfies the combined requirement set.
// An empty set always matches.
func (r VersionRequirements) Matches(candidate Version) bool {
	if len(r.Items) == 0 {
		return true
	}
	if r.Mode == CombineOr {
		for _, it := range r.Items {
			if it.Matches(candidate) {
				return true
			}
		}
		return false
	}
	for _, it := range r.Items {
		if !it.Matches(candidate) {
			return false
		}
	}
	return true
}
