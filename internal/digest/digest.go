// Package digest computes a stable hash over a resolver run's inputs, the
// Paludis-domain analogue of the teacher's HashInputs: given the same
// targets and options, two runs should agree on whether a cached Resolution
// set is still valid.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// Input is one target spec's contribution to the digest: its rendered text
// plus the reason it was requested, since the same atom resolved as a
// target versus as a dependency can legitimately produce different
// resolutions under some Options.
type Input struct {
	Rendered string
	Reason   string
}

// sortedInputs implements sort.Interface, ordering by rendered text then
// reason so HashInputs is independent of caller iteration order.
type sortedInputs []Input

func (s sortedInputs) Len() int      { return len(s) }
func (s sortedInputs) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s sortedInputs) Less(i, j int) bool {
	if s[i].Rendered != s[j].Rendered {
		return s[i].Rendered < s[j].Rendered
	}
	return s[i].Reason < s[j].Reason
}

// HashInputs computes a hex-encoded sha256 digest over inputs plus an
// options fingerprint, suitable for stamping a saved Resolution as
// still-valid or stale.
func HashInputs(inputs []Input, optionsFingerprint string) string {
	sorted := append(sortedInputs(nil), inputs...)
	sort.Stable(sorted)

	h := sha256.New()
	for _, in := range sorted {
		h.Write([]byte(in.Rendered))
		h.Write([]byte{0})
		h.Write([]byte(in.Reason))
		h.Write([]byte{0})
	}
	h.Write([]byte(optionsFingerprint))
	return hex.EncodeToString(h.Sum(nil))
}
