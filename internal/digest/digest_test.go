package digest

import "testing"

func TestHashInputsOrderIndependent(t *testing.T) {
	a := []Input{{Rendered: "dev-lang/go", Reason: "target"}, {Rendered: "dev-libs/foo", Reason: "dependency"}}
	b := []Input{{Rendered: "dev-libs/foo", Reason: "dependency"}, {Rendered: "dev-lang/go", Reason: "target"}}

	if HashInputs(a, "opts") != HashInputs(b, "opts") {
		t.Errorf("expected input order to not affect the digest")
	}
}

func TestHashInputsSensitiveToOptionsFingerprint(t *testing.T) {
	in := []Input{{Rendered: "dev-lang/go", Reason: "target"}}
	if HashInputs(in, "opts-a") == HashInputs(in, "opts-b") {
		t.Errorf("expected different option fingerprints to produce different digests")
	}
}

func TestHashInputsSensitiveToReason(t *testing.T) {
	a := []Input{{Rendered: "dev-lang/go", Reason: "target"}}
	b := []Input{{Rendered: "dev-lang/go", Reason: "dependency"}}
	if HashInputs(a, "opts") == HashInputs(b, "opts") {
		t.Errorf("expected reason to be part of the digest, not just the rendered atom")
	}
}

func TestHashInputsStableAndHexEncoded(t *testing.T) {
	in := []Input{{Rendered: "dev-lang/go", Reason: "target"}}
	got := HashInputs(in, "opts")
	if len(got) != 64 {
		t.Errorf("expected a 64-char hex sha256 digest, got %d chars", len(got))
	}
	if got != HashInputs(in, "opts") {
		t.Errorf("expected HashInputs to be deterministic across calls")
	}
}

func TestHashInputsDoesNotMutateCaller(t *testing.T) {
	in := []Input{{Rendered: "b", Reason: "x"}, {Rendered: "a", Reason: "y"}}
	HashInputs(in, "opts")
	if in[0].Rendered != "b" || in[1].Rendered != "a" {
		t.Errorf("expected HashInputs to leave the caller's slice order untouched, got %+v", in)
	}
}
