package paludis

import "testing"

func TestMaskStringVariants(t *testing.T) {
	cases := []struct {
		m    Mask
		want string
	}{
		{Mask{Kind: MaskUnaccepted, WhichKey: "KEYWORDS"}, "unaccepted KEYWORDS"},
		{Mask{Kind: MaskUnsupported, UnsupportedWhy: "bad EAPI"}, "unsupported: bad EAPI"},
		{Mask{Kind: MaskUser}, "user-masked"},
		{Mask{Kind: MaskRepository, RepoFile: "package.mask"}, "repository-masked (package.mask)"},
	}
	for _, c := range cases {
		if got := c.m.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}

func TestOverridePredicatesOverridable(t *testing.T) {
	qpn, _ := NewQualifiedPackageName("dev-lang/go")
	id := NewPackageID(PackageIDSpec{Name: qpn, Repository: "gentoo"})
	userMasked := Mask{Kind: MaskUser}

	none := OverridePredicates(nil)
	if none.Overridable(id, userMasked) {
		t.Errorf("expected an empty predicate list to override nothing")
	}

	allowUser := OverridePredicates{func(id PackageID, m Mask) bool { return m.Kind == MaskUser }}
	if !allowUser.Overridable(id, userMasked) {
		t.Errorf("expected the matching predicate to override a user mask")
	}
}

func TestStronglyMaskedRequiresAnUnoverriddenMask(t *testing.T) {
	qpn, _ := NewQualifiedPackageName("dev-lang/go")
	overridableOnly := NewPackageID(PackageIDSpec{
		Name: qpn, Repository: "gentoo",
		Masks: []Mask{{Kind: MaskUser}},
	})
	mixed := NewPackageID(PackageIDSpec{
		Name: qpn, Repository: "gentoo",
		Masks: []Mask{{Kind: MaskUser}, {Kind: MaskUnsupported, UnsupportedWhy: "EAPI"}},
	})
	overrides := OverridePredicates{func(id PackageID, m Mask) bool { return m.Kind == MaskUser }}

	if StronglyMasked(overridableOnly, overrides) {
		t.Errorf("expected an all-overridable mask set to not be strongly masked")
	}
	if !StronglyMasked(mixed, overrides) {
		t.Errorf("expected the unsupported mask to keep the id strongly masked")
	}
	if !NotStronglyMasked(overridableOnly, overrides) {
		t.Errorf("NotStronglyMasked should be the complement of StronglyMasked")
	}
}
