package paludis

import "testing"

func TestNewCategoryNameValidation(t *testing.T) {
	if _, err := NewCategoryName("dev-lang"); err != nil {
		t.Errorf("NewCategoryName(dev-lang) = %v", err)
	}
	if _, err := NewCategoryName(""); err == nil {
		t.Errorf("NewCategoryName(\"\") should fail")
	}
	if _, err := NewCategoryName("dev lang"); err == nil {
		t.Errorf("NewCategoryName with a space should fail")
	}
}

func TestNewQualifiedPackageName(t *testing.T) {
	qpn, err := NewQualifiedPackageName("dev-lang/go")
	if err != nil {
		t.Fatalf("NewQualifiedPackageName = %v", err)
	}
	if qpn.Category != CategoryName("dev-lang") || qpn.Package != PackageNamePart("go") {
		t.Errorf("got %+v", qpn)
	}
	if qpn.String() != "dev-lang/go" {
		t.Errorf("String() = %q", qpn.String())
	}

	if _, err := NewQualifiedPackageName("no-slash-here"); err == nil {
		t.Errorf("expected error for missing slash")
	}
	if _, err := NewQualifiedPackageName("bad category/go"); err == nil {
		t.Errorf("expected error for bad category")
	}
}

func TestQualifiedPackageNameLess(t *testing.T) {
	a, _ := NewQualifiedPackageName("dev-lang/go")
	b, _ := NewQualifiedPackageName("dev-lang/rust")
	c, _ := NewQualifiedPackageName("sys-apps/foo")
	if !a.Less(b) {
		t.Errorf("expected dev-lang/go < dev-lang/rust")
	}
	if !b.Less(c) {
		t.Errorf("expected dev-lang/rust < sys-apps/foo")
	}
	if c.Less(a) {
		t.Errorf("expected sys-apps/foo !< dev-lang/go")
	}
}

func TestNewKeywordNameAcceptsTilde(t *testing.T) {
	kw, err := NewKeywordName("~amd64")
	if err != nil {
		t.Fatalf("NewKeywordName(~amd64) = %v", err)
	}
	if string(kw) != "~amd64" {
		t.Errorf("got %q", kw)
	}
}

func TestNewChoicePrefixNameAllowsEmpty(t *testing.T) {
	prefix, err := NewChoicePrefixName("")
	if err != nil {
		t.Fatalf("NewChoicePrefixName(\"\") = %v", err)
	}
	if prefix != "" {
		t.Errorf("got %q", prefix)
	}
}
