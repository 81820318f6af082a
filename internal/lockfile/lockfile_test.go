package lockfile

import "testing"

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	l := Lock{
		InputsDigest: "abc123",
		Entries: []Entry{
			{Package: "dev-lang/go", Slot: "0", Destination: 0, Version: "1.20", Repository: "gentoo"},
			{Package: "dev-libs/foo", Slot: "2", Destination: 1, Version: "3.1-r2", Repository: "gentoo"},
		},
	}
	data, err := Marshal(l)
	if err != nil {
		t.Fatalf("Marshal = %v", err)
	}

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal = %v", err)
	}
	if got.InputsDigest != l.InputsDigest {
		t.Errorf("InputsDigest = %q, want %q", got.InputsDigest, l.InputsDigest)
	}
	if len(got.Entries) != len(l.Entries) {
		t.Fatalf("got %d entries, want %d", len(got.Entries), len(l.Entries))
	}
	for i, e := range got.Entries {
		if e != l.Entries[i] {
			t.Errorf("entry %d = %+v, want %+v", i, e, l.Entries[i])
		}
	}
}

func TestUnmarshalEmptyLock(t *testing.T) {
	l, err := Unmarshal([]byte("digest = \"xyz\"\n"))
	if err != nil {
		t.Fatalf("Unmarshal = %v", err)
	}
	if l.InputsDigest != "xyz" {
		t.Errorf("InputsDigest = %q", l.InputsDigest)
	}
	if len(l.Entries) != 0 {
		t.Errorf("expected no entries, got %d", len(l.Entries))
	}
}

func TestUnmarshalRejectsEntryMissingPackage(t *testing.T) {
	_, err := Unmarshal([]byte("digest = \"xyz\"\n[[entry]]\nslot = \"0\"\n"))
	if err == nil {
		t.Fatalf("expected an error for an entry missing its package field")
	}
}

func TestUnmarshalRejectsMalformedTOML(t *testing.T) {
	if _, err := Unmarshal([]byte("not valid = = toml")); err == nil {
		t.Errorf("expected a parse error for malformed TOML")
	}
}
