package location

import "testing"

func TestNormalizeAliases(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"бишкек", "Bishkek"},
		{"  БИШКЕК ", "Bishkek"},
		{"Джалал  Абад", "Jalal-Abad"},
		{"жалал-абад", "Jalal-Abad"},
		{"ысык-көл", "Issyk-Kul"},
		{"ISSYKKUL", "Issyk-Kul"},
		{"osh", "Osh"},
		{"Bishkek", "Bishkek"},
		{"  Tokmok  ", "Tokmok"},
		{"tokMOK", "tokMOK"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"нарын", "НАРЫН", " Ош", "чолпон-ата", "Cholpon-Ata", "issyk-kul",
		"Kara-Balta", "  kara-balta ", "Москва", "", "   ",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
	for _, a := range aliasTable {
		once := Normalize(a.from)
		if Normalize(once) != once {
			t.Errorf("alias %q: canonical %q does not normalize to itself", a.from, once)
		}
	}
}

func TestKeyMatchesAcrossScripts(t *testing.T) {
	if Key("Бишкек") != Key("BISHKEK") {
		t.Fatalf("keys differ: %q vs %q", Key("Бишкек"), Key("BISHKEK"))
	}
	if got := Key(" Бишкек "); got != "bishkek" {
		t.Fatalf("Key = %q, want bishkek", got)
	}
	if got := Key("Kara-Balta"); got != "kara-balta" {
		t.Fatalf("Key = %q, want kara-balta", got)
	}
}
