package internal

import "testing"

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"a@b.com":           "a@b.com",
		"  A@B.Com ":        "a@b.com",
		"\tMixed.Case@X.IO": "mixed.case@x.io",
		"":                  "",
	}
	for in, want := range cases {
		if got := NormalizeEmail(in); got != want {
			t.Fatalf("NormalizeEmail(%q) = %q, want %q", in, got, want)
		}
	}
	if NormalizeEmail(NormalizeEmail(" X@Y.z")) != NormalizeEmail(" X@Y.z") {
		t.Fatal("expected normalization to be idempotent")
	}
}
