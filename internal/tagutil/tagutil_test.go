package tagutil

import (
	"strings"
	"testing"
)

func TestDigestDeterministic(t *testing.T) {
	a := Digest("legacy/1")
	b := Digest("legacy/1")
	if a == "" {
		t.Fatal("empty digest")
	}
	if a != b {
		t.Errorf("digest not deterministic: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "b") {
		t.Errorf("digest %q is not base32 CIDv1", a)
	}
}

func TestDigestDistinguishesTags(t *testing.T) {
	if Digest("legacy/1") == Digest("legacy/2") {
		t.Error("distinct tags share a digest")
	}
	// Same bytes in a different split must still differ.
	if Digest("legacy/12") == Digest("legacy1/2") {
		t.Error("digest ignores separator position")
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"legacy/1", "legacy/1", true},
		{"legacy/1", "legacy/2", false},
		{"legacy/1", "legacy/11", false},
		{"", "", true},
		{"a", "", false},
	}

	for _, tt := range tests {
		if got := Equal(tt.a, tt.b); got != tt.want {
			t.Errorf("Equal(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		tag        string
		collection string
		tokenID    string
		ok         bool
	}{
		{"legacy/42", "legacy", "42", true},
		{"col/with/slashes", "col", "with/slashes", true},
		{"noslash", "", "", false},
		{"/leading", "", "", false},
		{"trailing/", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			collection, tokenID, ok := Split(tt.tag)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if collection != tt.collection || tokenID != tt.tokenID {
				t.Errorf("Split = (%q, %q), want (%q, %q)", collection, tokenID, tt.collection, tt.tokenID)
			}
		})
	}
}
