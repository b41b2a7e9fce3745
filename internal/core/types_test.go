package core

import (
	"encoding/json"
	"testing"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"valid", "0x00000000000000000000000000000000000000ff", false},
		{"valid without prefix", "00000000000000000000000000000000000000ff", false},
		{"valid with whitespace", "  0x00000000000000000000000000000000000000ff ", false},
		{"too short", "0xff", true},
		{"too long", "0x00000000000000000000000000000000000000ff00", true},
		{"not hex", "0x00000000000000000000000000000000000000zz", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseAddress(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseAddress(%q) succeeded, want error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAddress(%q): %v", tt.in, err)
			}
			if a[19] != 0xff {
				t.Errorf("last byte = %#x, want 0xff", a[19])
			}
		})
	}
}

func TestAddressRoundTrip(t *testing.T) {
	a, err := ParseAddress("0x1234567890abcdef1234567890abcdef12345678")
	if err != nil {
		t.Fatal(err)
	}

	if got := a.String(); got != "0x1234567890abcdef1234567890abcdef12345678" {
		t.Errorf("String() = %q", got)
	}

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Address
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != a {
		t.Errorf("round trip = %s, want %s", back, a)
	}
}

func TestAddressIsZero(t *testing.T) {
	if !ZeroAddress.IsZero() {
		t.Error("ZeroAddress.IsZero() = false")
	}
	var a Address
	a[0] = 1
	if a.IsZero() {
		t.Error("non-zero address reported zero")
	}
}

func TestImportRecordJSONShape(t *testing.T) {
	raw := `{
		"metadataUri": "ipfs://meta/1",
		"recipient": "0x0000000000000000000000000000000000000020",
		"creator": "0x0000000000000000000000000000000000000021",
		"soulBound": true,
		"originTag": "legacy/1",
		"royaltyRate": 10,
		"nestedSourceTag": "legacy/0"
	}`

	var rec ImportRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.MetadataURI != "ipfs://meta/1" || rec.OriginTag != "legacy/1" {
		t.Errorf("decoded = %+v", rec)
	}
	if !rec.SoulBound || rec.RoyaltyRate != 10 {
		t.Errorf("decoded = %+v", rec)
	}
	if rec.NestedSourceTag != "legacy/0" {
		t.Errorf("NestedSourceTag = %q", rec.NestedSourceTag)
	}
}
