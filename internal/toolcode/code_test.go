package toolcode

import "testing"

func TestGenerate(t *testing.T) {
	tests := []struct {
		name      string
		profileID int64
		position  string
		toolType  string
		setNumber int
		want      string
		wantErr   bool
	}{
		{"bottom profile", 7, PositionBottom, TypeProfile, 1, "110071", false},
		{"top straight", 42, PositionTop, TypeStraight, 3, "200423", false},
		{"left profile max set", 999, PositionLeft, TypeProfile, 9, "419999", false},
		{"right straight", 1, PositionRight, TypeStraight, 1, "300011", false},
		{"profile id zero", 0, PositionBottom, TypeProfile, 1, "", true},
		{"profile id too large", 1000, PositionBottom, TypeProfile, 1, "", true},
		{"bad position", 7, "Middle", TypeProfile, 1, "", true},
		{"bad type", 7, PositionBottom, "Spiral", 1, "", true},
		{"set number zero", 7, PositionBottom, TypeProfile, 0, "", true},
		{"set number too large", 7, PositionBottom, TypeProfile, 10, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Generate(tt.profileID, tt.position, tt.toolType, tt.setNumber)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Generate() = %q, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Generate() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Generate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	code, err := Generate(123, PositionRight, TypeStraight, 4)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	parts, err := Decode(code)
	if err != nil {
		t.Fatalf("Decode(%q): %v", code, err)
	}
	if parts.Position != PositionRight || parts.Type != TypeStraight ||
		parts.ProfileID != 123 || parts.SetNumber != 4 {
		t.Errorf("Decode(%q) = %+v", code, parts)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	for _, code := range []string{"", "12345", "1234567", "510071", "120x71", "920001", "abcdef"} {
		if _, err := Decode(code); err == nil {
			t.Errorf("Decode(%q) succeeded, want error", code)
		}
	}
}

func TestSetPrefix(t *testing.T) {
	if got := SetPrefix("110072"); got != "11007" {
		t.Errorf("SetPrefix = %q, want 11007", got)
	}
	if got := SetPrefix("bad"); got != "" {
		t.Errorf("SetPrefix on malformed code = %q, want empty", got)
	}
}

func TestValid(t *testing.T) {
	if !Valid("110071") {
		t.Error("Valid(110071) = false")
	}
	if Valid("710071") {
		t.Error("Valid(710071) = true, position digit out of range")
	}
}
