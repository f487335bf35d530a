package token

import (
	"testing"
)

func TestGenerateDeterministic(t *testing.T) {
	g := NewGenerator()

	first, err := g.Generate(42, 1001)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := g.Generate(42, 1001)
	if err != nil {
		t.Fatalf("generate repeat: %v", err)
	}
	if first != second {
		t.Fatalf("same inputs produced different tokens: %s vs %s", first, second)
	}
}

func TestGenerateUniqueAcrossSequences(t *testing.T) {
	g := NewGenerator()
	seen := make(map[string]struct{})

	for meterID := int64(1); meterID <= 20; meterID++ {
		for seq := int64(1); seq <= 500; seq++ {
			tok, err := g.Generate(meterID, seq*20+meterID)
			if err != nil {
				t.Fatalf("generate meter=%d seq=%d: %v", meterID, seq, err)
			}
			if _, dup := seen[tok]; dup {
				t.Fatalf("duplicate token %s at meter=%d seq=%d", tok, meterID, seq)
			}
			seen[tok] = struct{}{}
		}
	}
}

func TestGenerateFormat(t *testing.T) {
	g := NewGenerator()

	tok, err := g.Generate(7, 123456)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(tok) > MaxLen {
		t.Fatalf("token %q exceeds max length %d", tok, MaxLen)
	}
	if !Valid(tok) {
		t.Fatalf("generated token %q fails validation", tok)
	}
}

func TestValidRejectsTampering(t *testing.T) {
	g := NewGenerator()
	tok, err := g.Generate(7, 123456)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	// Flip one digit; the check digit should catch it.
	b := []byte(tok)
	if b[0] == '9' {
		b[0] = '0'
	} else {
		b[0]++
	}
	if Valid(string(b)) {
		t.Fatalf("tampered token %q passed validation", string(b))
	}

	if Valid("not-a-token") {
		t.Fatal("malformed token passed validation")
	}
}

func TestGenerateRejectsNonPositiveInputs(t *testing.T) {
	g := NewGenerator()
	if _, err := g.Generate(0, 1); err == nil {
		t.Fatal("expected error for zero meter id")
	}
	if _, err := g.Generate(1, 0); err == nil {
		t.Fatal("expected error for zero sequence")
	}
}
