package auth

import (
	"errors"
	"testing"
)

func TestDomainGate(t *testing.T) {
	gate := NewDomainGate("vitstudent.ac.in")

	tests := []struct {
		email    string
		verified bool
		want     error
	}{
		{"asha.r2023@vitstudent.ac.in", true, nil},
		{"Asha.R2023@VITSTUDENT.AC.IN", true, nil},
		{"asha@gmail.com", true, ErrDomainNotAllowed},
		{"asha@notvitstudent.ac.in", true, ErrDomainNotAllowed},
		{"asha@vitstudent.ac.in.evil.com", true, ErrDomainNotAllowed},
		{"@vitstudent.ac.in", true, ErrDomainNotAllowed},
		{"", true, ErrDomainNotAllowed},
		{"asha@vitstudent.ac.in", false, ErrEmailNotVerified},
	}

	for _, tt := range tests {
		err := gate.Allow(tt.email, tt.verified)
		if !errors.Is(err, tt.want) {
			t.Errorf("Allow(%q, %v) = %v, want %v", tt.email, tt.verified, err, tt.want)
		}
	}
}

func TestDomainGateNormalizesDomain(t *testing.T) {
	gate := NewDomainGate(" @VITStudent.ac.in ")
	if gate.Domain() != "vitstudent.ac.in" {
		t.Fatalf("unexpected domain %q", gate.Domain())
	}
	if err := NewDomainGate("").Allow("a@b.c", true); !errors.Is(err, ErrDomainNotAllowed) {
		t.Fatalf("expected empty domain to admit nobody, got %v", err)
	}
}
