package auth

import (
	"errors"
	"strings"
)

var (
	ErrDomainNotAllowed = errors.New("email domain not allowed")
	ErrEmailNotVerified = errors.New("email not verified")
)

// DomainGate admits only verified addresses under one institutional domain.
type DomainGate struct {
	suffix string
}

// NewDomainGate accepts domain with or without a leading "@".
func NewDomainGate(domain string) DomainGate {
	domain = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(domain), "@"))
	return DomainGate{suffix: "@" + domain}
}

// Domain returns the configured domain without the leading "@".
func (g DomainGate) Domain() string {
	return strings.TrimPrefix(g.suffix, "@")
}

// Allow reports whether an identity with this email may sign in.
func (g DomainGate) Allow(email string, verified bool) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if g.suffix == "@" || !strings.HasSuffix(email, g.suffix) || len(email) == len(g.suffix) {
		return ErrDomainNotAllowed
	}
	if !verified {
		return ErrEmailNotVerified
	}
	return nil
}
