package service

import "github.com/google/uuid"

// Principal is the authenticated caller, as established by the session
// middleware from identity-provider claims.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Name   string
}

// AdminPolicy decides whether a principal holds administrator rights. It is
// injected rather than compared inline so the rule is swappable and testable.
type AdminPolicy interface {
	IsAdmin(email string) bool
}

type fixedEmailAdminPolicy struct {
	email string
}

// NewFixedEmailAdminPolicy grants administrator rights to exactly one email
// address, compared case-sensitively. An empty address grants nobody.
func NewFixedEmailAdminPolicy(email string) AdminPolicy {
	return fixedEmailAdminPolicy{email: email}
}

func (p fixedEmailAdminPolicy) IsAdmin(email string) bool {
	return p.email != "" && email == p.email
}
