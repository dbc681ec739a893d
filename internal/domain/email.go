package domain

import (
	"regexp"
	"strings"
)

// emailPattern is a deliberately permissive shape check. Deep validation
// (MX lookups, disposable-domain blocking) belongs to a collaborator this
// core does not own.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// EmailAddress is a validated customer email. Invalid addresses cannot
// exist in the domain.
type EmailAddress struct{ value string }

func NewEmailAddress(raw string) (EmailAddress, error) {
	trimmed := strings.TrimSpace(strings.ToLower(raw))
	if trimmed == "" || !emailPattern.MatchString(trimmed) {
		return EmailAddress{}, NewError(ErrCodeInvalidArgument, "customer_email is not a valid email address")
	}
	return EmailAddress{value: trimmed}, nil
}

func (e EmailAddress) String() string { return e.value }
