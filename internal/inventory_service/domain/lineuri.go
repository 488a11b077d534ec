package domain

import (
	"errors"
	"strings"
)

// Line URI validation errors, one per rule. ValidateLineURI returns the
// error for the first rule a candidate violates.
var (
	ErrLineURIEmpty         = errors.New("phone number is required")
	ErrLineURIMissingPrefix = errors.New(`phone number must start with "tel:"`)
	ErrLineURIMissingPlus   = errors.New(`phone number must include "+" after "tel:"`)
	ErrLineURIBadDigits     = errors.New("phone number must be 1 to 15 decimal digits after the \"+\"")
	ErrLineURITooShort      = errors.New("phone number must have at least 7 digits")
)

// ValidateLineURI checks a candidate line URI of the form tel:+<E.164 digits>.
// The rules are applied in a fixed order and the first failure wins:
// non-empty, "tel:" prefix, "+" sign, 1-15 decimal digits, at least 7 digits.
// A nil return means the candidate is valid.
func ValidateLineURI(candidate string) error {
	if candidate == "" {
		return ErrLineURIEmpty
	}
	rest, found := strings.CutPrefix(candidate, "tel:")
	if !found {
		return ErrLineURIMissingPrefix
	}
	digits, found := strings.CutPrefix(rest, "+")
	if !found {
		return ErrLineURIMissingPlus
	}
	if len(digits) < 1 || len(digits) > 15 {
		return ErrLineURIBadDigits
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return ErrLineURIBadDigits
		}
	}
	if len(digits) < 7 {
		return ErrLineURITooShort
	}
	return nil
}
