package domain

import "errors"

var (
	// ErrNotFound indicates that a requested record was not found.
	ErrNotFound = errors.New("phone number record not found")
	// ErrDuplicateLineURI indicates a line URI already exists for the tenant.
	ErrDuplicateLineURI = errors.New("line URI already exists for tenant")
)
