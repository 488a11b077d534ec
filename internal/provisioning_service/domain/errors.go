package domain

import "errors"

var (
	// ErrNotFound indicates that a requested resource was not found.
	ErrNotFound = errors.New("resource not found")
	// ErrDuplicateName indicates a profile name already exists for the tenant.
	ErrDuplicateName = errors.New("profile name already exists for tenant")
	// ErrEmptyBatch indicates a bulk assignment with no requests.
	ErrEmptyBatch = errors.New("bulk assignment batch is empty")
)
