package domain

import "errors"

var (
	// ErrNotFound indicates that a requested resource was not found.
	ErrNotFound = errors.New("resource not found")
	// ErrDuplicateTenantName indicates the tenant name is already taken.
	ErrDuplicateTenantName = errors.New("tenant name already exists")
	// ErrUnknownCredentialKind indicates an unsupported credential kind.
	ErrUnknownCredentialKind = errors.New("unknown credential kind")
	// ErrSecretNotSet indicates an operation needed a secret that has not
	// been saved for the tenant yet.
	ErrSecretNotSet = errors.New("credential secret has not been set")
)
