package codes

import "errors"

// Ledger errors, all checkable with errors.Is(). The authorization flow
// handler maps every one of them to the OAuth "invalid_grant" wire error.
var (
	// ErrCodeNotFound is returned for a code the ledger has never issued
	// or has already removed.
	ErrCodeNotFound = errors.New("invalid authorization code")

	// ErrCodeExpiredOrUsed is returned for a code past its lifetime or
	// already consumed.
	ErrCodeExpiredOrUsed = errors.New("authorization code expired or already used")

	// ErrClientMismatch is returned when the presented client_id differs
	// from the one the code was issued to.
	ErrClientMismatch = errors.New("client ID mismatch")

	// ErrRedirectMismatch is returned when the presented redirect_uri
	// differs from the one the code was issued with.
	ErrRedirectMismatch = errors.New("redirect URI mismatch")
)
