package listing

import "errors"

var (
	ErrUnauthorized   = errors.New("requester is not the listing owner")
	ErrInvalidState   = errors.New("invalid listing state")
	ErrConflict       = errors.New("conflict")
	ErrNotFound       = errors.New("listing not found")
	ErrInvalidListing = errors.New("invalid listing")
)
