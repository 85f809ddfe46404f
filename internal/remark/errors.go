package remark

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("submission not found")
	ErrForbidden        = errors.New("not the recipient of this remark")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// storeErr wraps a repository failure so callers can match ErrStoreUnavailable
// while the original cause stays in the chain.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// Kind names the class of err for logs, metrics and transport mapping.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal"
	}
}
