package service

import (
	"errors"

	"github.com/dairyroute/realtime-service/internal/adapter/store"
)

// Stable wire codes. Clients branch on these: VALIDATION_FAILED means fix
// the input, STORE_UNAVAILABLE means retry silently, FORBIDDEN/NOT_FOUND
// mean the target is wrong. Auth failures never appear here; they reject
// the connection attempt itself.
const (
	CodeValidation       = "VALIDATION_FAILED"
	CodeNotFound         = "NOT_FOUND"
	CodeForbidden        = "FORBIDDEN"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeUnknownEvent     = "UNKNOWN_EVENT"
	CodeInternal         = "INTERNAL"
)

// codeForStoreErr maps data-layer failures onto wire codes. Ownership is
// enforced by the store's write calls, so ErrNotOwned surfaces here as the
// authorization failure.
func codeForStoreErr(err error) string {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, store.ErrNotOwned):
		return CodeForbidden
	case errors.Is(err, store.ErrUnavailable):
		return CodeStoreUnavailable
	default:
		return CodeInternal
	}
}
