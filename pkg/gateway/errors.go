package gateway

import "errors"

var (
	// ErrAuthentication indicates a missing or invalid credential at
	// handshake. The connection is rejected before any room join.
	ErrAuthentication = errors.New("gateway: authentication failed")

	// ErrAppTypeMismatch indicates the declared surface conflicts with the
	// credential's embedded surface claim: either a misconfigured client or a
	// credential replayed against the wrong surface.
	ErrAppTypeMismatch = errors.New("gateway: app type mismatch")

	// ErrInvalidAppType indicates the handshake declared a missing or
	// unrecognized surface.
	ErrInvalidAppType = errors.New("gateway: invalid app type")

	// ErrHubClosed is returned when operations are attempted on a closed hub.
	ErrHubClosed = errors.New("gateway: hub is closed")

	// ErrShutdownTimeout is returned when hub shutdown exceeds its deadline.
	ErrShutdownTimeout = errors.New("gateway: shutdown timeout exceeded")
)

// Handshake rejection reasons, used as metric labels and audit log fields.
const (
	reasonMissingToken      = "missing_token"
	reasonInvalidToken      = "invalid_token"
	reasonMissingAppType    = "missing_app_type"
	reasonInvalidAppType    = "invalid_app_type"
	reasonAppTypeMismatch   = "app_type_mismatch"
	reasonInvalidPermission = "invalid_permission"
)
