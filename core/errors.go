package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies a RouteError. Every failure that crosses the dispatch
// boundary carries exactly one kind.
type ErrorKind int

const (
	// KindRouteNotFound reports a path with no registered definition.
	KindRouteNotFound ErrorKind = iota + 1
	// KindMissingRequiredParameter reports an absent mandatory parameter.
	KindMissingRequiredParameter
	// KindHandlerNotImplemented reports a definition without a usable handler.
	KindHandlerNotImplemented
	// KindDuplicateCallInProgress reports a fail-fast synchronous duplicate.
	KindDuplicateCallInProgress
	// KindRedirectDepthExceeded reports a redirect chain deeper than allowed.
	KindRedirectDepthExceeded
	// KindPresentationTargetNotSet reports a presentational call without a bridge.
	KindPresentationTargetNotSet
	// KindInvalidURL reports a malformed or foreign scheme URL.
	KindInvalidURL
	// KindCacheError reports a cache failure.
	KindCacheError
	// KindTimeout reports an operation that exceeded its deadline.
	KindTimeout
	// KindValidationFailed reports a malformed definition or parameter.
	KindValidationFailed
	// KindHandlerKindMismatch reports a handler used where its kind is not permitted.
	KindHandlerKindMismatch
	// KindCancelled reports a call stopped by cancellation or sweep.
	KindCancelled
	// KindRejected reports an interceptor rejection.
	KindRejected
	// KindHandlerFailed reports an error or panic raised by a handler body.
	KindHandlerFailed
)

// String returns a stable snake_case name for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindRouteNotFound:
		return "route_not_found"
	case KindMissingRequiredParameter:
		return "missing_required_parameter"
	case KindHandlerNotImplemented:
		return "handler_not_implemented"
	case KindDuplicateCallInProgress:
		return "duplicate_call_in_progress"
	case KindRedirectDepthExceeded:
		return "redirect_depth_exceeded"
	case KindPresentationTargetNotSet:
		return "presentation_target_not_set"
	case KindInvalidURL:
		return "invalid_url"
	case KindCacheError:
		return "cache_error"
	case KindTimeout:
		return "timeout"
	case KindValidationFailed:
		return "validation_failed"
	case KindHandlerKindMismatch:
		return "handler_kind_mismatch"
	case KindCancelled:
		return "cancelled"
	case KindRejected:
		return "rejected"
	case KindHandlerFailed:
		return "handler_failed"
	default:
		return "unknown"
	}
}

// Code returns the HTTP-like status code associated with the kind.
func (k ErrorKind) Code() int {
	switch k {
	case KindRouteNotFound:
		return 404
	case KindMissingRequiredParameter, KindInvalidURL:
		return 400
	case KindHandlerNotImplemented:
		return 501
	case KindDuplicateCallInProgress:
		return 429
	case KindRedirectDepthExceeded:
		return 508
	case KindTimeout:
		return 408
	case KindValidationFailed:
		return 422
	case KindHandlerKindMismatch:
		return 426
	case KindCancelled:
		return 499
	case KindRejected:
		return 403
	default:
		return 500
	}
}

// RouteError is the error type produced by the routing engine.
type RouteError struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

// Error implements the error interface.
func (e *RouteError) Error() string {
	msg := e.message()
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *RouteError) message() string {
	switch e.Kind {
	case KindRouteNotFound:
		return "route not found: " + e.Detail
	case KindMissingRequiredParameter:
		return "missing required parameter: " + e.Detail
	case KindHandlerNotImplemented:
		return withDetail("handler not implemented", e.Detail)
	case KindDuplicateCallInProgress:
		return withDetail("duplicate call in progress", e.Detail)
	case KindRedirectDepthExceeded:
		return withDetail("too many redirects", e.Detail)
	case KindPresentationTargetNotSet:
		return "presentation target not set"
	case KindInvalidURL:
		return "invalid url: " + e.Detail
	case KindCacheError:
		return "cache error: " + e.Detail
	case KindTimeout:
		return withDetail("call timed out", e.Detail)
	case KindValidationFailed:
		return "validation failed: " + e.Detail
	case KindHandlerKindMismatch:
		return "handler kind not permitted in this context: " + e.Detail
	case KindCancelled:
		return withDetail("call cancelled", e.Detail)
	case KindRejected:
		return withDetail("call rejected", e.Detail)
	case KindHandlerFailed:
		return withDetail("handler failed", e.Detail)
	default:
		return withDetail("route error", e.Detail)
	}
}

func withDetail(msg, detail string) string {
	if detail == "" {
		return msg
	}
	return msg + ": " + detail
}

// Unwrap exposes the underlying cause.
func (e *RouteError) Unwrap() error { return e.Err }

// Is matches any RouteError of the same kind, so the Err* sentinels below work
// with errors.Is regardless of detail.
func (e *RouteError) Is(target error) bool {
	t, ok := target.(*RouteError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Code returns the numeric code of the error kind.
func (e *RouteError) Code() int { return e.Kind.Code() }

// Sentinels for errors.Is comparisons.
var (
	ErrRouteNotFound            = &RouteError{Kind: KindRouteNotFound}
	ErrMissingRequiredParameter = &RouteError{Kind: KindMissingRequiredParameter}
	ErrHandlerNotImplemented    = &RouteError{Kind: KindHandlerNotImplemented}
	ErrDuplicateCallInProgress  = &RouteError{Kind: KindDuplicateCallInProgress}
	ErrRedirectDepthExceeded    = &RouteError{Kind: KindRedirectDepthExceeded}
	ErrPresentationTargetNotSet = &RouteError{Kind: KindPresentationTargetNotSet}
	ErrInvalidURL               = &RouteError{Kind: KindInvalidURL}
	ErrCacheError               = &RouteError{Kind: KindCacheError}
	ErrTimeout                  = &RouteError{Kind: KindTimeout}
	ErrValidationFailed         = &RouteError{Kind: KindValidationFailed}
	ErrHandlerKindMismatch      = &RouteError{Kind: KindHandlerKindMismatch}
	ErrCancelled                = &RouteError{Kind: KindCancelled}
	ErrRejected                 = &RouteError{Kind: KindRejected}
	ErrHandlerFailed            = &RouteError{Kind: KindHandlerFailed}
)

// NewRouteNotFound reports an unregistered path.
func NewRouteNotFound(path string) *RouteError {
	return &RouteError{Kind: KindRouteNotFound, Detail: path}
}

// NewMissingParameter reports a missing parameter by name.
func NewMissingParameter(name string) *RouteError {
	return &RouteError{Kind: KindMissingRequiredParameter, Detail: name}
}

// NewDuplicateCall reports a duplicate synchronous call on path.
func NewDuplicateCall(path string) *RouteError {
	return &RouteError{Kind: KindDuplicateCallInProgress, Detail: path}
}

// NewRedirectDepthExceeded reports a redirect chain that exceeded max.
func NewRedirectDepthExceeded(max int) *RouteError {
	return &RouteError{Kind: KindRedirectDepthExceeded, Detail: fmt.Sprintf("max depth %d", max)}
}

// NewInvalidURL reports a URL that could not be ingested.
func NewInvalidURL(raw string, err error) *RouteError {
	return &RouteError{Kind: KindInvalidURL, Detail: raw, Err: err}
}

// NewTimeout reports a call that did not finish within d.
func NewTimeout(d time.Duration) *RouteError {
	return &RouteError{Kind: KindTimeout, Detail: d.String()}
}

// NewValidationFailed reports a validation problem.
func NewValidationFailed(format string, args ...any) *RouteError {
	return &RouteError{Kind: KindValidationFailed, Detail: fmt.Sprintf(format, args...)}
}

// NewKindMismatch reports a handler whose kind is not permitted on path.
func NewKindMismatch(path string) *RouteError {
	return &RouteError{Kind: KindHandlerKindMismatch, Detail: path}
}

// NewCancelled reports a cancelled call on path.
func NewCancelled(path string) *RouteError {
	return &RouteError{Kind: KindCancelled, Detail: path}
}

// NewRejected wraps the error returned by a rejecting interceptor.
func NewRejected(path string, err error) *RouteError {
	return &RouteError{Kind: KindRejected, Detail: path, Err: err}
}

// NewHandlerFailed wraps an error raised by the handler of path.
func NewHandlerFailed(path string, err error) *RouteError {
	return &RouteError{Kind: KindHandlerFailed, Detail: path, Err: err}
}

// KindOf returns the kind of the first RouteError in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var re *RouteError
	if errors.As(err, &re) {
		return re.Kind
	}
	return 0
}
