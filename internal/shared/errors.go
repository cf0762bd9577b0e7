package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication / session errors
	ErrAuthFailed     = fmt.Errorf("authentication failed")
	ErrSessionExpired = fmt.Errorf("session expired")
	ErrRefreshFailed  = fmt.Errorf("session refresh failed")

	// Source service errors
	ErrSourceUnavailable = fmt.Errorf("source playback state unavailable")
	ErrInvalidSnapshot   = fmt.Errorf("invalid playback snapshot")

	// Target service errors
	ErrAPIRequest    = fmt.Errorf("API request failed")
	ErrTrackNotFound = fmt.Errorf("track not found")
	ErrNoMatch       = fmt.Errorf("no matching track")
	ErrUnplayable    = fmt.Errorf("track unplayable at every quality")

	ErrTimeout = fmt.Errorf("operation timed out")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
