package analysis

import "errors"

// Sentinel errors for the analysis service layer.
var (
	ErrNoSource      = errors.New("no snapshot supplied and no source configured")
	ErrEmptySnapshot = errors.New("snapshot has no performance table")
	// ErrDelivery wraps sink failures. The report itself is still returned.
	ErrDelivery = errors.New("report delivery failed")
)
