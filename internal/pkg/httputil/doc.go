// Package httputil writes the JSON envelopes shared by the analysis API:
// successful payloads, and errors carrying an optional machine-readable code
// that clients switch on.
package httputil
