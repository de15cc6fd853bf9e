// Package errs defines the error vocabulary shared across the fulfillment
// coordinator. Every layer classifies failures with these types, so HTTP
// handlers and the sweep can map outcomes without knowing who produced them.
//
// The package follows one pattern per error kind:
//   - a sentinel variable for errors.Is checks (e.g. ErrValueIsRequired)
//   - a struct carrying the offending details
//   - constructors with and without an underlying cause
//   - Error and Unwrap methods so the sentinel is reachable through wrapping
//
// Business-outcome errors live here too: AlreadyResolvedError marks a
// conditional update that lost to a concurrent action, which callers treat
// as an answered race rather than a failure.
package errs
