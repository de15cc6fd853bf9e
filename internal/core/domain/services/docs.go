// Package services provides domain services that orchestrate business
// operations across multiple domain entities in the fulfillment system. It
// implements workflow state that doesn't naturally belong to a single
// aggregate root.
//
// The package includes:
//   - DispatchBoard: in-memory tracking of open dispatch offers, exclusion
//     sets, and offer windows for the broadcast-then-race courier protocol
//
// Domain services coordinate between aggregates, implementing business logic
// that spans multiple bounded contexts following Domain-Driven Design
// principles.
package services
