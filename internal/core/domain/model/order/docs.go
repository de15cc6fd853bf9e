// Package order provides domain entities and business logic for order
// management in the fulfillment system. It implements the Order aggregate
// root with lifecycle management, deadline-driven state transitions, and
// derived financial totals.
//
// The package includes:
//   - Order: The aggregate root managing identity, items, lifecycle, and dispatch bookkeeping
//   - Status: A state machine that enforces valid order status transitions
//   - Timeline: The append-only audit log of status transitions
//   - Item: An order line with vendor reference and price snapshot
//   - Totals/CalculateTotals: The pure derivation of financial fields
//   - Timings: The externally tunable deadlines driving timed transitions
//
// Key business rules:
//   - Status follows the workflow placed -> pending_vendor_response ->
//     confirmed -> preparing -> out_for_delivery -> delivered, with
//     cancellation reachable from any non-terminal status
//   - The courier reference is set at most once, on the transition to
//     out_for_delivery, and only while no other courier holds the order
//   - The timeline never records a status twice and its timestamps never
//     go backwards
//   - Financial fields are never mutated directly, only recomputed
//
// The package follows Domain-Driven Design principles, providing rich domain
// behavior, encapsulation, and validation to ensure business rules are enforced.
package order
