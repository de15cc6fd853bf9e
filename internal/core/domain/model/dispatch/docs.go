// Package dispatch provides the ephemeral Dispatch Offer value object used
// by the offer/acceptance protocols of the fulfillment coordinator.
//
// The package includes:
//   - Offer: a proposal of one order to candidate recipients with an expiry
//   - Stage: which protocol (vendor offer or courier broadcast) an offer serves
//   - Resolution: the single outcome of an offer (accepted-by, rejected-by, expired)
//
// Key business rules:
//   - at most one offer per order is open at a time (enforced by the
//     services.DispatchBoard that owns the offers)
//   - an offer resolves exactly once; late actors get "no longer available"
//   - a rejecter is excluded from every successor offer of the same order
//
// Offers are deliberately in-memory only. The authoritative open-offer fact
// is derivable from persisted order fields, so a restarted process loses
// nothing but latency.
package dispatch
