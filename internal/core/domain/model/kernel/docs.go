// Package kernel holds the primitive value objects shared by every aggregate
// in the fulfillment domain.
//
//   - UUID: participant and aggregate identifiers
//   - Money: exact amounts in paise, the minor currency unit
//
// Both are immutable, validate themselves, and reject their zero values, so
// a half-built identifier or amount never leaks past a constructor.
package kernel
