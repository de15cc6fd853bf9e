// Package courier provides domain entities and business logic for courier
// management in the fulfillment system. It implements the Courier aggregate
// root with the availability flag that gates dispatch offers.
//
// The package includes:
//   - Courier: The aggregate root that manages courier identity and availability
//
// Key business rules:
//   - Couriers must have a valid unique identifier and a name
//   - Only available couriers receive courier-offer broadcasts
//   - Winning a dispatch race takes a courier out of the available pool;
//     reporting the delivery puts it back
//
// The package follows Domain-Driven Design principles, providing rich domain
// behavior, encapsulation, and validation to ensure business rules are enforced.
package courier
