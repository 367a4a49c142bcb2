// Package device holds the device registry and the per-device status ledger.
//
// A device belongs to exactly one account, identified by the owner's email,
// and the owner never changes after creation. Every device carries an
// append-only status history that is seeded with a single OFF event inside
// the same transaction that creates the device, so a device can never be
// observed without a history. Deleting a device removes its history in the
// same statement via a foreign-key cascade.
package device
