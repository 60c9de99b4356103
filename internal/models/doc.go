// Package models defines the core domain models for Paytungan.
//
// # Entities
//
//   - User: an account anchored to an external identity-provider uid
//   - SplitBill: a shared expense pool hosted by one user
//   - Bill: one participant's share of a split bill
//   - Payment: a collection attempt for a bill, backed by a gateway invoice
//   - Payout: the disbursement of collected funds to the split bill host
//
// Invoice is the gateway-side view of a payment. It is never persisted; the
// payment engine fetches it on every read and decorates Payment with it.
//
// # Specs
//
// Operations take parameter objects ("specs") rather than long argument
// lists. Specs are plain values and are never persisted.
//
// # Conventions
//
//  1. Ids are int64, assigned by the store.
//  2. Amounts are int64 in the smallest currency unit (rupiah).
//  3. Relationships are expressed by id, never by pointer.
//  4. DeletedAt marks a soft-deleted row; stores never return those rows.
package models
