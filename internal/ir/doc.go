// Package ir provides the shared data model for ledstory.
//
// This package contains the table record types produced by the loaders, the
// compiled story definition, and the canonical JSON encoding used to compute
// content-addressed artifact IDs. All other internal packages import ir; ir
// imports nothing internal.
//
// Key design constraints:
//   - Records are immutable after load; derived fields (Decade, YearMonth) are
//     computed once by the producer, never by consumers
//   - All JSON tags use snake_case, except chart row fields, which keep the
//     column names the charts encode
//   - Canonical JSON (RFC 8785 key order, NFC strings) is the only encoding
//     used for hashing
package ir
