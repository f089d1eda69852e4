// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding used inside taskdeck: the
// query cache's snapshot deep-copies and the service's binary event
// stream.
//
// Encoding is deterministic (RFC 8949 §4.2) so identical logical data
// always produces identical bytes. Timestamps encode as RFC 3339 with
// nanoseconds, so a marshal/unmarshal round trip preserves time
// values exactly — the property the cache's restore-verbatim rollback
// depends on.
package codec
