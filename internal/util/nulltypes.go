// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"database/sql"
	"time"
)

// NullStringFromValue creates a sql.NullString that is only valid for non-empty strings.
func NullStringFromValue(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// PtrFromNullInt64 returns nil for NULL columns.
func PtrFromNullInt64(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// UnixMilli converts a time into the millisecond timestamps stored in the database.
func UnixMilli(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

// NullUnixMilli converts an optional time into a nullable millisecond timestamp.
func NullUnixMilli(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: UnixMilli(*t), Valid: true}
}

// TimeFromMilli converts a stored millisecond timestamp back into UTC time.
func TimeFromMilli(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// TimePtrFromNullMilli returns nil for NULL timestamps.
func TimePtrFromNullMilli(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := TimeFromMilli(n.Int64)
	return &t
}
