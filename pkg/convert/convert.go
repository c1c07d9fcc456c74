// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package convert provides quick conversion utilities between raw text and the
optional values stored in nullable columns.

A nil *string maps to SQL NULL. These helpers decide when a piece of text is
"absent" so that every layer applies the same rule: blank means NULL.
*/
package convert

import "strings"

// TextOrNil trims s and returns a pointer to the result, or nil when the
// trimmed text is empty.
func TextOrNil(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// NilIfBlank returns nil when p is nil or points to whitespace only.
// Otherwise p is returned unchanged.
func NilIfBlank(p *string) *string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return nil
	}
	return p
}

// Text dereferences p, returning "" for nil.
func Text(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
