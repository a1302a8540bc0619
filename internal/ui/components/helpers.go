// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"

	"github.com/jeranaias/sofia-tui/internal/util"
)

// =============================================================================
// SHARED HELPER FUNCTIONS
// =============================================================================

// fmtNumber formats n with "." thousand separators, as pt-BR does.
func fmtNumber(n int64) string {
	if n < 0 {
		// Format the magnitude as unsigned so MinInt64 does not overflow.
		return "-" + groupDigits(strconv.FormatUint(uint64(-(n+1))+1, 10))
	}
	return groupDigits(strconv.FormatInt(n, 10))
}

func groupDigits(s string) string {
	if len(s) <= 3 {
		return s
	}
	out := make([]byte, 0, len(s)+len(s)/3)
	lead := len(s) % 3
	if lead == 0 {
		lead = 3
	}
	out = append(out, s[:lead]...)
	for i := lead; i < len(s); i += 3 {
		out = append(out, '.')
		out = append(out, s[i:i+3]...)
	}
	return string(out)
}

// fit truncates s to width display cells, or pads it up to width.
func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return util.PadWidth(util.TruncateWidth(s, width), width)
}
