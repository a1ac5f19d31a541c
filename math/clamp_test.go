// SPDX-License-Identifier: GPL-2.0-or-later

package math

import (
	"testing"
)

func TestClamp(t *testing.T) {
	for _, tc := range []struct {
		min, val, max, want float32
	}{
		{1, 0, 10, 1},
		{1, 100, 10, 10},
		{1, 5, 10, 5},
		{0, 0.7, 1, 0.7},
	} {
		if got := Clamp(tc.min, tc.val, tc.max); got != tc.want {
			t.Errorf("Clamp(%v,%v,%v) = %v, want %v", tc.min, tc.val, tc.max, got, tc.want)
		}
	}
}
