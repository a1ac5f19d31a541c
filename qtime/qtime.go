// SPDX-License-Identifier: GPL-2.0-or-later

package qtime

import (
	"time"
)

var (
	startTime = time.Now()
)

// QTime returns the monotonic time since process start.
func QTime() time.Duration {
	return time.Since(startTime)
}

// Clock returns the current time. Components take a Clock so tests can step time.
type Clock func() time.Duration

// Manual is a Clock that only moves when told to.
type Manual struct {
	now time.Duration
}

func (m *Manual) Now() time.Duration      { return m.now }
func (m *Manual) Advance(d time.Duration) { m.now += d }
func (m *Manual) Set(d time.Duration)     { m.now = d }
