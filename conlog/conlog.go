// SPDX-License-Identifier: GPL-2.0-or-later

// Package conlog prints to the console. Until a console registers its printer
// everything goes to stdout.
package conlog

import (
	"fmt"
	"sync"
)

var (
	mu sync.RWMutex
	p  = func(format string, v ...interface{}) { fmt.Printf(format, v...) }
	sp = func(format string, v ...interface{}) { fmt.Printf(format, v...) }
)

func SetPrintf(f func(string, ...interface{})) {
	mu.Lock()
	defer mu.Unlock()
	p = f
}

func SetSafePrintf(f func(string, ...interface{})) {
	mu.Lock()
	defer mu.Unlock()
	sp = f
}

func Printf(format string, v ...interface{}) {
	mu.RLock()
	f := p
	mu.RUnlock()
	f(format, v...)
}

// SafePrintf is used for output that may be long (lists) and must not trigger
// a console redraw per line.
func SafePrintf(format string, v ...interface{}) {
	mu.RLock()
	f := sp
	mu.RUnlock()
	f(format, v...)
}
