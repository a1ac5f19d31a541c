// SPDX-License-Identifier: GPL-2.0-or-later

package client

import (
	"sync"

	"gohl/snd"
)

// EntityTable holds the last known state of the client entities sounds follow.
type EntityTable struct {
	mu sync.RWMutex
	m  map[int]snd.Entity
}

func NewEntityTable() *EntityTable {
	return &EntityTable{m: make(map[int]snd.Entity)}
}

func (t *EntityTable) Set(num int, e snd.Entity) {
	t.mu.Lock()
	t.m[num] = e
	t.mu.Unlock()
}

func (t *EntityTable) Remove(num int) {
	t.mu.Lock()
	delete(t.m, num)
	t.mu.Unlock()
}

func (t *EntityTable) Clear() {
	t.mu.Lock()
	clear(t.m)
	t.mu.Unlock()
}

func (t *EntityTable) Entity(num int) (snd.Entity, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.m[num]
	return e, ok
}
