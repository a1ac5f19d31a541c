// SPDX-License-Identifier: GPL-2.0-or-later

// Package cbuf buffers console text and runs it line by line.
package cbuf

import (
	"strings"
	"sync"
)

type CommandBuffer struct {
	mu        sync.Mutex
	buf       string
	wait      bool
	executors executors
}

func (c *CommandBuffer) SetCommandExecutors(e []Efunc) {
	c.executors = e
}

// AddText appends text. It is safe to call from any goroutine.
func (c *CommandBuffer) AddText(text string) {
	c.mu.Lock()
	c.buf += text
	c.mu.Unlock()
}

// InsertText puts text in front of the pending commands.
func (c *CommandBuffer) InsertText(text string) {
	c.mu.Lock()
	c.buf = text + "\n" + c.buf
	c.mu.Unlock()
}

// next removes the next command from the buffer. Commands end at a newline or
// at a ';' outside of quotes.
func (c *CommandBuffer) next() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.buf) == 0 {
		return "", false
	}
	i := 0
	quote := false
LineLoop:
	for i = 0; i < len(c.buf); i++ {
		switch c.buf[i] {
		case '"':
			quote = !quote
		case ';':
			if !quote {
				break LineLoop
			}
		case '\n':
			break LineLoop
		}
	}
	line := c.buf[:i]
	if i < len(c.buf) {
		i++
	}
	c.buf = c.buf[i:]
	return line, true
}

// Execute runs the buffered commands. A "wait" command defers the rest to the
// next call.
func (c *CommandBuffer) Execute() {
	for {
		line, ok := c.next()
		if !ok {
			return
		}
		if strings.TrimSpace(line) == "wait" {
			c.wait = true
		} else {
			c.executors.execute(c, line)
		}
		if c.wait {
			// wait for the next frame to continue executing
			c.wait = false
			return
		}
	}
}
