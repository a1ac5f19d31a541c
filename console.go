package main

import (
	"bufio"
	"fmt"
	"os"
	"sync"

	"gohl/cbuf"
	"gohl/conlog"
)

type consoleReader struct {
	textChan chan string
	mu       sync.Mutex
	out      *bufio.Writer
}

func newConsoleReader() *consoleReader {
	cr := &consoleReader{
		textChan: make(chan string, 1),
		out:      bufio.NewWriter(os.Stdout),
	}
	conlog.SetPrintf(cr.printf)
	conlog.SetSafePrintf(cr.safePrintf)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			cr.textChan <- scanner.Text()
		}
	}()
	return cr
}

// read adds the typed lines exactly as if they had been typed at the console
func (cr *consoleReader) read(cb *cbuf.CommandBuffer) {
	for {
		select {
		case s := <-cr.textChan:
			cb.AddText(s + "\n")
		default:
			return
		}
	}
}

func (cr *consoleReader) printf(format string, v ...interface{}) {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	fmt.Fprintf(cr.out, format, v...)
	cr.out.Flush()
}

// safePrintf output waits for the end of the frame.
func (cr *consoleReader) safePrintf(format string, v ...interface{}) {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	fmt.Fprintf(cr.out, format, v...)
}

func (cr *consoleReader) flush() {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	cr.out.Flush()
}
