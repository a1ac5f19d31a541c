// SPDX-License-Identifier: GPL-2.0-or-later

package cbuf

import (
	"log"

	"gohl/cmd"
	"gohl/conlog"
)

// Efunc runs a command line. It reports false if the line is not its command.
type Efunc func(*CommandBuffer, cmd.Arguments) (bool, error)

type executors []Efunc

func (ex *executors) execute(c *CommandBuffer, s string) {
	a := cmd.Parse(s)
	args := a.Args()
	if len(args) == 0 {
		return // no tokens
	}
	name := args[0].String()
	for _, e := range *ex {
		if ok, err := e(c, a); err != nil {
			log.Printf("%v", err)
			conlog.Printf("%v\n", err)
			return
		} else if ok {
			return
		}
	}
	log.Printf("Unknown command \"%s\"", name)
	conlog.Printf("Unknown command \"%s\"\n", name)
}
