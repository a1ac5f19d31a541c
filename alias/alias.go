// SPDX-License-Identifier: GPL-2.0-or-later

// Package alias lets the console give a name to a command line.
package alias

import (
	"slices"
	"strings"
	"sync"

	"gohl/cbuf"
	"gohl/cmd"
	"gohl/conlog"
)

type Aliases struct {
	mu sync.Mutex
	m  map[string]string
}

func New() *Aliases {
	return &Aliases{m: make(map[string]string)}
}

// Register adds the alias, unalias and unaliasall commands.
func (al *Aliases) Register(c *cmd.Commands) error {
	if err := c.Add("alias", al.alias); err != nil {
		return err
	}
	if err := c.Add("unalias", al.unalias); err != nil {
		return err
	}
	return c.Add("unaliasall", al.unaliasAll)
}

func (al *Aliases) alias(a cmd.Arguments) error {
	args := a.Args()[1:]
	switch len(args) {
	case 0:
		al.list()
	case 1:
		if v, ok := al.Get(args[0].String()); ok {
			conlog.Printf("  %s: %s", args[0].String(), v)
		}
	default:
		al.set(args[0].String(), args[1:])
	}
	return nil
}

func (al *Aliases) list() {
	al.mu.Lock()
	defer al.mu.Unlock()
	if len(al.m) == 0 {
		conlog.SafePrintf("no alias commands found\n")
		return
	}
	names := make([]string, 0, len(al.m))
	for k := range al.m {
		names = append(names, k)
	}
	slices.Sort(names)
	for _, k := range names {
		// each alias value ends with a '\n'
		conlog.SafePrintf("  %s: %s", k, al.m[k])
	}
	conlog.SafePrintf("%v alias command(s)\n", len(al.m))
}

func (al *Aliases) set(name string, args []cmd.QArg) {
	// the parts have '"' already removed
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, a.String())
	}
	al.mu.Lock()
	al.m[strings.ToLower(name)] = strings.TrimSpace(strings.Join(parts, " ")) + "\n"
	al.mu.Unlock()
}

func (al *Aliases) unalias(a cmd.Arguments) error {
	if len(a.Args()) != 2 {
		conlog.Printf("unalias <name> : delete alias\n")
		return nil
	}
	name := strings.ToLower(a.Argv(1).String())
	al.mu.Lock()
	defer al.mu.Unlock()
	if _, ok := al.m[name]; !ok {
		conlog.Printf("No alias named %s\n", name)
		return nil
	}
	delete(al.m, name)
	return nil
}

func (al *Aliases) unaliasAll(_ cmd.Arguments) error {
	al.mu.Lock()
	clear(al.m)
	al.mu.Unlock()
	return nil
}

func (al *Aliases) Get(name string) (string, bool) {
	al.mu.Lock()
	defer al.mu.Unlock()
	v, ok := al.m[strings.ToLower(name)]
	return v, ok
}

// Execute returns an executor that replaces an alias by its command line.
func (al *Aliases) Execute() cbuf.Efunc {
	return func(cb *cbuf.CommandBuffer, a cmd.Arguments) (bool, error) {
		v, ok := al.Get(a.Argv(0).String())
		if !ok {
			return false, nil
		}
		cb.InsertText(v)
		return true, nil
	}
}
