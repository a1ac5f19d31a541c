// SPDX-License-Identifier: GPL-2.0-or-later

package cmd

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

type QFunc func(args Arguments) error

type Commands map[string]QFunc

func New() *Commands {
	c := make(Commands)
	return &c
}

func (c *Commands) Add(name string, f QFunc) error {
	ln := strings.ToLower(name)
	if _, ok := (*c)[ln]; ok {
		return errors.Errorf("Cmd_AddCommand: %s already defined", ln)
	}
	(*c)[ln] = f
	return nil
}

func (c *Commands) Exists(cmdName string) bool {
	name := strings.ToLower(cmdName)
	_, ok := (*c)[name]
	return ok
}

func (c *Commands) List() []string {
	cmds := make([]string, 0, len(*c))
	for cmd := range *c {
		cmds = append(cmds, cmd)
	}
	sort.Strings(cmds)
	return cmds
}

// Execute runs the command named by the first argument. It reports false if
// no such command exists.
func (c *Commands) Execute(a Arguments) (bool, error) {
	n := a.Args()
	if len(n) == 0 {
		return false, nil
	}
	name := strings.ToLower(n[0].String())
	cmd, ok := (*c)[name]
	if !ok {
		return false, nil
	}
	if err := cmd(a); err != nil {
		return true, errors.Wrap(err, name)
	}
	return true, nil
}

var (
	commands = make(Commands)
)

// Default returns the commands the package level functions work on.
func Default() *Commands {
	return &commands
}

func Must(err error) {
	if err != nil {
		panic(err.Error())
	}
}

func AddCommand(name string, f QFunc) error {
	return commands.Add(name, f)
}

func Exists(cmdName string) bool {
	return commands.Exists(cmdName)
}

func Execute(a Arguments) (bool, error) {
	return commands.Execute(a)
}

func List() []string {
	return commands.List()
}
