// SPDX-License-Identifier: GPL-2.0-or-later

// Package cvar holds the console variables. Names are case insensitive.
package cvar

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"slices"
	"strconv"
	"strings"

	"gohl/cmd"
	"gohl/conlog"

	"github.com/pkg/errors"
)

var (
	cvarByName = make(map[string]*Cvar)
)

type flag uint64

const (
	NONE flag = 0
	// ARCHIVE cvars are written to the config file.
	ARCHIVE flag = 1
	ROM     flag = 1 << 6
)

type CallbackFunc func(cv *Cvar)

type Cvar struct {
	archive  bool
	rom      bool
	callback CallbackFunc
	name     string
	// stringValue is the truth, value the derived one
	stringValue  string
	value        float32
	defaultValue string
}

// All returns the cvars sorted by name.
func All() []*Cvar {
	r := make([]*Cvar, 0, len(cvarByName))
	for _, cv := range cvarByName {
		r = append(r, cv)
	}
	slices.SortFunc(r, func(a, b *Cvar) int { return strings.Compare(a.name, b.name) })
	return r
}

func (cv *Cvar) Archive() bool               { return cv.archive }
func (cv *Cvar) SetCallback(cb CallbackFunc) { cv.callback = cb }
func (cv *Cvar) String() string              { return cv.stringValue }
func (cv *Cvar) Name() string                { return cv.name }
func (cv *Cvar) Value() float32              { return cv.value }
func (cv *Cvar) Default() string             { return cv.defaultValue }

func (cv *Cvar) SetByString(s string) {
	if cv.rom {
		return
	}
	cv.stringValue = s
	pf, _ := strconv.ParseFloat(cv.stringValue, 32)
	cv.value = float32(pf)
	if cv.callback != nil {
		cv.callback(cv)
	}
}

func (cv *Cvar) Reset() {
	cv.SetByString(cv.defaultValue)
}

func (cv *Cvar) SetValue(value float32) {
	if float32(int(value)) == value {
		cv.SetByString(strconv.FormatInt(int64(value), 10))
	} else {
		cv.SetByString(strconv.FormatFloat(float64(value), 'f', -1, 32))
	}
}

func (cv *Cvar) Toggle() {
	if cv.stringValue == "1" {
		cv.SetByString("0")
	} else {
		cv.SetByString("1")
	}
}

func (cv *Cvar) Bool() bool {
	return cv.stringValue != "0" && cv.stringValue != ""
}

func Get(name string) (*Cvar, bool) {
	cv, ok := cvarByName[strings.ToLower(name)]
	return cv, ok
}

func create(name, value string) *Cvar {
	name = strings.ToLower(name)
	cv := &Cvar{name: name, defaultValue: value}
	cv.SetByString(value)
	cvarByName[name] = cv
	return cv
}

func Register(name, value string, flags flag) (*Cvar, error) {
	if _, ok := Get(name); ok {
		return nil, errors.Errorf("Can't register variable %s, already defined", name)
	}
	if cmd.Exists(name) {
		return nil, errors.Errorf("Can't register variable %s, it is a command", name)
	}
	cv := create(name, value)
	cv.archive = flags&ARCHIVE != 0
	// rom last, create had to set the value
	cv.rom = flags&ROM != 0
	return cv, nil
}

func MustRegister(n, v string, flag flag) *Cvar {
	cv, err := Register(n, v, flag)
	if err != nil {
		log.Panic(err)
	}
	return cv
}

// WriteArchived writes every archived cvar that differs from its default as
// a console line.
func WriteArchived(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, cv := range All() {
		if !cv.archive || cv.stringValue == cv.defaultValue {
			continue
		}
		fmt.Fprintf(bw, "%s \"%s\"\n", cv.name, cv.stringValue)
	}
	return errors.Wrap(bw.Flush(), "writing cvars")
}

// Execute handles a console line naming a cvar: it prints the value or sets
// it. It reports false if the first argument is no cvar.
func Execute(a cmd.Arguments) (bool, error) {
	args := a.Args()
	if len(args) == 0 {
		return false, nil
	}
	cv, ok := Get(args[0].String())
	if !ok {
		return false, nil
	}
	if len(args) == 1 {
		conlog.Printf("\"%s\" is \"%s\" (default \"%s\")\n", cv.name, cv.stringValue, cv.defaultValue)
		return true, nil
	}
	cv.SetByString(args[1].String())
	return true, nil
}

func init() {
	cmd.Must(cmd.AddCommand("cvarlist", list))
	cmd.Must(cmd.AddCommand("reset", reset))
	cmd.Must(cmd.AddCommand("set", set))
	cmd.Must(cmd.AddCommand("seta", set))
	cmd.Must(cmd.AddCommand("toggle", toggle))
	cmd.Must(cmd.AddCommand("inc", inc))
}

// set creates user cvars, seta archives them.
func set(a cmd.Arguments) error {
	args := a.Args()
	if len(args) < 3 {
		return errors.Errorf("%s <cvar> <value>", args[0].String())
	}
	name := args[1].String()
	if cmd.Exists(name) {
		return errors.Errorf("%s is a command", name)
	}
	cv, ok := Get(name)
	if !ok {
		cv = create(name, args[2].String())
	} else {
		cv.SetByString(args[2].String())
	}
	if strings.EqualFold(args[0].String(), "seta") {
		cv.archive = true
	}
	return nil
}

func lookup(a cmd.Arguments, usage string, n ...int) (*Cvar, []cmd.QArg, error) {
	args := a.Args()[1:]
	if !slices.Contains(n, len(args)) {
		return nil, nil, errors.New(usage)
	}
	cv, ok := Get(args[0].String())
	if !ok {
		return nil, nil, errors.Errorf("variable %v not found", args[0].String())
	}
	return cv, args[1:], nil
}

func toggle(a cmd.Arguments) error {
	cv, _, err := lookup(a, "toggle <cvar> : toggle cvar", 1)
	if err != nil {
		return err
	}
	cv.Toggle()
	return nil
}

func inc(a cmd.Arguments) error {
	cv, rest, err := lookup(a, "inc <cvar> [amount] : increment cvar", 1, 2)
	if err != nil {
		return err
	}
	amount := float32(1)
	if len(rest) == 1 {
		amount = rest[0].Float32()
	}
	cv.SetValue(cv.Value() + amount)
	return nil
}

func reset(a cmd.Arguments) error {
	cv, _, err := lookup(a, "reset <cvar> : reset cvar to default", 1)
	if err != nil {
		return err
	}
	cv.Reset()
	return nil
}

func list(a cmd.Arguments) error {
	prefix := strings.ToLower(a.Argv(1).String())
	n := 0
	for _, v := range All() {
		if !strings.HasPrefix(v.name, prefix) {
			continue
		}
		n++
		a := " "
		if v.archive {
			a = "*"
		}
		conlog.SafePrintf("%s %s \"%s\"\n", a, v.name, v.stringValue)
	}
	conlog.SafePrintf("%v cvars\n", n)
	return nil
}
