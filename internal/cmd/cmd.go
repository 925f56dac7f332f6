// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package cmd holds the command tree the binary exposes. Capabilities
// attach their command surface here at registration time.
package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"
)

// Info describes a command for help output.
type Info struct {
	// Name is the command's name within its parent.
	Name string

	// Args describes the positional arguments, e.g. "<name>".
	Args string

	// Purpose is the one-line description.
	Purpose string

	// Doc is the long help text.
	Doc string
}

// Usage renders a one-line usage string.
func (i *Info) Usage() string {
	if i.Args == "" {
		return i.Name
	}
	return i.Name + " " + i.Args
}

// Command is a runnable command in the tree.
type Command interface {
	// Info returns help metadata.
	Info() *Info

	// SetFlags adds the command's options to f.
	SetFlags(f *gnuflag.FlagSet)

	// Init processes the positional arguments left after flag parsing.
	Init(args []string) error

	// Run executes the command.
	Run(ctx *Context) error
}

// Context carries the streams a command runs against.
type Context struct {
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
}

// Printf writes formatted output to the command's stdout.
func (ctx *Context) Printf(format string, args ...any) {
	fmt.Fprintf(ctx.Stdout, format, args...)
}

// Warningf writes a formatted warning to the command's stderr.
func (ctx *Context) Warningf(format string, args ...any) {
	fmt.Fprintf(ctx.Stderr, "WARNING: "+format+"\n", args...)
}

// CommandBase supplies default implementations for the optional parts
// of the Command interface.
type CommandBase struct{}

// SetFlags is part of the Command interface.
func (c *CommandBase) SetFlags(f *gnuflag.FlagSet) {}

// Init is part of the Command interface.
func (c *CommandBase) Init(args []string) error {
	return CheckEmpty(args)
}

// CheckEmpty returns an error if args is not empty.
func CheckEmpty(args []string) error {
	if len(args) != 0 {
		return errors.Errorf("unrecognized args: %q", args)
	}
	return nil
}

// ZeroOrOneArgs checks for at most one positional argument and returns
// it, or the empty string.
func ZeroOrOneArgs(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", nil
	case 1:
		return args[0], nil
	}
	return "", errors.Errorf("unrecognized args: %q", args[1:])
}

func newFlagSet(name string) *gnuflag.FlagSet {
	f := gnuflag.NewFlagSetWithFlagKnownAs(name, gnuflag.ContinueOnError, "option")
	f.SetOutput(io.Discard)
	return f
}

// indent prefixes every line of text with four spaces, for help output.
func indent(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "    " + line
	}
	return strings.Join(lines, "\n")
}
