// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cmd

import (
	"fmt"
	"sort"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"
)

// Registry is a command holding subcommands. A Registry is itself a
// Command, so command groups nest.
type Registry struct {
	CommandBase

	name    string
	purpose string
	subcmds map[string]Command

	selected Command
}

// NewRegistry returns an empty command group.
func NewRegistry(name, purpose string) *Registry {
	return &Registry{
		name:    name,
		purpose: purpose,
		subcmds: make(map[string]Command),
	}
}

// Register adds a subcommand. Registering the same name twice is a
// programming error and panics.
func (r *Registry) Register(subcmd Command) {
	name := subcmd.Info().Name
	if _, found := r.subcmds[name]; found {
		panic(fmt.Sprintf("command already registered: %q", name))
	}
	r.subcmds[name] = subcmd
}

// Names returns the registered subcommand names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.subcmds))
	for name := range r.subcmds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the named subcommand.
func (r *Registry) Lookup(name string) (Command, bool) {
	subcmd, ok := r.subcmds[name]
	return subcmd, ok
}

// Info is part of the Command interface.
func (r *Registry) Info() *Info {
	doc := "commands:\n"
	for _, name := range r.Names() {
		doc += indent(fmt.Sprintf("%-24s %s", name, r.subcmds[name].Info().Purpose)) + "\n"
	}
	return &Info{
		Name:    r.name,
		Args:    "<command> ...",
		Purpose: r.purpose,
		Doc:     doc,
	}
}

// Init is part of the Command interface. It selects the subcommand,
// parses its flags and hands it the remaining arguments.
func (r *Registry) Init(args []string) error {
	if len(args) == 0 {
		return errors.Errorf("no command specified")
	}
	subcmd, ok := r.subcmds[args[0]]
	if !ok {
		return errors.NotFoundf("command %q", args[0])
	}
	f := newFlagSet(subcmd.Info().Name)
	subcmd.SetFlags(f)
	if err := f.Parse(true, args[1:]); err != nil {
		if err == gnuflag.ErrHelp {
			return errors.Trace(err)
		}
		return errors.Annotatef(err, "%s", subcmd.Info().Name)
	}
	if err := subcmd.Init(f.Args()); err != nil {
		return errors.Annotatef(err, "%s", subcmd.Info().Name)
	}
	r.selected = subcmd
	return nil
}

// Run is part of the Command interface.
func (r *Registry) Run(ctx *Context) error {
	if r.selected == nil {
		return errors.Errorf("no command selected")
	}
	return errors.Trace(r.selected.Run(ctx))
}

// Main parses args against the registry and runs the selected command,
// returning a process exit code.
func Main(r *Registry, ctx *Context, args []string) int {
	if err := r.Init(args); err != nil {
		fmt.Fprintf(ctx.Stderr, "ERROR: %v\n", err)
		return 2
	}
	if err := r.Run(ctx); err != nil {
		fmt.Fprintf(ctx.Stderr, "ERROR: %v\n", err)
		return 1
	}
	return 0
}
