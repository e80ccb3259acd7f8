// Package console is the line-oriented command interface to a session.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

const prefix = "cmd "

// Command is a subcommand with its own flags. Run receives the positional arguments left after flag parsing.
type Command struct {
	Name    string
	Usage   string
	FlagSet *pflag.FlagSet
	Run     func(ctx context.Context, args []string) error
}

// Registry holds subcommands by name.
type Registry struct {
	cmds map[string]*Command
	out  io.Writer
}

// NewRegistry returns an empty registry. Flag errors and usage are written to out.
func NewRegistry(out io.Writer) *Registry {
	return &Registry{cmds: make(map[string]*Command), out: out}
}

// Register adds a subcommand. fs may be nil for commands without flags.
func (r *Registry) Register(name, usage string, fs *pflag.FlagSet, run func(ctx context.Context, args []string) error) {
	if fs == nil {
		fs = pflag.NewFlagSet(name, pflag.ContinueOnError)
	}
	fs.SetOutput(r.out)
	r.cmds[name] = &Command{Name: name, Usage: usage, FlagSet: fs, Run: run}
}

// Names lists registered commands in ascending order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.cmds))
	for n := range r.cmds {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Usage returns the usage line of a command.
func (r *Registry) Usage(name string) (string, bool) {
	c, ok := r.cmds[name]
	if !ok {
		return "", false
	}
	return c.Usage, true
}

// Parse tokenizes a console line. A leading "cmd " is accepted and dropped.
func Parse(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, prefix)
	return strings.Fields(line)
}

// Execute runs the subcommand in args[0] with args[1:] as flags and positionals.
func (r *Registry) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing subcommand")
	}
	cmd, ok := r.cmds[args[0]]
	if !ok {
		return fmt.Errorf("unknown command: %s", args[0])
	}
	if err := resetFlags(cmd.FlagSet); err != nil {
		return err
	}
	if err := cmd.FlagSet.Parse(guardNegatives(args[1:])); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintln(r.out, cmd.Usage)
			return nil
		}
		return err
	}
	return cmd.Run(ctx, cmd.FlagSet.Args())
}

// guardNegatives inserts "--" before the first negative number so "move a -1 0 2"
// reads -1 as a coordinate rather than a shorthand flag. Flags must come before it.
func guardNegatives(args []string) []string {
	for i, a := range args {
		if a == "--" {
			return args
		}
		if len(a) > 1 && a[0] == '-' {
			if _, err := strconv.ParseFloat(a, 64); err == nil {
				out := make([]string, 0, len(args)+1)
				out = append(out, args[:i]...)
				out = append(out, "--")
				return append(out, args[i:]...)
			}
		}
	}
	return args
}

// resetFlags restores defaults so values from a previous line do not leak into the next one.
func resetFlags(fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			if e := sv.Replace(nil); e != nil && err == nil {
				err = e
			}
		} else if e := f.Value.Set(f.DefValue); e != nil && err == nil {
			err = e
		}
		f.Changed = false
	})
	return err
}
