package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cometweb/internal/logging"
	"cometweb/internal/scene"
	"cometweb/internal/selection"
	"cometweb/internal/session"
	"cometweb/internal/validation"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// Console executes text commands against a session and prints their results to out.
// Lines that start with "{" are action batches and go to the session's dispatcher.
type Console struct {
	s       *session.Session
	history *logging.History
	reg     *Registry
	out     io.Writer
	log     *zap.Logger
}

// New returns a console with every built-in command registered. history may be nil.
func New(s *session.Session, history *logging.History, out io.Writer, log *zap.Logger) *Console {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Console{s: s, history: history, reg: NewRegistry(out), out: out, log: log.Named("console")}
	c.registerCommands()
	return c
}

// Registry exposes the command registry so callers can add their own commands.
func (c *Console) Registry() *Registry {
	return c.reg
}

// Exec runs one line.
func (c *Console) Exec(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if strings.HasPrefix(line, "{") || strings.HasPrefix(line, "```") {
		res, err := c.s.Actions.Run(ctx, line)
		if err != nil {
			return err
		}
		c.printf("%s\n", res.Summary())
		return nil
	}
	return c.reg.Execute(ctx, Parse(line))
}

// Run reads lines from in until EOF or ctx is done. Command errors are printed, not returned.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-errc
			}
			if err := c.Exec(ctx, line); err != nil {
				c.log.Debug("command failed", zap.String("line", line), zap.Error(err))
				c.printf("error: %v\n", err)
			}
		}
	}
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) registerCommands() {
	addFlags := pflag.NewFlagSet("add", pflag.ContinueOnError)
	addID := addFlags.String("id", "", "primitive id (generated when empty)")
	addPos := addFlags.Float64Slice("pos", nil, "position x,y,z")
	addRot := addFlags.Float64Slice("rot", nil, "rotation x,y,z in degrees")
	addDims := addFlags.Float64Slice("dims", nil, "dimensions for the kind")
	addHidden := addFlags.Bool("hidden", false, "add the primitive hidden")
	c.reg.Register("add", "add <kind> [--id ID] [--pos x,y,z] [--rot x,y,z] [--dims a,b,c] [--hidden]", addFlags,
		func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: add <kind>")
			}
			p := scene.New(*addID, scene.Kind(args[0]))
			var err error
			if len(*addPos) > 0 {
				if p.Position, err = vec3(*addPos); err != nil {
					return fmt.Errorf("--pos: %w", err)
				}
			}
			if len(*addRot) > 0 {
				if p.Rotation, err = vec3(*addRot); err != nil {
					return fmt.Errorf("--rot: %w", err)
				}
			}
			if len(*addDims) > 0 {
				p.Dimensions = append([]float64(nil), *addDims...)
			}
			p.Visible = !*addHidden
			if err := validation.Primitive.Err(p); err != nil {
				return err
			}
			c.s.Add(ctx, p)
			c.printf("added %s %s\n", p.Kind, p.ID)
			return nil
		})

	c.reg.Register("rm", "rm <id>...", nil, func(ctx context.Context, args []string) error {
		if len(args) == 0 {
			return fmt.Errorf("usage: rm <id>...")
		}
		for _, id := range args {
			if !c.s.Remove(ctx, id) {
				return fmt.Errorf("unknown primitive %q", id)
			}
			c.printf("removed %s\n", id)
		}
		return nil
	})

	c.reg.Register("move", "move <id> <x> <y> <z>", nil, func(ctx context.Context, args []string) error {
		id, v, err := idAndVec("move", args)
		if err != nil {
			return err
		}
		if !c.s.Move(ctx, id, v) {
			return fmt.Errorf("unknown primitive %q", id)
		}
		return nil
	})

	c.reg.Register("rotate", "rotate <id> <rx> <ry> <rz>", nil, func(ctx context.Context, args []string) error {
		id, v, err := idAndVec("rotate", args)
		if err != nil {
			return err
		}
		if !c.s.Rotate(ctx, id, v) {
			return fmt.Errorf("unknown primitive %q", id)
		}
		return nil
	})

	for _, name := range []string{"show", "hide"} {
		visible := name == "show"
		c.reg.Register(name, name+" <id>...", nil, func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("usage: %s <id>...", name)
			}
			for _, id := range args {
				if !c.s.SetVisible(ctx, id, visible) {
					return fmt.Errorf("unknown primitive %q", id)
				}
			}
			return nil
		})
	}

	c.reg.Register("clear", "clear", nil, func(ctx context.Context, _ []string) error {
		c.s.Clear(ctx)
		c.printf("scene cleared\n")
		return nil
	})

	c.reg.Register("list", "list", nil, func(_ context.Context, _ []string) error {
		for _, id := range c.s.Viewer.IDs() {
			p, ok := c.s.Viewer.Get(id)
			if !ok {
				continue
			}
			c.printf("%s\n", describe(p))
		}
		return nil
	})

	c.reg.Register("pick", "pick", nil, func(ctx context.Context, _ []string) error {
		p, outcome, ok := c.s.PickAndSelect(ctx)
		if !ok {
			c.printf("nothing under the pointer\n")
			return nil
		}
		c.printf("%s (%s)\n", describe(p), outcomeText(outcome))
		return nil
	})

	selectFlags := pflag.NewFlagSet("select", pflag.ContinueOnError)
	selectNone := selectFlags.Bool("none", false, "clear the selection")
	c.reg.Register("select", "select <id> | select --none", selectFlags, func(_ context.Context, args []string) error {
		id := ""
		switch {
		case *selectNone:
		case len(args) == 1:
			id = args[0]
		case len(args) == 0:
			if cur := c.s.Selection.Current(); cur != "" {
				c.printf("selected %s\n", cur)
			} else {
				c.printf("nothing selected\n")
			}
			return nil
		default:
			return fmt.Errorf("usage: select <id> | select --none")
		}
		outcome, err := c.s.Selection.Request(id)
		if err != nil {
			return err
		}
		c.printf("%s\n", outcomeText(outcome))
		return nil
	})

	c.reg.Register("confirm", "confirm", nil, func(_ context.Context, _ []string) error {
		if !c.s.Popup.Continue() {
			return fmt.Errorf("no confirmation is pending")
		}
		c.printf("selected %s\n", c.s.Selection.Current())
		return nil
	})

	c.reg.Register("cancel", "cancel", nil, func(_ context.Context, _ []string) error {
		if !c.s.Popup.Cancel() {
			return fmt.Errorf("no confirmation is pending")
		}
		c.printf("kept %s\n", c.s.Selection.Current())
		return nil
	})

	notifyFlags := pflag.NewFlagSet("notify", pflag.ContinueOnError)
	notifyReset := notifyFlags.Bool("reset", false, "reset the pending count")
	c.reg.Register("notify", "notify [--reset]", notifyFlags, func(_ context.Context, _ []string) error {
		if *notifyReset {
			c.s.Notifications.Reset()
		}
		c.printf("%d pending\n", c.s.Notifications.Count())
		return nil
	})

	historyFlags := pflag.NewFlagSet("history", pflag.ContinueOnError)
	historyN := historyFlags.IntP("lines", "n", 20, "number of lines to print")
	c.reg.Register("history", "history [-n N]", historyFlags, func(_ context.Context, _ []string) error {
		if c.history == nil {
			return fmt.Errorf("history is not enabled")
		}
		lines := c.history.Lines()
		if n := *historyN; n > 0 && len(lines) > n {
			lines = lines[len(lines)-n:]
		}
		for _, l := range lines {
			c.printf("%s\n", l)
		}
		return nil
	})

	c.reg.Register("help", "help [command]", nil, func(_ context.Context, args []string) error {
		if len(args) == 1 {
			u, ok := c.reg.Usage(args[0])
			if !ok {
				return fmt.Errorf("unknown command: %s", args[0])
			}
			c.printf("%s\n", u)
			return nil
		}
		for _, n := range c.reg.Names() {
			u, _ := c.reg.Usage(n)
			c.printf("  %s\n", u)
		}
		return nil
	})
}

func describe(p scene.Primitive) string {
	vis := ""
	if !p.Visible {
		vis = " hidden"
	}
	return fmt.Sprintf("%s %s pos=%v rot=%v dims=%v%s", p.ID, p.Kind, [3]float64(p.Position), [3]float64(p.Rotation), p.Dimensions, vis)
}

func outcomeText(o selection.Outcome) string {
	switch o {
	case selection.Selected:
		return "selected"
	case selection.Pending:
		return "unsaved changes: confirm or cancel"
	default:
		return "unchanged"
	}
}

func idAndVec(name string, args []string) (string, scene.Vec3, error) {
	if len(args) != 4 {
		return "", scene.Vec3{}, fmt.Errorf("usage: %s <id> <x> <y> <z>", name)
	}
	vals := make([]float64, 3)
	for i, a := range args[1:] {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return "", scene.Vec3{}, fmt.Errorf("%s: %q is not a number", name, a)
		}
		vals[i] = f
	}
	v, err := vec3(vals)
	return args[0], v, err
}

func vec3(vals []float64) (scene.Vec3, error) {
	var v scene.Vec3
	if len(vals) != 3 {
		return v, fmt.Errorf("want 3 values, got %d", len(vals))
	}
	copy(v[:], vals)
	return v, nil
}
