package host

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/zeebo/errs/v2"

	"storj.io/vcalc"
	"storj.io/vcalc/bitfield"
	"storj.io/vcalc/config"
	"storj.io/vcalc/value"
)

const consoleHelp = `lines that do not start with ':' are evaluated. commands:
  :toggle N          flip bit N
  :width 32|64       change the grid width
  :commit            append the current input to the log and reset
  :clear             reset the input, the views and the grid
  :log               print the log
  :clearlog          empty the log
  :randint [lo hi]   draw an integer in [lo, hi]
  :randreal [lo hi]  draw a real in [lo, hi)
  :grid              print the grid
  :help              print this message
  :quit              exit
`

// Console reads one command or input per line and prints the resulting
// views.
type Console struct {
	sess   *vcalc.Sync
	random config.Random
	log    *slog.Logger
}

func NewConsole(cfg config.Config, log *slog.Logger) (*Console, error) {
	if log == nil {
		log = slog.Default()
	}
	s, err := NewSession(cfg, log, nil)
	if err != nil {
		return nil, err
	}
	return &Console{sess: s, random: cfg.Random, log: log}, nil
}

func (c *Console) Session() *vcalc.Sync { return c.sess }

var (
	promptColor = color.New(color.FgCyan)
	nameColor   = color.New(color.FgHiBlack)
	errColor    = color.New(color.FgRed)
)

// Run processes lines from in until it is exhausted, :quit is read or ctx is
// done.
func (c *Console) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, _ = promptColor.Fprint(out, "> ")
		if !sc.Scan() {
			_, _ = fmt.Fprintln(out)
			return errs.Wrap(sc.Err())
		}

		quit, err := c.Exec(out, sc.Text())
		if err != nil {
			c.log.Debug("command failed", "line", sc.Text(), "error", err)
			_, _ = errColor.Fprintf(out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// Exec runs a single line. It reports whether the line asked to quit.
func (c *Console) Exec(out io.Writer, line string) (quit bool, err error) {
	if !strings.HasPrefix(line, ":") {
		c.sess.Input(line)
		return false, c.writeState(out)
	}

	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		return false, errs.Errorf("missing command")
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "toggle", "t":
		if len(args) != 1 {
			return false, errs.Errorf("usage: :toggle N")
		}
		bit, err := strconv.Atoi(args[0])
		if err != nil {
			return false, errs.Errorf("invalid bit %q", args[0])
		}
		if _, err := c.sess.Toggle(bit); err != nil {
			return false, err
		}
		return false, c.writeState(out)

	case "width", "w":
		if len(args) != 1 {
			return false, errs.Errorf("usage: :width 32|64")
		}
		w, err := bitfield.ParseWidth(args[0])
		if err != nil {
			return false, err
		}
		if err := c.sess.SetWidth(w); err != nil {
			return false, err
		}
		return false, WriteGrid(out, c.sess.Field())

	case "commit", "c":
		e, ok := c.sess.Commit(c.sess.InputText())
		if !ok {
			return false, errs.Errorf("nothing to commit")
		}
		_, err := fmt.Fprint(out, e.String())
		return false, err

	case "clear":
		c.sess.Clear()
		return false, c.writeState(out)

	case "log":
		_, err := fmt.Fprint(out, vcalc.WriteLog(c.sess.Log()))
		return false, err

	case "clearlog":
		c.sess.ClearLog()
		return false, nil

	case "randint", "randreal":
		lo, hi := c.random.IntLow.String(), c.random.IntHigh.String()
		draw := c.sess.RandomInteger
		if cmd == "randreal" {
			lo, hi = c.random.RealLow.String(), c.random.RealHigh.String()
			draw = c.sess.RandomReal
		}
		switch len(args) {
		case 0:
		case 2:
			lo, hi = args[0], args[1]
		default:
			return false, errs.Errorf("usage: :%s [lo hi]", cmd)
		}
		v, err := draw(lo, hi)
		if err != nil {
			return false, err
		}
		return false, c.apply(out, v)

	case "grid", "g":
		return false, WriteGrid(out, c.sess.Field())

	case "help", "h", "?":
		_, err := fmt.Fprint(out, consoleHelp)
		return false, err

	case "quit", "q", "exit":
		return true, nil

	default:
		return false, errs.Errorf("unknown command %q (try :help)", cmd)
	}
}

// apply feeds a drawn value back in as input.
func (c *Console) apply(out io.Writer, v value.Value) error {
	text := v.Format()
	if _, err := fmt.Fprintf(out, "%s\n", text); err != nil {
		return err
	}
	c.sess.Input(text)
	return c.writeState(out)
}

func (c *Console) writeState(out io.Writer) error {
	st := c.sess.State()
	_, err := fmt.Fprintf(out, "%s %s\n%s %s\n%s %s\n",
		nameColor.Sprint("DEC ="), st.Decimal,
		nameColor.Sprint("BIN ="), st.Binary,
		nameColor.Sprint("HEX ="), st.Hex,
	)
	return err
}
