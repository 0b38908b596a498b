package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MatusOllah/slogcolor"
	"github.com/fatih/color"
	"github.com/gorilla/handlers"
	"github.com/mattn/go-isatty"
	"github.com/zeebo/clingy"
	"github.com/zeebo/errs/v2"
	"golang.org/x/sync/errgroup"

	"storj.io/vcalc/config"
	"storj.io/vcalc/host"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ok, err := clingy.Environment{
		Root: new(root),
		Name: "vcalc",
		Args: os.Args[1:],
	}.Run(ctx, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
	}
	if !ok || err != nil {
		os.Exit(1)
	}
}

type root struct {
	config string
	addr   string
	level  string
	reload string
}

func (r *root) Setup(params clingy.Parameters) {
	r.config = params.Flag("config", "Path or URL of a configuration file", "",
		clingy.Short('c'),
	).(string)
	r.addr = params.Flag("addr", "Address to bind the HTTP server to; the console is used when empty", "",
		clingy.Short('a'),
	).(string)
	r.level = params.Flag("log-level", "Minimum level of log messages", "info").(string)
	r.reload = params.Flag("reload", "Interval to reload the configuration at while serving; 0 disables", "0s").(string)
}

func (r *root) Execute(ctx context.Context) (err error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(r.level)); err != nil {
		return errs.Wrap(err)
	}
	log := newLogger(os.Stderr, level)

	cfg, err := r.load(ctx)
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if r.addr != "" {
		addr = r.addr
	}

	if addr == "" {
		console, err := host.NewConsole(cfg, log)
		if err != nil {
			return err
		}
		return console.Run(ctx, clingy.Stdin(ctx), clingy.Stdout(ctx))
	}

	return r.serve(ctx, cfg, addr, log)
}

func (r *root) load(ctx context.Context) (config.Config, error) {
	if r.config == "" {
		return config.Default(), nil
	}
	return config.Load(ctx, r.config)
}

func (r *root) serve(ctx context.Context, cfg config.Config, addr string, log *slog.Logger) error {
	srv, err := host.NewServer(cfg, log)
	if err != nil {
		return err
	}
	srv.Middleware = func(h http.Handler) http.Handler {
		return handlers.RecoveryHandler(
			handlers.RecoveryLogger(slog.NewLogLogger(log.Handler(), slog.LevelError)),
			handlers.PrintRecoveryStack(true),
		)(handlers.ProxyHeaders(h))
	}

	interval, err := time.ParseDuration(r.reload)
	if err != nil {
		return errs.Wrap(err)
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return errs.Wrap(err)
	}
	defer func() { _ = lis.Close() }()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Serve(ctx, lis, time.Duration(cfg.Server.ShutdownTimeout))
	})

	if interval > 0 && r.config != "" {
		rl := host.NewReloader(srv, r.load, interval)

		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)

		g.Go(func() error {
			defer signal.Stop(hup)
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hup:
					rl.Trigger()
				}
			}
		})
		g.Go(func() error {
			rl.Run(ctx)
			return nil
		})
	}

	return g.Wait()
}

// newLogger writes colored logs to out when it is a terminal. fatih/color only
// checks stdout, so the decision is made here for the log destination.
func newLogger(out io.Writer, level slog.Level) *slog.Logger {
	color.NoColor = os.Getenv("NO_COLOR") != "" || !isTerminal(out)

	logger := slog.New(slogcolor.NewHandler(out, &slogcolor.Options{
		Level:         level,
		TimeFormat:    "15:04:05.000",
		SrcFileMode:   slogcolor.ShortFile,
		SrcFileLength: 16,
		MsgPrefix:     color.HiWhiteString("|"),
		MsgColor:      color.New(color.FgHiWhite),
		MsgLength:     24,
	}))
	slog.SetDefault(logger)

	return logger
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
