// Package cli is the terminal front end: one command per marketplace page or
// action, backed by the board view models and a persisted session.
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/k0kubun/pp/v3"
	"go.uber.org/zap"

	"ideabridge.org/internal/apiclient"
	"ideabridge.org/internal/config"
	"ideabridge.org/internal/obs"
	"ideabridge.org/internal/session"
)

// Options wires the App to its environment. Zero values use the process defaults.
type Options struct {
	Stdout     io.Writer
	Stdin      io.Reader
	HTTPClient *http.Client
	Store      session.Store
	Yes        bool
	Raw        bool
}

// App runs commands against one API with one session.
type App struct {
	cfg     *config.Config
	sess    *session.Session
	store   session.Store
	api     *apiclient.Client
	out     io.Writer
	in      *bufio.Reader
	printer *pp.PrettyPrinter
	yes     bool
	raw     bool
}

// New opens the session store, restores any saved session and builds the API client.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stdin == nil {
		opts.Stdin = strings.NewReader("")
	}
	store := opts.Store
	if store == nil {
		var err error
		store, err = session.OpenStore(ctx, cfg.Session.Driver, cfg.Session.DSN)
		if err != nil {
			return nil, err
		}
	}
	sess := session.New(store)
	if err := sess.Restore(ctx); err != nil {
		obs.Logger().Warn("discarding unreadable session", zap.Error(err))
		_ = sess.End(ctx)
	}

	paths, err := apiclient.DefaultPaths().Override(cfg.API.Paths)
	if err != nil {
		return nil, err
	}
	clientOpts := []apiclient.Option{
		apiclient.WithTokenSource(sess),
		apiclient.WithPaths(paths),
		apiclient.WithTimeout(cfg.API.Timeout),
		apiclient.WithRateLimit(cfg.API.RatePerSec, cfg.API.Burst),
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, apiclient.WithHTTPClient(opts.HTTPClient))
	}
	api, err := apiclient.New(cfg.API.BaseURL, clientOpts...)
	if err != nil {
		return nil, err
	}

	printer := pp.New()
	printer.SetColoringEnabled(false)
	printer.SetOutput(opts.Stdout)

	return &App{
		cfg:     cfg,
		sess:    sess,
		store:   store,
		api:     api,
		out:     opts.Stdout,
		in:      bufio.NewReader(opts.Stdin),
		printer: printer,
		yes:     opts.Yes,
		raw:     opts.Raw,
	}, nil
}

// Close releases the session store.
func (a *App) Close() error { return a.store.Close() }

// Session is the active session.
func (a *App) Session() *session.Session { return a.sess }

// Execute runs one command line, e.g. []string{"comment", "add", "3", "hi"}.
func (a *App) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
	rest := args[1:]
	if len(rest) < cmd.minArgs {
		return fmt.Errorf("%w: %s %s", errUsage, args[0], cmd.usage)
	}
	if cmd.route != nil {
		if _, err := a.sess.Guard(cmd.route(a.sess, rest)); err != nil {
			return fmt.Errorf("%w: run \"ideabridge login <email> <password>\" first", err)
		}
	}
	return cmd.run(ctx, a, rest)
}

// confirm asks prompt on the terminal unless -yes was given.
func (a *App) confirm(prompt string) bool {
	if a.yes {
		return true
	}
	fmt.Fprintf(a.out, "%s [y/N] ", prompt)
	line, _ := a.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// dump prints v with pp when -raw is set and reports whether it did.
func (a *App) dump(v any) bool {
	if !a.raw {
		return false
	}
	a.printer.Println(v)
	return true
}

var errUsage = errors.New("usage")

// Main parses global flags, loads configuration and runs one command. It
// returns the process exit code.
func Main(ctx context.Context, args []string, stdout, stderr io.Writer, stdin io.Reader) int {
	fs := flag.NewFlagSet("ideabridge", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configFile = fs.String("config", "", "Path to ideabridge.yaml")
		envFile    = fs.String("env", "", "Path to a .env file")
		yes        = fs.Bool("yes", false, "Answer yes to every confirmation prompt")
		raw        = fs.Bool("raw", false, "Dump view models instead of tables")
	)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: ideabridge [-config path] [-yes] [-raw] <command> [args]")
		fmt.Fprintln(stderr)
		writeHelp(stderr)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(config.Options{ConfigFile: *configFile, EnvFile: *envFile})
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	logger, err := obs.NewLogger(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(stderr, "logger: %v\n", err)
		return 1
	}
	restore := obs.SetLogger(logger)
	defer func() {
		_ = logger.Sync()
		restore()
	}()

	app, err := New(ctx, cfg, Options{Stdout: stdout, Stdin: stdin, Yes: *yes, Raw: *raw})
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	defer app.Close()

	if err := app.Execute(ctx, fs.Args()); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "%v\n\n", err)
			writeHelp(stderr)
			return 2
		}
		fmt.Fprintf(stderr, "error: %s\n", apiclient.Message(err))
		return 1
	}
	return 0
}
