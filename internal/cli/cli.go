package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/idilsaglam/todo-client/internal/api"
	"github.com/idilsaglam/todo-client/internal/config"
	"github.com/idilsaglam/todo-client/internal/logging"
	"github.com/idilsaglam/todo-client/internal/model"
	"github.com/idilsaglam/todo-client/internal/session"
	"github.com/idilsaglam/todo-client/internal/tui"
	"github.com/idilsaglam/todo-client/internal/ui"
)

// Options tune where the CLI reads and writes. Zero values mean the
// process defaults.
type Options struct {
	Home   string // config and credentials directory; $TODO_HOME or ~/.todo
	Getenv func(string) string
	In     io.Reader
	Out    io.Writer
	Err    io.Writer
	Now    func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Getenv == nil {
		o.Getenv = os.Getenv
	}
	if o.In == nil {
		o.In = os.Stdin
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.Err == nil {
		o.Err = os.Stderr
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// errLoggedOut is returned by commands that need a session when none exists.
var errLoggedOut = errors.New("not logged in")

// usageError marks bad invocations; they exit with 2.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, a ...any) error {
	return &usageError{msg: fmt.Sprintf(format, a...)}
}

// usageArgs turns cobra's argument validation failures into usage errors.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return &usageError{msg: fmt.Sprintf("%s: %v", cmd.Name(), err)}
		}
		return nil
	}
}

// env is what every command runs against. It is filled in by setup once
// flags are parsed.
type env struct {
	opt Options

	home   string
	apiURL string
	theme  string

	cfg     *config.Config
	log     *logrus.Logger
	closer  io.Closer
	session *session.Store
	client  *api.Client
	prompt  *prompter
}

func (e *env) setup(cmd *cobra.Command) error {
	home := e.home
	if home == "" {
		home = e.opt.Home
	}
	if home == "" {
		var err error
		if home, err = config.DefaultHome(); err != nil {
			return err
		}
	}
	cfg, err := config.Load(home)
	if err != nil {
		return err
	}
	if e.apiURL != "" {
		cfg.APIURL = e.apiURL
	}
	if e.theme != "" {
		cfg.Theme = e.theme
	}
	ui.SetTheme(cfg.Theme)

	log, closer, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	e.cfg, e.log, e.closer = cfg, log, closer
	e.session = session.NewStore(home).WithEnv(e.opt.Getenv)

	client, err := api.New(api.Options{
		BaseURL: cfg.APIURL,
		Timeout: cfg.Timeout,
		Logger:  log,
		Tokens:  e.session,
		OnUnauthorized: func() {
			log.Warn("token rejected, session cleared")
		},
	})
	if err != nil {
		return err
	}
	e.client = client
	e.prompt = newPrompter(e.opt.In, e.opt.Err)

	cmd.SetContext(logging.WithContext(cmd.Context(), log))

	log.WithFields(logrus.Fields{
		"command": cmd.CommandPath(),
		"api":     cfg.APIURL,
	}).Debug("start")
	return nil
}

func (e *env) close() {
	if e.closer != nil {
		_ = e.closer.Close()
	}
}

// requireSession fails fast when there is no token to send.
func (e *env) requireSession() error {
	if !e.session.Authenticated() {
		return errLoggedOut
	}
	return nil
}

func newRootCommand(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "todo",
		Short: "A terminal client for your to-do list",
		Long: `todo manages the to-do list stored on a todo API server.

Run it without arguments for the interactive view, or use the
subcommands below from scripts.`,
		Args:          usageArgs(cobra.NoArgs),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.runUI(cmd.Context())
		},
	}
	root.SetIn(e.opt.In)
	root.SetOut(e.opt.Out)
	root.SetErr(e.opt.Err)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{msg: err.Error()}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&e.home, "home", "", "config and credentials directory (default $TODO_HOME or ~/.todo)")
	pf.StringVar(&e.apiURL, "api-url", "", "API base URL (overrides config)")
	pf.StringVar(&e.theme, "theme", "", "color theme: classic, neon or mono")

	root.AddCommand(
		&cobra.Command{
			Use:   "ui",
			Short: "Open the interactive view",
			Args:  usageArgs(cobra.NoArgs),
			RunE: func(cmd *cobra.Command, args []string) error {
				return e.runUI(cmd.Context())
			},
		},
		newListCommand(e),
		newShowCommand(e),
		newAddCommand(e),
		newEditCommand(e),
		newDoneCommand(e),
		newRemoveCommand(e),
		newRemindCommand(e),
		newClearCompletedCommand(e),
		newAuthCommand(e),
	)
	return root
}

func (e *env) runUI(ctx context.Context) error {
	return tui.Run(ctx, tui.Deps{
		Service: e.client,
		Session: e.session,
		Now:     e.opt.Now,
	})
}

// Run executes args and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, opt Options) int {
	e := &env{opt: opt.withDefaults()}
	root := newRootCommand(e)
	root.SetArgs(args)
	defer e.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	if e.log != nil {
		e.log.WithError(err).Error("command failed")
	}
	return report(e.opt.Err, err)
}

// report prints err and maps it to an exit code.
func report(w io.Writer, err error) int {
	var usage *usageError
	switch {
	case errors.As(err, &usage):
		ui.Fail(w, usage.msg)
		ui.Hint(w, "Hint: run `todo --help` for usage")
		return 2
	case errors.Is(err, model.ErrInvalid):
		ui.Fail(w, err.Error())
		return 2
	case errors.Is(err, errLoggedOut):
		ui.Fail(w, "not logged in")
		ui.Hint(w, "Hint: run `todo auth login` first")
		return 1
	case errors.Is(err, api.ErrUnauthorized):
		ui.Fail(w, "session expired: "+api.Message(err))
		ui.Hint(w, "Hint: run `todo auth login` to sign in again")
		return 1
	case errors.Is(err, api.ErrNotFound):
		ui.Fail(w, api.Message(err))
		ui.Hint(w, "Hint: run `todo ls` to see valid ids")
		return 1
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		ui.Fail(w, fmt.Sprintf("%s: %s", apiErr.Op, api.Message(err)))
		return 1
	}
	ui.Fail(w, err.Error())
	return 1
}
