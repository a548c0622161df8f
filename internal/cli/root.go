package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"aqve/internal/client"
	"aqve/internal/config"
	"aqve/internal/logger"
	"aqve/internal/metrics"
	"aqve/internal/query"
	"aqve/internal/repository"
	"aqve/internal/service"
	"aqve/internal/session"
)

// ErrReported marks a failure the user has already been shown.
var ErrReported = errors.New("already reported")

var errNothingToFetch = errors.New("missing argument")

const annotationAuth = "aqve/auth"

// Options replaces the process defaults. Zero fields keep them.
type Options struct {
	Config *config.Config
	Logger *zap.SugaredLogger
	// Tokens replaces the token store the configuration selects.
	Tokens repository.TokenRepository
	// Registry collects the API client metrics.
	Registry *prometheus.Registry
	In       io.Reader
	Out      io.Writer
	Err      io.Writer
}

// App is the state shared by every command of one invocation.
type App struct {
	opts Options

	configPath string
	apiURL     string
	format     string
	verbose    bool

	cfg         *config.Config
	log         *zap.SugaredLogger
	registry    *prometheus.Registry
	api         *client.Client
	tokens      repository.TokenRepository
	closeTokens func() error
	session     *session.Manager
	svc         *service.Services
	display     *terminalNotifier
	out         *Printer
	in          *bufio.Reader
}

// ExecuteContext runs the CLI with the process arguments.
func ExecuteContext(ctx context.Context) error {
	return Run(ctx, os.Args[1:], Options{})
}

// Run executes args against a fresh command tree.
func Run(ctx context.Context, args []string, opts Options) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	a := &App{opts: opts, display: newTerminalNotifier(opts.Err)}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(opts.In)
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)

	err := root.ExecuteContext(ctx)
	if cerr := a.teardown(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil && a.display.Reported() {
		return fmt.Errorf("%w: %w", ErrReported, err)
	}
	return err
}

func (a *App) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "aqve",
		Short: "Find, book and pay for parking from the terminal",
		Long: `aqve talks to the Aqve parking API.

Sign in once with "aqve login"; the session token is kept in the configured
token store and reused by every later command.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return a.setup(cmd) },
	}
	f := root.PersistentFlags()
	f.StringVar(&a.configPath, "config", "", "path to a YAML config file")
	f.StringVar(&a.apiURL, "api-url", "", "override the API base URL")
	f.StringVarP(&a.format, "output", "o", formatTable, "output format: table, json or yaml")
	f.BoolVarP(&a.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(
		a.loginCommand(),
		a.registerCommand(),
		a.logoutCommand(),
		a.whoamiCommand(),
		a.accountCommand(),
		a.profileCommand(),
		a.parkingCommand(),
		a.bookingsCommand(),
		a.vehiclesCommand(),
		a.paymentsCommand(),
		a.favoritesCommand(),
		a.notificationsCommand(),
		a.watchCommand(),
	)
	return root
}

// requireAuth marks cmd and its subcommands as needing a session.
func requireAuth(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationAuth] = "required"
	return cmd
}

func needsAuth(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationAuth] == "required" {
			return true
		}
	}
	return false
}

func (a *App) setup(cmd *cobra.Command) error {
	ctx := cmd.Context()
	out, err := newPrinter(cmd.OutOrStdout(), a.format)
	if err != nil {
		return err
	}
	a.out = out

	a.cfg = a.opts.Config
	if a.cfg == nil {
		if a.cfg, err = config.Load(a.configPath); err != nil {
			return err
		}
	}
	if a.apiURL != "" {
		a.cfg.APIURL = a.apiURL
	}

	a.log = a.opts.Logger
	if a.log == nil {
		level := "warn"
		if a.verbose {
			level = "debug"
		}
		if a.log, err = logger.New(level, a.cfg.Log.Format); err != nil {
			return err
		}
	}

	a.tokens = a.opts.Tokens
	if a.tokens == nil {
		a.tokens, a.closeTokens, err = repository.OpenTokenRepository(ctx, a.cfg.TokenStore, a.log.Named("tokens"))
		if err != nil {
			return err
		}
	}
	a.registry = a.opts.Registry
	if a.registry == nil {
		a.registry = prometheus.NewRegistry()
	}
	a.api = client.New(a.clientConfig())
	a.session = session.NewManager(a.api.Auth, a.tokens, a.log.Named("session"))
	a.api.SetTokenSource(client.TokenFunc(a.session.Token))

	if err := a.session.Restore(ctx); err != nil {
		return err
	}
	if needsAuth(cmd) && !a.session.IsAuthenticated() {
		return errors.New(`not logged in, run "aqve login" first`)
	}

	recipient := ""
	if u := a.session.User(); u != nil {
		recipient = u.FullName()
	}
	var cards service.Tokenizer
	if a.cfg.Stripe.Key != "" {
		cards = service.NewCardTokenizer(a.cfg.Stripe.Key)
	}
	a.svc = service.New(service.Deps{
		API:      a.api,
		Session:  a.session,
		Notifier: service.NewNotifier(a.cfg, recipient, a.display, a.log),
		Cards:    cards,
		Log:      a.log,
		Context:  ctx,
	})
	return nil
}

func (a *App) clientConfig() client.Config {
	return client.Config{
		BaseURL:   a.cfg.APIURL,
		Timeout:   a.cfg.Timeout,
		Logger:    a.log.Named("client"),
		Metrics:   metrics.NewClientMetrics(a.registry),
		RateLimit: rate.Limit(a.cfg.RateLimit),
		Burst:     a.cfg.RateBurst,
	}
}

func (a *App) teardown() error {
	if a.closeTokens == nil {
		return nil
	}
	err := a.closeTokens()
	a.closeTokens = nil
	return err
}

// fetch runs q once for key and returns its data.
func fetch[K comparable, T any](ctx context.Context, q *query.Query[K, T], key K) (T, error) {
	defer q.Close()
	q.Activate(key)
	st, err := q.Wait(ctx)
	if err != nil {
		return st.Data, err
	}
	if st.Err != nil {
		return st.Data, st.Err
	}
	if !st.HasData {
		return st.Data, errNothingToFetch
	}
	return st.Data, nil
}
