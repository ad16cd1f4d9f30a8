package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/keel-hq/keelctl/internal/config"
	"github.com/keel-hq/keelctl/internal/keychain"
	"github.com/keel-hq/keelctl/internal/localstore"
	"github.com/keel-hq/keelctl/internal/logging"
	"github.com/keel-hq/keelctl/internal/output"
	"github.com/keel-hq/keelctl/internal/store"
	"github.com/keel-hq/keelctl/internal/transport"
	"github.com/keel-hq/keelctl/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

type app struct {
	cfg      *config.Config
	cfgErr   error
	server   string
	output   string
	logLevel string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	in     *bufio.Reader

	log      *zap.Logger
	closeLog func() error

	state *store.State
	api   transport.Adapter
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(os.Stdin, os.Stdout, os.Stderr)
}

func NewRootCommandWithIO(in io.Reader, out, errOut io.Writer) *cobra.Command {
	return newRootCommand(in, out, errOut)
}

func newRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	cfg, cfgErr := config.Load()
	if cfg == nil {
		cfg = config.Default()
	}
	a := &app{
		cfg:    cfg,
		cfgErr: cfgErr,
		stdin:  in,
		stdout: out,
		stderr: errOut,
		log:    zap.NewNop(),
	}

	cmd := &cobra.Command{
		Use:           "keelctl",
		Short:         "Terminal admin console for Keel",
		Long:          "keelctl lists the workloads, tracked images, approvals, audit trail and statistics of a Keel server, and lets an operator approve updates and change policies or tracking.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
	}

	cmd.SetGlobalNormalizationFunc(wordSepNormalizeFunc)
	cmd.PersistentFlags().StringVar(&a.server, "server", "", "Keel API root, e.g. https://keel.example.com/v1 (overrides server.url)")
	cmd.PersistentFlags().StringVarP(&a.output, "output", "o", "", "output format: table|json|yaml (overrides output.format)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug|info|warn|error (overrides logging.level)")

	cmd.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newResourcesCmd(a),
		newApprovalsCmd(a),
		newTrackedCmd(a),
		newAuditCmd(a),
		newStatsCmd(a),
		newSummaryCmd(a),
		newUICmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)

	cmd.SetVersionTemplate(version.String() + "\n")
	cmd.AddGroup(
		&cobra.Group{ID: "session", Title: "Session:"},
		&cobra.Group{ID: "keel", Title: "Keel:"},
		&cobra.Group{ID: "workflow", Title: "Workflow:"},
	)
	cmd.SetHelpCommandGroupID("workflow")
	cmd.SetCompletionCommandGroupID("workflow")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if a.cfgErr != nil && !isConfigCommand(cmd) {
			return fmt.Errorf("invalid %s: %w", configPathSafe(), a.cfgErr)
		}
		if _, err := a.format(); err != nil {
			return err
		}
		return a.initLogger()
	}
	cmd.PersistentPostRunE = func(*cobra.Command, []string) error {
		if a.closeLog != nil {
			return a.closeLog()
		}
		return nil
	}

	cmd.SetErrPrefix("keelctl: ")
	cmd.SetIn(a.stdin)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)
	return cmd
}

// wordSepNormalizeFunc accepts --password_stdin for --password-stdin.
func wordSepNormalizeFunc(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	if strings.Contains(name, "_") {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	}
	return pflag.NormalizedName(name)
}

// isConfigCommand lets `keelctl config ...` repair a broken config file.
func isConfigCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "config" && c.Parent() != nil && !c.Parent().HasParent() {
			return true
		}
	}
	return false
}

func configPathSafe() string {
	p, err := config.FilePath()
	if err != nil {
		return "config"
	}
	return p
}

func (a *app) initLogger() error {
	level := a.cfg.Logging.Level
	if strings.TrimSpace(a.logLevel) != "" {
		level = a.logLevel
	}
	path, err := a.cfg.LogPath()
	if err != nil {
		return err
	}
	log, closeFn, err := logging.New(logging.Config{
		Path:       path,
		Level:      level,
		MaxSizeMB:  a.cfg.Logging.MaxSizeMB,
		MaxBackups: a.cfg.Logging.MaxBackups,
	})
	if err != nil {
		return err
	}
	a.log = log
	a.closeLog = closeFn
	return nil
}

func (a *app) format() (output.Format, error) {
	if strings.TrimSpace(a.output) != "" {
		return output.ParseFormat(a.output)
	}
	return output.ParseFormat(a.cfg.Output.Format)
}

func (a *app) printer(cmd *cobra.Command) *output.Printer {
	f, err := a.format()
	if err != nil {
		f = output.FormatTable
	}
	return output.NewPrinter(cmd.OutOrStdout(), f)
}

func (a *app) serverURL() string {
	if s := strings.TrimSpace(a.server); s != "" {
		return s
	}
	return a.cfg.Server.URL
}

func (a *app) openStorage() (localstore.Storage, error) {
	path, err := localstore.DefaultPath()
	if err != nil {
		return nil, err
	}
	base, err := localstore.Open(path)
	if err != nil {
		return nil, err
	}
	if a.cfg.Session.UseKeychain && keychain.Available() {
		return localstore.NewSecretStore(base, localstore.SystemKeyring, localstore.Password, localstore.AccessToken), nil
	}
	return base, nil
}

// session builds the state and adapter once per command and restores any
// persisted login.
func (a *app) session() (*store.State, transport.Adapter, error) {
	if a.state != nil {
		return a.state, a.api, nil
	}
	storage, err := a.openStorage()
	if err != nil {
		return nil, nil, fmt.Errorf("open session storage: %w", err)
	}
	state := store.New(store.Options{
		Storage:    storage,
		SessionTTL: a.cfg.SessionTTL(),
		Logger:     a.log,
	})
	store.Dispatch(context.Background(), nil, state.User.Restore())
	api, err := transport.NewHTTPAdapter(transport.Options{
		BaseURL:            a.serverURL(),
		InsecureSkipVerify: a.cfg.Server.InsecureSkipVerify,
		Credentials:        state.User.Credentials,
		Logger:             a.log,
	})
	if err != nil {
		return nil, nil, err
	}
	a.state, a.api = state, api
	return state, api, nil
}

// run dispatches action and returns the error it left in its store.
func (a *app) run(ctx context.Context, api transport.Adapter, action store.Action, errOf func() error) error {
	store.Dispatch(ctx, api, action)
	err := errOf()
	if err == nil {
		return nil
	}
	a.log.Warn("action failed", zap.String("action", action.Name), zap.Error(err))
	if transport.IsUnauthorized(err) {
		return fmt.Errorf("%w (run 'keelctl login')", err)
	}
	return err
}

// refresh loads every dashboard collection and joins their errors.
func (a *app) refresh(ctx context.Context) (*store.State, error) {
	state, api, err := a.session()
	if err != nil {
		return nil, err
	}
	state.Refresh(ctx, api)
	err = errors.Join(state.Resources.Err(), state.Tracked.Err(), state.Approvals.Err(), state.Stats.Err())
	if transport.IsUnauthorized(err) {
		return nil, fmt.Errorf("%w (run 'keelctl login')", err)
	}
	return state, err
}
