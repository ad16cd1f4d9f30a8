package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/keel-hq/keelctl/internal/model"
	"github.com/keel-hq/keelctl/internal/store"
	"github.com/keel-hq/keelctl/internal/transport"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var errNotLoggedIn = errors.New("not logged in (run 'keelctl login')")

func newLoginCmd(a *app) *cobra.Command {
	var (
		username      string
		passwordStdin bool
		refresh       bool
	)
	cmd := &cobra.Command{
		Use:     "login",
		GroupID: "session",
		Short:   "Log in to the Keel server and persist the session",
		Example: `  keelctl login --username admin
  echo "$KEEL_PASSWORD" | keelctl login --username admin --password-stdin
  keelctl login --refresh`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, api, err := a.session()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			p := a.printer(cmd)
			if refresh {
				if state.User.Phase() != store.PhaseAuthenticated {
					return errNotLoggedIn
				}
				if err := a.run(ctx, api, state.User.RefreshToken(), state.User.Err); err != nil {
					return fmt.Errorf("refresh session: %w", err)
				}
				p.Success("Session refreshed for %s", state.User.Credentials().Username)
				return nil
			}

			if strings.TrimSpace(username) == "" {
				if passwordStdin {
					return errors.New("--password-stdin requires --username")
				}
				username, err = a.promptLine(cmd, "Username: ")
				if err != nil {
					return err
				}
			}
			if username == "" {
				return errors.New("username is required")
			}
			password, err := a.readPassword(cmd, passwordStdin)
			if err != nil {
				return err
			}

			req := model.LoginRequest{Username: username, Password: password}
			store.Dispatch(ctx, api, state.User.Login(req))
			if err := state.User.Err(); err != nil {
				// servers without a login endpoint accept basic auth directly
				if transport.StatusCode(err) != http.StatusNotFound {
					return fmt.Errorf("login: %w", err)
				}
				a.log.Info("login endpoint missing, falling back to basic auth")
				p.Warning("%s has no login endpoint, using basic auth", a.serverURL())
				creds := model.Credentials{Username: username, Password: password}
				if err := a.run(ctx, api, state.User.LoginSuccess(creds), state.User.Err); err != nil {
					return err
				}
			}
			if err := a.run(ctx, api, state.User.GetInfo(), state.User.Err); err != nil {
				return fmt.Errorf("login: %w", err)
			}
			name := state.User.Name()
			if name == "" {
				name = username
			}
			p.Success("Logged in to %s as %s", a.serverURL(), name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "swap the stored token for a fresh one")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "logout",
		GroupID: "session",
		Short:   "Forget the stored session",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, _, err := a.session()
			if err != nil {
				return err
			}
			if err := a.run(cmd.Context(), nil, state.User.Logout(), state.User.Err); err != nil {
				return err
			}
			a.printer(cmd).Success("Logged out")
			return nil
		},
	}
}

type whoami struct {
	Name     string   `json:"name" yaml:"name"`
	Username string   `json:"username" yaml:"username"`
	Roles    []string `json:"roles" yaml:"roles"`
	Avatar   string   `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	Welcome  string   `json:"welcome" yaml:"welcome"`
	Server   string   `json:"server" yaml:"server"`
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "whoami",
		GroupID: "session",
		Short:   "Show the logged in user",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, api, err := a.session()
			if err != nil {
				return err
			}
			if state.User.Phase() != store.PhaseAuthenticated {
				return errNotLoggedIn
			}
			if err := a.run(cmd.Context(), api, state.User.GetInfo(), state.User.Err); err != nil {
				return err
			}
			info := state.User.Info()
			out := whoami{
				Name:     state.User.Name(),
				Username: state.User.Credentials().Username,
				Roles:    state.User.Roles(),
				Avatar:   state.User.Avatar(),
				Welcome:  state.User.Welcome(),
				Server:   a.serverURL(),
			}
			if info != nil && info.Username != "" {
				out.Username = info.Username
			}
			p := a.printer(cmd)
			if p.Structured() {
				return p.Object(out)
			}
			p.Println(out.Welcome + ", " + out.Name)
			p.KeyValues([][2]string{
				{"Username", out.Username},
				{"Roles", strings.Join(out.Roles, ", ")},
				{"Server", out.Server},
			})
			return nil
		},
	}
}

func (a *app) reader() *bufio.Reader {
	if a.in == nil {
		a.in = bufio.NewReader(a.stdin)
	}
	return a.in
}

func (a *app) promptLine(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, err := a.reader().ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(prompt), ": "), err)
	}
	return strings.TrimSpace(line), nil
}

func (a *app) readPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	if fromStdin {
		b, err := io.ReadAll(a.reader())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(string(b), "\r\n"), nil
	}
	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := a.promptLine(cmd, "Password: ")
	if err != nil {
		return "", err
	}
	return line, nil
}
