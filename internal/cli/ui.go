package cli

import (
	"errors"
	"os"

	"github.com/keel-hq/keelctl/internal/config"
	"github.com/keel-hq/keelctl/internal/theme"
	"github.com/keel-hq/keelctl/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newUICmd(a *app) *cobra.Command {
	var themeFlag string
	cmd := &cobra.Command{
		Use:     "ui",
		Aliases: []string{"console", "tui"},
		GroupID: "workflow",
		Short:   "Open the interactive console",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, api, err := a.session()
			if err != nil {
				return err
			}
			primary := a.cfg.TUI.Theme
			if themeFlag != "" {
				primary = themeFlag
			}
			styles, err := theme.NewStyles(primary, a.cfg.TUI.Colors)
			if err != nil {
				return err
			}
			opts := ui.Options{
				State:           state,
				API:             api,
				Styles:          styles,
				RefreshInterval: a.cfg.RefreshIntervalDuration(),
				Voter:           a.cfg.Approvals.Voter,
				Server:          a.serverURL(),
				SaveTheme: func(primary string) error {
					return config.Update(func(c *config.Config) error {
						return c.SetByKey("tui.theme", primary)
					})
				},
				Logger: a.log,
			}
			if path, err := config.FilePath(); err == nil {
				if _, statErr := os.Stat(path); statErr == nil {
					m := config.NewManager(path)
					if err := m.Load(); err == nil {
						opts.Config = m
					}
				} else if !errors.Is(statErr, os.ErrNotExist) {
					a.log.Warn("config watch disabled", zap.Error(statErr))
				}
			}
			return ui.Run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&themeFlag, "theme", "", "primary colour for this session: a palette name or #rrggbb")
	return cmd
}
