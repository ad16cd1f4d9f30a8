package cli

import (
	"fmt"

	"github.com/keel-hq/keelctl/internal/config"
	"github.com/keel-hq/keelctl/internal/output"
	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		GroupID: "workflow",
		Short:   "Manage keelctl configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "view",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				f, err := a.format()
				if err != nil {
					return err
				}
				var s string
				if f == output.FormatJSON {
					s, err = a.cfg.ToJSON()
				} else {
					s, err = a.cfg.ToYAML()
				}
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), s)
				if f == output.FormatJSON {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print one configuration value",
			Example: `  keelctl config get server.url
  keelctl config get tui.theme`,
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := a.cfg.GetByKey(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change one configuration value and save the file",
			Example: `  keelctl config set server.url https://keel.example.com/v1
  keelctl config set tui.theme "#722ED1"
  keelctl config set session.ttl 24h`,
			Args: cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				set := func(c *config.Config) error { return c.SetByKey(args[0], args[1]) }
				if a.cfgErr != nil {
					// a file that does not load is replaced
					if err := set(a.cfg); err != nil {
						return err
					}
					if err := config.Save(a.cfg); err != nil {
						return err
					}
				} else if err := config.Update(set); err != nil {
					return err
				}
				a.cfgErr = nil
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the configuration file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				p, err := config.FilePath()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), p)
				return nil
			},
		},
	)
	return cmd
}
