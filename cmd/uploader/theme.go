package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"filerelay/internal/client"
	"filerelay/internal/config"
)

func themeCmd() *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Toggle between the dark and light palette",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadClient()
			if show {
				p, err := client.LoadPrefs(cfg.PrefsPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", p.Theme.Icon(), p.Theme)
				return nil
			}

			theme, err := client.ToggleTheme(cfg.PrefsPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", theme.Icon(), theme)
			return nil
		},
	}

	cmd.Flags().BoolVar(&show, "show", false, "Print the current theme without changing it")

	return cmd
}
