package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newWhitelistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whitelist",
		Short: "Whitelist management commands",
	}

	cmd.AddCommand(newWhitelistListCmd())
	cmd.AddCommand(newWhitelistAddCmd())
	cmd.AddCommand(newWhitelistRemoveCmd())

	return cmd
}

func newWhitelistListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all whitelist entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []WhitelistEntry

			if err := client.Get("/api/admin/whitelist", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newWhitelistAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <key>",
		Short: "Add a serial or Discord id to the whitelist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"key": args[0]}
			var result WhitelistEntry

			if err := client.Post("/api/admin/whitelist", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newWhitelistRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <key>",
		Short: "Remove a whitelist entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/admin/whitelist/%s", url.PathEscape(args[0]))
			if err := client.Delete(path); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Entry removed")
			return nil
		},
	}
}
