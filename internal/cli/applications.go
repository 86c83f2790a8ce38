package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newApplicationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "applications",
		Aliases: []string{"apps"},
		Short:   "Whitelist application commands",
	}

	cmd.AddCommand(newApplicationsListCmd())
	cmd.AddCommand(newApplicationsApproveCmd())
	cmd.AddCommand(newApplicationsRejectCmd())

	return cmd
}

func newApplicationsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending applications",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Application

			if err := client.Get("/api/admin/applications", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newApplicationsApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve an application and whitelist its keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return reviewApplication(args[0], "approve")
		},
	}
}

func newApplicationsRejectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return reviewApplication(args[0], "reject")
		},
	}
}

func reviewApplication(id, action string) error {
	path := fmt.Sprintf("/api/admin/applications/%s/review", url.PathEscape(id))
	req := map[string]string{"action": action}
	var result Application

	if err := client.Post(path, req, &result); err != nil {
		return err
	}

	out := NewOutput(cfg.Output)
	out.Print(result)
	return nil
}
