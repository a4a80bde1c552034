package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agui-dev/agui-go/agui"
	"github.com/agui-dev/agui-go/agui/pkg/db"
)

func serversCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "servers",
		Short: "Manage the local server registry",
	}
	cmd.AddCommand(serversAddCmd(), serversListCmd(), serversRemoveCmd(), serversDefaultCmd())
	return cmd
}

func serversAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <url>",
		Short: "Register a server endpoint under a name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, url := args[0], args[1]
			if err := agui.ValidateServerURL(url); err != nil {
				return err
			}

			svc, err := db.NewService("")
			if err != nil {
				return err
			}
			defer svc.Close()

			server := &db.Server{Name: name, URL: url}
			if err := svc.AddServer(server); err != nil {
				return err
			}

			if server.IsDefault {
				fmt.Fprintf(cmd.OutOrStdout(), "Registered %s -> %s (default)\n", name, url)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Registered %s -> %s\n", name, url)
			}
			return nil
		},
	}
}

func serversListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := db.NewService("")
			if err != nil {
				return err
			}
			defer svc.Close()

			servers, err := svc.ListServers()
			if err != nil {
				return err
			}
			if len(servers) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No servers registered.")
				return nil
			}

			for _, server := range servers {
				marker := " "
				if server.IsDefault {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\t%s\n", marker, server.Name, server.URL)
			}
			return nil
		},
	}
}

func serversRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a registered server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := db.NewService("")
			if err != nil {
				return err
			}
			defer svc.Close()

			if err := svc.RemoveServer(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}

func serversDefaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "default <name>",
		Short: "Mark a registered server as the default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := db.NewService("")
			if err != nil {
				return err
			}
			defer svc.Close()

			if err := svc.SetDefault(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default server is now %s\n", args[0])
			return nil
		},
	}
}
