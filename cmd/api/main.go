package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "cityhospital",
		Short:        "City Hospital portal API",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("env-file", "", "optional .env file to load before the environment")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(resetCmd())
	rootCmd.AddCommand(inboxCmd())
	return rootCmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the portal API server and the notification poller",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd)
		},
	}
}

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Rewrite the seed records and clear every inbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Records.Reset(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("records reset to defaults")
			return nil
		},
	}
}

func inboxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inbox <patient>",
		Short: "Print and mark read a patient's unread notifications",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			unread, err := app.Relay.PollUnread(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(unread) == 0 {
				cmd.Printf("no unread notifications for %s\n", args[0])
				return nil
			}
			for _, n := range unread {
				cmd.Printf("%s [%s] %s\n", n.Timestamp, n.Type, n.Message)
			}
			return nil
		},
	}
}
