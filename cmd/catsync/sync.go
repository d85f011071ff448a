package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/catsync/catsync/model"
)

const (
	serverFlag = "server"
	scopeFlag  = "scope"
	limitFlag  = "limit"
)

func init() {
	syncCmd.PersistentFlags().String(serverFlag, "http://localhost:8087", "The catsync server to communicate with")
	syncCmd.PersistentFlags().String(scopeFlag, "default", "The sync scope (import profile) to control")

	syncStartCmd.Flags().Int64(limitFlag, 0, "Maximum number of items to process this run; 0 means unlimited")

	syncCmd.AddCommand(syncStartCmd)
	syncCmd.AddCommand(syncPauseCmd)
	syncCmd.AddCommand(syncResumeCmd)
	syncCmd.AddCommand(syncCancelCmd)
	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncHistoryCmd)
	syncCmd.AddCommand(syncLogsCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Control catalog syncs on a running catsync server.",
}

func clientAndScope(command *cobra.Command) (*model.Client, string) {
	server, _ := command.Flags().GetString(serverFlag)
	scope, _ := command.Flags().GetString(scopeFlag)
	return model.NewClient(server), scope
}

func printJSON(data interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

var syncStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Begin a new sync run for a scope.",
	RunE: func(command *cobra.Command, args []string) error {
		command.SilenceUsage = true
		client, scope := clientAndScope(command)
		limit, _ := command.Flags().GetInt64(limitFlag)

		state, err := client.StartSync(scope, &model.StartSyncRequest{Limit: limit})
		if err != nil {
			return err
		}
		return printJSON(state)
	},
}

var syncPauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause a running sync at the next batch boundary.",
	RunE: func(command *cobra.Command, args []string) error {
		command.SilenceUsage = true
		client, scope := clientAndScope(command)
		return client.PauseSync(scope)
	},
}

var syncResumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume a paused sync from its saved cursor.",
	RunE: func(command *cobra.Command, args []string) error {
		command.SilenceUsage = true
		client, scope := clientAndScope(command)
		return client.ResumeSync(scope)
	},
}

var syncCancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel a sync at the next batch boundary.",
	RunE: func(command *cobra.Command, args []string) error {
		command.SilenceUsage = true
		client, scope := clientAndScope(command)
		return client.CancelSync(scope)
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Fetch the current sync state of a scope.",
	RunE: func(command *cobra.Command, args []string) error {
		command.SilenceUsage = true
		client, scope := clientAndScope(command)

		state, err := client.GetSyncStatus(scope)
		if err != nil {
			return err
		}
		if state == nil {
			logger.Infof("no sync state exists for scope %s", scope)
			return nil
		}
		return printJSON(state)
	},
}

var syncHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Fetch the run history of a scope.",
	RunE: func(command *cobra.Command, args []string) error {
		command.SilenceUsage = true
		client, scope := clientAndScope(command)

		runs, err := client.GetSyncHistory(scope)
		if err != nil {
			return err
		}
		return printJSON(runs)
	},
}

var syncLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Fetch the recent log feed of a scope.",
	RunE: func(command *cobra.Command, args []string) error {
		command.SilenceUsage = true
		client, scope := clientAndScope(command)

		entries, err := client.GetRecentLogs(scope)
		if err != nil {
			return err
		}
		return printJSON(entries)
	},
}
