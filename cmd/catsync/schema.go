package main

import (
	"github.com/spf13/cobra"

	"github.com/catsync/catsync/internal/store"
)

func init() {
	schemaCmd.AddCommand(schemaMigrateCmd)
	schemaCmd.PersistentFlags().String("database", "postgres://localhost:5432/catsync", "The database backing the catsync server.")
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Manipulate the schema used by the catsync server.",
}

func newSQLStore(database string) (*store.SQLStore, error) {
	return store.New(database, logger)
}

var schemaMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the schema to the latest supported version.",
	RunE: func(command *cobra.Command, args []string) error {
		command.SilenceUsage = true

		database, _ := command.Flags().GetString("database")
		sqlStore, err := newSQLStore(database)
		if err != nil {
			return err
		}

		return sqlStore.Migrate()
	},
}
