package main

import (
	"os"

	"github.com/kpango/glg"
	"github.com/spf13/cobra"

	"github.com/mikechambers/dcli-sub000/bungie"
	"github.com/mikechambers/dcli-sub000/db"
	"github.com/mikechambers/dcli-sub000/ingest"
	"github.com/mikechambers/dcli-sub000/manifest"
)

var (
	config  *EnvConfig
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "dcli",
	Short: "Destiny 2 Crucible activity sync and stats",
	Long: "Syncs Crucible activity history from the Bungie API into a local " +
		"database and answers stats queries against it.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ConfigureLogging(verbose)
		config = NewEnvConfig()
	},
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"include debug and info output")

	rootCmd.AddCommand(syncCmd, daemonCmd, activitiesCmd, summaryCmd, lastCmd, statsCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		glg.Errorf("%s", err.Error())
		os.Exit(1)
	}
}

// openStore opens the activity store under the configured directory.
func openStore() (*db.Store, error) {
	return db.OpenStore(config.StorePath)
}

// openQueries builds the query side, attaching the manifest when one is
// present next to the store. A missing manifest only degrades display names.
func openQueries(store *db.Store) *db.Queries {
	path := config.StorePath + "/" + manifest.Filename
	if _, err := os.Stat(path); err != nil {
		glg.Debugf("No manifest at %s, names will be unresolved", path)
		return db.NewQueries(store, nil)
	}

	content, err := manifest.Open(path)
	if err != nil {
		glg.Warnf("Failed to open manifest: %s", err.Error())
		return db.NewQueries(store, nil)
	}

	return db.NewQueries(store, content)
}

// newAPI builds a Bungie API bound to the configured key.
func newAPI() (*bungie.API, error) {
	client, err := bungie.NewClient(config.BungieAPIKey)
	if err != nil {
		return nil, err
	}

	return bungie.NewAPI(client), nil
}

// newEngine wires the API client and the store into the sync engine.
func newEngine(store *db.Store) (*ingest.Engine, error) {
	api, err := newAPI()
	if err != nil {
		return nil, err
	}

	return ingest.NewEngine(api, store, config.FixCorruptData), nil
}
