package main

import (
	"github.com/aretw0/proposer/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the proposal worker",
	Long: `Starts the JSON API. Unless --no-worker is given, a background worker
claims CREATED proposals and runs their strategy.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Serve(serveOptions(cmd))
	},
}

func serveOptions(cmd *cobra.Command) cli.ServeOptions {
	configPath, _ := cmd.Flags().GetString("config")
	addr, _ := cmd.Flags().GetString("addr")
	store, _ := cmd.Flags().GetString("store")
	storePath, _ := cmd.Flags().GetString("store-path")
	logLevel, _ := cmd.Flags().GetString("log-level")
	noWorker, _ := cmd.Flags().GetBool("no-worker")

	return cli.ServeOptions{
		ConfigPath: configPath,
		Addr:       addr,
		Store:      store,
		StorePath:  storePath,
		LogLevel:   logLevel,
		NoWorker:   noWorker,
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address, e.g. :8080 (overrides server.addr)")
	serveCmd.Flags().String("store", "", "Store driver: memory, file, redis or sqlite (overrides store.driver)")
	serveCmd.Flags().String("store-path", "", "Directory or database file for the file and sqlite stores")
	serveCmd.Flags().String("log-level", "", "Log level: debug, info, warn or error")
	serveCmd.Flags().Bool("no-worker", false, "Do not run the background worker")
}
