package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jordan/resume-tailor/internal/server"
)

var (
	serveConfigPath string
	servePort       int
	serveUseBrowser bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server for the browser extension",
	Long:  `Start an HTTP server that accepts scraped postings, generates application documents, and serves the application archive.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().BoolVar(&serveUseBrowser, "use-browser", false, "Render SPA postings in a headless browser when fetching server-side")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(serveConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = serveUseBrowser
	}

	application, err := buildApp(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = application.llmClient.Close() }()

	srv := server.New(server.Config{
		Port:         cfg.Port,
		ArtifactsDir: cfg.ArtifactsDir,
		UseBrowser:   cfg.UseBrowser,
	}, application.orchestrator, application.store, application.catalog)

	return srv.Start()
}
