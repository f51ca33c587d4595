package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jordan/resume-tailor/internal/archive"
)

var (
	clearConfigPath string
	clearYes        bool
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every archived application record and its artifacts",
	RunE:  runClear,
}

func init() {
	clearCmd.Flags().StringVar(&clearConfigPath, "config", "", "Path to config.json file")
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(clearCmd)
}

func runClear(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(clearConfigPath)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is not set; nothing to clear")
	}

	if !clearYes {
		fmt.Print("This deletes all archived applications and PDFs. Continue? [y/N] ")
		var answer string
		_, _ = fmt.Scanln(&answer)
		if !strings.EqualFold(answer, "y") {
			fmt.Println("Aborted.")
			return nil
		}
	}

	store, err := archive.ConnectPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	artifacts, err := store.ClearAll(ctx)
	if err != nil {
		return err
	}

	removed := 0
	for _, name := range artifacts {
		if name == "" || strings.ContainsAny(name, `/\`) {
			continue
		}
		if err := os.Remove(filepath.Join(cfg.ArtifactsDir, name)); err == nil {
			removed++
		}
	}

	fmt.Printf("Cleared archive, removed %d artifact file(s).\n", removed)
	return nil
}
