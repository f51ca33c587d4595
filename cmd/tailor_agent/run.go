package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jordan/resume-tailor/internal/fetch"
	"github.com/jordan/resume-tailor/internal/pipeline"
)

var (
	runConfigPath   string
	runURL          string
	runHTMLPath     string
	runTemplate     string
	runCoverLetter  bool
	runCustomPrompt string
	runUseBrowser   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the application pipeline once for a single posting",
	Long: `Fetch or read one job posting, extract its fields, generate the requested
documents, and archive the result. The posting comes from --url, or from a
saved HTML file with --html (in which case --url still keys the archive record).`,
	RunE: runOnce,
}

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file")
	runCmd.Flags().StringVarP(&runURL, "url", "u", "", "Job posting URL (required)")
	runCmd.Flags().StringVar(&runHTMLPath, "html", "", "Path to a saved posting HTML file (skips fetching)")
	runCmd.Flags().StringVarP(&runTemplate, "template", "t", "", "Resume template ID from the catalog")
	runCmd.Flags().BoolVar(&runCoverLetter, "cover-letter", false, "Also generate a cover letter")
	runCmd.Flags().StringVar(&runCustomPrompt, "prompt", "", "Custom question answered from the posting text")
	runCmd.Flags().BoolVar(&runUseBrowser, "use-browser", false, "Render SPA postings in a headless browser (requires Chrome)")
	_ = runCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(runCmd)
}

func runOnce(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(runConfigPath)
	if err != nil {
		return err
	}

	var html string
	if runHTMLPath != "" {
		data, err := os.ReadFile(runHTMLPath)
		if err != nil {
			return fmt.Errorf("failed to read posting HTML: %w", err)
		}
		html = string(data)
	} else {
		fmt.Printf("Fetching %s...\n", runURL)
		opts := fetch.DefaultOptions()
		opts.UseBrowser = runUseBrowser || cfg.UseBrowser
		page, err := fetch.PostingHTML(ctx, runURL, opts)
		if err != nil {
			return err
		}
		html = page.HTML
	}

	application, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer application.close()

	fmt.Println("Running pipeline...")
	result := application.orchestrator.Run(ctx, pipeline.Request{
		URL:     runURL,
		RawHTML: html,
		Options: pipeline.Options{
			WantResume:       true,
			WantCoverLetter:  runCoverLetter,
			ResumeTemplateID: runTemplate,
			CustomPrompt:     runCustomPrompt,
		},
	})

	if result.Fields != nil {
		fmt.Printf("Extracted: %s at %s\n", result.Fields.Role, result.Fields.Company)
	}
	for _, name := range result.Artifacts {
		fmt.Printf("Artifact: %s\n", name)
	}
	if result.CustomOutput != "" {
		fmt.Printf("Answer:\n%s\n", result.CustomOutput)
	}
	for _, stageErr := range result.Errors {
		fmt.Fprintf(os.Stderr, "Stage failed: %s\n", stageErr.Error())
	}
	if !result.Success {
		return fmt.Errorf("pipeline finished with %d failed stage(s)", len(result.Errors))
	}
	fmt.Println("Done.")
	return nil
}
