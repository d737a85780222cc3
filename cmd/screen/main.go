package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/config"
	"alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/services"
)

var (
	jdPath     string
	jsonOutput bool
	rankOutput bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "screen --jd job_description.txt [files or directories...]",
	Short: "Score resumes against a job description",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), cmd.OutOrStdout(), args)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVar(&jdPath, "jd", "job_description.txt", "path to the job description text file")
	rootCmd.Flags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	rootCmd.Flags().BoolVar(&rankOutput, "rank", false, "order results by score, highest first")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	zlog, err := logger.New(cfg.Server.Env, level)
	if err != nil {
		return err
	}
	defer func() { _ = zlog.Sync() }()

	jd, err := os.ReadFile(jdPath)
	if err != nil {
		return fmt.Errorf("reading job description: %w", err)
	}
	jobDescription := strings.TrimSpace(string(jd))
	if cfg.Screening.MaxJobDescriptionChars > 0 {
		jobDescription = services.TruncateRunes(jobDescription, cfg.Screening.MaxJobDescriptionChars)
	}

	docs, err := collectDocuments(args)
	if err != nil {
		return err
	}
	if jobDescription == "" || len(docs) == 0 {
		return errors.New("please provide both JD text and at least one resume")
	}

	pipeline, err := services.NewPipeline(ctx, cfg, zlog)
	if err != nil {
		return fmt.Errorf("initializing screening pipeline: %w", err)
	}
	defer func() {
		if err := pipeline.Close(); err != nil {
			zlog.Warn("closing embedder", zap.Error(err))
		}
	}()

	results, err := pipeline.Screener.Screen(ctx, jobDescription, docs)
	if err != nil {
		return err
	}
	if rankOutput {
		results = services.RankResults(results)
	}

	return printResults(out, results)
}

// collectDocuments expands directories (recursively, supported formats only)
// and keeps explicitly named files as given.
func collectDocuments(paths []string) ([]models.Document, error) {
	var docs []models.Document
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}

		if !info.IsDir() {
			docs = append(docs, models.NewDocument(filepath.Base(p), p))
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || models.DetectFormat(d.Name()) == models.FormatUnknown {
				return nil
			}
			docs = append(docs, models.NewDocument(d.Name(), path))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", p, err)
		}
	}
	return docs, nil
}

func printResults(out io.Writer, results []models.ResultRecord) error {
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for _, r := range results {
		fmt.Fprintln(out, services.FormatScreeningLine(r.Filename, r.RawScore, string(r.Label)))
		if r.Error != "" {
			fmt.Fprintf(out, "  %s\n", r.Error)
		}
		if r.Summary != "" {
			for _, line := range strings.Split(r.Summary, "\n") {
				fmt.Fprintf(out, "  %s\n", line)
			}
		}
		fmt.Fprintln(out)
	}
	return nil
}
