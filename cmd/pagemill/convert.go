// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pagemill/internal/assemble"
	"github.com/pdiddy/pagemill/internal/decode"
	"github.com/pdiddy/pagemill/internal/ledger"
	"github.com/pdiddy/pagemill/internal/secrets"
	"github.com/pdiddy/pagemill/internal/vision"
	"github.com/pdiddy/pagemill/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert <input.pdf | dir>",
	Short: "Convert a PDF or a directory of PDFs to Markdown",
	Long: `Convert renders each page of a PDF, transcribes it with a vision model,
and reconciles the transcription with the document's embedded images and
hyperlink annotations. A directory input converts every PDF in it, with
per-file isolation and a summary.

Output is <stem>.md next to the input (or at --output), an images
directory, and a YAML manifest describing the conversion.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().String("model", "qwen3-vl", "vision model identifier")
	convertCmd.Flags().String("base-url", vision.DefaultBaseURL, "OpenAI-compatible endpoint")
	convertCmd.Flags().StringP("output", "o", "", "output Markdown path (single file mode)")
	convertCmd.Flags().String("output-dir", "", "output directory (directory mode; default alongside inputs)")
	convertCmd.Flags().String("images-dir", "", "image output directory (default <stem>_images next to the output)")
	convertCmd.Flags().String("pages", "", `1-based inclusive page range, e.g. "3" or "2-5"`)
	convertCmd.Flags().Int("dpi", decode.DefaultDPI, "page render resolution")
	convertCmd.Flags().Int("workers", assemble.DefaultWorkers, "concurrent pages per document")
	convertCmd.Flags().Duration("timeout", 120*time.Second, "per-request vision timeout")
	convertCmd.Flags().Bool("ledger", false, "record single-file runs in the SQLite ledger")
	convertCmd.Flags().Bool("verbose", false, "debug logging")

	viper.BindPFlags(convertCmd.Flags())

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]

	level := zerolog.InfoLevel
	if viper.GetBool("verbose") {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).With().Timestamp().Logger()

	first, last, err := parsePages(viper.GetString("pages"))
	if err != nil {
		return err
	}

	client := vision.NewOpenAIClient(types.VisionConfig{
		Model:   viper.GetString("model"),
		BaseURL: viper.GetString("base-url"),
		APIKey:  secretDefault(secrets.KeyVisionAPI, os.Getenv("PAGEMILL_API_KEY")),
		Timeout: viper.GetDuration("timeout"),
	})

	a := &assemble.Assembler{
		Vision: client,
		Model:  viper.GetString("model"),
		Log:    log,
	}
	open := func(path string) (decode.Document, error) { return decode.Open(path) }
	cfg := types.ConvertConfig{
		OutputPath: viper.GetString("output"),
		ImagesDir:  viper.GetString("images-dir"),
		PageFirst:  first,
		PageLast:   last,
		DPI:        viper.GetInt("dpi"),
		Workers:    viper.GetInt("workers"),
	}

	info, err := os.Stat(input)
	if err != nil {
		return fmt.Errorf("input %s: %w", input, err)
	}

	ctx := cmd.Context()
	started := time.Now()

	if info.IsDir() {
		outDir := viper.GetString("output-dir")
		if outDir == "" {
			outDir = input
		}
		result, err := a.ConvertBatch(ctx, open, input,
			types.BatchConfig{ConvertConfig: cfg, OutputDir: outDir}, os.Stdout)
		if err != nil {
			return err
		}
		recordRun(outDir, started, result, log)
		if result.HasFailures() {
			return fmt.Errorf("%d of %d documents failed", result.Failed, result.Total())
		}
		return nil
	}

	stem := assemble.Stem(input)
	res := a.ConvertFile(ctx, open, input, stem, cfg, os.Stdout)
	if viper.GetBool("ledger") {
		result := types.BatchResult{Documents: []types.DocumentResult{res}}
		switch res.Status {
		case types.DocumentConverted:
			result.Converted = 1
		case types.DocumentSkipped:
			result.Skipped = 1
		case types.DocumentFailed:
			result.Failed = 1
		}
		recordRun(ledgerDirFor(res, input), started, result, log)
	}
	if res.Status == types.DocumentFailed {
		return res.Err
	}
	return nil
}

// recordRun writes the run to the conversion ledger. Ledger failures are
// reported but never fail a conversion that already succeeded.
func recordRun(dir string, started time.Time, result types.BatchResult, log zerolog.Logger) {
	store, err := ledger.Open(dir)
	if err != nil {
		log.Warn().Err(err).Msg("ledger unavailable")
		return
	}
	defer store.Close()
	runID, err := store.RecordRun(started, result)
	if err != nil {
		log.Warn().Err(err).Msg("ledger write failed")
		return
	}
	log.Info().Str("run_id", runID).Msg("run recorded")
}

// ledgerDirFor picks where a single-file run's ledger lives: next to the
// output when one was written, else next to the input.
func ledgerDirFor(res types.DocumentResult, input string) string {
	if res.Output != "" {
		return filepath.Dir(res.Output)
	}
	return filepath.Dir(input)
}

// parsePages parses the --pages flag ("3" or "2-5", 1-based inclusive)
// into a 0-based range. Empty input means all pages (last = -1).
func parsePages(s string) (int, int, error) {
	if s == "" {
		return 0, -1, nil
	}
	parts := strings.SplitN(s, "-", 2)
	first, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || first < 1 {
		return 0, 0, fmt.Errorf("invalid --pages %q: expected a 1-based page or range like 2-5", s)
	}
	last := first
	if len(parts) == 2 {
		last, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || last < first {
			return 0, 0, fmt.Errorf("invalid --pages %q: expected a 1-based page or range like 2-5", s)
		}
	}
	return first - 1, last - 1, nil
}
