package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dgallion1/figops/internal/export"
	"github.com/dgallion1/figops/internal/figma"
	"github.com/dgallion1/figops/internal/pipeline"
	"github.com/dgallion1/figops/internal/refine"
	"github.com/dgallion1/figops/internal/screens"
	"github.com/dgallion1/figops/internal/tasks"
)

var (
	file        string
	fileKey     string
	nodeIDs     string
	token       string
	apiURL      string
	catalogPath string
	provider    string
	model       string
	extractOut  string
	exportOut   string
	watchOut    string
	plansDB     string
	verbose     bool
)

func main() {
	// Load .env file if present (silently ignore if not found)
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "figops",
		Short: "Extract screen planning records from Figma documents",
		Long: `figops reads a Figma document tree (a local JSON export or a file fetched
through the REST API), finds every screen named like PREFIX_0001, and
collects the annotation fields written next to it.

Example:
  figops extract --file design.json
  figops export --file-key abc123 --out screens.xlsx`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&file, "file", "", "Local Figma JSON document")
	pf.StringVar(&fileKey, "file-key", "", "Figma file key to fetch")
	pf.StringVar(&nodeIDs, "node-ids", "", "Comma-separated node ids to fetch (with --file-key)")
	pf.StringVar(&token, "token", os.Getenv("FIGMA_TOKEN"), "Figma API token")
	pf.StringVar(&apiURL, "api-url", figma.DefaultBaseURL, "Figma API base URL")
	pf.StringVar(&catalogPath, "catalog", os.Getenv("LABEL_CATALOG"), "Label catalog file (.yaml or .toml)")
	pf.StringVar(&provider, "refine", envOr("REFINE_PROVIDER", "none"), "Description refiner: none, claude, openai")
	pf.StringVar(&model, "model", "", "Refiner model override")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Log extraction details")

	extractCmd := &cobra.Command{
		Use:   "extract",
		Short: "Print the grouped screen index as JSON",
		RunE:  runExtract,
	}
	extractCmd.Flags().StringVarP(&extractOut, "out", "o", "", "Output file (default stdout)")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the screen index to an Excel workbook",
		RunE:  runExport,
	}
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "screens.xlsx", "Output .xlsx file")
	exportCmd.Flags().StringVar(&plansDB, "plans", "", "SQLite plan store to include task/test counts")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-extract whenever the local document changes",
		RunE:  runWatch,
	}
	watchCmd.Flags().StringVarP(&watchOut, "out", "o", "", "Output file rewritten on every change (default stdout)")

	rootCmd.AddCommand(extractCmd, exportCmd, watchCmd)
	return rootCmd
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newWorker builds the same worker the server uses, minus metrics.
func newWorker(log *slog.Logger) (*pipeline.Worker, error) {
	cat := screens.DefaultCatalog()
	if catalogPath != "" {
		var err error
		if cat, err = screens.LoadCatalog(catalogPath); err != nil {
			return nil, err
		}
	}

	apiKey := ""
	switch strings.ToLower(provider) {
	case "claude", "anthropic":
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	case "openai", "gpt":
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	r, err := refine.New(provider, apiKey, model)
	if err != nil {
		return nil, err
	}

	var fetcher pipeline.Fetcher
	if fileKey != "" {
		if token == "" {
			return nil, errors.New("--token or FIGMA_TOKEN is required with --file-key")
		}
		fetcher = figma.NewClient(apiURL, token)
	}
	return pipeline.NewWorker(fetcher, screens.NewExtractor(cat, log), refine.WithFallback(r, nil, log), nil, log, 4), nil
}

// runImport processes the selected source synchronously.
func runImport(ctx context.Context, w *pipeline.Worker) (*pipeline.Result, error) {
	var job *pipeline.Job
	switch {
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read document: %w", err)
		}
		job = pipeline.NewJob(uuid.NewString(), filepath.Base(file), data, "", nil)
	case fileKey != "":
		var ids []string
		for _, id := range strings.Split(nodeIDs, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		job = pipeline.NewJob(uuid.NewString(), "", nil, fileKey, ids)
	default:
		return nil, errors.New("one of --file or --file-key is required")
	}

	w.Process(ctx, job)
	snap := job.Snapshot()
	if snap.Status != pipeline.StatusCompleted {
		return nil, fmt.Errorf("import %s: %s", snap.Phase, strings.Join(snap.Progress.Errors, "; "))
	}
	for _, e := range snap.Progress.Errors {
		fmt.Fprintln(os.Stderr, "warning:", e)
	}
	return job.Result(), nil
}

func runExtract(cmd *cobra.Command, _ []string) error {
	w, err := newWorker(newLogger())
	if err != nil {
		return err
	}
	res, err := runImport(cmd.Context(), w)
	if err != nil {
		return err
	}
	return writeOutput(extractOut, func(out io.Writer) error { return writeIndex(out, res) })
}

func runExport(cmd *cobra.Command, _ []string) error {
	w, err := newWorker(newLogger())
	if err != nil {
		return err
	}
	res, err := runImport(cmd.Context(), w)
	if err != nil {
		return err
	}

	var plans map[string]*tasks.Plan
	if plansDB != "" {
		store, err := tasks.OpenSQLite(plansDB)
		if err != nil {
			return err
		}
		defer store.Close()
		list, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		plans = make(map[string]*tasks.Plan, len(list))
		for _, p := range list {
			plans[p.FigmaID] = p
		}
	}

	if err := writeOutput(exportOut, func(out io.Writer) error { return export.WriteXLSX(out, res.Index, plans) }); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %d screens to %s\n", len(res.Records), exportOut)
	return nil
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if file == "" {
		return errors.New("--file is required for watch")
	}
	log := newLogger()
	w, err := newWorker(log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file instead of
	// writing it in place.
	abs, err := filepath.Abs(file)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	extractOnce := func() {
		res, err := runImport(ctx, w)
		if err != nil {
			fmt.Fprintln(os.Stderr, "extract failed:", err)
			return
		}
		if err := writeOutput(watchOut, func(out io.Writer) error { return writeIndex(out, res) }); err != nil {
			fmt.Fprintln(os.Stderr, "write failed:", err)
			return
		}
		fmt.Fprintf(os.Stderr, "%s extracted %d screens\n", time.Now().Format(time.TimeOnly), len(res.Records))
	}
	extractOnce()

	const debounce = 300 * time.Millisecond
	timer := time.NewTimer(debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)
		case <-timer.C:
			extractOnce()
		}
	}
}

func writeIndex(out io.Writer, res *pipeline.Result) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"screens": len(res.Records),
		"index":   res.Index,
	})
}

// writeOutput writes to path, or stdout when path is empty.
func writeOutput(path string, write func(io.Writer) error) error {
	if path == "" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
