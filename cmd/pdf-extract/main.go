package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/pdf-data-extractor/internal/async"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/common"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/consolidate"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/core"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/core/classify"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/export"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/extract"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/ingest"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/registry"
	repo "github.com/joseph-ayodele/pdf-data-extractor/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

type options struct {
	dir      string
	parser   string
	regex    string
	global   bool
	password string
	reuse    bool
	noPrompt bool
	out      string
	tsv      bool
	watch    bool
	debounce time.Duration
}

func main() {
	var opts options
	flag.StringVar(&opts.dir, "dir", "", "directory to scan for PDF files (or pass files as arguments)")
	flag.StringVar(&opts.parser, "parser", "auto", `"auto", "one-shot" or a parser name`)
	flag.StringVar(&opts.regex, "regex", "", "pattern for one-shot mode")
	flag.BoolVar(&opts.global, "global", false, "one-shot: one record per match")
	flag.StringVar(&opts.password, "password", "", "password tried first on protected files")
	flag.BoolVar(&opts.reuse, "reuse", true, "reuse an accepted password for the rest of the batch")
	flag.BoolVar(&opts.noPrompt, "no-prompt", false, "skip protected files instead of asking for a password")
	flag.StringVar(&opts.out, "out", "", "output XLSX file (directory in watch mode)")
	flag.BoolVar(&opts.tsv, "tsv", false, "print consolidated tables as TSV to stdout")
	flag.BoolVar(&opts.watch, "watch", false, "watch -dir and process new PDFs as they arrive")
	flag.DurationVar(&opts.debounce, "debounce", time.Second, "watch mode: quiet period before a batch starts")
	flag.Parse()

	if opts.dir == "" && flag.NArg() == 0 {
		printError("Error: --dir or file arguments are required\n")
		os.Exit(1)
	}
	if opts.watch && opts.dir == "" {
		printError("Error: --watch needs --dir\n")
		os.Exit(1)
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	// stdout is reserved for TSV output
	logger := common.NewLogger(os.Stderr, cfg.Log.Level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, closeStore, err := repo.OpenKVStore(ctx, repo.ConfigFromStore(cfg.Store), logger)
	if err != nil {
		logger.Error("failed to open parser store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	reg := registry.New(ctx, store, logger)
	proc := core.NewProcessor(extract.New(cfg.Extract, logger), reg, logger)
	mode := classify.ParseMode(opts.parser, opts.regex, opts.global)

	if opts.watch {
		if err := watch(ctx, proc, mode, opts, logger); err != nil {
			logger.Error("watch failed", "error", err)
			os.Exit(1)
		}
		return
	}

	paths := flag.Args()
	if opts.dir != "" {
		found, failed, stats, err := ingest.ListPDFs(ctx, opts.dir, true)
		if err != nil {
			logger.Error("failed to scan directory", "dir", opts.dir, "error", err)
			os.Exit(1)
		}
		for _, f := range failed {
			logger.Warn("unreadable entry", "path", f.Path, "error", f.Err)
		}
		logger.Info("scan complete", "dir", opts.dir, "scanned", stats.Scanned, "matched", stats.Matched, "failed", stats.Failed)
		paths = append(paths, found...)
	}

	var prompt prompter
	if !opts.noPrompt {
		prompt = newTerminalPrompter(os.Stdin, os.Stderr)
	}
	snap, err := runBatch(ctx, proc, paths, mode, opts, prompt)
	if err != nil {
		printError("Error: %s\n", common.Message(err))
		os.Exit(1)
	}

	printSummary(os.Stderr, snap)
	if opts.tsv {
		for _, t := range consolidate.Build(snap.Metadata) {
			fmt.Fprintf(os.Stdout, "# %s\n", t.DocType)
			if err := export.TSV(os.Stdout, t.Header, t.Rows); err != nil {
				logger.Error("failed to write TSV", "error", err)
			}
		}
	}
	if opts.out != "" {
		if err := writeWorkbook(ctx, opts.out, snap, logger); err != nil {
			logger.Error("failed to write workbook", "output", opts.out, "error", err)
			os.Exit(1)
		}
	}
}

// runBatch loads paths and drives one batch to completion, answering
// password requests from opts.password and then from prompt. A nil prompt
// skips files whose password is unknown.
func runBatch(ctx context.Context, proc *core.Processor, paths []string, mode classify.Mode, opts options, prompt prompter) (core.Snapshot, error) {
	sources, _, err := ingest.LoadSources(paths)
	if err != nil {
		return core.Snapshot{}, err
	}
	snap, err := proc.Start(ctx, sources, mode)
	if err != nil {
		return snap, err
	}
	return resolveCredentials(ctx, proc, snap, opts, prompt)
}

func resolveCredentials(ctx context.Context, proc *core.Processor, snap core.Snapshot, opts options, prompt prompter) (core.Snapshot, error) {
	triedFlag := map[string]bool{}
	for snap.State == core.StateAwaitingCredential {
		file := snap.PendingFile
		password := ""
		switch {
		case opts.password != "" && !triedFlag[file]:
			triedFlag[file] = true
			password = opts.password
		case prompt != nil:
			pw, ok := prompt.Password(file, snap.Status.Message)
			if ok {
				password = pw
			}
		}

		var err error
		if password == "" {
			snap, err = proc.Skip(ctx)
		} else {
			snap, err = proc.SubmitCredential(ctx, password, opts.reuse)
			if common.IsCredentialError(err) {
				continue
			}
		}
		if err != nil {
			return snap, err
		}
	}
	return snap, nil
}

// watch runs one batch per burst of new files under opts.dir. Files whose
// content was already processed are ignored.
func watch(ctx context.Context, proc *core.Processor, mode classify.Mode, opts options, logger *slog.Logger) error {
	batches, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{opts.dir},
		InitialScan: true,
		Debounce:    opts.debounce,
	}, logger)
	if err != nil {
		return err
	}

	seen := map[string]bool{}
	queue := async.NewBatchQueue(func(ctx context.Context, job async.Job) error {
		sources, hashes, err := ingest.LoadSources(job.Paths)
		if err != nil {
			return err
		}
		fresh := sources[:0]
		for i, src := range sources {
			if !seen[hashes[i]] {
				seen[hashes[i]] = true
				fresh = append(fresh, src)
			}
		}
		if len(fresh) == 0 {
			return nil
		}
		snap, err := proc.Start(ctx, fresh, mode)
		if err != nil {
			return err
		}
		snap, err = resolveCredentials(ctx, proc, snap, opts, nil)
		if err != nil {
			return err
		}
		printSummary(os.Stderr, snap)
		if opts.out == "" {
			return nil
		}
		return writeWorkbook(ctx, filepath.Join(opts.out, "extracted-"+snap.BatchID+".xlsx"), snap, logger)
	}, logger, async.WithQueueSize(16))

	logger.Info("watching for PDFs", "dir", opts.dir)
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			queue.Shutdown(shutdownCtx)
			cancel()
			return nil
		case paths, ok := <-batches:
			if !ok {
				return nil
			}
			if err := queue.Enqueue(ctx, async.NewJob(paths)); err != nil {
				logger.Warn("batch dropped", "files", len(paths), "error", err)
			}
		case err, ok := <-errs:
			if ok {
				logger.Warn("watcher error", "error", err)
			}
		}
	}
}

func writeWorkbook(ctx context.Context, path string, snap core.Snapshot, logger *slog.Logger) error {
	b, err := export.NewService(logger).ExportXLSX(ctx, snap)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return err
	}
	logger.Info("workbook written", "output", path, "documents", len(snap.Documents))
	return nil
}

func printSummary(w io.Writer, snap core.Snapshot) {
	for _, d := range snap.Documents {
		line := fmt.Sprintf("%-8s %-40s %s", d.Status, d.FileName, d.DocType)
		if d.Message != "" {
			line += "  " + d.Message
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
	fmt.Fprintln(w, snap.Status.Message)
}

type prompter interface {
	// Password asks for the password of file; ok is false when the operator
	// chose to skip it.
	Password(file, status string) (password string, ok bool)
}

type terminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newTerminalPrompter(in io.Reader, out io.Writer) *terminalPrompter {
	return &terminalPrompter{in: bufio.NewReader(in), out: out}
}

func (p *terminalPrompter) Password(file, status string) (string, bool) {
	if strings.HasPrefix(status, "Incorrect") {
		fmt.Fprintln(p.out, status)
	}
	fmt.Fprintf(p.out, "Password for %s (empty to skip): ", file)
	line, err := p.in.ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" || (err != nil && err != io.EOF) {
		return "", false
	}
	return line, true
}
