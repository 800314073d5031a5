package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/pdf-data-extractor/internal/common"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/parsers"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/registry"
	repo "github.com/joseph-ayodele/pdf-data-extractor/internal/repository"
)

const usage = `usage: parsers <command> [args]

commands:
  list                 list custom and built-in parsers
  add <file|->         add or update custom parsers from text blocks
  remove <index>       remove the custom parser at index
  import <file|->      replace all custom parsers with the blocks in file
  export               print custom parsers as text blocks
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
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
	if err := run(ctx, reg, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", common.Message(err))
		closeStore()
		os.Exit(1)
	}
}

func run(ctx context.Context, reg *registry.Registry, args []string, stdin io.Reader, out io.Writer) error {
	switch args[0] {
	case "list":
		custom := 0
		for _, d := range reg.All() {
			idx := "   "
			if d.Custom {
				idx = fmt.Sprintf("%2d.", custom)
				custom++
			}
			fmt.Fprintf(out, "%s %-40s %s\n", idx, d.DisplayName(), strings.Join(d.Matches, ", "))
		}
		return nil

	case "add":
		raw, err := readInput(args, stdin)
		if err != nil {
			return err
		}
		defs, skipped := parsers.ParseTemplates(raw)
		for _, e := range skipped {
			fmt.Fprintf(out, "skipped: %v\n", e)
		}
		for _, d := range defs {
			o, err := reg.Upsert(ctx, d)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, o.Message)
		}
		return nil

	case "remove":
		if len(args) < 2 {
			return common.NewAppError("INVALID_INPUT", "remove needs an index", common.ErrInvalidInput)
		}
		i, err := strconv.Atoi(args[1])
		if err != nil {
			return common.NewAppError("INVALID_INPUT", "index must be an integer", common.ErrInvalidInput)
		}
		o, err := reg.Remove(ctx, i)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, o.Message)
		return nil

	case "import":
		raw, err := readInput(args, stdin)
		if err != nil {
			return err
		}
		o, skipped, err := reg.ImportTemplates(ctx, raw)
		if err != nil {
			return err
		}
		for _, e := range skipped {
			fmt.Fprintf(out, "skipped: %v\n", e)
		}
		fmt.Fprintln(out, o.Message)
		return nil

	case "export":
		_, err := io.WriteString(out, reg.ExportTemplates()+"\n")
		return err

	default:
		return common.NewAppError("INVALID_INPUT", "unknown command "+args[0]+"\n\n"+usage, common.ErrInvalidInput)
	}
}

func readInput(args []string, stdin io.Reader) (string, error) {
	if len(args) < 2 || args[1] == "-" {
		b, err := io.ReadAll(stdin)
		return string(b), err
	}
	b, err := os.ReadFile(args[1])
	return string(b), err
}
