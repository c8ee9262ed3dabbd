package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"keysearch/internal/config"
	"keysearch/internal/eval"
	"keysearch/internal/logger"
	"keysearch/internal/metrics"
	"keysearch/internal/normalize"
	"keysearch/internal/report"
	"keysearch/internal/service"
	"keysearch/internal/summarizer"
	"keysearch/internal/tui"
)

func main() {
	_ = godotenv.Load()

	fs := newFlagSet(os.Args[0], flag.ExitOnError)
	cfg, cfgPath, err := loadConfig(fs, os.Args[1:], os.LookupEnv)
	if err != nil {
		fatal("invalid config", err)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	slog.Info("config loaded", "path", cfgPath, "interactive", cfg.Interactive.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		stop()
		fatal("keysearch failed", err)
	}
}

func newFlagSet(name string, handling flag.ErrorHandling) *flag.FlagSet {
	fs := flag.NewFlagSet(name, handling)
	fs.String("config", "", "Path to YAML config file (optional; uses ./keysearch.yaml or ~/.config/keysearch/config.yaml if not provided)")
	fs.String("articles", "", "Article collection to index")
	fs.String("queries", "", "Query collection to rank in batch mode")
	fs.String("output", "", "Ranking output file")
	fs.String("titles", "", "Optional ranking output with query text and titles")
	fs.String("qrels", "", "Relevance judgements to evaluate the ranking against")
	fs.String("ui", "", "Interactive front-end: tui or plain")
	fs.Int("max-docs", 0, "Index at most this many documents")
	fs.Bool("interactive", false, "Read queries from the terminal instead of the query file")
	return fs
}

// loadConfig layers the config file, KEYSEARCH_* variables from lookup and
// the flags in args, later layers winning, and validates the result.
func loadConfig(fs *flag.FlagSet, args []string, lookup func(string) (string, bool)) (*config.AppConfig, string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}
	cfgPath := fs.Lookup("config").Value.String()
	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, cfgPath, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return nil, cfgPath, fmt.Errorf("loading %s: %w", cfgPath, err)
	}
	if err := config.ApplyEnv(cfg, lookup); err != nil {
		return nil, cfgPath, fmt.Errorf("environment override: %w", err)
	}
	applyFlags(cfg, fs)
	if err := cfg.Validate(); err != nil {
		return nil, cfgPath, err
	}
	return cfg, cfgPath, nil
}

// applyFlags copies the flags given on the command line into cfg. Flags
// left unset keep the file and environment values.
func applyFlags(cfg *config.AppConfig, fs *flag.FlagSet) {
	fs.Visit(func(f *flag.Flag) {
		v := f.Value.(flag.Getter).Get()
		switch f.Name {
		case "articles":
			cfg.Corpus.Articles = v.(string)
		case "queries":
			cfg.Corpus.Queries = v.(string)
		case "output":
			cfg.Output.Path = v.(string)
		case "titles":
			cfg.Output.TitlesPath = v.(string)
		case "qrels":
			cfg.Evaluation.Qrels = v.(string)
		case "ui":
			cfg.Interactive.UI = v.(string)
		case "max-docs":
			cfg.Corpus.MaxDocuments = v.(int)
		case "interactive":
			cfg.Interactive.Enabled = v.(bool)
		}
	})
}

func run(ctx context.Context, cfg *config.AppConfig) error {
	stemmer, err := normalize.StemmerByName(cfg.Normalizer.Stemmer)
	if err != nil {
		return err
	}
	m := metrics.New()
	svc, err := service.Open(ctx, cfg.Corpus.Articles, service.Options{
		MaxDocuments: cfg.Corpus.MaxDocuments,
		TopK:         cfg.Ranking.TopK,
		Workers:      cfg.Ranking.Workers,
		CacheDir:     cfg.CacheDir(),
		Stemmer:      stemmer,
		Metrics:      m,
	})
	if err != nil {
		return err
	}

	summary := summarizer.Summarize(svc.Index(), 8).String()
	slog.Info("corpus indexed", "summary", summary)

	if cfg.Interactive.Enabled {
		if cfg.Interactive.UI == "plain" {
			fmt.Println(summary)
			err = tui.RunPlain(ctx, svc, os.Stdin, os.Stdout)
		} else {
			_, err = tea.NewProgram(tui.New(ctx, svc, summary), tea.WithContext(ctx)).Run()
		}
		if ctx.Err() != nil {
			slog.Info("interrupted", "cause", context.Cause(ctx))
			return nil
		}
		return err
	}

	batch, err := svc.RunBatch(ctx, cfg.Corpus.Queries)
	if err != nil {
		return err
	}
	err = report.WriteFile(cfg.Output.Path, func(w io.Writer) error {
		return report.Write(w, batch.Results)
	})
	if err != nil {
		return err
	}
	slog.Info("ranking written", "path", cfg.Output.Path, "queries", len(batch.Results))

	if p := cfg.Output.TitlesPath; p != "" {
		err := report.WriteFile(p, func(w io.Writer) error {
			return report.WriteTitled(w, batch.Results, batch.QueryText)
		})
		if err != nil {
			return err
		}
		slog.Info("titled ranking written", "path", p)
	}

	if cfg.Evaluation.Qrels != "" {
		if err := evaluate(cfg, batch); err != nil {
			return err
		}
	}

	if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

func evaluate(cfg *config.AppConfig, batch *service.Batch) error {
	judgements, err := eval.LoadQrels(cfg.Evaluation.Qrels)
	if err != nil {
		return err
	}
	rep := eval.Evaluate(batch.Results, judgements, cfg.Ranking.TopK)
	slog.Info("evaluation",
		"queries", len(rep.Queries),
		"unjudged", rep.Unjudged,
		"precision", rep.MeanPrecision,
		"recall", rep.MeanRecall,
		"f1", rep.MeanF1,
	)
	if cfg.Evaluation.Scores == "" {
		return rep.Write(os.Stdout)
	}
	return report.WriteFile(cfg.Evaluation.Scores, rep.Write)
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
