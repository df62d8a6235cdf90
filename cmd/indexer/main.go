// Command indexer builds the full index artifact set from a corpus snapshot
// and publishes it atomically, replacing any previously published index.
//
//	indexer -csv data/csv/extracted.csv -out data/index
//	indexer -source postgres -out data/index -config configs/production.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sisa1265/VINF/internal/corpus"
	"github.com/Sisa1265/VINF/internal/indexer"
	"github.com/Sisa1265/VINF/internal/indexer/artifact"
	"github.com/Sisa1265/VINF/pkg/config"
	apperrors "github.com/Sisa1265/VINF/pkg/errors"
	"github.com/Sisa1265/VINF/pkg/logger"
	"github.com/Sisa1265/VINF/pkg/postgres"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath   = flag.String("config", "", "path to config file (optional)")
		source       = flag.String("source", "csv", "corpus source: csv or postgres")
		csvPath      = flag.String("csv", "data/csv/extracted.csv", "path to the extracted corpus CSV")
		outDir       = flag.String("out", "data/index", "output index directory")
		minDocTokens = flag.Int("min-doc-tokens", -1, "minimum tokens for a document to be indexed (default from config)")
		minTokenLen  = flag.Int("min-token-len", -1, "minimum token length (default from config)")
		shards       = flag.Int("shards", -1, "number of build workers (default from config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return apperrors.ExitCode(err)
	}
	if *minDocTokens >= 0 {
		cfg.Build.MinDocTokens = *minDocTokens
	}
	if *minTokenLen >= 0 {
		cfg.Build.MinTokenLen = *minTokenLen
	}
	if *shards >= 0 {
		cfg.Build.Shards = *shards
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid build settings: %v\n", err)
		return apperrors.ExitCode(err)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, cleanup, err := openSource(ctx, *source, *csvPath, cfg)
	if err != nil {
		slog.Error("failed to open corpus source", "source", *source, "error", err)
		return apperrors.ExitCode(err)
	}
	defer cleanup()

	builder, err := indexer.NewBuilder(indexer.BuildOptions{
		MinDocTokens: cfg.Build.MinDocTokens,
		MinTokenLen:  cfg.Build.MinTokenLen,
		Shards:       cfg.Build.Shards,
	})
	if err != nil {
		slog.Error("invalid builder options", "error", err)
		return apperrors.ExitCode(err)
	}

	slog.Info("starting index build",
		"source", *source,
		"out", *outDir,
		"min_doc_tokens", cfg.Build.MinDocTokens,
		"min_token_len", cfg.Build.MinTokenLen,
		"shards", cfg.Build.Shards,
	)

	idx, stats, err := builder.Build(ctx, src)
	if err != nil {
		slog.Error("index build failed, previous index left untouched", "error", err)
		return apperrors.ExitCode(err)
	}

	if err := artifact.Publish(*outDir, idx); err != nil {
		slog.Error("index publish failed, previous index left untouched", "error", err)
		return apperrors.ExitCode(err)
	}

	slog.Info("index published",
		"out", *outDir,
		"docs", stats.Docs,
		"terms", stats.Terms,
		"avgdl", stats.AvgDocLen,
		"duplicates_skipped", stats.Duplicates,
		"short_docs_dropped", stats.Dropped,
	)
	return apperrors.ExitOK
}

func openSource(ctx context.Context, source, csvPath string, cfg *config.Config) (corpus.Source, func(), error) {
	switch source {
	case "csv":
		src, err := corpus.OpenCSV(csvPath)
		if err != nil {
			return nil, func() {}, err
		}
		return src, func() { src.Close() }, nil
	case "postgres":
		client, err := postgres.New(cfg.Postgres)
		if err != nil {
			return nil, func() {}, apperrors.Newf(apperrors.ErrCorpusRead, "connecting to postgres: %v", err)
		}
		src, err := corpus.OpenPostgres(ctx, client.DB, cfg.Postgres.CorpusTable)
		if err != nil {
			client.Close()
			return nil, func() {}, err
		}
		return src, func() { src.Close(); client.Close() }, nil
	default:
		return nil, func() {}, apperrors.Newf(apperrors.ErrConfig, "unknown corpus source %q (want csv or postgres)", source)
	}
}
