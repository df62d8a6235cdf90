// Command searcher runs one query against a published index and prints the
// ranked results.
//
//	searcher -index data/index -method bm25 -topk 5 "boxed warning tofacitinib"
//
// Zero results is a success; a missing or corrupt index is a distinct
// failure status.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Sisa1265/VINF/internal/searcher"
	apperrors "github.com/Sisa1265/VINF/pkg/errors"
	"github.com/Sisa1265/VINF/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		indexDir = flag.String("index", "data/index", "index directory")
		method   = flag.String("method", "bm25", "ranking method: bm25 or tfidf")
		topK     = flag.Int("topk", 5, "number of results")
		logLevel = flag.String("log-level", "warn", "log level")
	)
	flag.Parse()

	logger.Setup(*logLevel, "text")

	query := strings.Join(flag.Args(), " ")

	rankMethod, err := searcher.ParseMethod(*method)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return apperrors.ExitCode(err)
	}
	if *topK < 1 {
		fmt.Fprintf(os.Stderr, "topk must be >= 1, got %d\n", *topK)
		return apperrors.ExitConfig
	}

	engine, err := searcher.Open(*indexDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot load index: %v\n", err)
		return apperrors.ExitCode(err)
	}

	result, err := engine.Search(query, rankMethod, *topK)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return apperrors.ExitCode(err)
	}

	if len(result.Results) == 0 {
		fmt.Println("No matches.")
		return apperrors.ExitOK
	}

	fmt.Printf("Top %d results (method: %s)\n", len(result.Results), rankMethod)
	for i, doc := range result.Results {
		name := doc.DrugName
		if name == "" {
			name = "(unknown)"
		}
		fmt.Printf("%2d. %s | %s | %s | score=%.4f\n", i+1, doc.DocID, name, doc.URL, doc.Score)
	}
	return apperrors.ExitOK
}
