package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/groundcheck/groundcheck/internal/verify"
	"github.com/groundcheck/groundcheck/internal/worker"
)

var (
	concurrency  int
	batchOut     string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <records.jsonl>",
	Short: "Verify many answers from a JSONL file in parallel",
	Long: `Batch verifies multiple answers concurrently. The input is JSONL,
one record per line:

  {"id": "q1", "answer": "...", "query": "...", "level": "basic",
   "evidence": [{"text": "...", "metadata": {"source": "a.txt"}, "distance": 0.1}]}

Outcomes are written as JSONL in input order.

Example:
  groundcheck batch records.jsonl
  groundcheck batch records.jsonl --concurrency 8 --out results.jsonl
  groundcheck batch records.jsonl --llm-provider openai --llm-model gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&batchOut, "out", "", "output JSONL path (default: stdout)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")

	// The judge configuration is shared with the verify command.
	batchCmd.Flags().Float64Var(&threshold, "threshold", 0.7, "hallucination threshold on the confidence score")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")
	batchCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "judge provider (openai, anthropic, ollama; empty = rules only)")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "", "judge model name")
	batchCmd.Flags().DurationVar(&llmTimeout, "llm-timeout", 30*time.Second, "judge call timeout")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	checker, err := verify.NewChecker(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	processor := worker.NewBatchProcessor(checker, concurrency)
	outcomes, err := processor.ProcessFile(ctx, args[0])
	if err != nil {
		return fmt.Errorf("batch: %w", err)
	}

	if verbose {
		failed := 0
		flagged := 0
		for _, o := range outcomes {
			switch {
			case o.GetError() != nil:
				failed++
			case o.Result != nil && o.Result.HasHallucination:
				flagged++
			}
		}
		fmt.Fprintf(os.Stderr, "✓ Verified %d records (%d flagged, %d failed)\n", len(outcomes), flagged, failed)
	}

	out := os.Stdout
	if batchOut != "" {
		f, err := os.Create(batchOut)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	return worker.WriteOutcomes(out, outcomes)
}
