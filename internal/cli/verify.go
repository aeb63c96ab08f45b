package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/groundcheck/groundcheck/internal/model"
	"github.com/groundcheck/groundcheck/internal/verify"
)

var (
	answerText   string
	answerFile   string
	evidenceFile string
	query        string
	levelFlag    string
	threshold    float64
	outJSON      string
	noCache      bool
	llmProvider  string
	llmModel     string
	llmTimeout   time.Duration
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a single answer against retrieved evidence",
	Long: `Verify checks one generated answer against its evidence passages:
- Extract numbers, entities and claim sentences from the answer
- Cross-check each against the evidence with deterministic rules
- Optionally escalate to an LLM judge for a semantic verdict
- Fuse both signals into a confidence-scored result

The evidence file is a JSON array of chunks:
  [{"text": "...", "metadata": {"source": "doc.txt"}, "distance": 0.12}]

Example:
  groundcheck verify --answer "The model outputs 768 dimensions." --evidence chunks.json
  groundcheck verify --answer-file answer.txt --evidence chunks.json --level basic
  groundcheck verify --answer-file answer.txt --evidence chunks.json --llm-provider openai`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&answerText, "answer", "", "answer text to verify")
	verifyCmd.Flags().StringVar(&answerFile, "answer-file", "", "file containing the answer text")
	verifyCmd.Flags().StringVar(&evidenceFile, "evidence", "", "JSON file with retrieved evidence chunks (required)")
	verifyCmd.Flags().StringVar(&query, "query", "", "original query (optional, improves the judge prompt)")
	verifyCmd.Flags().StringVar(&levelFlag, "level", "comprehensive", "verification level (basic, semantic, comprehensive)")
	verifyCmd.Flags().Float64Var(&threshold, "threshold", 0.7, "hallucination threshold on the confidence score")
	verifyCmd.Flags().StringVar(&outJSON, "json", "", "write the result JSON to a file instead of stdout")
	verifyCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")

	verifyCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "judge provider (openai, anthropic, ollama; empty = rules only)")
	verifyCmd.Flags().StringVar(&llmModel, "llm-model", "", "judge model name")
	verifyCmd.Flags().DurationVar(&llmTimeout, "llm-timeout", 30*time.Second, "judge call timeout")

	_ = verifyCmd.MarkFlagRequired("evidence")
}

func runVerify(cmd *cobra.Command, args []string) error {
	answer, err := readAnswer()
	if err != nil {
		return err
	}

	chunks, err := readEvidence(evidenceFile)
	if err != nil {
		return err
	}

	level, err := model.ParseLevel(levelFlag)
	if err != nil {
		return err
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	checker, err := verify.NewChecker(cfg)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Verifying answer (%d evidence chunks, level %s)\n", len(chunks), level)
	}

	ctx, cancel := context.WithTimeout(context.Background(), llmTimeout+30*time.Second)
	defer cancel()

	result, err := checker.VerifyAnswer(ctx, answer, chunks, query, level)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	if verbose {
		printSummary(result)
	}

	return writeResult(result, outJSON)
}

// buildConfig assembles the engine configuration from flags and environment.
func buildConfig() (model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.HallucinationThreshold = threshold
	cfg.Cache.Enabled = !noCache

	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.Model = llmModel
		cfg.LLM.Timeout = llmTimeout

		switch llmProvider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
			if cfg.LLM.APIKey == "" {
				return cfg, fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
		case "anthropic", "claude":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
			if cfg.LLM.APIKey == "" {
				return cfg, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
			}
		case "ollama":
			if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
				cfg.LLM.BaseURL = baseURL
			}
		}
	}

	return cfg, nil
}

func readAnswer() (string, error) {
	switch {
	case answerText != "" && answerFile != "":
		return "", fmt.Errorf("--answer and --answer-file are mutually exclusive")
	case answerFile != "":
		data, err := os.ReadFile(answerFile)
		if err != nil {
			return "", fmt.Errorf("read answer: %w", err)
		}
		return string(data), nil
	default:
		return answerText, nil
	}
}

func readEvidence(path string) ([]model.EvidenceChunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read evidence: %w", err)
	}

	var chunks []model.EvidenceChunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("parse evidence: %w", err)
	}
	return chunks, nil
}

func printSummary(result *model.VerificationResult) {
	status := "✓ supported"
	if result.HasHallucination {
		status = "✗ hallucination suspected"
	}
	fmt.Fprintf(os.Stderr, "%s (confidence %.3f, level %s)\n", status, result.ConfidenceScore, result.Level)
	for _, desc := range result.ErrorDescriptions {
		fmt.Fprintf(os.Stderr, "  - %s\n", desc)
	}
	if !result.Details.Semantic.Available && result.Details.Semantic.Reason != model.ReasonNotRequested {
		fmt.Fprintf(os.Stderr, "  (semantic check unavailable: %s)\n", result.Details.Semantic.Reason)
	}
}

func writeResult(result *model.VerificationResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	if path == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", path)
	}
	return nil
}
