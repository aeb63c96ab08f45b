package verify

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/groundcheck/groundcheck/internal/model"
)

const supportedJudgeJSON = `{"verdict": "SUPPORTED", "confidence": 0.9, "reasoning": "matches"}`

func TestChecker_EmptyEvidence(t *testing.T) {
	cfg := testConfig()
	checker, err := NewCheckerWithProvider(cfg, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	for _, level := range []model.Level{model.LevelBasic, model.LevelSemantic, model.LevelComprehensive} {
		result, err := checker.VerifyAnswer(context.Background(), "The model outputs 768 dimensions.", nil, "", level)
		if err != nil {
			t.Fatalf("Expected no error at level %s, got %v", level, err)
		}
		if !result.HasHallucination {
			t.Errorf("Level %s: empty evidence must flag the answer", level)
		}
		if result.ConfidenceScore != 0.0 {
			t.Errorf("Level %s: expected confidence 0.0, got %v", level, result.ConfidenceScore)
		}
		if len(result.ErrorDescriptions) == 0 {
			t.Errorf("Level %s: expected an error description", level)
		}
	}
}

func TestChecker_EmptyEvidenceNeverConsultsJudge(t *testing.T) {
	cfg := testConfig()
	provider := &mockProvider{content: supportedJudgeJSON}
	checker, err := NewCheckerWithProvider(cfg, provider)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	for _, level := range []model.Level{model.LevelSemantic, model.LevelComprehensive} {
		result, err := checker.VerifyAnswer(context.Background(), "The model outputs 768 dimensions.", nil, "dims?", level)
		if err != nil {
			t.Fatalf("Expected no error at level %s, got %v", level, err)
		}
		if !result.HasHallucination {
			t.Errorf("Level %s: empty evidence must flag the answer", level)
		}
		if result.ConfidenceScore != 0.0 {
			t.Errorf("Level %s: expected confidence 0.0, got %v", level, result.ConfidenceScore)
		}
		if result.Details.Semantic.Available || result.Details.Semantic.Reason != model.ReasonNoEvidence {
			t.Errorf("Level %s: expected no-evidence degradation, got %+v", level, result.Details.Semantic)
		}
	}
	if provider.calls != 0 {
		t.Errorf("Judge must not run without evidence, got %d calls", provider.calls)
	}
}

func TestChecker_SupportedAnswerChinese(t *testing.T) {
	cfg := testConfig()
	checker, err := NewCheckerWithProvider(cfg, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	answer := "BAAI/bge-base-en-v1.5嵌入模型的输出向量维度是768维。"
	evidence := []model.EvidenceChunk{
		chunk("BAAI/bge-base-en-v1.5是嵌入模型，输出维度为768维。", "models.md"),
	}

	result, err := checker.VerifyAnswer(context.Background(), answer, evidence, "向量维度是多少？", model.LevelBasic)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.HasHallucination {
		t.Errorf("Supported answer flagged: %v", result.ErrorDescriptions)
	}
	if result.ConfidenceScore < 0.85 {
		t.Errorf("Expected confidence >= 0.85, got %v", result.ConfidenceScore)
	}
	if len(result.EvidenceChunks) != 1 {
		t.Errorf("Expected the supporting chunk selected, got %v", result.EvidenceChunks)
	}
}

func TestChecker_WrongNumberFlagged(t *testing.T) {
	cfg := testConfig()
	checker, err := NewCheckerWithProvider(cfg, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	answer := "BAAI/bge-base-en-v1.5嵌入模型的输出向量维度是768维。"
	evidence := []model.EvidenceChunk{
		chunk("BAAI/bge-base-en-v1.5是嵌入模型，输出维度为384维。", "models.md"),
	}

	result, err := checker.VerifyAnswer(context.Background(), answer, evidence, "", model.LevelBasic)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !result.HasHallucination {
		t.Error("Contradicted number must flag the answer")
	}
	found := false
	for _, desc := range result.ErrorDescriptions {
		if strings.Contains(desc, "768") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected a description naming 768, got %v", result.ErrorDescriptions)
	}
}

func TestChecker_NegativeDistanceRejected(t *testing.T) {
	checker, err := NewCheckerWithProvider(testConfig(), nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	evidence := []model.EvidenceChunk{{Text: "some text", Distance: -0.1}}
	_, err = checker.VerifyAnswer(context.Background(), "answer", evidence, "", model.LevelBasic)
	if err == nil {
		t.Fatal("Expected an input error for negative distance")
	}
}

func TestChecker_UnknownLevelRejected(t *testing.T) {
	checker, err := NewCheckerWithProvider(testConfig(), nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	_, err = checker.VerifyAnswer(context.Background(), "answer", nil, "", model.Level("thorough"))
	if err == nil {
		t.Fatal("Expected an error for an unknown level")
	}
}

func TestChecker_EmptyLevelUsesDefault(t *testing.T) {
	cfg := testConfig()
	cfg.DefaultLevel = model.LevelBasic
	checker, err := NewCheckerWithProvider(cfg, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	result, err := checker.VerifyAnswer(context.Background(), "The model outputs 768 dimensions.", []model.EvidenceChunk{chunk("The model outputs 768 dimensions.", "a.md")}, "", "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Level != model.LevelBasic {
		t.Errorf("Expected default level basic, got %s", result.Level)
	}
	if result.Details.Semantic.Reason != model.ReasonNotRequested {
		t.Errorf("Basic level should record not_requested, got %q", result.Details.Semantic.Reason)
	}
}

func TestChecker_BasicLevelNeverCallsJudge(t *testing.T) {
	provider := &mockProvider{content: supportedJudgeJSON}
	checker, err := NewCheckerWithProvider(testConfig(), provider)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	_, err = checker.VerifyAnswer(context.Background(), "The model outputs 768 dimensions.", []model.EvidenceChunk{chunk("768 dimensions", "a.md")}, "", model.LevelBasic)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if provider.calls != 0 {
		t.Errorf("Basic level must not call the judge, got %d calls", provider.calls)
	}
}

func TestChecker_ComprehensiveFusesJudge(t *testing.T) {
	cfg := testConfig()
	provider := &mockProvider{content: supportedJudgeJSON}
	checker, err := NewCheckerWithProvider(cfg, provider)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	evidence := []model.EvidenceChunk{chunk("The model outputs 768 dimensions.", "a.md")}
	result, err := checker.VerifyAnswer(context.Background(), "The model outputs 768 dimensions.", evidence, "dims?", model.LevelComprehensive)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if provider.calls != 1 {
		t.Fatalf("Expected one judge call, got %d", provider.calls)
	}
	want := (cfg.BasicWeight*cfg.NoIssueBaseline + cfg.SemanticWeight*0.9) / (cfg.BasicWeight + cfg.SemanticWeight)
	if result.ConfidenceScore != want {
		t.Errorf("Expected fused confidence %v, got %v", want, result.ConfidenceScore)
	}
	if !result.Details.Semantic.Available {
		t.Error("Semantic details missing from comprehensive result")
	}
}

func TestChecker_JudgeFailureDegrades(t *testing.T) {
	cfg := testConfig()
	provider := &mockProvider{err: context.DeadlineExceeded}
	checker, err := NewCheckerWithProvider(cfg, provider)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	evidence := []model.EvidenceChunk{chunk("The model outputs 768 dimensions.", "a.md")}
	result, err := checker.VerifyAnswer(context.Background(), "The model outputs 768 dimensions.", evidence, "", model.LevelComprehensive)
	if err != nil {
		t.Fatalf("Judge failure must not fail the call, got %v", err)
	}

	if result.ConfidenceScore != cfg.NoIssueBaseline {
		t.Errorf("Expected rule-only confidence %v, got %v", cfg.NoIssueBaseline, result.ConfidenceScore)
	}
	if result.Details.Semantic.Available || result.Details.Semantic.Reason != model.ReasonTimeout {
		t.Errorf("Expected timeout degradation recorded, got %+v", result.Details.Semantic)
	}
}

func TestChecker_CacheShortCircuits(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Enabled = true
	provider := &mockProvider{content: supportedJudgeJSON}
	checker, err := NewCheckerWithProvider(cfg, provider)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	evidence := []model.EvidenceChunk{chunk("The model outputs 768 dimensions.", "a.md")}
	first, err := checker.VerifyAnswer(context.Background(), "The model outputs 768 dimensions.", evidence, "dims?", model.LevelComprehensive)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	second, err := checker.VerifyAnswer(context.Background(), "The model outputs 768 dimensions.", evidence, "dims?", model.LevelComprehensive)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if provider.calls != 1 {
		t.Errorf("Second identical call should hit the cache, got %d judge calls", provider.calls)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Cached result differs: %+v vs %+v", first, second)
	}
}

func TestChecker_DegradedResultNotCached(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Enabled = true
	provider := &mockProvider{err: context.DeadlineExceeded}
	checker, err := NewCheckerWithProvider(cfg, provider)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	evidence := []model.EvidenceChunk{chunk("The model outputs 768 dimensions.", "a.md")}
	for i := 0; i < 2; i++ {
		result, err := checker.VerifyAnswer(context.Background(), "The model outputs 768 dimensions.", evidence, "dims?", model.LevelSemantic)
		if err != nil {
			t.Fatalf("Call %d: expected no error, got %v", i, err)
		}
		if result.Details.Semantic.Reason != model.ReasonTimeout {
			t.Fatalf("Call %d: expected timeout degradation, got %+v", i, result.Details.Semantic)
		}
	}

	if provider.calls != 2 {
		t.Errorf("A degraded result must not be served from cache, got %d judge calls", provider.calls)
	}
}

func TestChecker_Idempotent(t *testing.T) {
	cfg := testConfig() // Cache disabled: every call recomputes
	provider := &mockProvider{content: supportedJudgeJSON}
	checker, err := NewCheckerWithProvider(cfg, provider)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	evidence := []model.EvidenceChunk{chunk("The model outputs 768 dimensions.", "a.md")}
	first, err := checker.VerifyAnswer(context.Background(), "The model outputs 768 dimensions.", evidence, "dims?", model.LevelComprehensive)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	second, err := checker.VerifyAnswer(context.Background(), "The model outputs 768 dimensions.", evidence, "dims?", model.LevelComprehensive)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if provider.calls != 2 {
		t.Errorf("Expected recomputation with cache disabled, got %d calls", provider.calls)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Verification not idempotent: %+v vs %+v", first, second)
	}
}

func TestChecker_EvidenceTruncation(t *testing.T) {
	cfg := testConfig()
	cfg.MaxEvidenceChunks = 1
	checker, err := NewCheckerWithProvider(cfg, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// The matching chunk is furthest away; the budget keeps only the
	// closest chunk and the truncation is recorded.
	evidence := []model.EvidenceChunk{
		{Text: "The model outputs 768 dimensions.", Metadata: map[string]string{"source": "far.md"}, Distance: 0.9},
		{Text: "Unrelated passage about storage backends.", Metadata: map[string]string{"source": "near.md"}, Distance: 0.1},
	}

	result, err := checker.VerifyAnswer(context.Background(), "The model outputs 768 dimensions.", evidence, "", model.LevelBasic)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !result.Details.Basic.Truncated {
		t.Error("Expected the truncation to be recorded")
	}
	if !result.HasHallucination {
		t.Error("With the matching chunk cut, the answer should be flagged")
	}
}

func TestChecker_HTMLEvidenceSanitized(t *testing.T) {
	checker, err := NewCheckerWithProvider(testConfig(), nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	evidence := []model.EvidenceChunk{
		chunk("<html><body><p>The model outputs 768 dimensions.</p><script>var x = 999;</script></body></html>", "page.html"),
	}

	result, err := checker.VerifyAnswer(context.Background(), "The model outputs 768 dimensions.", evidence, "", model.LevelBasic)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.HasHallucination {
		t.Errorf("Visible HTML text should support the answer, got %v", result.ErrorDescriptions)
	}
}

func TestChecker_InvalidConfigRejected(t *testing.T) {
	cfg := testConfig()
	cfg.HallucinationThreshold = 1.5

	if _, err := NewCheckerWithProvider(cfg, nil); err == nil {
		t.Fatal("Expected a config validation error")
	}
}
