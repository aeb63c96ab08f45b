package verify

import (
	"strings"
	"testing"

	"github.com/groundcheck/groundcheck/internal/extract"
	"github.com/groundcheck/groundcheck/internal/model"
)

func testConfig() model.Config {
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	return cfg
}

func chunk(text, source string) model.EvidenceChunk {
	return model.EvidenceChunk{
		Text:     text,
		Metadata: map[string]string{"source": source},
	}
}

func TestRuleVerifier_SupportedChineseAnswer(t *testing.T) {
	verifier := NewRuleVerifier(testConfig())
	extractor := extract.NewExtractor()

	answer := "BAAI/bge-base-en-v1.5嵌入模型的输出向量维度是768维。"
	evidence := []model.EvidenceChunk{
		chunk("BAAI/bge-base-en-v1.5是嵌入模型，输出维度为768维。", "models.md"),
	}

	result := verifier.Verify(extractor.Extract(answer), evidence)

	if len(result.Issues) != 0 {
		t.Fatalf("Expected no issues for a supported answer, got %v", result.Issues)
	}
	if result.Confidence < 0.85 {
		t.Errorf("Expected confidence >= 0.85, got %v", result.Confidence)
	}
	if len(result.SupportedChunks) != 1 || result.SupportedChunks[0] != 0 {
		t.Errorf("Expected chunk 0 marked as supporting, got %v", result.SupportedChunks)
	}
}

func TestRuleVerifier_WrongNumberFlagged(t *testing.T) {
	verifier := NewRuleVerifier(testConfig())
	extractor := extract.NewExtractor()

	answer := "BAAI/bge-base-en-v1.5嵌入模型的输出向量维度是768维。"
	evidence := []model.EvidenceChunk{
		chunk("BAAI/bge-base-en-v1.5是嵌入模型，输出维度为384维。", "models.md"),
	}

	result := verifier.Verify(extractor.Extract(answer), evidence)

	var numberIssue *model.Issue
	for i := range result.Issues {
		if result.Issues[i].Kind == model.IssueNumberUnsupported {
			numberIssue = &result.Issues[i]
		}
	}
	if numberIssue == nil {
		t.Fatalf("Expected a number issue, got %v", result.Issues)
	}
	if !strings.Contains(numberIssue.Description, "768") {
		t.Errorf("Issue description should name the unsupported number, got %q", numberIssue.Description)
	}
	if want := 1.0 - testConfig().NumberPenalty; result.Confidence != want {
		t.Errorf("Expected confidence %v after one number penalty, got %v", want, result.Confidence)
	}
}

func TestRuleVerifier_AbsentEntityFlagged(t *testing.T) {
	verifier := NewRuleVerifier(testConfig())
	extractor := extract.NewExtractor()

	answer := "The results were produced with FooBarNet on the shared benchmark."
	evidence := []model.EvidenceChunk{
		chunk("The shared benchmark results were produced with a transformer baseline.", "paper.md"),
	}

	result := verifier.Verify(extractor.Extract(answer), evidence)

	found := false
	for _, issue := range result.Issues {
		if issue.Kind == model.IssueEntityUnsupported && issue.Target == "FooBarNet" {
			found = true
			if !strings.Contains(issue.Description, "FooBarNet") {
				t.Errorf("Issue description should name the entity, got %q", issue.Description)
			}
		}
	}
	if !found {
		t.Errorf("Expected an entity issue for FooBarNet, got %v", result.Issues)
	}
}

func TestRuleVerifier_EmptyEvidence(t *testing.T) {
	verifier := NewRuleVerifier(testConfig())
	extractor := extract.NewExtractor()

	result := verifier.Verify(extractor.Extract("The model outputs 768 dimensions."), nil)

	if result.Confidence != 0.0 {
		t.Errorf("Expected confidence 0.0 with no evidence, got %v", result.Confidence)
	}
	if len(result.Issues) != 1 {
		t.Fatalf("Expected exactly one issue, got %v", result.Issues)
	}
	if result.Issues[0].Kind != model.IssueClaimUnsupported {
		t.Errorf("Expected a claim issue, got %v", result.Issues[0].Kind)
	}
	if len(result.ChecksPerformed) != 1 || result.ChecksPerformed[0] != checkEvidencePresence {
		t.Errorf("Expected only the evidence presence check, got %v", result.ChecksPerformed)
	}
}

func TestRuleVerifier_NormalizedNumberMatch(t *testing.T) {
	verifier := NewRuleVerifier(testConfig())
	extractor := extract.NewExtractor()

	tests := []struct {
		name     string
		answer   string
		evidence string
	}{
		{"trailing zero decimal", "The output has 768 dimensions in total.", "The output dimension of the model is 768.0 according to its card."},
		{"comma separated thousands", "The corpus has 1,024 documents in it.", "There are 1024 documents in the corpus overall."},
		{"full width digits", "数据集共有768条样本，全部人工标注。", "数据集共有７６８条样本，全部人工标注。"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := verifier.Verify(extractor.Extract(tt.answer), []model.EvidenceChunk{chunk(tt.evidence, "doc.md")})
			for _, issue := range result.Issues {
				if issue.Kind == model.IssueNumberUnsupported {
					t.Errorf("Number should match after normalization, got issue %q", issue.Description)
				}
			}
		})
	}
}

func TestRuleVerifier_ClaimCoverageAcrossChunks(t *testing.T) {
	cfg := testConfig()
	verifier := NewRuleVerifier(cfg)
	extractor := extract.NewExtractor()

	// Each chunk covers only a sliver of the claim; no single chunk reaches
	// the support threshold, so the claim is flagged.
	answer := "The quantum resonance cascade amplifier is able to double throughput under sustained production load."
	evidence := []model.EvidenceChunk{
		chunk("Throughput metrics are collected hourly.", "ops.md"),
		chunk("Sustained load testing is part of the release checklist.", "ops.md"),
	}

	result := verifier.Verify(extractor.Extract(answer), evidence)

	var claimIssue *model.Issue
	for i := range result.Issues {
		if result.Issues[i].Kind == model.IssueClaimUnsupported {
			claimIssue = &result.Issues[i]
		}
	}
	if claimIssue == nil {
		t.Fatalf("Expected a claim support issue, got %v", result.Issues)
	}
	if claimIssue.EvidenceScore >= cfg.ClaimSupportThreshold {
		t.Errorf("Flagged claim should score below %v, got %v", cfg.ClaimSupportThreshold, claimIssue.EvidenceScore)
	}
	if !strings.Contains(claimIssue.Description, "insufficiently supported") {
		t.Errorf("Unexpected description %q", claimIssue.Description)
	}
}

func TestRuleVerifier_ConfidenceBounds(t *testing.T) {
	cfg := testConfig()
	verifier := NewRuleVerifier(cfg)
	extractor := extract.NewExtractor()

	// Many unsupported numbers drive the penalty sum past 1.0; confidence
	// must floor at zero, never go negative.
	answer := "Counts: 111, 222, 333, 444, 555, 666, 777, 888, 999."
	evidence := []model.EvidenceChunk{chunk("No counts are recorded here.", "doc.md")}

	result := verifier.Verify(extractor.Extract(answer), evidence)

	if result.Confidence < 0 || result.Confidence > 1 {
		t.Errorf("Confidence %v out of [0,1]", result.Confidence)
	}
	if result.Confidence != 0 {
		t.Errorf("Expected floored confidence 0, got %v", result.Confidence)
	}
}

func TestRuleVerifier_NoIssueBaselineBelowOne(t *testing.T) {
	cfg := testConfig()
	verifier := NewRuleVerifier(cfg)
	extractor := extract.NewExtractor()

	answer := "The service handles 500 requests per second at peak."
	evidence := []model.EvidenceChunk{
		chunk("At peak the service handles 500 requests per second.", "perf.md"),
	}

	result := verifier.Verify(extractor.Extract(answer), evidence)

	if len(result.Issues) != 0 {
		t.Fatalf("Expected no issues, got %v", result.Issues)
	}
	if result.Confidence != cfg.NoIssueBaseline {
		t.Errorf("Expected baseline %v, got %v", cfg.NoIssueBaseline, result.Confidence)
	}
	if result.Confidence >= 1.0 {
		t.Errorf("Clean rule run must not claim certainty, got %v", result.Confidence)
	}
}

func TestRuleVerifier_CustomRule(t *testing.T) {
	verifier := NewRuleVerifier(testConfig())
	extractor := extract.NewExtractor()

	verifier.Register("date_consistency", func(info model.ExtractedInfo, ev *EvidenceIndex) []model.Issue {
		var issues []model.Issue
		for _, d := range info.Dates {
			issues = append(issues, model.Issue{
				Kind:        model.IssueClaimUnsupported,
				Description: "date " + d + " not checked against evidence",
				Target:      d,
			})
		}
		return issues
	})

	answer := "该项目于2023年启动，代号为Atlas。"
	evidence := []model.EvidenceChunk{chunk("该项目于2023年启动，代号为Atlas。", "history.md")}

	result := verifier.Verify(extractor.Extract(answer), evidence)

	foundCheck := false
	for _, name := range result.ChecksPerformed {
		if name == "date_consistency" {
			foundCheck = true
		}
	}
	if !foundCheck {
		t.Errorf("Registered rule should appear in checks performed, got %v", result.ChecksPerformed)
	}

	foundIssue := false
	for _, issue := range result.Issues {
		if issue.Target == "2023年" {
			foundIssue = true
		}
	}
	if !foundIssue {
		t.Errorf("Custom rule issue missing from %v", result.Issues)
	}
}

func TestClaimKeywords(t *testing.T) {
	tests := []struct {
		name  string
		claim string
		want  []string
		skip  []string
	}{
		{
			name:  "latin stopwords removed",
			claim: "The model is trained on the corpus",
			want:  []string{"model", "trained", "corpus"},
			skip:  []string{"the", "is", "on"},
		},
		{
			name:  "cjk bigrams",
			claim: "输出维度",
			want:  []string{"输出", "出维", "维度"},
		},
		{
			name:  "mixed script",
			claim: "BERT模型",
			want:  []string{"bert", "模型"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClaimKeywords(tt.claim)
			has := make(map[string]bool, len(got))
			for _, kw := range got {
				has[kw] = true
			}
			for _, want := range tt.want {
				if !has[want] {
					t.Errorf("Expected keyword %q in %v", want, got)
				}
			}
			for _, skip := range tt.skip {
				if has[skip] {
					t.Errorf("Keyword %q should have been dropped, got %v", skip, got)
				}
			}
		})
	}
}

func TestNormalizeNumber(t *testing.T) {
	tests := []struct {
		token string
		want  string
		ok    bool
	}{
		{"768", "768", true},
		{"768.0", "768", true},
		{"1,024", "1024", true},
		{"768维", "768", true},
		{"85%", "85", true},
		{"７６８", "768", true},
		{"", "", false},
		{"维", "", false},
	}

	for _, tt := range tests {
		got, ok := normalizeNumber(tt.token)
		if ok != tt.ok || got != tt.want {
			t.Errorf("normalizeNumber(%q) = (%q, %v), want (%q, %v)", tt.token, got, ok, tt.want, tt.ok)
		}
	}
}
