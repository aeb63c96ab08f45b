package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/sync/singleflight"

	"github.com/mudler/xlog"

	"github.com/groundcheck/groundcheck/internal/cache"
	"github.com/groundcheck/groundcheck/internal/extract"
	"github.com/groundcheck/groundcheck/internal/llm"
	"github.com/groundcheck/groundcheck/internal/model"
	"github.com/groundcheck/groundcheck/internal/textutil"
)

// Checker is the verification facade: the single entry point the pipeline
// orchestrator calls. It owns the extractor, the rule verifier, the semantic
// verifier and the optional result cache. Independent calls share no mutable
// state beyond that cache, so a Checker is safe for concurrent use.
type Checker struct {
	cfg       model.Config
	extractor *extract.Extractor
	rules     *RuleVerifier
	semantic  *SemanticVerifier
	combiner  *Combiner
	cache     cache.Cache
	group     singleflight.Group
}

// NewChecker builds a checker from configuration, constructing the judge
// provider the config names. A config with no provider yields a checker that
// degrades every semantic request to rule-only verification.
func NewChecker(cfg model.Config) (*Checker, error) {
	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("judge provider: %w", err)
	}
	return NewCheckerWithProvider(cfg, provider)
}

// NewCheckerWithProvider builds a checker around an already-constructed
// judge provider (or nil to disable the judge).
func NewCheckerWithProvider(cfg model.Config, provider llm.Provider) (*Checker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &Checker{
		cfg:       cfg,
		extractor: extract.NewExtractor(),
		rules:     NewRuleVerifier(cfg),
		semantic:  NewSemanticVerifier(cfg, provider),
		combiner:  NewCombiner(cfg),
		cache:     cache.FromConfig(cfg.Cache),
	}, nil
}

// RegisterRule adds a custom rule to the rule verifier. Must be called
// before the first VerifyAnswer.
func (c *Checker) RegisterRule(name string, fn RuleFunc) {
	c.rules.Register(name, fn)
}

// VerifyAnswer checks the answer against the retrieved evidence at the
// requested level. It errors only on malformed input; judge failures and
// oversized evidence sets degrade into the returned result instead.
func (c *Checker) VerifyAnswer(ctx context.Context, answer string, retrievedChunks []model.EvidenceChunk, query string, level model.Level) (*model.VerificationResult, error) {
	resolved, err := model.ParseLevel(string(level))
	if err != nil {
		return nil, err
	}
	if level == "" {
		resolved = c.cfg.DefaultLevel
	}
	for i, chunk := range retrievedChunks {
		if chunk.Distance < 0 {
			return nil, fmt.Errorf("evidence chunk %d: negative distance %v", i, chunk.Distance)
		}
	}

	evidence, truncated := c.prepareEvidence(retrievedChunks)

	key := cache.Fingerprint(answer, evidence, query, resolved)
	if c.cache != nil {
		if data, ok := c.cache.Get(key); ok {
			var cached model.VerificationResult
			if json.Unmarshal(data, &cached) == nil {
				return &cached, nil
			}
			_ = c.cache.Delete(key)
		}
	}

	// Collapse concurrent duplicates of the same fingerprint into one
	// computation; the result is immutable, so sharing it is safe.
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		return c.verify(ctx, answer, evidence, query, resolved, truncated), nil
	})
	if err != nil {
		return nil, err
	}
	result := v.(*model.VerificationResult)

	if c.cache != nil && cacheable(result) {
		if data, err := json.Marshal(result); err == nil {
			_ = c.cache.Set(key, data, c.cfg.Cache.TTL)
		}
	}

	return result, nil
}

// cacheable reports whether a result may be stored. A judge that degraded
// transiently (timeout, provider error) would otherwise pin a rule-only
// result for the full TTL.
func cacheable(result *model.VerificationResult) bool {
	switch result.Details.Semantic.Reason {
	case model.ReasonTimeout, model.ReasonProviderError:
		return false
	}
	return true
}

// verify runs the full pipeline: extract, rule-check, optionally escalate to
// the judge, combine.
func (c *Checker) verify(ctx context.Context, answer string, evidence []model.EvidenceChunk, query string, level model.Level, truncated bool) *model.VerificationResult {
	info := c.extractor.Extract(answer)

	basic := c.rules.Verify(info, evidence)
	basic.Truncated = truncated

	semantic := model.SemanticUnavailable(model.ReasonNotRequested)
	if level == model.LevelSemantic || level == model.LevelComprehensive {
		if len(evidence) == 0 {
			// With nothing to judge against, a verdict would grade the
			// answer in a vacuum. The rule result (confidence 0, missing
			// evidence) stands at every level.
			semantic = model.SemanticUnavailable(model.ReasonNoEvidence)
		} else {
			semantic = c.semantic.Verify(ctx, answer, evidence, query)
		}
	}

	result := c.combiner.Combine(level, basic, semantic, evidence)

	xlog.Debug("verification complete",
		"level", level,
		"chunks", len(evidence),
		"issues", len(basic.Issues),
		"semantic_available", semantic.Available,
		"confidence", result.ConfidenceScore,
		"hallucination", result.HasHallucination,
	)

	return result
}

// prepareEvidence sanitizes chunk text, restores retrieval ranking order and
// applies the processing budget. The caller's slice is never mutated.
func (c *Checker) prepareEvidence(chunks []model.EvidenceChunk) ([]model.EvidenceChunk, bool) {
	prepared := make([]model.EvidenceChunk, len(chunks))
	copy(prepared, chunks)

	for i := range prepared {
		if textutil.LooksLikeHTML(prepared[i].Text) {
			prepared[i].Text = textutil.VisibleText(prepared[i].Text)
		}
	}

	sort.SliceStable(prepared, func(i, j int) bool {
		return prepared[i].Distance < prepared[j].Distance
	})

	truncated := false
	if c.cfg.MaxEvidenceChunks > 0 && len(prepared) > c.cfg.MaxEvidenceChunks {
		prepared = prepared[:c.cfg.MaxEvidenceChunks]
		truncated = true
	}

	return prepared, truncated
}
