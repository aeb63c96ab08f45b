package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/groundcheck/groundcheck/internal/model"
)

// Verifier is the slice of the checker facade the batch processor needs.
type Verifier interface {
	VerifyAnswer(ctx context.Context, answer string, chunks []model.EvidenceChunk, query string, level model.Level) (*model.VerificationResult, error)
}

// Record is one batch input: an answer plus its retrieved evidence.
type Record struct {
	ID       string                `json:"id,omitempty"`
	Answer   string                `json:"answer"`
	Query    string                `json:"query,omitempty"`
	Level    string                `json:"level,omitempty"`
	Evidence []model.EvidenceChunk `json:"evidence"`
}

// VerifyJob runs one record through the verifier.
type VerifyJob struct {
	Record   Record
	Index    int
	Verifier Verifier
}

// VerifyOutcome pairs a record with its verification result (or input error).
type VerifyOutcome struct {
	ID     string                    `json:"id,omitempty"`
	Index  int                       `json:"index"`
	Result *model.VerificationResult `json:"result,omitempty"`
	Err    string                    `json:"error,omitempty"`

	err error
}

// GetError returns the job's error, if any.
func (o *VerifyOutcome) GetError() error {
	return o.err
}

// Execute implements Job.
func (j *VerifyJob) Execute(ctx context.Context) Result {
	outcome := &VerifyOutcome{ID: j.Record.ID, Index: j.Index}

	level, err := model.ParseLevel(j.Record.Level)
	if err == nil {
		outcome.Result, err = j.Verifier.VerifyAnswer(ctx, j.Record.Answer, j.Record.Evidence, j.Record.Query, level)
	}
	if err != nil {
		outcome.err = err
		outcome.Err = err.Error()
	}

	return outcome
}

// BatchProcessor verifies many answers concurrently. Records are independent,
// so throughput scales with the worker count up to the judge's rate limit.
type BatchProcessor struct {
	verifier    Verifier
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(verifier Verifier, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		verifier:    verifier,
		concurrency: concurrency,
	}
}

// Process verifies all records concurrently and returns outcomes ordered by
// input index.
func (b *BatchProcessor) Process(ctx context.Context, records []Record) []*VerifyOutcome {
	if len(records) == 0 {
		return []*VerifyOutcome{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, record := range records {
		pool.Submit(&VerifyJob{Record: record, Index: i, Verifier: b.verifier})
	}

	results := pool.Wait()

	outcomes := make([]*VerifyOutcome, len(records))
	for _, result := range results {
		o := result.(*VerifyOutcome)
		outcomes[o.Index] = o
	}

	// A cancelled context makes the pool drop queued jobs; their slots must
	// still carry an outcome so consumers never see a nil entry.
	for i := range outcomes {
		if outcomes[i] != nil {
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		outcomes[i] = &VerifyOutcome{
			ID:    records[i].ID,
			Index: i,
			Err:   err.Error(),
			err:   err,
		}
	}
	return outcomes
}

// ProcessFile reads JSONL records from a file and verifies them.
func (b *BatchProcessor) ProcessFile(ctx context.Context, path string) ([]*VerifyOutcome, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open records: %w", err)
	}
	defer func() { _ = f.Close() }()

	records, err := ReadRecords(f)
	if err != nil {
		return nil, err
	}
	return b.Process(ctx, records), nil
}

// ReadRecords parses JSONL input: one Record object per non-empty line.
func ReadRecords(r io.Reader) ([]Record, error) {
	var records []Record

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var record Record
		if err := json.Unmarshal([]byte(text), &record); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}

	return records, nil
}

// WriteOutcomes emits outcomes as JSONL, one object per line.
func WriteOutcomes(w io.Writer, outcomes []*VerifyOutcome) error {
	enc := json.NewEncoder(w)
	for _, o := range outcomes {
		if err := enc.Encode(o); err != nil {
			return err
		}
	}
	return nil
}
