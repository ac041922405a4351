package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/trivia-api-service/internal/metrics"
	"github.com/trivia-api-service/internal/model"
	"github.com/trivia-api-service/internal/store"
)

const (
	defaultPageSize       = 1000
	defaultConcurrency    = 5
	defaultRetryBudget    = 3
	defaultRetryDelay     = 5 * time.Second
	defaultAdmitDelay     = 10 * time.Millisecond
	defaultPageDelay      = 10 * time.Millisecond
	defaultCheckpointPath = "trivia_generation_progress.json"
	defaultLogPath        = "trivia_generation_log.txt"
)

// Generator produces a multiple-choice draft for a single clue.
type Generator interface {
	Generate(ctx context.Context, clue *model.Clue) (*model.TriviaDraft, error)
	Model() string
}

// Options control a batch run. Zero values fall back to the defaults
// above, so callers only set what they want to override.
type Options struct {
	// StartID and EndID bound the clue ID range; zero means unbounded.
	StartID int64
	EndID   int64

	// Resume continues from an existing checkpoint instead of starting
	// over. Force regenerates clues that already have a trivia question.
	Resume bool
	Force  bool

	PageSize    int
	Concurrency int

	// RetryBudget is the number of retries after the initial attempt.
	RetryBudget int
	RetryDelay  time.Duration

	// AdmitDelay paces handoffs to workers; PageDelay separates pages.
	AdmitDelay time.Duration
	PageDelay  time.Duration

	CheckpointPath string
	LogPath        string
}

func (o *Options) setDefaults() {
	if o.PageSize <= 0 {
		o.PageSize = defaultPageSize
	}
	if o.Concurrency <= 0 {
		o.Concurrency = defaultConcurrency
	}
	if o.RetryBudget <= 0 {
		o.RetryBudget = defaultRetryBudget
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = defaultRetryDelay
	}
	if o.AdmitDelay <= 0 {
		o.AdmitDelay = defaultAdmitDelay
	}
	if o.PageDelay <= 0 {
		o.PageDelay = defaultPageDelay
	}
	if o.CheckpointPath == "" {
		o.CheckpointPath = defaultCheckpointPath
	}
	if o.LogPath == "" {
		o.LogPath = defaultLogPath
	}
}

// Processor walks clues in ID order, generates a trivia question for
// each through a bounded worker pool, and checkpoints after every page.
type Processor struct {
	questions store.QuestionStore
	gen       Generator
	opts      Options
	runLog    *RunLog
}

func New(questions store.QuestionStore, gen Generator, runLog *RunLog, opts Options) *Processor {
	opts.setDefaults()
	return &Processor{questions: questions, gen: gen, opts: opts, runLog: runLog}
}

type clueOutcome int

const (
	outcomeProcessed clueOutcome = iota
	outcomeSkipped
	outcomeFailed
)

type pageResult struct {
	processed int
	skipped   int
	failed    int

	// dispatched counts clues handed to workers, in ID order. On
	// cancellation it tells Run how far the cursor may safely advance.
	dispatched int
}

// Run executes the batch. Per-clue failures are counted and logged
// without stopping the run; fetch and checkpoint failures abort, and
// cancellation stops after checkpointing the work already dispatched.
// Work already checkpointed is never lost on abort.
func (p *Processor) Run(ctx context.Context) error {
	cursor := int64(0)
	processed := 0
	errCount := 0

	if p.opts.Resume {
		prog, err := LoadProgress(p.opts.CheckpointPath)
		if err != nil {
			return err
		}
		if prog != nil {
			cursor = prog.LastProcessedID
			processed = prog.ProcessedCount
			errCount = prog.ErrorCount
			p.runLog.Printf("Resuming from clue ID %d (%d processed, %d errors so far)", cursor, processed, errCount)
		}
	}
	if p.opts.StartID > 0 && cursor < p.opts.StartID-1 {
		cursor = p.opts.StartID - 1
	}

	clueRange := store.ClueRange{StartID: p.opts.StartID, EndID: p.opts.EndID}
	remaining, err := p.questions.CountClues(ctx, store.ClueRange{StartID: cursor + 1, EndID: p.opts.EndID})
	if err != nil {
		p.runLog.Errorf("failed to count clues: %v", err)
		return fmt.Errorf("count clues: %w", err)
	}
	p.runLog.Printf("Starting batch processing for %d clues", remaining)

	batch := 0
	for {
		clues, err := p.questions.PageClues(ctx, cursor, clueRange, p.opts.PageSize)
		if err != nil {
			p.runLog.Errorf("failed to fetch clues after ID %d: %v", cursor, err)
			return fmt.Errorf("page clues after id %d: %w", cursor, err)
		}
		if len(clues) == 0 {
			break
		}
		batch++
		p.runLog.Printf("Processing batch %d: %d clues after ID %d", batch, len(clues), cursor)

		res := p.processPage(ctx, clues)
		processed += res.processed + res.skipped
		errCount += res.failed

		// The cursor only covers clues actually handed to workers, so a
		// cancelled page never hides undispatched clues from a resume.
		if res.dispatched > 0 {
			cursor = clues[res.dispatched-1].ID
			prog := &Progress{
				LastProcessedID: cursor,
				ProcessedCount:  processed,
				ErrorCount:      errCount,
				LastUpdated:     time.Now().UTC(),
			}
			if err := prog.Save(p.opts.CheckpointPath); err != nil {
				p.runLog.Errorf("failed to save checkpoint: %v", err)
				return fmt.Errorf("save checkpoint: %w", err)
			}
		}
		if err := ctx.Err(); err != nil {
			p.runLog.Printf("Run cancelled after clue ID %d; checkpoint preserved", cursor)
			return err
		}
		p.runLog.Printf("Batch %d done: %d generated, %d skipped, %d failed (totals: %d processed, %d errors)",
			batch, res.processed, res.skipped, res.failed, processed, errCount)

		if len(clues) < p.opts.PageSize {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.opts.PageDelay):
		}
	}

	p.runLog.Printf("Batch processing complete: %d clues processed, %d errors", processed, errCount)
	return nil
}

// processPage fans the page out to at most Concurrency workers and
// waits for all of them before returning.
func (p *Processor) processPage(ctx context.Context, clues []*model.Clue) pageResult {
	jobs := make(chan *model.Clue)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		res pageResult
	)

	workers := p.opts.Concurrency
	if workers > len(clues) {
		workers = len(clues)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for clue := range jobs {
				outcome := p.processClue(ctx, clue)
				mu.Lock()
				switch outcome {
				case outcomeProcessed:
					res.processed++
				case outcomeSkipped:
					res.skipped++
				case outcomeFailed:
					res.failed++
				}
				mu.Unlock()
				switch outcome {
				case outcomeProcessed:
					metrics.PipelineProcessed.Inc()
				case outcomeFailed:
					metrics.PipelineErrors.Inc()
				}
			}
		}()
	}

dispatch:
	for _, clue := range clues {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- clue:
			res.dispatched++
		}
		select {
		case <-ctx.Done():
			break dispatch
		case <-time.After(p.opts.AdmitDelay):
		}
	}
	close(jobs)
	wg.Wait()
	return res
}

// processClue runs the retry loop for a single clue. Exhausting the
// retry budget marks the clue failed; the run carries on.
func (p *Processor) processClue(ctx context.Context, clue *model.Clue) clueOutcome {
	var lastErr error
	for attempt := 0; attempt <= p.opts.RetryBudget; attempt++ {
		if attempt > 0 {
			p.runLog.Printf("Retrying clue ID %d (%d attempts left)", clue.ID, p.opts.RetryBudget-attempt+1)
			select {
			case <-ctx.Done():
				p.runLog.Errorf("giving up on clue ID %d: %v", clue.ID, ctx.Err())
				return outcomeFailed
			case <-time.After(p.opts.RetryDelay):
			}
		}

		outcome, err := p.attemptClue(ctx, clue)
		if err == nil {
			if outcome == outcomeSkipped {
				p.runLog.Printf("Skipping clue ID %d: trivia question already exists", clue.ID)
			} else {
				p.runLog.Printf("Successfully processed clue ID %d", clue.ID)
			}
			return outcome
		}
		lastErr = err
	}

	p.runLog.Errorf("Failed to process clue ID %d after %d retries: %v", clue.ID, p.opts.RetryBudget, lastErr)
	return outcomeFailed
}

func (p *Processor) attemptClue(ctx context.Context, clue *model.Clue) (clueOutcome, error) {
	if !p.opts.Force {
		existing, err := p.questions.FindTriviaByClue(ctx, clue.ID)
		if err != nil {
			return outcomeFailed, fmt.Errorf("check existing trivia: %w", err)
		}
		if existing != nil {
			return outcomeSkipped, nil
		}
	}

	draft, err := p.gen.Generate(ctx, clue)
	if err != nil {
		return outcomeFailed, err
	}

	question := &model.TriviaQuestion{
		ClueID:        clue.ID,
		Question:      draft.Question,
		CorrectAnswer: draft.CorrectAnswer,
		Model:         p.gen.Model(),
	}
	for i := 0; i < len(question.WrongAnswers) && i < len(draft.WrongAnswers); i++ {
		question.WrongAnswers[i] = draft.WrongAnswers[i]
	}
	if err := p.questions.CreateTrivia(ctx, question); err != nil {
		return outcomeFailed, fmt.Errorf("persist trivia question: %w", err)
	}
	return outcomeProcessed, nil
}
