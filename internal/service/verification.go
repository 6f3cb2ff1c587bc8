package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DemocracyDevelopers/irvcheck/internal/audit"
	"github.com/DemocracyDevelopers/irvcheck/internal/domain"
	"github.com/DemocracyDevelopers/irvcheck/internal/irv"
	"github.com/DemocracyDevelopers/irvcheck/internal/metrics"
	"github.com/DemocracyDevelopers/irvcheck/internal/store"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("irvcheck/service")

const (
	defaultVerifyTimeout     = 30 * time.Second
	defaultMaxCandidates     = 20
	defaultVerifyConcurrency = 4

	defaultListLimit = 20
	maxListLimit     = 100
)

var (
	ErrRunNotFound         = errors.New("verification run not found")
	ErrInvalidRequest      = errors.New("invalid verification request")
	ErrVerificationTimeout = errors.New("verification timed out")
)

type VerificationService struct {
	store  domain.RunStore
	logger *zap.Logger

	timeout       time.Duration
	maxCandidates int
	concurrency   int
}

func NewVerificationService(s domain.RunStore, logger *zap.Logger) *VerificationService {
	return &VerificationService{
		store:         s,
		logger:        logger,
		timeout:       defaultVerifyTimeout,
		maxCandidates: defaultMaxCandidates,
		concurrency:   defaultVerifyConcurrency,
	}
}

func (s *VerificationService) SetTimeout(d time.Duration) {
	s.timeout = d
}

func (s *VerificationService) SetMaxCandidates(n int) {
	s.maxCandidates = n
}

func (s *VerificationService) SetConcurrency(n int) {
	s.concurrency = n
}

// Verify checks one contest's assertions against its reported winner and
// records the run.
func (s *VerificationService) Verify(ctx context.Context, req domain.VerificationRequest) (*domain.VerificationRun, error) {
	ctx, span := tracer.Start(ctx, "VerificationService.Verify", trace.WithAttributes(
		attribute.String("contest.id", req.Contest.ContestID),
		attribute.Int("contest.candidates", len(req.Contest.Candidates)),
		attribute.Bool("proved_only", req.ProvedOnly),
	))
	defer span.End()

	run, err := s.verify(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("verdict", string(run.Verdict)),
		attribute.Int64("search.explored", run.StatesExplored),
		attribute.Int64("search.pruned", run.Pruned),
	)
	return run, nil
}

func (s *VerificationService) verify(ctx context.Context, req domain.VerificationRequest) (*domain.VerificationRun, error) {
	c := req.Contest
	if c.ContestID == "" {
		return nil, fmt.Errorf("%w: contest_id is required", ErrInvalidRequest)
	}

	candidates := irv.SortCandidates(audit.Candidates(c.Candidates))
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: contest %s has no candidates", ErrInvalidRequest, c.ContestID)
	}
	if s.maxCandidates > 0 && len(candidates) > s.maxCandidates {
		return nil, fmt.Errorf("%w: contest %s has %d candidates, limit is %d",
			ErrInvalidRequest, c.ContestID, len(candidates), s.maxCandidates)
	}

	winner, err := irv.SoleWinner(audit.Candidates(c.Winners))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	assertions, err := audit.Assertions(c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if req.ProvedOnly {
		assertions = irv.ProvedOnly(assertions)
	}

	vctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	outcome, err := irv.VerifyContext(vctx, candidates, winner, assertions)
	elapsed := time.Since(start)
	if err != nil {
		metrics.VerificationFailed()
		s.logger.Warn("verification failed",
			zap.String("contest_id", c.ContestID),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return nil, s.translateError(ctx, err)
	}

	run := &domain.VerificationRun{
		ID:             uuid.New(),
		ContestID:      c.ContestID,
		ReportedWinner: string(winner),
		Candidates:     audit.IDs(candidates),
		Verdict:        domain.VerdictProved,
		AssertionCount: len(assertions),
		ProvedOnly:     req.ProvedOnly,
		StatesExplored: int64(outcome.Stats.Explored),
		Pruned:         int64(outcome.Stats.Pruned),
		DurationMS:     elapsed.Milliseconds(),
	}
	if !outcome.IsProved() {
		run.Verdict = domain.VerdictDisproved
		run.Counterexample = audit.IDs(outcome.Counterexample)
		run.Survivor = string(outcome.Survivor)
	}

	metrics.ObserveVerification(string(run.Verdict), elapsed, run.StatesExplored)

	if err := s.store.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("saving verification run: %w", err)
	}

	s.logger.Info("contest verified",
		zap.String("contest_id", run.ContestID),
		zap.String("reported_winner", run.ReportedWinner),
		zap.String("verdict", string(run.Verdict)),
		zap.Int("assertions", run.AssertionCount),
		zap.Int64("explored", run.StatesExplored),
		zap.Duration("elapsed", elapsed))

	return run, nil
}

func (s *VerificationService) translateError(ctx context.Context, err error) error {
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w after %s", ErrVerificationTimeout, s.timeout)
	case errors.Is(err, irv.ErrMalformedAssertion),
		errors.Is(err, irv.ErrUnknownCandidate),
		errors.Is(err, irv.ErrAmbiguousReportedWinner):
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	default:
		return err
	}
}

// ContestResult is the outcome of one contest of an audit file. Exactly one of
// Run and Err is set.
type ContestResult struct {
	ContestID string                  `json:"contest_id" yaml:"contest_id"`
	Run       *domain.VerificationRun `json:"run,omitempty" yaml:"run,omitempty"`
	Err       error                   `json:"-" yaml:"-"`
	Error     string                  `json:"error,omitempty" yaml:"error,omitempty"`
}

// VerifyAudit verifies every contest in f, at most SetConcurrency at a time.
// A contest that fails does not stop the others; results keep f's order.
func (s *VerificationService) VerifyAudit(ctx context.Context, f *audit.File, provedOnly bool) ([]ContestResult, error) {
	if len(f.Contests) == 0 {
		return nil, fmt.Errorf("%w: audit file has no contests", ErrInvalidRequest)
	}

	results := make([]ContestResult, len(f.Contests))

	var g errgroup.Group
	g.SetLimit(max(s.concurrency, 1))
	for i, c := range f.Contests {
		g.Go(func() error {
			run, err := s.Verify(ctx, domain.VerificationRequest{Contest: c, ProvedOnly: provedOnly})
			results[i] = ContestResult{ContestID: c.ContestID, Run: run, Err: err}
			if err != nil {
				results[i].Error = err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func (s *VerificationService) Get(ctx context.Context, id uuid.UUID) (*domain.VerificationRun, error) {
	run, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return run, nil
}

// ListByContest returns a contest's runs, newest first.
func (s *VerificationService) ListByContest(ctx context.Context, contestID string, limit int) ([]domain.VerificationRun, error) {
	if contestID == "" {
		return nil, fmt.Errorf("%w: contest id is required", ErrInvalidRequest)
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.store.ListByContest(ctx, contestID, limit)
}
