package store

import (
	"context"
	"errors"
	"time"

	"github.com/DemocracyDevelopers/irvcheck/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RunStore struct {
	db *pgxpool.Pool
}

func NewRunStore(db *pgxpool.Pool) *RunStore {
	return &RunStore{db: db}
}

const runColumns = `id, contest_id, reported_winner, candidates, verdict, counterexample, survivor,
	assertion_count, proved_only, states_explored, pruned, duration_ms, created_at`

func (s *RunStore) Create(ctx context.Context, r *domain.VerificationRun) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO verification_runs (id, contest_id, reported_winner, candidates, verdict, counterexample, survivor,
		                                assertion_count, proved_only, states_explored, pruned, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING created_at`,
		r.ID, r.ContestID, r.ReportedWinner, r.Candidates, r.Verdict, r.Counterexample, r.Survivor,
		r.AssertionCount, r.ProvedOnly, r.StatesExplored, r.Pruned, r.DurationMS,
	).Scan(&r.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *RunStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.VerificationRun, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+runColumns+` FROM verification_runs WHERE id = $1`,
		id,
	)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r, nil
}

// ListByContest returns the most recent runs for a contest, newest first.
func (s *RunStore) ListByContest(ctx context.Context, contestID string, limit int) ([]domain.VerificationRun, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+runColumns+` FROM verification_runs
		 WHERE contest_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		contestID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.VerificationRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

func (s *RunStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM verification_runs WHERE created_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanRun(row pgx.Row) (*domain.VerificationRun, error) {
	r := &domain.VerificationRun{}
	err := row.Scan(&r.ID, &r.ContestID, &r.ReportedWinner, &r.Candidates, &r.Verdict, &r.Counterexample, &r.Survivor,
		&r.AssertionCount, &r.ProvedOnly, &r.StatesExplored, &r.Pruned, &r.DurationMS, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}
