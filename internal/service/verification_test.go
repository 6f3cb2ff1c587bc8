package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DemocracyDevelopers/irvcheck/internal/audit"
	"github.com/DemocracyDevelopers/irvcheck/internal/domain"
	"github.com/DemocracyDevelopers/irvcheck/internal/irv"
	"github.com/DemocracyDevelopers/irvcheck/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockRunStore implements domain.RunStore for testing.
type mockRunStore struct {
	mock.Mock
}

func (m *mockRunStore) Create(ctx context.Context, r *domain.VerificationRun) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockRunStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.VerificationRun, error) {
	args := m.Called(ctx, id)
	run, _ := args.Get(0).(*domain.VerificationRun)
	return run, args.Error(1)
}

func (m *mockRunStore) ListByContest(ctx context.Context, contestID string, limit int) ([]domain.VerificationRun, error) {
	args := m.Called(ctx, contestID, limit)
	runs, _ := args.Get(0).([]domain.VerificationRun)
	return runs, args.Error(1)
}

func (m *mockRunStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// contest339 is a five-candidate contest whose assertions prove 15, unless the
// unproved "15 v 17" is dropped.
func contest339() domain.ContestAudit {
	return domain.ContestAudit{
		ContestID:  "339",
		Candidates: []string{"15", "16", "17", "18", "45"},
		Winners:    []string{"15"},
		Records: []domain.AssertionRecord{
			{Winner: "15", Loser: "45", AssertionType: domain.AssertionWinnerOnly},
			{Winner: "15", Loser: "16", AssertionType: domain.AssertionWinnerOnly},
			{Winner: "15", Loser: "17", AssertionType: domain.AssertionWinnerOnly},
			{Winner: "15", Loser: "18", AlreadyEliminated: domain.CandidateList{"45", "16", "17"}, AssertionType: domain.AssertionIRVElimination},
		},
		ProvedHandles: map[string]bool{
			"15 v 45":               true,
			"15 v 16":               true,
			"15 v 18 elim 16 17 45": true,
		},
	}
}

func newTestService(st *mockRunStore) *VerificationService {
	return NewVerificationService(st, zap.NewNop())
}

func TestVerificationService_VerifyProved(t *testing.T) {
	st := &mockRunStore{}
	st.On("Create", mock.Anything, mock.AnythingOfType("*domain.VerificationRun")).Return(nil)
	svc := newTestService(st)

	run, err := svc.Verify(context.Background(), domain.VerificationRequest{Contest: contest339()})
	require.NoError(t, err)

	assert.Equal(t, domain.VerdictProved, run.Verdict)
	assert.Equal(t, "15", run.ReportedWinner)
	assert.Equal(t, 4, run.AssertionCount)
	assert.Empty(t, run.Counterexample)
	assert.NotEqual(t, uuid.Nil, run.ID)
	assert.Positive(t, run.StatesExplored)
	st.AssertNumberOfCalls(t, "Create", 1)
}

func TestVerificationService_VerifyProvedOnly(t *testing.T) {
	st := &mockRunStore{}
	st.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.VerificationRun) bool {
		return r.Verdict == domain.VerdictDisproved && r.ProvedOnly
	})).Return(nil)
	svc := newTestService(st)

	run, err := svc.Verify(context.Background(), domain.VerificationRequest{Contest: contest339(), ProvedOnly: true})
	require.NoError(t, err)

	assert.Equal(t, domain.VerdictDisproved, run.Verdict)
	assert.Equal(t, 3, run.AssertionCount)
	assert.Equal(t, []string{"16", "18", "45", "15"}, run.Counterexample)
	assert.Equal(t, "17", run.Survivor)
	st.AssertExpectations(t)
}

func TestVerificationService_VerifyInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *domain.ContestAudit)
		target error
	}{
		{"missing contest id", func(c *domain.ContestAudit) { c.ContestID = "" }, ErrInvalidRequest},
		{"no candidates", func(c *domain.ContestAudit) { c.Candidates = nil }, ErrInvalidRequest},
		{"ambiguous winner", func(c *domain.ContestAudit) { c.Winners = []string{"15", "16"} }, irv.ErrAmbiguousReportedWinner},
		{"unknown assertion type", func(c *domain.ContestAudit) { c.Records[0].AssertionType = "NEITHER" }, audit.ErrUnknownAssertionType},
		{"loser not a candidate", func(c *domain.ContestAudit) { c.Records[0].Loser = "99" }, irv.ErrMalformedAssertion},
		{"winner not a candidate", func(c *domain.ContestAudit) { c.Winners = []string{"99"} }, irv.ErrUnknownCandidate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &mockRunStore{}
			svc := newTestService(st)

			c := contest339()
			tt.mutate(&c)
			_, err := svc.Verify(context.Background(), domain.VerificationRequest{Contest: c})

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidRequest)
			assert.ErrorIs(t, err, tt.target)
			st.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestVerificationService_MaxCandidates(t *testing.T) {
	svc := newTestService(&mockRunStore{})
	svc.SetMaxCandidates(4)

	_, err := svc.Verify(context.Background(), domain.VerificationRequest{Contest: contest339()})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Contains(t, err.Error(), "limit is 4")
}

func TestVerificationService_StoreError(t *testing.T) {
	st := &mockRunStore{}
	st.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection refused"))
	svc := newTestService(st)

	_, err := svc.Verify(context.Background(), domain.VerificationRequest{Contest: contest339()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "saving verification run")
}

func TestVerificationService_Cancelled(t *testing.T) {
	svc := newTestService(&mockRunStore{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Verify(ctx, domain.VerificationRequest{Contest: contest339()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVerificationService_TranslateTimeout(t *testing.T) {
	svc := newTestService(&mockRunStore{})
	svc.SetTimeout(5 * time.Second)

	err := svc.translateError(context.Background(), context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrVerificationTimeout)
	assert.Contains(t, err.Error(), "5s")
}

func TestVerificationService_VerifyAudit(t *testing.T) {
	st := &mockRunStore{}
	st.On("Create", mock.Anything, mock.Anything).Return(nil)
	svc := newTestService(st)
	svc.SetConcurrency(2)

	ambiguous := domain.ContestAudit{
		ContestID:  "340",
		Candidates: []string{"1", "2", "3"},
		Winners:    []string{"1", "2"},
	}
	noAssertions := domain.ContestAudit{
		ContestID:  "341",
		Candidates: []string{"1", "2", "3"},
		Winners:    []string{"2"},
	}
	f := &audit.File{Format: audit.FormatRLALog, Contests: []domain.ContestAudit{contest339(), ambiguous, noAssertions}}

	results, err := svc.VerifyAudit(context.Background(), f, false)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "339", results[0].ContestID)
	require.NotNil(t, results[0].Run)
	assert.Equal(t, domain.VerdictProved, results[0].Run.Verdict)

	assert.Equal(t, "340", results[1].ContestID)
	assert.Nil(t, results[1].Run)
	assert.ErrorIs(t, results[1].Err, irv.ErrAmbiguousReportedWinner)
	assert.NotEmpty(t, results[1].Error)

	require.NotNil(t, results[2].Run)
	assert.Equal(t, domain.VerdictDisproved, results[2].Run.Verdict)
	assert.Equal(t, []string{"1", "2"}, results[2].Run.Counterexample)
	assert.Equal(t, "3", results[2].Run.Survivor)

	st.AssertNumberOfCalls(t, "Create", 2)
}

func TestVerificationService_VerifyAuditEmpty(t *testing.T) {
	svc := newTestService(&mockRunStore{})
	_, err := svc.VerifyAudit(context.Background(), &audit.File{Format: audit.FormatRAIRE}, false)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestVerificationService_Get(t *testing.T) {
	st := &mockRunStore{}
	known := &domain.VerificationRun{ID: uuid.New(), ContestID: "339"}
	missing := uuid.New()
	st.On("GetByID", mock.Anything, known.ID).Return(known, nil)
	st.On("GetByID", mock.Anything, missing).Return(nil, store.ErrNotFound)
	svc := newTestService(st)

	got, err := svc.Get(context.Background(), known.ID)
	require.NoError(t, err)
	assert.Equal(t, known, got)

	_, err = svc.Get(context.Background(), missing)
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestVerificationService_ListByContestClampsLimit(t *testing.T) {
	st := &mockRunStore{}
	st.On("ListByContest", mock.Anything, "339", defaultListLimit).Return([]domain.VerificationRun{{ContestID: "339"}}, nil).Once()
	st.On("ListByContest", mock.Anything, "339", maxListLimit).Return([]domain.VerificationRun{}, nil).Once()
	svc := newTestService(st)

	runs, err := svc.ListByContest(context.Background(), "339", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	_, err = svc.ListByContest(context.Background(), "339", 5000)
	require.NoError(t, err)

	_, err = svc.ListByContest(context.Background(), "", 10)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	st.AssertExpectations(t)
}
