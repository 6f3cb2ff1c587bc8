package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/DemocracyDevelopers/irvcheck/internal/audit"
	"github.com/DemocracyDevelopers/irvcheck/internal/domain"
	"github.com/DemocracyDevelopers/irvcheck/internal/irv"
	"github.com/DemocracyDevelopers/irvcheck/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxAuditBytes bounds uploaded audit files and request bodies.
const maxAuditBytes = 16 << 20

type VerificationHandler struct {
	svc *service.VerificationService
}

func NewVerificationHandler(svc *service.VerificationService) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

type createVerificationRequest struct {
	ContestID       string                   `json:"contest_id"`
	Candidates      domain.CandidateList     `json:"candidates"`
	ReportedWinners domain.CandidateList     `json:"reported_winners"`
	Assertions      []domain.AssertionRecord `json:"assertions"`
	ProvedOnly      bool                     `json:"proved_only"`
	// ProvedHandles lists assertion handles an audit has confirmed, in
	// addition to records carrying "proved": true.
	ProvedHandles []string `json:"proved_handles"`
}

func (h *VerificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createVerificationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAuditBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ContestID == "" {
		writeError(w, http.StatusBadRequest, "contest_id is required")
		return
	}
	if len(req.Candidates) == 0 {
		writeError(w, http.StatusBadRequest, "candidates is required")
		return
	}
	if len(req.ReportedWinners) == 0 {
		writeError(w, http.StatusBadRequest, "reported_winners is required")
		return
	}

	contest := domain.ContestAudit{
		ContestID:  req.ContestID,
		Candidates: req.Candidates,
		Winners:    req.ReportedWinners,
		Records:    req.Assertions,
	}
	if len(req.ProvedHandles) > 0 {
		contest.ProvedHandles = make(map[string]bool, len(req.ProvedHandles))
		for _, handle := range req.ProvedHandles {
			contest.ProvedHandles[irv.NormalizeHandle(handle)] = true
		}
	}

	run, err := h.svc.Verify(r.Context(), domain.VerificationRequest{Contest: contest, ProvedOnly: req.ProvedOnly})
	if err != nil {
		writeServiceError(w, err, "failed to verify contest")
		return
	}

	writeJSON(w, http.StatusCreated, run)
}

type verifyAuditResponse struct {
	Format  audit.Format            `json:"format"`
	Results []service.ContestResult `json:"results"`
}

// VerifyAudit accepts a raw RAIRE assertion file or audit log and verifies
// every contest in it. Pass ?proved_only=true to ignore unconfirmed assertions.
func (h *VerificationHandler) VerifyAudit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAuditBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "audit file too large")
		return
	}

	provedOnly := false
	if v := r.URL.Query().Get("proved_only"); v != "" {
		provedOnly, err = strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid proved_only")
			return
		}
	}

	f, err := audit.Parse(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.svc.VerifyAudit(r.Context(), f, provedOnly)
	if err != nil {
		writeServiceError(w, err, "failed to verify audit")
		return
	}

	writeJSON(w, http.StatusOK, verifyAuditResponse{Format: f.Format, Results: results})
}

func (h *VerificationHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid verification id")
		return
	}

	run, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to get verification")
		return
	}

	writeJSON(w, http.StatusOK, run)
}

type listVerificationsResponse struct {
	Runs  []domain.VerificationRun `json:"runs"`
	Count int                      `json:"count"`
}

func (h *VerificationHandler) ListByContest(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	runs, err := h.svc.ListByContest(r.Context(), chi.URLParam(r, "contest"), limit)
	if err != nil {
		writeServiceError(w, err, "failed to list verifications")
		return
	}
	if runs == nil {
		runs = []domain.VerificationRun{}
	}

	writeJSON(w, http.StatusOK, listVerificationsResponse{Runs: runs, Count: len(runs)})
}

func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrRunNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrVerificationTimeout), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
