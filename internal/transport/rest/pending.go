package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
	"github.com/heartmarshall/vocab-harvester/internal/service/harvest"
	"github.com/heartmarshall/vocab-harvester/internal/service/promotion"
)

type harvestService interface {
	ProcessText(ctx context.Context, in harvest.ProcessInput) (*domain.BatchSummary, error)
	ProcessURL(ctx context.Context, in harvest.ProcessURLInput) (*domain.BatchSummary, error)
	RetryPending(ctx context.Context, progress harvest.ProgressFunc) (*domain.BatchSummary, error)
	ListPending(ctx context.Context) ([]domain.PendingCandidate, error)
	GetPending(ctx context.Context, key domain.Key) (*domain.PendingCandidate, error)
	SetTags(ctx context.Context, key domain.Key, tags []string) (*domain.PendingCandidate, error)
	SetTranslation(ctx context.Context, key domain.Key, translation *string) (*domain.PendingCandidate, error)
}

type promotionService interface {
	Accept(ctx context.Context, in promotion.AcceptInput) (*promotion.AcceptResult, error)
	Discard(ctx context.Context, key domain.Key) error
}

// PendingHandler serves text intake and the decision loop over pending
// candidates.
type PendingHandler struct {
	harvest   harvestService
	promotion promotionService
	log       *slog.Logger
}

// NewPendingHandler creates a PendingHandler.
func NewPendingHandler(h harvestService, p promotionService, logger *slog.Logger) *PendingHandler {
	return &PendingHandler{
		harvest:   h,
		promotion: p,
		log:       logger.With("handler", "pending"),
	}
}

type processRequest struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Process runs one batch over the submitted text, or over the article at
// url when text is empty.
// POST /api/process
func (h *PendingHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		summary *domain.BatchSummary
		err     error
	)
	switch {
	case strings.TrimSpace(req.URL) != "" && req.Text == "":
		summary, err = h.harvest.ProcessURL(r.Context(), harvest.ProcessURLInput{URL: req.URL})
	default:
		summary, err = h.harvest.ProcessText(r.Context(), harvest.ProcessInput{Text: req.Text})
	}
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toSummaryDTO(summary))
}

// Retry re-fetches candidates that still lack a translation.
// POST /api/retry
func (h *PendingHandler) Retry(w http.ResponseWriter, r *http.Request) {
	summary, err := h.harvest.RetryPending(r.Context(), nil)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(summary))
}

// List returns every pending candidate, oldest first.
// GET /api/pending
func (h *PendingHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.harvest.ListPending(r.Context())
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	out := make([]candidateDTO, len(items))
	for i := range items {
		out[i] = toCandidateDTO(&items[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// Get returns one pending candidate.
// GET /api/pending/{lemma}/{pos}
func (h *PendingHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.harvest.GetPending(r.Context(), keyFromPath(r))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toCandidateDTO(c))
}

type setTagsRequest struct {
	Tags []string `json:"tags"`
}

// SetTags replaces the proposed tags.
// PUT /api/pending/{lemma}/{pos}/tags
func (h *PendingHandler) SetTags(w http.ResponseWriter, r *http.Request) {
	var req setTagsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.harvest.SetTags(r.Context(), keyFromPath(r), req.Tags)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toCandidateDTO(c))
}

type setTranslationRequest struct {
	Translation *string `json:"translation"`
}

// SetTranslation sets or clears the translation by hand.
// PUT /api/pending/{lemma}/{pos}/translation
func (h *PendingHandler) SetTranslation(w http.ResponseWriter, r *http.Request) {
	var req setTranslationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.harvest.SetTranslation(r.Context(), keyFromPath(r), req.Translation)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toCandidateDTO(c))
}

type acceptRequest struct {
	Tags        []string `json:"tags"`
	Difficulty  *int     `json:"difficulty"`
	Translation *string  `json:"translation"`
}

type acceptResponse struct {
	Outcome string    `json:"outcome"`
	Entry   *entryDTO `json:"entry,omitempty"`
}

// Accept moves a candidate into the vocabulary. A key that is already in
// the vocabulary is reported with outcome ALREADY_EXISTS and status 200.
// POST /api/pending/{lemma}/{pos}/accept
func (h *PendingHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var req acceptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.promotion.Accept(r.Context(), promotion.AcceptInput{
		Key:         keyFromPath(r),
		Tags:        req.Tags,
		Difficulty:  req.Difficulty,
		Translation: req.Translation,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	status := http.StatusCreated
	if res.Outcome == domain.OutcomeAlreadyExists {
		status = http.StatusOK
	}
	resp := acceptResponse{Outcome: res.Outcome.String()}
	if res.Entry != nil {
		dto := toEntryDTO(res.Entry)
		resp.Entry = &dto
	}
	writeJSON(w, status, resp)
}

// Discard drops a candidate. Discarding an absent key succeeds.
// DELETE /api/pending/{lemma}/{pos}
func (h *PendingHandler) Discard(w http.ResponseWriter, r *http.Request) {
	if err := h.promotion.Discard(r.Context(), keyFromPath(r)); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
