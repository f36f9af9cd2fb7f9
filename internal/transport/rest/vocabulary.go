package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
	"github.com/heartmarshall/vocab-harvester/internal/service/vocabulary"
)

type vocabularyService interface {
	List(ctx context.Context, in vocabulary.ListInput) (*vocabulary.ListResult, error)
	Get(ctx context.Context, key domain.Key) (*domain.VocabularyEntry, error)
	Delete(ctx context.Context, key domain.Key) error
	ListTags(ctx context.Context) ([]domain.Tag, error)
	CreateTag(ctx context.Context, in vocabulary.CreateTagInput) (*domain.Tag, error)
	Stats(ctx context.Context) (*domain.Stats, error)
}

// VocabularyHandler serves the permanent vocabulary, tags and stats.
type VocabularyHandler struct {
	svc vocabularyService
	log *slog.Logger
}

// NewVocabularyHandler creates a VocabularyHandler.
func NewVocabularyHandler(svc vocabularyService, logger *slog.Logger) *VocabularyHandler {
	return &VocabularyHandler{svc: svc, log: logger.With("handler", "vocabulary")}
}

type listResponse struct {
	Items      []entryDTO `json:"items"`
	TotalCount int        `json:"totalCount"`
}

// List pages through entries.
// GET /api/vocabulary?search=&difficulty=&pos=&tag=&limit=&offset=
func (h *VocabularyHandler) List(w http.ResponseWriter, r *http.Request) {
	in := vocabulary.ListInput{
		Search: queryString(r, "search"),
		POS:    queryString(r, "pos"),
		Tag:    queryString(r, "tag"),
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if in.Difficulty, err = queryInt(r, "difficulty"); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if limit != nil {
		in.Limit = *limit
	}
	if offset != nil {
		in.Offset = *offset
	}

	res, err := h.svc.List(r.Context(), in)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	items := make([]entryDTO, len(res.Entries))
	for i := range res.Entries {
		items[i] = toEntryDTO(&res.Entries[i])
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, TotalCount: res.TotalCount})
}

// Get returns one entry.
// GET /api/vocabulary/{lemma}/{pos}
func (h *VocabularyHandler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Get(r.Context(), keyFromPath(r))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(e))
}

// Delete removes an entry.
// DELETE /api/vocabulary/{lemma}/{pos}
func (h *VocabularyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), keyFromPath(r)); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTags returns all tags.
// GET /api/tags
func (h *VocabularyHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.ListTags(r.Context())
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	out := make([]tagDTO, len(tags))
	for i := range tags {
		out[i] = toTagDTO(&tags[i])
	}
	writeJSON(w, http.StatusOK, out)
}

type createTagRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// CreateTag creates a tag, or updates the description of an existing one.
// POST /api/tags
func (h *VocabularyHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req createTagRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tag, err := h.svc.CreateTag(r.Context(), vocabulary.CreateTagInput{Name: req.Name, Description: req.Description})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toTagDTO(tag))
}

type statsResponse struct {
	Pending      map[string]int `json:"pending"`
	PendingTotal int            `json:"pendingTotal"`
	Vocabulary   int            `json:"vocabulary"`
	Tags         int            `json:"tags"`
}

// Stats summarizes both stores.
// GET /api/stats
func (h *VocabularyHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context())
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	pending := make(map[string]int, len(st.Pending))
	for state, n := range st.Pending {
		pending[state.String()] = n
	}
	writeJSON(w, http.StatusOK, statsResponse{
		Pending:      pending,
		PendingTotal: st.PendingTotal,
		Vocabulary:   st.Vocabulary,
		Tags:         st.Tags,
	})
}
