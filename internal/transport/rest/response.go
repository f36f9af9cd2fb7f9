package rest

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
	"github.com/heartmarshall/vocab-harvester/pkg/ctxutil"
)

// maxBodyBytes bounds every JSON request body. Text submissions are
// further limited by the harvest service.
const maxBodyBytes = 2 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields []fieldErrorEntry `json:"fields,omitempty"`
}

type fieldErrorEntry struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// handleError maps domain sentinels to status codes. Anything unmapped is
// logged and reported as 500.
func handleError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		resp := errorResponse{Error: "validation failed"}
		for _, fe := range verr.Errors {
			resp.Fields = append(resp.Fields, fieldErrorEntry{Field: fe.Field, Message: fe.Message})
		}
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrNotReady):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNetworkUnavailable):
		writeError(w, http.StatusServiceUnavailable, "translation source unreachable")
	case errors.Is(err, domain.ErrTranslationTimeout):
		writeError(w, http.StatusGatewayTimeout, "translation source timed out")
	default:
		log.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("request_id", ctxutil.RequestIDFromCtx(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads a bounded JSON body into v. An empty body leaves v
// untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// keyFromPath reads the {lemma}/{pos} path values.
func keyFromPath(r *http.Request) domain.Key {
	return domain.NewKey(r.PathValue("lemma"), domain.PartOfSpeech(r.PathValue("pos")))
}

func queryInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, domain.NewValidationError(name, "must be an integer")
	}
	return &n, nil
}

func queryString(r *http.Request, name string) *string {
	if !r.URL.Query().Has(name) {
		return nil
	}
	v := r.URL.Query().Get(name)
	return &v
}

// ---------------------------------------------------------------------------
// Response DTOs
// ---------------------------------------------------------------------------

type keyDTO struct {
	Lemma string `json:"lemma"`
	POS   string `json:"pos"`
}

func toKeyDTO(k domain.Key) keyDTO {
	return keyDTO{Lemma: k.Lemma, POS: k.POS.String()}
}

func toKeyDTOs(keys []domain.Key) []keyDTO {
	out := make([]keyDTO, len(keys))
	for i, k := range keys {
		out[i] = toKeyDTO(k)
	}
	return out
}

type candidateDTO struct {
	keyDTO
	Surface     string    `json:"surface"`
	Translation *string   `json:"translation"`
	Article     *string   `json:"article,omitempty"`
	IsRegular   bool      `json:"isRegular"`
	Tags        []string  `json:"tags"`
	State       string    `json:"state"`
	BatchID     string    `json:"batchId"`
	CreatedAt   time.Time `json:"createdAt"`
	LastSeenAt  time.Time `json:"lastSeenAt"`
}

func toCandidateDTO(c *domain.PendingCandidate) candidateDTO {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	return candidateDTO{
		keyDTO:      toKeyDTO(c.Key),
		Surface:     c.Surface,
		Translation: c.Translation,
		Article:     c.Article,
		IsRegular:   c.IsRegular,
		Tags:        tags,
		State:       c.State.String(),
		BatchID:     c.BatchID,
		CreatedAt:   c.CreatedAt,
		LastSeenAt:  c.LastSeenAt,
	}
}

type entryDTO struct {
	ID string `json:"id"`
	keyDTO
	Translation *string   `json:"translation"`
	Article     *string   `json:"article,omitempty"`
	IsRegular   bool      `json:"isRegular"`
	Difficulty  int       `json:"difficulty"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toEntryDTO(e *domain.VocabularyEntry) entryDTO {
	return entryDTO{
		ID:          e.ID.String(),
		keyDTO:      toKeyDTO(e.Key),
		Translation: e.Translation,
		Article:     e.Article,
		IsRegular:   e.IsRegular,
		Difficulty:  e.Difficulty,
		Tags:        e.TagNames(),
		CreatedAt:   e.CreatedAt,
	}
}

type tagDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	EntryCount  int       `json:"entryCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toTagDTO(t *domain.Tag) tagDTO {
	return tagDTO{
		ID:          t.ID.String(),
		Name:        t.Name,
		Description: t.Description,
		EntryCount:  t.EntryCount,
		CreatedAt:   t.CreatedAt,
	}
}

type failureDTO struct {
	keyDTO
	Kind string `json:"kind"`
}

type summaryDTO struct {
	BatchID            string       `json:"batchId"`
	StartedAt          time.Time    `json:"startedAt"`
	FinishedAt         time.Time    `json:"finishedAt"`
	TokensSeen         int          `json:"tokensSeen"`
	New                []keyDTO     `json:"new"`
	Known              []keyDTO     `json:"known"`
	Refreshed          []keyDTO     `json:"refreshed"`
	Translated         []keyDTO     `json:"translated"`
	Failures           []failureDTO `json:"failures"`
	Skipped            []keyDTO     `json:"skipped"`
	NetworkUnavailable bool         `json:"networkUnavailable"`
	Cancelled          bool         `json:"cancelled"`
}

func toSummaryDTO(s *domain.BatchSummary) summaryDTO {
	failures := make([]failureDTO, len(s.Failures))
	for i, f := range s.Failures {
		failures[i] = failureDTO{keyDTO: toKeyDTO(f.Key), Kind: f.Kind}
	}
	return summaryDTO{
		BatchID:            s.BatchID,
		StartedAt:          s.StartedAt,
		FinishedAt:         s.FinishedAt,
		TokensSeen:         s.TokensSeen,
		New:                toKeyDTOs(s.New),
		Known:              toKeyDTOs(s.Known),
		Refreshed:          toKeyDTOs(s.Refreshed),
		Translated:         toKeyDTOs(s.Translated),
		Failures:           failures,
		Skipped:            toKeyDTOs(s.Skipped),
		NetworkUnavailable: s.NetworkUnavailable,
		Cancelled:          s.Cancelled,
	}
}
