package rest

import "net/http"

// NewRouter registers every endpoint on a ServeMux using method patterns.
// Unmatched methods get 405 from the mux.
func NewRouter(pending *PendingHandler, vocab *VocabularyHandler, health *HealthHandler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", health.Live)
	mux.HandleFunc("GET /ready", health.Ready)
	mux.HandleFunc("GET /health", health.Health)

	mux.HandleFunc("POST /api/process", pending.Process)
	mux.HandleFunc("POST /api/retry", pending.Retry)
	mux.HandleFunc("GET /api/pending", pending.List)
	mux.HandleFunc("GET /api/pending/{lemma}/{pos}", pending.Get)
	mux.HandleFunc("PUT /api/pending/{lemma}/{pos}/tags", pending.SetTags)
	mux.HandleFunc("PUT /api/pending/{lemma}/{pos}/translation", pending.SetTranslation)
	mux.HandleFunc("POST /api/pending/{lemma}/{pos}/accept", pending.Accept)
	mux.HandleFunc("DELETE /api/pending/{lemma}/{pos}", pending.Discard)

	mux.HandleFunc("GET /api/vocabulary", vocab.List)
	mux.HandleFunc("GET /api/vocabulary/{lemma}/{pos}", vocab.Get)
	mux.HandleFunc("DELETE /api/vocabulary/{lemma}/{pos}", vocab.Delete)
	mux.HandleFunc("GET /api/tags", vocab.ListTags)
	mux.HandleFunc("POST /api/tags", vocab.CreateTag)
	mux.HandleFunc("GET /api/stats", vocab.Stats)

	return mux
}
