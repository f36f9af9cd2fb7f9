package rest

import (
	"context"
	"sync"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
	"github.com/heartmarshall/vocab-harvester/internal/service/harvest"
	"github.com/heartmarshall/vocab-harvester/internal/service/promotion"
	"github.com/heartmarshall/vocab-harvester/internal/service/vocabulary"
)

// ---------------------------------------------------------------------------
// Manual mocks (moq-style with func fields)
// ---------------------------------------------------------------------------

type mockHarvestService struct {
	ProcessTextFunc    func(ctx context.Context, in harvest.ProcessInput) (*domain.BatchSummary, error)
	ProcessURLFunc     func(ctx context.Context, in harvest.ProcessURLInput) (*domain.BatchSummary, error)
	RetryPendingFunc   func(ctx context.Context, progress harvest.ProgressFunc) (*domain.BatchSummary, error)
	ListPendingFunc    func(ctx context.Context) ([]domain.PendingCandidate, error)
	GetPendingFunc     func(ctx context.Context, key domain.Key) (*domain.PendingCandidate, error)
	SetTagsFunc        func(ctx context.Context, key domain.Key, tags []string) (*domain.PendingCandidate, error)
	SetTranslationFunc func(ctx context.Context, key domain.Key, translation *string) (*domain.PendingCandidate, error)

	mu             sync.Mutex
	processCalls   []harvest.ProcessInput
	setTagsCalls   []domain.Key
	setTransValues []*string
}

func (m *mockHarvestService) ProcessText(ctx context.Context, in harvest.ProcessInput) (*domain.BatchSummary, error) {
	m.mu.Lock()
	m.processCalls = append(m.processCalls, in)
	m.mu.Unlock()
	return m.ProcessTextFunc(ctx, in)
}

func (m *mockHarvestService) ProcessTextCalls() []harvest.ProcessInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]harvest.ProcessInput(nil), m.processCalls...)
}

func (m *mockHarvestService) ProcessURL(ctx context.Context, in harvest.ProcessURLInput) (*domain.BatchSummary, error) {
	return m.ProcessURLFunc(ctx, in)
}

func (m *mockHarvestService) RetryPending(ctx context.Context, progress harvest.ProgressFunc) (*domain.BatchSummary, error) {
	return m.RetryPendingFunc(ctx, progress)
}

func (m *mockHarvestService) ListPending(ctx context.Context) ([]domain.PendingCandidate, error) {
	return m.ListPendingFunc(ctx)
}

func (m *mockHarvestService) GetPending(ctx context.Context, key domain.Key) (*domain.PendingCandidate, error) {
	return m.GetPendingFunc(ctx, key)
}

func (m *mockHarvestService) SetTags(ctx context.Context, key domain.Key, tags []string) (*domain.PendingCandidate, error) {
	m.mu.Lock()
	m.setTagsCalls = append(m.setTagsCalls, key)
	m.mu.Unlock()
	return m.SetTagsFunc(ctx, key, tags)
}

func (m *mockHarvestService) SetTagsCalls() []domain.Key {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Key(nil), m.setTagsCalls...)
}

func (m *mockHarvestService) SetTranslation(ctx context.Context, key domain.Key, translation *string) (*domain.PendingCandidate, error) {
	m.mu.Lock()
	m.setTransValues = append(m.setTransValues, translation)
	m.mu.Unlock()
	return m.SetTranslationFunc(ctx, key, translation)
}

func (m *mockHarvestService) SetTranslationCalls() []*string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*string(nil), m.setTransValues...)
}

type mockPromotionService struct {
	AcceptFunc  func(ctx context.Context, in promotion.AcceptInput) (*promotion.AcceptResult, error)
	DiscardFunc func(ctx context.Context, key domain.Key) error

	mu           sync.Mutex
	acceptCalls  []promotion.AcceptInput
	discardCalls []domain.Key
}

func (m *mockPromotionService) Accept(ctx context.Context, in promotion.AcceptInput) (*promotion.AcceptResult, error) {
	m.mu.Lock()
	m.acceptCalls = append(m.acceptCalls, in)
	m.mu.Unlock()
	return m.AcceptFunc(ctx, in)
}

func (m *mockPromotionService) AcceptCalls() []promotion.AcceptInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]promotion.AcceptInput(nil), m.acceptCalls...)
}

func (m *mockPromotionService) Discard(ctx context.Context, key domain.Key) error {
	m.mu.Lock()
	m.discardCalls = append(m.discardCalls, key)
	m.mu.Unlock()
	return m.DiscardFunc(ctx, key)
}

func (m *mockPromotionService) DiscardCalls() []domain.Key {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Key(nil), m.discardCalls...)
}

type mockVocabularyService struct {
	ListFunc      func(ctx context.Context, in vocabulary.ListInput) (*vocabulary.ListResult, error)
	GetFunc       func(ctx context.Context, key domain.Key) (*domain.VocabularyEntry, error)
	DeleteFunc    func(ctx context.Context, key domain.Key) error
	ListTagsFunc  func(ctx context.Context) ([]domain.Tag, error)
	CreateTagFunc func(ctx context.Context, in vocabulary.CreateTagInput) (*domain.Tag, error)
	StatsFunc     func(ctx context.Context) (*domain.Stats, error)

	mu        sync.Mutex
	listCalls []vocabulary.ListInput
}

func (m *mockVocabularyService) List(ctx context.Context, in vocabulary.ListInput) (*vocabulary.ListResult, error) {
	m.mu.Lock()
	m.listCalls = append(m.listCalls, in)
	m.mu.Unlock()
	return m.ListFunc(ctx, in)
}

func (m *mockVocabularyService) ListCalls() []vocabulary.ListInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]vocabulary.ListInput(nil), m.listCalls...)
}

func (m *mockVocabularyService) Get(ctx context.Context, key domain.Key) (*domain.VocabularyEntry, error) {
	return m.GetFunc(ctx, key)
}

func (m *mockVocabularyService) Delete(ctx context.Context, key domain.Key) error {
	return m.DeleteFunc(ctx, key)
}

func (m *mockVocabularyService) ListTags(ctx context.Context) ([]domain.Tag, error) {
	return m.ListTagsFunc(ctx)
}

func (m *mockVocabularyService) CreateTag(ctx context.Context, in vocabulary.CreateTagInput) (*domain.Tag, error) {
	return m.CreateTagFunc(ctx, in)
}

func (m *mockVocabularyService) Stats(ctx context.Context) (*domain.Stats, error) {
	return m.StatsFunc(ctx)
}
