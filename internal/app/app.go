package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/heartmarshall/vocab-harvester/internal/adapter/annotator/lexicon"
	"github.com/heartmarshall/vocab-harvester/internal/adapter/annotator/spacy"
	"github.com/heartmarshall/vocab-harvester/internal/adapter/provider/translate"
	"github.com/heartmarshall/vocab-harvester/internal/adapter/provider/wiktionary"
	"github.com/heartmarshall/vocab-harvester/internal/adapter/source/web"
	"github.com/heartmarshall/vocab-harvester/internal/config"
	"github.com/heartmarshall/vocab-harvester/internal/domain"
	"github.com/heartmarshall/vocab-harvester/internal/service/filter"
	"github.com/heartmarshall/vocab-harvester/internal/service/harvest"
	"github.com/heartmarshall/vocab-harvester/internal/service/promotion"
	"github.com/heartmarshall/vocab-harvester/internal/service/translation"
	"github.com/heartmarshall/vocab-harvester/internal/service/vocabulary"
	"github.com/heartmarshall/vocab-harvester/pkg/keylock"
)

// App holds the wired services for one process. Close releases the store.
type App struct {
	Config     *config.Config
	Log        *slog.Logger
	Harvest    *harvest.Service
	Promotion  *promotion.Service
	Vocabulary *vocabulary.Service

	store       *store
	translation translationSource
}

// Build opens the configured store and wires every service on top of it.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	st, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	ann, err := newAnnotator(logger, cfg.Annotator)
	if err != nil {
		st.close()
		return nil, err
	}
	irregular, err := loadIrregularVerbs(cfg.Harvest.IrregularVerbsPath)
	if err != nil {
		st.close()
		return nil, err
	}

	locks := keylock.New[domain.Key]()
	src := newTranslationSource(logger, cfg.Translation)
	fetcher := translation.NewFetcher(logger, src, cfg.Translation)

	a := &App{
		Config:      cfg,
		Log:         logger,
		store:       st,
		translation: src,
	}
	a.Harvest = harvest.NewService(
		logger,
		ann,
		filter.NewService(logger, st.keys),
		fetcher,
		st.candidates,
		st.keys,
		st.tx,
		locks,
		irregular,
		web.NewExtractor(logger, cfg.Source),
	)
	a.Promotion = promotion.NewService(logger, st.candidates, st.entries, st.tags, st.tx, locks, cfg.Harvest)
	a.Vocabulary = vocabulary.NewService(logger, st.entries, st.tags, st.candidates, st.tx, locks)

	logger.Info("application ready",
		slog.String("version", BuildVersion()),
		slog.String("driver", cfg.Database.Driver),
		slog.String("annotator", cfg.Annotator.Kind),
		slog.String("translation", cfg.Translation.Provider),
	)
	return a, nil
}

// Close releases the store.
func (a *App) Close() {
	if a.store != nil {
		a.store.close()
	}
}

type annotator interface {
	Annotate(ctx context.Context, text string) ([]domain.Token, error)
}

type translationSource interface {
	Translate(ctx context.Context, lemma string, pos domain.PartOfSpeech) (string, error)
	IsReachable(ctx context.Context) bool
}

func newAnnotator(logger *slog.Logger, cfg config.AnnotatorConfig) (annotator, error) {
	switch cfg.Kind {
	case config.AnnotatorSpacy:
		c, err := spacy.NewClient(logger, cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.AnnotatorLexicon:
		lex := lexicon.Default()
		if cfg.LexiconPath != "" {
			var err error
			if lex, err = lexicon.Load(cfg.LexiconPath); err != nil {
				return nil, err
			}
		}
		return lexicon.New(logger, lex), nil
	default:
		return nil, fmt.Errorf("unknown annotator %q", cfg.Kind)
	}
}

func newTranslationSource(logger *slog.Logger, cfg config.TranslationConfig) translationSource {
	if cfg.Provider == config.ProviderStub {
		return translate.NewStub()
	}
	return wiktionary.NewProvider(logger, cfg)
}

func loadIrregularVerbs(path string) (domain.IrregularVerbs, error) {
	if path == "" {
		return domain.DefaultIrregularVerbs(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open irregular verbs: %w", err)
	}
	defer f.Close()

	verbs, err := domain.ParseIrregularVerbs(f)
	if err != nil {
		return nil, fmt.Errorf("irregular verbs %s: %w", path, err)
	}
	return verbs, nil
}
