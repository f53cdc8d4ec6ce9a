package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agenthands/annuaire/internal/llm"
	"github.com/agenthands/annuaire/internal/record"
	"github.com/agenthands/annuaire/internal/source"
	"github.com/agenthands/annuaire/internal/store"
)

// ErrExtraction wraps failures of the model while turning input into entries.
var ErrExtraction = errors.New("failed to process input")

type Acquirer interface {
	Acquire(ctx context.Context, in source.Input) (string, error)
}

type Extractor interface {
	Extract(ctx context.Context, kind record.Kind, text string) ([]record.Record, error)
}

// Result is the outcome of one import. Duplicates is empty when every entry was inserted.
type Result struct {
	Inserted   []record.Record
	Duplicates record.ConflictBatch
}

type Service struct {
	Store     store.Store
	Source    Acquirer
	Extractor Extractor
	// Reranker orders the matches of a conflict when set.
	Reranker  llm.RerankerClient
	Threshold float64
	Log       logrus.FieldLogger

	now func() time.Time
}

func NewService(st store.Store, src Acquirer, ext Extractor, threshold float64, log logrus.FieldLogger) *Service {
	if threshold <= 0 {
		threshold = store.DefaultSimilarity
	}
	return &Service{
		Store:     st,
		Source:    src,
		Extractor: ext,
		Threshold: threshold,
		Log:       log,
		now:       time.Now,
	}
}

// Process extracts the entries of kind from in and inserts those without a close match.
// Entries with matches are returned as conflicts, untouched in the store.
func (s *Service) Process(ctx context.Context, kind record.Kind, in source.Input) (Result, error) {
	text, err := s.Source.Acquire(ctx, in)
	if err != nil {
		return Result{}, err
	}

	entries, err := s.Extractor.Extract(ctx, kind, text)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	log := s.Log.WithFields(logrus.Fields{"kind": kind.String(), "entries": len(entries)})
	log.Debug("entries extracted")

	var res Result
	err = s.Store.InTx(ctx, func(tx store.Store) error {
		res = Result{Inserted: []record.Record{}}
		for _, entry := range entries {
			matches, err := tx.FindSimilar(ctx, kind, entry, s.Threshold)
			if err != nil {
				return err
			}
			if len(matches) > 0 {
				res.Duplicates = append(res.Duplicates, record.ConflictItem{
					NewEntry:        entry,
					ExistingEntries: s.rerank(ctx, kind, entry, matches),
				})
				continue
			}

			inserted := entry.Clone()
			inserted["date_derniere_modification"] = s.now().Format(record.DateLayout)
			numero, err := tx.Create(ctx, kind, inserted)
			if err != nil {
				return err
			}
			inserted[record.KeyField] = numero
			res.Inserted = append(res.Inserted, inserted)
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("database error: %w", err)
	}

	log.WithFields(logrus.Fields{
		"inserted":   len(res.Inserted),
		"duplicates": len(res.Duplicates),
	}).Info("import processed")
	return res, nil
}

// Add inserts rec as a new record. Any numero it carries is ignored.
func (s *Service) Add(ctx context.Context, kind record.Kind, rec record.Record) (int64, error) {
	normalized, err := record.Normalize(kind, rec)
	if err != nil {
		return 0, err
	}
	numero, err := s.Store.Create(ctx, kind, normalized.WithoutKey())
	if err != nil {
		return 0, err
	}
	s.Log.WithFields(logrus.Fields{"kind": kind.String(), "numero": numero}).Info("record added")
	return numero, nil
}

// Replace overwrites the stored records named by the numero of each element.
func (s *Service) Replace(ctx context.Context, kind record.Kind, recs []record.Record) error {
	normalized := make([]record.Record, 0, len(recs))
	for _, rec := range recs {
		if !rec.HasKey() {
			return store.ErrMissingKey
		}
		n, err := record.Normalize(kind, rec)
		if err != nil {
			return err
		}
		normalized = append(normalized, n)
	}
	if err := s.Store.Replace(ctx, kind, normalized); err != nil {
		return err
	}
	s.Log.WithFields(logrus.Fields{"kind": kind.String(), "count": len(recs)}).Info("records replaced")
	return nil
}

func (s *Service) List(ctx context.Context, kind record.Kind) ([]record.Record, error) {
	return s.Store.List(ctx, kind)
}

func (s *Service) Ping(ctx context.Context) error {
	return s.Store.Ping(ctx)
}

func (s *Service) rerank(ctx context.Context, kind record.Kind, entry record.Record, matches []record.Record) []record.Record {
	if s.Reranker == nil || len(matches) < 2 {
		return matches
	}
	docs := make([]string, len(matches))
	for i, m := range matches {
		docs[i] = summarize(kind, m)
	}
	order, err := s.Reranker.Rank(ctx, summarize(kind, entry), docs)
	if err != nil || len(order) != len(matches) {
		return matches
	}
	ranked := make([]record.Record, 0, len(matches))
	for _, i := range order {
		if i < 0 || i >= len(matches) {
			return matches
		}
		ranked = append(ranked, matches[i])
	}
	return ranked
}

func summarize(kind record.Kind, r record.Record) string {
	var parts []string
	for _, f := range kind.Schema() {
		if v := r.String(f.Name); v != "" {
			parts = append(parts, f.Name+"="+v)
		}
	}
	return strings.Join(parts, "; ")
}
