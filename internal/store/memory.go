package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/agenthands/annuaire/internal/record"
)

// Memory is an in-process Store. Similarity is one minus the normalized Levenshtein
// distance of the lower-cased values, which tracks pg_trgm closely enough for names.
type Memory struct {
	mu     sync.Mutex
	tables map[record.Kind][]record.Record
	next   map[record.Kind]int64
	now    func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		tables: make(map[record.Kind][]record.Record),
		next:   make(map[record.Kind]int64),
		now:    time.Now,
	}
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) List(_ context.Context, kind record.Kind) ([]record.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]record.Record, 0, len(m.tables[kind]))
	for _, r := range m.tables[kind] {
		out = append(out, r.Clone())
	}
	return out, nil
}

func (m *Memory) Create(_ context.Context, kind record.Kind, rec record.Record) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.next[kind]++
	numero := m.next[kind]

	stored := record.Record{record.KeyField: numero}
	for _, f := range kind.Schema() {
		if v, ok := rec[f.Name]; ok {
			stored[f.Name] = v
		}
	}
	stored[modifiedField] = m.now().Format(record.DateLayout)
	m.tables[kind] = append(m.tables[kind], stored)
	return numero, nil
}

func (m *Memory) Replace(_ context.Context, kind record.Kind, recs []record.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range recs {
		if _, ok := rec.Key(); !ok {
			return ErrMissingKey
		}
	}

	table := cloneTable(m.tables[kind])
	for _, rec := range recs {
		numero, _ := rec.Key()
		i := indexOf(table, numero)
		if i < 0 {
			return fmt.Errorf("store: replace %s %d: %w", kind, numero, ErrNotFound)
		}
		for _, f := range kind.Schema() {
			if v, ok := rec[f.Name]; ok {
				table[i][f.Name] = v
			}
		}
		table[i][modifiedField] = m.now().Format(record.DateLayout)
	}
	m.tables[kind] = table
	return nil
}

func (m *Memory) FindSimilar(_ context.Context, kind record.Kind, rec record.Record, threshold float64) ([]record.Record, error) {
	match := strings.ToLower(rec.String(kind.MatchField()))
	if match == "" {
		return nil, nil
	}
	prefix := firstRune(rec.String(kind.PrefixField()))

	m.mu.Lock()
	defer m.mu.Unlock()

	type scored struct {
		rec   record.Record
		score float64
	}
	var hits []scored
	for _, r := range m.tables[kind] {
		if firstRune(r.String(kind.PrefixField())) != prefix {
			continue
		}
		score := Similarity(match, strings.ToLower(r.String(kind.MatchField())))
		if score > threshold {
			hits = append(hits, scored{rec: r.Clone(), score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	out := make([]record.Record, len(hits))
	for i, h := range hits {
		out[i] = h.rec
	}
	return out, nil
}

// InTx runs fn and restores the previous contents if it fails. It does not isolate fn
// from concurrent writers.
func (m *Memory) InTx(ctx context.Context, fn func(Store) error) error {
	m.mu.Lock()
	tables := make(map[record.Kind][]record.Record, len(m.tables))
	for k, t := range m.tables {
		tables[k] = cloneTable(t)
	}
	next := make(map[record.Kind]int64, len(m.next))
	for k, n := range m.next {
		next[k] = n
	}
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.tables, m.next = tables, next
		m.mu.Unlock()
		return err
	}
	return nil
}

// Similarity scores two strings between 0 and 1.
func Similarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(fuzzy.LevenshteinDistance(a, b))/float64(longest)
}

func firstRune(s string) string {
	r, _ := utf8.DecodeRuneInString(strings.ToLower(strings.TrimSpace(s)))
	if r == utf8.RuneError {
		return ""
	}
	return string(r)
}

func indexOf(table []record.Record, numero int64) int {
	for i, r := range table {
		if k, ok := r.Key(); ok && k == numero {
			return i
		}
	}
	return -1
}

func cloneTable(t []record.Record) []record.Record {
	out := make([]record.Record, len(t))
	for i, r := range t {
		out[i] = r.Clone()
	}
	return out
}
