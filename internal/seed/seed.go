// Package seed bulk-loads the legacy CSV exports into the record store.
package seed

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/agenthands/annuaire/internal/record"
	"github.com/agenthands/annuaire/internal/source"
	"github.com/agenthands/annuaire/internal/store"
)

// Load inserts every row of the CSV in r as a record of kind, all or nothing.
// Columns are matched by their French label or by field name; others are skipped,
// the legacy "Numéro" column included since the store assigns keys.
func Load(ctx context.Context, st store.Store, kind record.Kind, r io.Reader, log logrus.FieldLogger) (int, error) {
	table, err := source.ReadCSV(r)
	if err != nil {
		return 0, fmt.Errorf("seed: read %s csv: %w", kind, err)
	}

	columns := make([]string, len(table.Header))
	schema := kind.Schema()
	for i, h := range table.Header {
		if f, ok := schema.ByLabel(h); ok {
			columns[i] = f.Name
		} else if f, ok := schema.Lookup(strings.ToLower(h)); ok {
			columns[i] = f.Name
		} else if h != "" {
			log.WithField("column", h).Debug("skipping unknown column")
		}
	}

	recs := make([]record.Record, 0, len(table.Rows))
	for n, row := range table.Rows {
		raw := make(record.Record, len(columns))
		for i, name := range columns {
			if name == "" || i >= len(row) {
				continue
			}
			raw[name] = row[i]
		}
		rec, err := record.Normalize(kind, raw)
		if err != nil {
			// header is line 1
			return 0, fmt.Errorf("seed: line %d: %w", n+2, err)
		}
		recs = append(recs, rec.WithoutKey())
	}

	err = st.InTx(ctx, func(tx store.Store) error {
		for _, rec := range recs {
			if _, err := tx.Create(ctx, kind, rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seed: insert %s: %w", kind, err)
	}

	log.WithFields(logrus.Fields{"kind": kind.String(), "count": len(recs)}).Info("seed loaded")
	return len(recs), nil
}
