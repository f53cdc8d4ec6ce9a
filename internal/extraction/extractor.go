package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/agenthands/annuaire/internal/config"
	"github.com/agenthands/annuaire/internal/llm"
	"github.com/agenthands/annuaire/internal/record"
)

type extractedEntries struct {
	Entries []record.Record `json:"entries"`
}

type Extractor struct {
	LLM     llm.LLMClient
	Prompts config.ExtractionPrompts
	Log     logrus.FieldLogger
}

func NewExtractor(llmClient llm.LLMClient, prompts config.ExtractionPrompts, log logrus.FieldLogger) *Extractor {
	return &Extractor{
		LLM:     llmClient,
		Prompts: prompts,
		Log:     log,
	}
}

// Extract asks the LLM for the records of kind described by text. Values that do not
// fit their column are dropped, and so are entries missing a required field.
func (e *Extractor) Extract(ctx context.Context, kind record.Kind, text string) ([]record.Record, error) {
	prompt := fmt.Sprintf(e.template(kind), describeFields(kind), text)

	response, err := e.LLM.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate entries: %w", err)
	}

	result, err := ParseJSON[extractedEntries](response)
	if err != nil {
		return nil, fmt.Errorf("failed to extract entries: %w", err)
	}

	entries := make([]record.Record, 0, len(result.Entries))
	for i, raw := range result.Entries {
		rec := e.normalize(kind, raw).WithoutKey()
		if missing := record.MissingRequired(kind, rec); len(missing) > 0 {
			e.Log.WithFields(logrus.Fields{
				"kind":    kind.String(),
				"entry":   i,
				"missing": strings.Join(missing, ","),
			}).Warn("dropping extracted entry")
			continue
		}
		entries = append(entries, rec)
	}
	return entries, nil
}

func (e *Extractor) template(kind record.Kind) string {
	if kind == record.Event {
		return e.Prompts.Evenement
	}
	return e.Prompts.Annuaire
}

func (e *Extractor) normalize(kind record.Kind, raw record.Record) record.Record {
	raw = raw.Clone()
	for range kind.Schema() {
		rec, err := record.Normalize(kind, raw)
		if err == nil {
			return rec
		}
		var fe *record.FieldError
		if !errors.As(err, &fe) {
			break
		}
		e.Log.WithFields(logrus.Fields{
			"kind":  kind.String(),
			"field": fe.Field,
			"value": fe.Value,
		}).Debug("dropping unparseable value")
		delete(raw, fe.Field)
	}
	return record.Record{}
}

func describeFields(kind record.Kind) string {
	var b strings.Builder
	for _, f := range kind.Schema() {
		fmt.Fprintf(&b, "- %s (%s): %s\n", f.Name, f.Type, f.Label)
	}
	return b.String()
}
