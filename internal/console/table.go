package console

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/agenthands/annuaire/internal/record"
)

var listColumns = map[record.Kind][]string{
	record.Directory: {"nom", "prenom", "type_de_partenaire", "localite", "telephone", "courriel"},
	record.Event:     {"nom_evenement", "date_debut", "date_fin", "horaire_debut", "nom_partenaire"},
}

// PrintRecords writes records as an aligned table of their main columns.
func PrintRecords(w io.Writer, kind record.Kind, recs []record.Record) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	schema := kind.Schema()

	fmt.Fprint(tw, "N°")
	for _, name := range listColumns[kind] {
		label := name
		if f, ok := schema.Lookup(name); ok {
			label = f.Label
		}
		fmt.Fprintf(tw, "\t%s", label)
	}
	fmt.Fprintln(tw)

	for _, r := range recs {
		fmt.Fprint(tw, r.String(record.KeyField))
		for _, name := range listColumns[kind] {
			fmt.Fprintf(tw, "\t%s", r.String(name))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// printRecord writes the non-empty fields of r, one per line.
func printRecord(w io.Writer, kind record.Kind, r record.Record, indent string) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if n := r.String(record.KeyField); n != "" {
		fmt.Fprintf(tw, "%sN°\t%s\n", indent, n)
	}
	for _, f := range kind.Schema() {
		if v := r.String(f.Name); v != "" {
			fmt.Fprintf(tw, "%s%s\t%s\n", indent, f.Label, v)
		}
	}
	_ = tw.Flush()
}
