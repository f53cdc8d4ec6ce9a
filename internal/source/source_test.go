package source

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/agenthands/annuaire/internal/logging"
)

const page = `<html><head><title>Agenda</title><style>body{color:red}</style></head>
<body>
  <script>var x = 1;</script>
  <h1>Fête du village</h1>
  <p>Le   14 juillet,
     place du marché.</p>
  <noscript>enable js</noscript>
</body></html>`

func newAcquirer() *Acquirer {
	return NewAcquirer(5*time.Second, logging.Discard())
}

func TestAcquireURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	got, err := newAcquirer().Acquire(context.Background(), Input{URL: srv.URL, Text: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "Fête du village\nLe 14 juillet,\nplace du marché.", got)
}

func TestAcquireURLFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newAcquirer().Acquire(context.Background(), Input{URL: srv.URL})
	assert.ErrorIs(t, err, ErrFetch)
}

func TestAcquirePriority(t *testing.T) {
	a := newAcquirer()

	got, err := a.Acquire(context.Background(), Input{Text: "from text", FileName: "notes.txt", File: strings.NewReader("from file")})
	require.NoError(t, err)
	assert.Equal(t, "from file", got)

	got, err = a.Acquire(context.Background(), Input{Text: "from text"})
	require.NoError(t, err)
	assert.Equal(t, "from text", got)

	_, err = a.Acquire(context.Background(), Input{Text: "   "})
	assert.ErrorIs(t, err, ErrNoInput)

	_, err = a.Acquire(context.Background(), Input{FileName: "empty.txt", File: strings.NewReader("")})
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestDecodeCSV(t *testing.T) {
	data := "\xEF\xBB\xBFnom,prenom,npa\nDupont,Jean,1200\n,,\nMartin,,\n"
	got, err := DecodeFile("export.CSV", strings.NewReader(data))
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(got), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, map[string]any{"nom": "Dupont", "prenom": "Jean", "npa": "1200"}, rows[0])
	assert.Equal(t, map[string]any{"nom": "Martin", "prenom": nil, "npa": nil}, rows[1])
}

func TestDecodeXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"nom_evenement", "date_debut"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Marché de Noël", "2025-12-01"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	got, err := DecodeFile("agenda.xlsx", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(got), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Marché de Noël", rows[0]["nom_evenement"])
	assert.Equal(t, "2025-12-01", rows[0]["date_debut"])
}

func TestDecodeErrors(t *testing.T) {
	_, err := DecodeFile("broken.xlsx", strings.NewReader("not a zip"))
	assert.ErrorIs(t, err, ErrDecode)

	_, err = DecodeFile("empty.csv", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrDecode)

	_, err = DecodeFile("latin1.txt", bytes.NewReader([]byte{0x66, 0xe9, 0x74, 0x65}))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestReadCSVHeaderOnly(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("Nom, Prénom \n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Nom", "Prénom"}, table.Header)
	assert.Empty(t, table.Records())
}
