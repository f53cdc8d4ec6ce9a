package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/annuaire/internal/record"
	"github.com/agenthands/annuaire/internal/workflow"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, WithHTTPClient(srv.Client()))
}

func TestSubmitCreated(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/process-annuaire", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Jean Dupont, Genève", r.FormValue("text"))
		assert.Equal(t, "", r.FormValue("url"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "contacts.csv", hdr.Filename)
		assert.Equal(t, "nom\nDupont\n", string(data))

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"message":"Processing completed.","successful_inserts":[{"numero":1,"nom":"Dupont"}]}`)
	})

	out, err := c.Submit(context.Background(), record.Directory, Input{
		Text:     "Jean Dupont, Genève",
		FileName: "contacts.csv",
		File:     strings.NewReader("nom\nDupont\n"),
	})
	require.NoError(t, err)
	assert.False(t, out.HasConflicts())
	require.Len(t, out.Inserted, 1)
	assert.Equal(t, "Dupont", out.Inserted[0]["nom"])
}

func TestSubmitConflict(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/process-evenement", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "https://example.org/agenda", r.FormValue("url"))
		_, _, err := r.FormFile("file")
		assert.ErrorIs(t, err, http.ErrMissingFile)

		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{
			"message": "Processing completed.",
			"successful_inserts": [],
			"duplicates": [
				{"new_entry": {"nom_evenement": "Salon"}, "existing_entries": [{"numero": 3, "nom_evenement": "Salon santé"}]}
			]
		}`)
	})

	out, err := c.Submit(context.Background(), record.Event, Input{URL: "https://example.org/agenda"})
	require.NoError(t, err)
	require.True(t, out.HasConflicts())
	assert.Equal(t, "Salon", out.Duplicates[0].NewEntry["nom_evenement"])
	key, ok := out.Duplicates[0].ExistingEntries[0].Key()
	assert.True(t, ok)
	assert.Equal(t, int64(3), key)
}

func TestSubmitError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"No input provided"}`)
	})

	_, err := c.Submit(context.Background(), record.Directory, Input{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "No input provided", apiErr.Message)
}

func TestCreateOmitsKey(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/add-annuaire", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotContains(t, body, "numero")
		assert.Equal(t, "Dupont", body["nom"])
		w.WriteHeader(http.StatusCreated)
	})

	err := c.Create(context.Background(), record.Directory, record.Record{"numero": 5, "nom": "Dupont"})
	assert.NoError(t, err)
}

func TestReplaceSendsArray(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusNoContent} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/replace-annuaire", r.URL.Path)

			var body []map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Len(t, body, 1)
			assert.Equal(t, float64(5), body[0]["numero"])
			assert.Equal(t, "Dupont", body[0]["nom"])
			w.WriteHeader(status)
		})

		err := c.Replace(context.Background(), record.Directory, []record.Record{{"numero": 5, "nom": "Dupont"}})
		assert.NoError(t, err, "status %d", status)
	}
}

func TestReplaceFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "database down")
	})

	err := c.Replace(context.Background(), record.Directory, []record.Record{{"numero": 5}})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "database down", apiErr.Message)
}

func TestList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/evenements", r.URL.Path)
		_, _ = io.WriteString(w, `[{"numero":1,"nom_evenement":"Salon"},{"numero":2,"nom_evenement":"Forum"}]`)
	})

	recs, err := c.List(context.Background(), record.Event)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Forum", recs[1]["nom_evenement"])
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := New(srv.URL)

	err := c.Create(context.Background(), record.Directory, record.Record{"nom": "Dupont"})
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

// The client drives a workflow end to end against a fake API.
func TestClientAsResolver(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		switch r.URL.Path {
		case "/add-annuaire":
			w.WriteHeader(http.StatusCreated)
		case "/replace-annuaire":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	wf := workflow.New(c)
	_, err := wf.Start(record.Directory, record.ConflictBatch{
		{NewEntry: record.Record{"nom": "Dupont"}, ExistingEntries: []record.Record{{"numero": float64(5), "nom": "Dupont"}}},
		{NewEntry: record.Record{"nom": "Martin"}, ExistingEntries: []record.Record{{"numero": float64(6), "nom": "Martin"}}},
	})
	require.NoError(t, err)

	_, err = wf.ResolveAsNew(context.Background())
	require.NoError(t, err)
	_, err = wf.SelectExisting(0)
	require.NoError(t, err)
	s, err := wf.ResolveAsReplace(context.Background())
	require.NoError(t, err)

	assert.Equal(t, workflow.Completed, s.Phase)
	assert.Equal(t, []string{"POST /add-annuaire", "PUT /replace-annuaire"}, paths)
}
