package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/annuaire/internal/record"
)

func fixedMemory() *Memory {
	m := NewMemory()
	m.now = func() time.Time { return time.Date(2024, 5, 17, 10, 0, 0, 0, time.UTC) }
	return m
}

func TestMemoryCreateAndList(t *testing.T) {
	ctx := context.Background()
	m := fixedMemory()

	n1, err := m.Create(ctx, record.Directory, record.Record{"nom": "Dupont", "prenom": "Jean", "bogus": 1})
	require.NoError(t, err)
	n2, err := m.Create(ctx, record.Directory, record.Record{"nom": "Martin", "prenom": "Luc"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n1)
	assert.Equal(t, int64(2), n2)

	n, err := m.Create(ctx, record.Event, record.Record{"nom_evenement": "Salon"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "each kind numbers independently")

	recs, err := m.List(ctx, record.Directory)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Dupont", recs[0]["nom"])
	assert.Equal(t, "2024-05-17", recs[0]["date_derniere_modification"])
	assert.NotContains(t, recs[0], "bogus")
}

func TestMemoryReplace(t *testing.T) {
	ctx := context.Background()
	m := fixedMemory()
	_, err := m.Create(ctx, record.Directory, record.Record{"nom": "Dupont", "prenom": "Jean", "localite": "Genève"})
	require.NoError(t, err)

	err = m.Replace(ctx, record.Directory, []record.Record{{"numero": int64(1), "prenom": "Jeanne"}})
	require.NoError(t, err)

	recs, _ := m.List(ctx, record.Directory)
	assert.Equal(t, "Jeanne", recs[0]["prenom"])
	assert.Equal(t, "Genève", recs[0]["localite"])

	err = m.Replace(ctx, record.Directory, []record.Record{{"prenom": "x"}})
	assert.ErrorIs(t, err, ErrMissingKey)

	err = m.Replace(ctx, record.Directory, []record.Record{{"numero": int64(1), "prenom": "A"}, {"numero": int64(42)}})
	assert.ErrorIs(t, err, ErrNotFound)
	recs, _ = m.List(ctx, record.Directory)
	assert.Equal(t, "Jeanne", recs[0]["prenom"], "a failed batch changes nothing")
}

func TestMemoryFindSimilar(t *testing.T) {
	ctx := context.Background()
	m := fixedMemory()
	for _, r := range []record.Record{
		{"nom": "Dupont", "prenom": "Jean"},
		{"nom": "Dupond", "prenom": "Jacques"},
		{"nom": "Dupont", "prenom": "Marie"},
		{"nom": "Zimmermann", "prenom": "Jean"},
	} {
		_, err := m.Create(ctx, record.Directory, r)
		require.NoError(t, err)
	}

	hits, err := m.FindSimilar(ctx, record.Directory, record.Record{"nom": "DUPONT", "prenom": "julien"}, DefaultSimilarity)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "Jean", hits[0]["prenom"], "exact name ranks first")
	assert.Equal(t, "Jacques", hits[1]["prenom"])

	hits, err = m.FindSimilar(ctx, record.Directory, record.Record{"prenom": "Jean"}, DefaultSimilarity)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestMemoryInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	m := fixedMemory()

	err := m.InTx(ctx, func(s Store) error {
		_, err := s.Create(ctx, record.Event, record.Record{"nom_evenement": "Salon"})
		require.NoError(t, err)
		return errors.New("abort")
	})
	require.Error(t, err)

	recs, _ := m.List(ctx, record.Event)
	assert.Empty(t, recs)

	n, err := m.Create(ctx, record.Event, record.Record{"nom_evenement": "Forum"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("dupont", "dupont"))
	assert.InDelta(t, 5.0/6.0, Similarity("dupont", "dupond"), 1e-9)
	assert.Less(t, Similarity("dupont", "zimmermann"), DefaultSimilarity)
	assert.Equal(t, 1.0, Similarity("", ""))
}
