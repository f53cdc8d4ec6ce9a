//go:build integration

package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/agenthands/annuaire/internal/record"
)

// startPostgres reuses TEST_DATABASE_URL when set, otherwise starts a disposable container.
func startPostgres(t *testing.T) *Postgres {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		pgC, err := postgres.Run(ctx,
			"postgres:16",
			postgres.WithDatabase("annuaire"),
			postgres.WithUsername("annuaire"),
			postgres.WithPassword("annuaire"),
			postgres.BasicWaitStrategies(),
		)
		if err != nil {
			t.Skipf("postgres container unavailable: %v", err)
		}
		t.Cleanup(func() { _ = pgC.Terminate(context.Background()) })

		dsn, err = pgC.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	p := NewPostgres(pool)
	require.NoError(t, p.EnsureSchema(ctx))
	_, err = pool.Exec(ctx, "TRUNCATE annuaire, evenement RESTART IDENTITY")
	require.NoError(t, err)
	return p
}

func TestPostgresRoundTrip(t *testing.T) {
	p := startPostgres(t)
	ctx := context.Background()

	in, err := record.Normalize(record.Directory, record.Record{
		"nom":           "Dupont",
		"prenom":        "Jean",
		"npa":           "1204",
		"medecin":       "Oui",
		"coord_geo_lat": 46.2,
		"date_saisie":   "2024-01-15",
	})
	require.NoError(t, err)

	numero, err := p.Create(ctx, record.Directory, in)
	require.NoError(t, err)
	assert.Equal(t, int64(1), numero)

	recs, err := p.List(ctx, record.Directory)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	got := recs[0]
	key, _ := got.Key()
	assert.Equal(t, int64(1), key)
	assert.Equal(t, "Dupont", got["nom"])
	assert.Equal(t, float64(1204), got["npa"])
	assert.Equal(t, true, got["medecin"])
	assert.Equal(t, "2024-01-15", got["date_saisie"])
	assert.Equal(t, time.Now().Format(record.DateLayout), got["date_derniere_modification"])

	err = p.Replace(ctx, record.Directory, []record.Record{{"numero": int64(1), "prenom": "Jeanne", "localite": nil}})
	require.NoError(t, err)
	recs, err = p.List(ctx, record.Directory)
	require.NoError(t, err)
	assert.Equal(t, "Jeanne", recs[0]["prenom"])

	err = p.Replace(ctx, record.Directory, []record.Record{{"numero": int64(99), "prenom": "x"}})
	assert.ErrorIs(t, err, ErrNotFound)
	err = p.Replace(ctx, record.Directory, []record.Record{{"prenom": "x"}})
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestPostgresFindSimilar(t *testing.T) {
	p := startPostgres(t)
	ctx := context.Background()

	for _, r := range []record.Record{
		{"nom": "Dupont", "prenom": "Jean"},
		{"nom": "Dupont", "prenom": "Marie"},
		{"nom": "Zimmermann", "prenom": "Jean"},
	} {
		_, err := p.Create(ctx, record.Directory, r)
		require.NoError(t, err)
	}

	hits, err := p.FindSimilar(ctx, record.Directory, record.Record{"nom": "Dupont", "prenom": "Julien"}, DefaultSimilarity)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Jean", hits[0]["prenom"])

	_, err = p.Create(ctx, record.Event, record.Record{"nom_evenement": "Salon de la santé", "horaire_debut": "09:30:00"})
	require.NoError(t, err)
	hits, err = p.FindSimilar(ctx, record.Event, record.Record{"nom_evenement": "Salon santé"}, DefaultSimilarity)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "09:30:00", hits[0]["horaire_debut"])
}

func TestPostgresInTxRollsBack(t *testing.T) {
	p := startPostgres(t)
	ctx := context.Background()

	err := p.InTx(ctx, func(s Store) error {
		if _, err := s.Create(ctx, record.Event, record.Record{"nom_evenement": "Salon"}); err != nil {
			return err
		}
		return s.Replace(ctx, record.Event, []record.Record{{"numero": int64(404)}})
	})
	assert.ErrorIs(t, err, ErrNotFound)

	recs, err := p.List(ctx, record.Event)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
