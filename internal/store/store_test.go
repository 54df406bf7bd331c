package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storeFixtures = `
Person:
  - id: p1
    name: Ada
Actor:
  - id: a1
    name: Tom
  - id: a2
    name: Sigourney
    born: 1949
Movie:
  - id: 7
    title: Alien
    director: p1
    actors: [a2, a1]
    location:
      city: London
  - id: 8
    title: Orphan
`

func TestDDL(t *testing.T) {
	stmts := DDL(testCatalog(t), SQLite())
	require.Len(t, stmts, 4)

	assert.Equal(t, `CREATE TABLE IF NOT EXISTS "movie" (
  "id" INTEGER PRIMARY KEY,
  "title" TEXT NOT NULL,
  "director_id" TEXT NULL,
  "location" TEXT NULL
);`, stmts[0])
	assert.Contains(t, stmts[1], `CREATE TABLE IF NOT EXISTS "people"`)
	assert.Contains(t, stmts[2], `"born" INTEGER NULL`)
	assert.Equal(t, `CREATE TABLE IF NOT EXISTS "movie_actors" (
  "owner_id" INTEGER NOT NULL,
  "target_id" TEXT NOT NULL,
  "position" INTEGER NOT NULL,
  PRIMARY KEY ("owner_id", "position")
);`, stmts[3])

	pg := DDL(testCatalog(t), Postgres())
	assert.Contains(t, pg[0], `"location" JSONB NULL`)
	assert.Contains(t, pg[1], `"name" VARCHAR(255) NOT NULL`)
}

func openMemoryStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{Driver: "sqlite", DSN: ":memory:", MaxOpenConns: 1}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_SeedAndNavigate(t *testing.T) {
	ctx := context.Background()
	catalog := testCatalog(t)
	s := openMemoryStore(t)

	require.NoError(t, s.Migrate(ctx, catalog))

	fixtures, err := LoadFixtures(strings.NewReader(storeFixtures))
	require.NoError(t, err)
	counts, err := s.Seed(ctx, catalog, fixtures)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Movie": 2, "Person": 1, "Actor": 2}, counts)

	session, err := s.Session(ctx)
	require.NoError(t, err)
	defer session.Close()

	movieType := lookup(t, catalog, "Movie")
	movie, err := session.Find(ctx, movieType, int64(7))
	require.NoError(t, err)
	require.NotNil(t, movie)
	assert.Equal(t, "Alien", movie.Values["title"])
	assert.JSONEq(t, `{"city":"London"}`, movie.Values["location"].(string))

	director, _ := movieType.Attribute("director")
	person, err := session.LoadReference(ctx, movie, director)
	require.NoError(t, err)
	require.NotNil(t, person)
	assert.Equal(t, "Ada", person.Values["name"])

	actorsAttr, _ := movieType.Attribute("actors")
	actors, err := session.LoadCollection(ctx, movie, actorsAttr)
	require.NoError(t, err)
	require.Len(t, actors, 2)
	assert.Equal(t, "a2", actors[0].ID)
	assert.Equal(t, "a1", actors[1].ID)

	orphan, err := session.Find(ctx, movieType, int64(8))
	require.NoError(t, err)
	require.NotNil(t, orphan)
	none, err := session.LoadReference(ctx, orphan, director)
	require.NoError(t, err)
	assert.Nil(t, none)

	missing, err := session.Find(ctx, movieType, int64(42))
	require.NoError(t, err)
	assert.Nil(t, missing)

	all, err := session.FindAll(ctx, lookup(t, catalog, "Actor"))
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a1", all[0].ID)
}

func TestStore_SeedDuplicate(t *testing.T) {
	ctx := context.Background()
	catalog := testCatalog(t)
	s := openMemoryStore(t)
	require.NoError(t, s.Migrate(ctx, catalog))

	fixtures, err := LoadFixtures(strings.NewReader("Person:\n  - {id: p1, name: Ada}\n  - {id: p1, name: Bob}\n"))
	require.NoError(t, err)

	_, err = s.Seed(ctx, catalog, fixtures)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	session, err := s.Session(ctx)
	require.NoError(t, err)
	defer session.Close()

	all, err := session.FindAll(ctx, lookup(t, catalog, "Person"))
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStore_SeedRejectsUnknownNames(t *testing.T) {
	ctx := context.Background()
	catalog := testCatalog(t)
	s := openMemoryStore(t)
	require.NoError(t, s.Migrate(ctx, catalog))

	_, err := s.Seed(ctx, catalog, Fixtures{"Studio": {{"id": 1}}})
	assert.ErrorContains(t, err, "unknown type")

	_, err = s.Seed(ctx, catalog, Fixtures{"Person": {{"id": "p1", "nickname": "A"}}})
	assert.ErrorContains(t, err, "Person has no attribute nickname")

	_, err = s.Seed(ctx, catalog, Fixtures{"Person": {{"name": "A"}}})
	assert.ErrorContains(t, err, "missing identifier id")
}

func TestLoadFixtures_Empty(t *testing.T) {
	fixtures, err := LoadFixtures(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, fixtures)

	_, err = LoadFixtures(strings.NewReader("Person: [unclosed"))
	assert.Error(t, err)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mysql"}, nil)
	assert.ErrorContains(t, err, "unsupported driver")
}
