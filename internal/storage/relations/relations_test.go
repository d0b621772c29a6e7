package relations_test

import (
	"context"
	"log/slog"
	"net/http"
	"testing"

	"moviecenter/proj/internal/domain/models"
	"moviecenter/proj/internal/storage"
	"moviecenter/proj/internal/storage/airtable"
	"moviecenter/proj/internal/storage/airtable/airtabletest"
	"moviecenter/proj/internal/storage/relations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func actorIDs(f models.MovieActorFields) []string {
	return []string{f.ActorID}
}

func seedCast(srv *airtabletest.Server, movieID string, names ...string) []string {
	ids := make([]string, 0, len(names))
	for _, name := range names {
		actorID := srv.Seed(airtable.TableActors, map[string]any{"name": name})
		srv.Seed(airtable.TableMovieActors, map[string]any{"movie_id": movieID, "actor_id": actorID})
		ids = append(ids, actorID)
	}
	return ids
}

func castQuery(movieID string) relations.Query {
	return relations.Query{
		JunctionTable: airtable.TableMovieActors,
		ForeignKey:    "movie_id",
		ParentID:      movieID,
		TargetTable:   airtable.TableActors,
	}
}

func TestResolveEmptyJunction(t *testing.T) {
	srv := airtabletest.New(t)
	r := relations.New(slog.Default(), srv.Client(t), 4)

	got, err := relations.Resolve[models.MovieActorFields, models.ActorFields](
		context.Background(), r, castQuery("recNoSuchMovie"), relations.Strict, actorIDs,
	)
	require.NoError(t, err)
	assert.Empty(t, got)
	// Zero junction matches must not trigger any target fetch.
	assert.Equal(t, 0, srv.Requests(airtable.TableActors))
	assert.Equal(t, 1, srv.Requests(airtable.TableMovieActors))
}

func TestResolveAll(t *testing.T) {
	srv := airtabletest.New(t)
	r := relations.New(slog.Default(), srv.Client(t), 4)
	seedCast(srv, "recM1", "Toni Collette", "Alex Wolff", "Milly Shapiro")

	got, err := relations.Resolve[models.MovieActorFields, models.ActorFields](
		context.Background(), r, castQuery("recM1"), relations.Strict, actorIDs,
	)
	require.NoError(t, err)
	require.Len(t, got, 3)
	names := make([]string, 0, 3)
	for _, rec := range got {
		names = append(names, rec.Fields.Name)
	}
	assert.ElementsMatch(t, []string{"Toni Collette", "Alex Wolff", "Milly Shapiro"}, names)
}

func TestResolveLenientSkipsFailures(t *testing.T) {
	srv := airtabletest.New(t)
	r := relations.New(slog.Default(), srv.Client(t), 4)
	ids := seedCast(srv, "recM1", "A", "B", "C", "D")
	srv.FailRecord(airtable.TableActors, ids[1], http.StatusNotFound)

	got, err := relations.Resolve[models.MovieActorFields, models.ActorFields](
		context.Background(), r, castQuery("recM1"), relations.Lenient, actorIDs,
	)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestResolveStrictAbortsOnFailure(t *testing.T) {
	srv := airtabletest.New(t)
	r := relations.New(slog.Default(), srv.Client(t), 4)
	ids := seedCast(srv, "recM1", "A", "B", "C", "D")
	srv.FailRecord(airtable.TableActors, ids[2], http.StatusInternalServerError)

	got, err := relations.Resolve[models.MovieActorFields, models.ActorFields](
		context.Background(), r, castQuery("recM1"), relations.Strict, actorIDs,
	)
	assert.ErrorIs(t, err, storage.ErrServerUnavailable)
	assert.Nil(t, got)
}

func TestResolveListValuedTargetField(t *testing.T) {
	srv := airtabletest.New(t)
	r := relations.New(slog.Default(), srv.Client(t), 4)
	m1 := srv.Seed(airtable.TableMovies, map[string]any{"name": "Heat"})
	m2 := srv.Seed(airtable.TableMovies, map[string]any{"name": "Ronin"})
	srv.Seed(airtable.TableSavedMovies, map[string]any{"user_id": "recU1", "movie_id": []string{m1}})
	srv.Seed(airtable.TableSavedMovies, map[string]any{"user_id": "recU1", "movie_id": []string{m2}})

	got, err := relations.Resolve[models.SavedMovieFields, models.MovieFields](
		context.Background(), r, relations.Query{
			JunctionTable: airtable.TableSavedMovies,
			ForeignKey:    "user_id",
			ParentID:      "recU1",
			TargetTable:   airtable.TableMovies,
		}, relations.Strict,
		func(f models.SavedMovieFields) []string { return f.MovieID },
	)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
