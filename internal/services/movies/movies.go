// Package movies owns the movie-facing reads: the catalog, the
// composite movie-detail view, and the bookmark check/toggle pair.
package movies

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"moviecenter/proj/internal/domain/fields"
	"moviecenter/proj/internal/domain/filters"
	"moviecenter/proj/internal/domain/models"
	"moviecenter/proj/internal/services/profile"
	"moviecenter/proj/internal/services/reviews"
	"moviecenter/proj/internal/storage"
	"moviecenter/proj/internal/storage/airtable"
	"moviecenter/proj/internal/storage/relations"
)

type Service struct {
	log      *slog.Logger
	client   *airtable.Client
	resolver *relations.Resolver
	profiles *profile.Service
	reviews  *reviews.Service
}

func New(log *slog.Logger, client *airtable.Client, resolver *relations.Resolver, profiles *profile.Service, revs *reviews.Service) *Service {
	return &Service{
		log:      log,
		client:   client,
		resolver: resolver,
		profiles: profiles,
		reviews:  revs,
	}
}

// Catalog lists every movie in the store.
func (s *Service) Catalog(ctx context.Context) ([]airtable.Record[models.MovieFields], error) {
	const op = "movies.Service.Catalog"
	log := s.log.With("op", op)
	recs, err := airtable.List[models.MovieFields](ctx, s.client, airtable.TableMovies, airtable.ListOptions{})
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}
	return recs, nil
}

// Get reads a single movie by record id.
func (s *Service) Get(ctx context.Context, id string) (*airtable.Record[models.MovieFields], error) {
	const op = "movies.Service.Get"
	log := s.log.With("op", op, "id", id)
	rec, err := airtable.Get[models.MovieFields](ctx, s.client, airtable.TableMovies, id)
	if err != nil {
		var reqErr *storage.RequestFailedError
		if errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound {
			log.Info("movie not found")
			return nil, ErrMovieNotFound
		}
		log.Error(err.Error())
		return nil, err
	}
	return rec, nil
}

// Details is the composite movie page view. Zero-value branches mean
// that branch could not be loaded.
type Details struct {
	Actors    []airtable.Record[models.ActorFields]
	Directors []airtable.Record[models.DirectorFields]

	// Populated only when the signed-in user's record resolved.
	UserID        string
	Reviews       []airtable.Record[models.ReviewFields]
	Bookmarked    bool
	SavedRecordID string
}

// BookmarkState reports whether a (user, movie) pair has a saved-movie
// row, and which one, so a later unsave can delete it.
type BookmarkState struct {
	Saved    bool
	RecordID string
}

// Details aggregates the movie page out of three groups of requests.
// The cast group (actors in parallel with directors, each lenient: one
// missing actor must not blank the page) runs concurrently with the
// user group. The user group resolves the signed-in user first, then
// fetches reviews and the bookmark state concurrently. A branch that
// fails is logged and left unpopulated; no branch failure fails the
// aggregation as a whole.
func (s *Service) Details(ctx context.Context, movieID string, email fields.Email) (*Details, error) {
	const op = "movies.Service.Details"
	log := s.log.With("op", op, "movie_id", movieID)

	var details Details
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		actors, err := relations.Resolve[models.MovieActorFields, models.ActorFields](
			ctx, s.resolver, relations.Query{
				JunctionTable: airtable.TableMovieActors,
				ForeignKey:    "movie_id",
				ParentID:      movieID,
				TargetTable:   airtable.TableActors,
			}, relations.Lenient,
			func(f models.MovieActorFields) []string { return []string{f.ActorID} },
		)
		if err != nil {
			log.Error("actors branch failed", "err", err.Error())
			return
		}
		details.Actors = actors
	}()

	go func() {
		defer wg.Done()
		directors, err := relations.Resolve[models.MovieDirectorFields, models.DirectorFields](
			ctx, s.resolver, relations.Query{
				JunctionTable: airtable.TableMovieDirectors,
				ForeignKey:    "movie_id",
				ParentID:      movieID,
				TargetTable:   airtable.TableDirectors,
			}, relations.Lenient,
			func(f models.MovieDirectorFields) []string { return []string{f.DirectorID} },
		)
		if err != nil {
			log.Error("directors branch failed", "err", err.Error())
			return
		}
		details.Directors = directors
	}()

	go func() {
		defer wg.Done()
		user, err := s.profiles.UserByEmail(ctx, email)
		if err != nil {
			// Reviews and bookmark state need the user id; without it
			// the user branch stays empty while the cast branch still
			// completes.
			log.Warn("user branch skipped", "err", err.Error())
			return
		}
		details.UserID = user.ID

		var userWG sync.WaitGroup
		userWG.Add(2)
		go func() {
			defer userWG.Done()
			recs, err := s.reviews.ForMovie(ctx, movieID)
			if err != nil {
				log.Error("reviews branch failed", "err", err.Error())
				return
			}
			details.Reviews = recs
		}()
		go func() {
			defer userWG.Done()
			state, err := s.Bookmark(ctx, user.ID, movieID)
			if err != nil {
				log.Error("bookmark branch failed", "err", err.Error())
				return
			}
			details.Bookmarked = state.Saved
			details.SavedRecordID = state.RecordID
		}()
		userWG.Wait()
	}()

	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &details, nil
}

// Bookmark checks whether a saved-movie row exists for the pair. The
// toggle race can leave duplicates behind; the first returned row wins.
func (s *Service) Bookmark(ctx context.Context, userID, movieID string) (*BookmarkState, error) {
	const op = "movies.Service.Bookmark"
	log := s.log.With("op", op, "user_id", userID, "movie_id", movieID)
	rows, err := airtable.List[models.SavedMovieFields](ctx, s.client, airtable.TableSavedMovies, airtable.ListOptions{
		Filter: filters.And(
			filters.Equals("user_id", userID),
			filters.Equals("movie_id", movieID),
		),
		MaxRecords: 1,
	})
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}
	if len(rows) == 0 {
		return &BookmarkState{}, nil
	}
	return &BookmarkState{Saved: true, RecordID: rows[0].ID}, nil
}

// ToggleBookmark is a check-then-act sequence: delete the known row, or
// create one. It is not atomic; two concurrent toggles for the same
// pair can create two rows or race a delete. The backing store offers
// no unique constraint to lean on.
func (s *Service) ToggleBookmark(ctx context.Context, userID, movieID string) (*BookmarkState, error) {
	const op = "movies.Service.ToggleBookmark"
	log := s.log.With("op", op, "user_id", userID, "movie_id", movieID)

	state, err := s.Bookmark(ctx, userID, movieID)
	if err != nil {
		return nil, err
	}
	if state.Saved {
		if err := airtable.Delete(ctx, s.client, airtable.TableSavedMovies, state.RecordID); err != nil {
			log.Error(err.Error())
			return nil, err
		}
		return &BookmarkState{}, nil
	}
	rec, err := airtable.Create[models.SavedMovieFields](ctx, s.client, airtable.TableSavedMovies, models.SavedMovieFields{
		UserID:  userID,
		MovieID: []string{movieID},
	})
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}
	return &BookmarkState{Saved: true, RecordID: rec.ID}, nil
}
