package reviews

import (
	"context"
	"log/slog"
	"slices"

	"moviecenter/proj/internal/domain/filters"
	"moviecenter/proj/internal/domain/models"
	"moviecenter/proj/internal/lib/validator"
	"moviecenter/proj/internal/storage/airtable"

	govalidator "github.com/go-playground/validator/v10"
)

type Service struct {
	log       *slog.Logger
	client    *airtable.Client
	validator *govalidator.Validate
}

func New(log *slog.Logger, client *airtable.Client, v *govalidator.Validate) *Service {
	return &Service{
		log:       log,
		client:    client,
		validator: v,
	}
}

// ForMovie lists a movie's reviews, newest first. The sort happens here
// because the store returns list rows in server-defined order.
func (s *Service) ForMovie(ctx context.Context, movieID string) ([]airtable.Record[models.ReviewFields], error) {
	const op = "reviews.Service.ForMovie"
	log := s.log.With("op", op, "movie_id", movieID)
	recs, err := airtable.List[models.ReviewFields](ctx, s.client, airtable.TableReviews, airtable.ListOptions{
		Filter: filters.Equals("movie_id", movieID),
	})
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}
	slices.SortFunc(recs, func(a, b airtable.Record[models.ReviewFields]) int {
		return b.CreatedTime.Compare(a.CreatedTime)
	})
	return recs, nil
}

type PostInput struct {
	MovieID string  `json:"movie_id" validate:"required"`
	UserID  string  `json:"user_id" validate:"required"`
	Text    string  `json:"review_text" validate:"required,max=2000"`
	Rating  float64 `json:"rate" validate:"gte=0,lte=10"`
}

// Post creates one review record. There is no idempotency guard; a
// caller that retries a slow submission can post the review twice.
func (s *Service) Post(ctx context.Context, input PostInput) (*airtable.Record[models.ReviewFields], error) {
	const op = "reviews.Service.Post"
	log := s.log.With("op", op, "movie_id", input.MovieID, "user_id", input.UserID)
	if errs := validator.ValidateStruct(s.validator, input); errs != nil {
		log.Info("invalid review", "fields", errs)
		return nil, &InvalidInputError{Fields: errs}
	}
	rec, err := airtable.Create[models.ReviewFields](ctx, s.client, airtable.TableReviews, models.ReviewFields{
		ReviewText: input.Text,
		Rate:       input.Rating,
		MovieID:    input.MovieID,
		UserID:     input.UserID,
	})
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}
	return rec, nil
}
