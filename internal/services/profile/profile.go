package profile

import (
	"context"
	"log/slog"

	"moviecenter/proj/internal/domain/fields"
	"moviecenter/proj/internal/domain/filters"
	"moviecenter/proj/internal/domain/models"
	"moviecenter/proj/internal/lib/validator"
	"moviecenter/proj/internal/storage/airtable"
	"moviecenter/proj/internal/storage/relations"

	govalidator "github.com/go-playground/validator/v10"
)

type Service struct {
	log       *slog.Logger
	client    *airtable.Client
	resolver  *relations.Resolver
	validator *govalidator.Validate
}

func New(log *slog.Logger, client *airtable.Client, resolver *relations.Resolver, v *govalidator.Validate) *Service {
	return &Service{
		log:       log,
		client:    client,
		resolver:  resolver,
		validator: v,
	}
}

// Profile is the composite "user + saved movies" view. The value is a
// request-scoped snapshot; nothing in it is live.
type Profile struct {
	User        airtable.Record[models.UserFields]
	SavedMovies []airtable.Record[models.MovieFields]
}

// UserByEmail looks a user up by case-insensitive email match. Email
// uniqueness is a convention the store does not enforce; when duplicates
// exist the first returned row wins.
func (s *Service) UserByEmail(ctx context.Context, email fields.Email) (*airtable.Record[models.UserFields], error) {
	const op = "profile.Service.UserByEmail"
	log := s.log.With("op", op, "email", email.Normalized())
	users, err := airtable.List[models.UserFields](ctx, s.client, airtable.TableUsers, airtable.ListOptions{
		Filter: filters.EqualsFold("email", string(email)),
	})
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}
	if len(users) == 0 {
		log.Info("user not found")
		return nil, ErrUserNotFound
	}
	return &users[0], nil
}

// Get resolves the full profile view. Saved movies resolve with the
// strict policy: a library view with silently missing entries is worse
// than a retryable failure.
func (s *Service) Get(ctx context.Context, email fields.Email) (*Profile, error) {
	const op = "profile.Service.Get"
	log := s.log.With("op", op, "email", email.Normalized())

	user, err := s.UserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	saved, err := relations.Resolve[models.SavedMovieFields, models.MovieFields](
		ctx, s.resolver, relations.Query{
			JunctionTable: airtable.TableSavedMovies,
			ForeignKey:    "user_id",
			ParentID:      user.ID,
			TargetTable:   airtable.TableMovies,
		}, relations.Strict,
		func(f models.SavedMovieFields) []string { return f.MovieID },
	)
	if err != nil {
		log.Error("saved movies resolution failed", "err", err.Error())
		return nil, err
	}
	return &Profile{User: *user, SavedMovies: saved}, nil
}

// SignIn is the data-access half of signing in: it proves a user row
// exists for the email. The password column is a placeholder upstream
// and is deliberately not checked.
func (s *Service) SignIn(ctx context.Context, email fields.Email) (*airtable.Record[models.UserFields], error) {
	return s.UserByEmail(ctx, email)
}

type UpdateInput struct {
	Name  string       `json:"name" validate:"omitempty,max=120"`
	Email fields.Email `json:"email" validate:"omitempty,email"`
}

// Update patches the given profile fields. There is no concurrency
// token in the data model; the last writer wins.
func (s *Service) Update(ctx context.Context, userID string, input UpdateInput) (*airtable.Record[models.UserFields], error) {
	const op = "profile.Service.Update"
	log := s.log.With("op", op, "user_id", userID)
	if errs := validator.ValidateStruct(s.validator, input); errs != nil {
		log.Info("invalid profile update", "fields", errs)
		return nil, &InvalidInputError{Fields: errs}
	}
	rec, err := airtable.Update[models.UserFields](ctx, s.client, airtable.TableUsers, userID, models.UserFields{
		Name:  input.Name,
		Email: input.Email,
	})
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}
	return rec, nil
}

type updateImageInput struct {
	Image string `json:"profile_image" validate:"required,url"`
}

// UpdateImage patches only the profile image URL.
func (s *Service) UpdateImage(ctx context.Context, userID, imageURL string) (*airtable.Record[models.UserFields], error) {
	const op = "profile.Service.UpdateImage"
	log := s.log.With("op", op, "user_id", userID)
	if errs := validator.ValidateStruct(s.validator, updateImageInput{Image: imageURL}); errs != nil {
		log.Info("invalid profile image", "fields", errs)
		return nil, &InvalidInputError{Fields: errs}
	}
	rec, err := airtable.Update[models.UserFields](ctx, s.client, airtable.TableUsers, userID, models.UserFields{
		ProfileImage: imageURL,
	})
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}
	return rec, nil
}
