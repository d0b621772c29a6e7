package services

import (
	"log/slog"

	"moviecenter/proj/internal/config"
	"moviecenter/proj/internal/services/movies"
	"moviecenter/proj/internal/services/profile"
	"moviecenter/proj/internal/services/reviews"
	"moviecenter/proj/internal/storage/airtable"
	"moviecenter/proj/internal/storage/relations"

	govalidator "github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"
)

type Services struct {
	Profile *profile.Service
	Movies  *movies.Service
	Reviews *reviews.Service
}

func New(log *slog.Logger, cfg *config.Config) (*Services, error) {
	var limiter *rate.Limiter
	if cfg.Limiter.Enabled {
		limiter = rate.NewLimiter(rate.Limit(cfg.Limiter.Rps), cfg.Limiter.Burst)
	}
	client, err := airtable.New(log, cfg.Airtable.BaseURL, cfg.Airtable.Token, cfg.Airtable.Timeout, limiter)
	if err != nil {
		return nil, err
	}
	v := govalidator.New(govalidator.WithRequiredStructEnabled())
	resolver := relations.New(log, client, cfg.Airtable.MaxInFlight)
	profiles := profile.New(log, client, resolver, v)
	revs := reviews.New(log, client, v)
	return &Services{
		Profile: profiles,
		Reviews: revs,
		Movies:  movies.New(log, client, resolver, profiles, revs),
	}, nil
}
