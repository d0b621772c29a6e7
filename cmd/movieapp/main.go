package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"moviecenter/proj/internal/config"
	"moviecenter/proj/internal/domain/fields"
	"moviecenter/proj/internal/lib/logger"
	"moviecenter/proj/internal/services"
	"moviecenter/proj/internal/services/reviews"

	"github.com/joho/godotenv"
)

const version = "1.0.0"

func main() {
	cfgPath := flag.String("config", "config/local.yml", "path to config file")
	timeout := flag.Duration("timeout", 30*time.Second, "overall deadline for the command")
	flag.Parse()

	godotenv.Load()
	cfg := config.MustLoad(*cfgPath)
	log := logger.SetupLogger(cfg.Debug)
	log.Debug("starting", "version", version, "base_url", cfg.Airtable.BaseURL)

	svcs, err := services.New(log, cfg)
	if err != nil {
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	out, err := run(ctx, svcs, flag.Args())
	if err != nil {
		log.Error("command failed", "err", err.Error())
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, svcs *services.Services, args []string) (any, error) {
	if len(args) == 0 {
		return nil, usageError()
	}
	switch cmd, rest := args[0], args[1:]; cmd {
	case "catalog":
		return svcs.Movies.Catalog(ctx)
	case "profile":
		if len(rest) != 1 {
			return nil, fmt.Errorf("usage: profile <email>")
		}
		return svcs.Profile.Get(ctx, fields.Email(rest[0]))
	case "movie":
		if len(rest) != 2 {
			return nil, fmt.Errorf("usage: movie <movie-id> <email>")
		}
		return svcs.Movies.Details(ctx, rest[0], fields.Email(rest[1]))
	case "review":
		if len(rest) != 4 {
			return nil, fmt.Errorf("usage: review <movie-id> <user-id> <rating> <text>")
		}
		rating, err := strconv.ParseFloat(rest[2], 64)
		if err != nil {
			return nil, fmt.Errorf("rating must be a number: %w", err)
		}
		return svcs.Reviews.Post(ctx, reviews.PostInput{
			MovieID: rest[0],
			UserID:  rest[1],
			Rating:  rating,
			Text:    rest[3],
		})
	case "bookmark":
		if len(rest) != 2 {
			return nil, fmt.Errorf("usage: bookmark <user-id> <movie-id>")
		}
		return svcs.Movies.ToggleBookmark(ctx, rest[0], rest[1])
	default:
		return nil, usageError()
	}
}

func usageError() error {
	return fmt.Errorf("expected one of: catalog, profile, movie, review, bookmark")
}
