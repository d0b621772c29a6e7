// Package models declares the per-table field sets of the record
// store. Every table shares the same envelope (an opaque record id plus
// a typed field set); the structs here are the field sets. JSON tags
// mirror the store's column names exactly.
package models

import "moviecenter/proj/internal/domain/fields"

type MovieFields struct {
	Name       string   `json:"name"`
	Poster     string   `json:"poster"`
	Story      string   `json:"story"`
	Runtime    string   `json:"runtime"`
	Genre      []string `json:"genre"`
	Rating     string   `json:"rating"`      // content rating (PG-13, R, ...)
	IMDbRating float64  `json:"IMDb_rating"` // 0-10 scale, passed through unmodified
	Language   []string `json:"language"`
	Actors     []string `json:"actors,omitempty"` // denormalized actor names, optional
}

type ActorFields struct {
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

type DirectorFields struct {
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

type UserFields struct {
	Name         string       `json:"name,omitempty"`
	Email        fields.Email `json:"email,omitempty"`
	Password     string       `json:"password,omitempty"` // placeholder column, never used for auth
	ProfileImage string       `json:"profile_image,omitempty"`
}

type ReviewFields struct {
	ReviewText string  `json:"review_text,omitempty"`
	Rate       float64 `json:"rate"` // 0-10 scale; zero is a real rating, not absence
	MovieID    string  `json:"movie_id,omitempty"`
	UserID     string  `json:"user_id,omitempty"`
}

// SavedMovieFields is the bookmark junction. MovieID is list-valued in
// the store even though a row always references exactly one movie.
type SavedMovieFields struct {
	UserID  string   `json:"user_id"`
	MovieID []string `json:"movie_id"`
}

type MovieActorFields struct {
	MovieID string `json:"movie_id"`
	ActorID string `json:"actor_id"`
}

type MovieDirectorFields struct {
	MovieID    string `json:"movie_id"`
	DirectorID string `json:"director_id"`
}
