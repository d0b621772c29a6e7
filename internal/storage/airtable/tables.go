package airtable

// Table path segments, one per entity plus the two junctions.
const (
	TableMovies         = "movies"
	TableActors         = "actors"
	TableDirectors      = "directors"
	TableUsers          = "users"
	TableReviews        = "reviews"
	TableSavedMovies    = "saved_movies"
	TableMovieActors    = "movie_actors"
	TableMovieDirectors = "movie_directors"
)
