package storage

import (
	"time"

	"github.com/pders01/reel/internal/catalog"
)

type Favorite struct {
	UserID      string    `json:"user_id"`
	MovieID     int64     `json:"movie_id"`
	Title       string    `json:"title"`
	PosterURL   string    `json:"poster_url"`
	VoteAverage float64   `json:"vote_average"`
	ReleaseDate string    `json:"release_date"`
	Overview    string    `json:"overview"`
	CreatedAt   time.Time `json:"created_at"`
}

// FavoriteFrom builds a favorite record for a catalog movie.
func FavoriteFrom(userID string, m catalog.Movie, imageBase string) *Favorite {
	return &Favorite{
		UserID:      userID,
		MovieID:     m.ID,
		Title:       m.Title,
		PosterURL:   m.PosterURL(imageBase),
		VoteAverage: m.VoteAverage,
		ReleaseDate: m.ReleaseDate,
		Overview:    m.Overview,
	}
}

type Rating struct {
	UserID    string    `json:"user_id"`
	MovieID   int64     `json:"movie_id"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type genreCache struct {
	Genres    []catalog.Genre `json:"genres"`
	FetchedAt time.Time       `json:"fetched_at"`
}
