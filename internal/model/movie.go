package model

import "time"

// Genre classifies movies; a movie may carry several.
type Genre struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// Movie is catalog metadata.  Slug is derived from Name on creation and
// is unique.
type Movie struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Language    string    `json:"language"`
	Year        int       `json:"year"`
	Rating      *float64  `json:"rating,omitempty"`
	DurationMin int       `json:"duration_min"`
	Director    string    `json:"director"`
	Cast        string    `json:"cast"`
	TrailerURL  string    `json:"trailer_url"`
	ImageURL    string    `json:"image_url"`
	Genres      []Genre   `json:"genres"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GenreIDs returns the ids of the movie's genres.
func (m Movie) GenreIDs() []uint64 {
	out := make([]uint64, 0, len(m.Genres))
	for _, g := range m.Genres {
		out = append(out, g.ID)
	}
	return out
}
