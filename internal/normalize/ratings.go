package normalize

import (
	"github.com/zonamobi/zonamobi/internal/content"
	"github.com/zonamobi/zonamobi/internal/upstream"
)

// ratingField returns the upstream field holding the score for a source:
// "rating_imdb", "rating_kinopoisk", or bare "rating" for the native score.
func ratingField(source content.RatingSource) string {
	if source == content.RatingNative {
		return "rating"
	}
	return "rating_" + string(source)
}

// Ratings builds one Rating per known source, in imdb, kinopoisk, native
// order. Missing or null fields give a zero rating rather than no entry.
// The entry matching preferred is flagged; an empty preference flags none.
func Ratings(t *upstream.Title, preferred content.RatingSource) []content.Rating {
	out := make([]content.Rating, 0, len(content.RatingSources))
	for _, source := range content.RatingSources {
		field := ratingField(source)

		value := t.Float(field)
		if value < 0 {
			value = 0
		}
		votes := t.Int(field + "_count")
		if votes < 0 {
			votes = 0
		}

		out = append(out, content.Rating{
			Source:    source,
			Value:     value,
			VoteCount: votes,
			Preferred: preferred != "" && source == preferred,
		})
	}
	return out
}
