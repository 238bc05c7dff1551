package ui

import (
	"math"
	"strings"
)

const starCount = 5

// fillStars turns an average rating into five star values: floor(r) full
// stars, one remainder star rounded to the nearest half, then empty stars.
// Ratings outside [0,5] are clamped.
func fillStars(r float64) []float64 {
	if math.IsNaN(r) || r < 0 {
		r = 0
	}
	if r > starCount {
		r = starCount
	}

	full := int(math.Floor(r))
	stars := make([]float64, 0, starCount)
	for i := 0; i < full; i++ {
		stars = append(stars, 1)
	}
	if len(stars) < starCount {
		stars = append(stars, math.Round(math.Mod(r, 1)*2)/2)
	}
	for len(stars) < starCount {
		stars = append(stars, 0)
	}
	return stars
}

// renderStars draws star values as glyphs.
func renderStars(stars []float64, styles Styles) string {
	var b strings.Builder
	for _, s := range stars {
		switch {
		case s >= 1:
			b.WriteString(styles.Star.Render("★"))
		case s > 0:
			b.WriteString(styles.Star.Render("◐"))
		default:
			b.WriteString(styles.FaintText.Render("☆"))
		}
	}
	return b.String()
}
