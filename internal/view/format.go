package view

import (
	"strconv"
	"strings"
)

// Abbreviate renders a counter the way video cards show it:
// 950 -> "950", 1500 -> "1.5K", 2300000 -> "2.3M".
func Abbreviate(n uint64) string {
	switch {
	case n >= 1_000_000:
		return strconv.FormatFloat(float64(n)/1_000_000, 'f', 1, 64) + "M"
	case n >= 1_000:
		return strconv.FormatFloat(float64(n)/1_000, 'f', 1, 64) + "K"
	}
	return strconv.FormatUint(n, 10)
}

// Paragraphs splits generated text on blank lines, dropping empty pieces.
func Paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// MediumThumbnail swaps the default thumbnail for the medium-quality rendition.
func MediumThumbnail(url string) string {
	return strings.Replace(url, "/default.", "/mqdefault.", 1)
}

// WatchURL links to the watch page of a video.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
