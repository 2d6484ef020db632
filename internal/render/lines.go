package render

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	domquery "github.com/kailas-cloud/bibq/internal/domain/query"
)

var placeholderRe = regexp.MustCompile(`\{([^{}]+)\}`)

var typeEmojis = map[string]string{
	"artwork":              ":art:",
	"audio recording":      ":microphone:",
	"blog post":            ":pushpin:",
	"book":                 ":green_book:",
	"book section":         ":closed_book:",
	"computer program":     ":floppy_disk:",
	"conference paper":     ":notebook:",
	"document":             ":page_facing_up:",
	"email":                ":email:",
	"encyclopedia article": ":book:",
	"forum post":           ":pushpin:",
	"journal article":      ":newspaper:",
	"magazine article":     ":page_with_curl:",
	"manuscript":           ":scroll:",
	"newspaper article":    ":newspaper:",
	"podcast":              ":video_camera:",
	"preprint":             ":bookmark:",
	"presentation":         ":bar_chart:",
	"report":               ":clipboard:",
	"thesis":               ":mortar_board:",
	"tv broadcast":         ":tv:",
	"video recording":      ":movie_camera:",
	"webpage":              ":earth_americas:",
}

const defaultEmoji = ":question:"

// LineFormatNeeds returns the extra fields a line format depends on.
func LineFormatNeeds(format string) []string {
	var out []string
	if strings.Contains(format, "{stars}") {
		out = append(out, "rank")
	}
	if strings.Contains(format, "{link}") {
		out = append(out, "title", "url")
	}
	if strings.Contains(format, "{emoji}") {
		out = append(out, "itemType")
	}
	return out
}

// Lines writes one formatted line per row. Placeholders are lower-cased headers
// plus {link}, {emoji} and {stars}.
func Lines(w io.Writer, res domquery.Result, format string) error {
	maxRank := 0.0
	if rc := res.Column("Rank"); rc >= 0 {
		for _, row := range res.Rows {
			maxRank = max(maxRank, rankOf(row[rc]))
		}
	}

	for _, rec := range records(res) {
		vals := make(map[string]string, len(rec)+3)
		for _, kv := range rec {
			vals[strings.ToLower(kv[0])] = kv[1]
		}
		vals["link"] = link(vals["title"], vals["url"])
		if e, ok := typeEmojis[vals["type"]]; ok {
			vals["emoji"] = e
		} else {
			vals["emoji"] = defaultEmoji
		}
		vals["stars"] = stars(rankOf(vals["rank"]), maxRank)

		var missing string
		line := placeholderRe.ReplaceAllStringFunc(format, func(m string) string {
			name := m[1 : len(m)-1]
			v, ok := vals[name]
			if !ok && missing == "" {
				missing = name
			}
			return v
		})
		if missing != "" {
			return fmt.Errorf("unknown placeholder {%s} in line format", missing)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("write line: %w", err)
		}
	}
	return nil
}

func link(title, url string) string {
	if url == "" || url == "-" {
		return title
	}
	return "[" + title + "](" + url + ")"
}

func rankOf(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// stars buckets r relative to the highest rank of the result.
func stars(r, maxRank float64) string {
	if maxRank <= 0 {
		return ""
	}
	r /= maxRank
	s := " :star:"
	if r == 1 {
		s = " :star2:"
	}
	switch {
	case r < .35:
		return ""
	case r < .65:
		return s
	case r < .85:
		return strings.Repeat(s, 2)
	default:
		return strings.Repeat(s, 3)
	}
}
