// Package movie turns raw KMDb records into display-safe card models.
package movie

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
)

const (
	// PlaceholderTitle is shown when a record carries no usable title.
	PlaceholderTitle = "untitled"
	// PlaceholderPlot is shown when a record carries no synopsis.
	PlaceholderPlot = "no synopsis"

	// DefaultPosterPath backs every card whose record has no poster.
	DefaultPosterPath = "/static/image/no_image.jpeg"

	// DefaultPosterDelimiter separates the multi-value posters field. KMDb
	// has shipped both "," and "|" across API revisions, so it stays
	// configurable.
	DefaultPosterDelimiter = "|"

	defaultPlotLimit = 80
)

// DefaultMovieTable maps cleaned KMDb titles to the short ids the dialogue
// backend knows about.
var DefaultMovieTable = map[string]string{
	"극한직업": "extreme_job",
	"암수살인": "DarkFigureofCrime",
	"1987": "1987",
	"도가니":  "dogani",
	"더킹":   "theking",
	"기생충":  "parasite",
}

// Record is the externally-owned KMDb schema. Fields are only projected,
// never trusted.
type Record struct {
	Title    string   `json:"title"`
	ProdYear FlexYear `json:"prodYear"`
	Genre    string   `json:"genre"`
	Posters  string   `json:"posters"`
	Plots    *Plots   `json:"plots"`
}

type Plots struct {
	Plot []PlotEntry `json:"plot"`
}

type PlotEntry struct {
	PlotText string `json:"plotText"`
}

// FlexYear accepts prodYear as either a JSON string or number.
type FlexYear string

func (y *FlexYear) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*y = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*y = FlexYear(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*y = FlexYear(n.String())
	return nil
}

// DisplayMovie is the renderer-owned projection, safe for direct
// presentation. PosterURL is never empty; MappedMovieID is non-empty exactly
// when the movie is chat-eligible.
type DisplayMovie struct {
	Title         string `json:"title"`
	Year          string `json:"year"`
	Genre         string `json:"genre"`
	PosterURL     string `json:"posterUrl"`
	PlotExcerpt   string `json:"plotExcerpt"`
	MappedMovieID string `json:"mappedMovieId,omitempty"`
}

type Renderer struct {
	posterDelim   string
	defaultPoster string
	plotLimit     int
	movieIDs      map[string]string
}

// Options override renderer defaults. Zero values keep the default.
type Options struct {
	PosterDelimiter string
	DefaultPoster   string
	PlotLimit       int
	MovieTable      map[string]string
}

func NewRenderer(opts Options) *Renderer {
	r := &Renderer{
		posterDelim:   DefaultPosterDelimiter,
		defaultPoster: DefaultPosterPath,
		plotLimit:     defaultPlotLimit,
		movieIDs:      DefaultMovieTable,
	}
	if opts.PosterDelimiter != "" {
		r.posterDelim = opts.PosterDelimiter
	}
	if opts.DefaultPoster != "" {
		r.defaultPoster = opts.DefaultPoster
	}
	if opts.PlotLimit > 0 {
		r.plotLimit = opts.PlotLimit
	}
	if opts.MovieTable != nil {
		r.movieIDs = opts.MovieTable
	}
	return r
}

// Render projects one raw record into a DisplayMovie. It never fails on
// missing or empty fields; it fails only when the record cannot be decoded
// at all.
func (r *Renderer) Render(raw json.RawMessage) (DisplayMovie, error) {
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return DisplayMovie{}, fmt.Errorf("decode record: %w", err)
	}

	title := CleanTitle(rec.Title)
	if title == "" {
		title = PlaceholderTitle
	}

	return DisplayMovie{
		Title:         title,
		Year:          string(rec.ProdYear),
		Genre:         rec.Genre,
		PosterURL:     r.posterURL(rec.Posters),
		PlotExcerpt:   r.plotExcerpt(rec.Plots),
		MappedMovieID: r.MappedID(title),
	}, nil
}

// RenderAll renders a batch, isolating per-record failures: a bad record is
// logged and skipped, the rest of the batch still renders. The returned list
// is fully reshuffled, so callers must not rely on its order.
func (r *Renderer) RenderAll(batch []json.RawMessage) []DisplayMovie {
	out := make([]DisplayMovie, 0, len(batch))
	for i, raw := range batch {
		dm, err := r.renderIsolated(raw)
		if err != nil {
			slog.Warn("render: record skipped", slog.Int("index", i), slog.Any("err", err))
			continue
		}
		out = append(out, dm)
	}
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

func (r *Renderer) renderIsolated(raw json.RawMessage) (dm DisplayMovie, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("render panic: %v", rec)
		}
	}()
	return r.Render(raw)
}

func (r *Renderer) posterURL(posters string) string {
	for _, part := range strings.Split(posters, r.posterDelim) {
		if part = strings.TrimSpace(part); part != "" {
			return part
		}
	}
	return r.defaultPoster
}

func (r *Renderer) plotExcerpt(plots *Plots) string {
	text := ""
	if plots != nil && len(plots.Plot) > 0 {
		text = strings.TrimSpace(plots.Plot[0].PlotText)
	}
	if text == "" {
		return PlaceholderPlot
	}
	runes := []rune(text)
	if len(runes) <= r.plotLimit {
		return text
	}
	return string(runes[:r.plotLimit]) + "..."
}

// MappedID resolves a cleaned title to a dialogue-backend movie id, also
// trying a whitespace-stripped variant. Empty means not chat-eligible.
func (r *Renderer) MappedID(title string) string {
	if id, ok := r.movieIDs[title]; ok {
		return id
	}
	if id, ok := r.movieIDs[strings.ReplaceAll(title, " ", "")]; ok {
		return id
	}
	return ""
}

// CleanTitle strips KMDb keyword-highlight markers and normalizes
// whitespace.
func CleanTitle(title string) string {
	title = strings.ReplaceAll(title, "!HS", "")
	title = strings.ReplaceAll(title, "!HE", "")
	return strings.Join(strings.Fields(title), " ")
}

// ParseYear returns the numeric year, or nil when the field is empty or not
// a number.
func ParseYear(year string) *int {
	year = strings.TrimSpace(year)
	if year == "" {
		return nil
	}
	val, err := strconv.Atoi(year)
	if err != nil {
		return nil
	}
	return &val
}
