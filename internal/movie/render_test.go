package movie

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderStripsMarkersAndCollapsesWhitespace(t *testing.T) {
	r := NewRenderer(Options{})

	dm, err := r.Render(json.RawMessage(`{"title":"!HSFoo!HE  Bar","posters":""}`))
	require.NoError(t, err)

	assert.Equal(t, "Foo Bar", dm.Title)
	assert.Equal(t, DefaultPosterPath, dm.PosterURL)
}

func TestRenderMissingTitleUsesPlaceholder(t *testing.T) {
	r := NewRenderer(Options{})

	dm, err := r.Render(json.RawMessage(`{"prodYear":2019}`))
	require.NoError(t, err)

	assert.Equal(t, PlaceholderTitle, dm.Title)
	assert.Equal(t, "2019", dm.Year)
}

func TestRenderNullTitleUsesPlaceholder(t *testing.T) {
	r := NewRenderer(Options{})

	dm, err := r.Render(json.RawMessage(`{"title":null,"prodYear":"1987"}`))
	require.NoError(t, err)
	assert.Equal(t, PlaceholderTitle, dm.Title)
}

func TestRenderPosterDelimiter(t *testing.T) {
	r := NewRenderer(Options{PosterDelimiter: "|"})

	dm, err := r.Render(json.RawMessage(`{"title":"t","posters":"|http://img/a.jpg|http://img/b.jpg"}`))
	require.NoError(t, err)
	assert.Equal(t, "http://img/a.jpg", dm.PosterURL)

	comma := NewRenderer(Options{PosterDelimiter: ","})
	dm, err = comma.Render(json.RawMessage(`{"title":"t","posters":"http://img/c.jpg,http://img/d.jpg"}`))
	require.NoError(t, err)
	assert.Equal(t, "http://img/c.jpg", dm.PosterURL)
}

func TestRenderPlotExcerpt(t *testing.T) {
	r := NewRenderer(Options{PlotLimit: 10})

	dm, err := r.Render(json.RawMessage(`{"title":"t","plots":{"plot":[{"plotText":"short plot"}]}}`))
	require.NoError(t, err)
	assert.Equal(t, "short plot", dm.PlotExcerpt, "no ellipsis when nothing was cut")

	long := strings.Repeat("가", 25)
	raw, err := json.Marshal(Record{Title: "t", Plots: &Plots{Plot: []PlotEntry{{PlotText: long}}}})
	require.NoError(t, err)
	dm, err = r.Render(raw)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("가", 10)+"...", dm.PlotExcerpt)

	dm, err = r.Render(json.RawMessage(`{"title":"t"}`))
	require.NoError(t, err)
	assert.Equal(t, PlaceholderPlot, dm.PlotExcerpt)
}

func TestRenderChatEligibility(t *testing.T) {
	r := NewRenderer(Options{})

	dm, err := r.Render(json.RawMessage(`{"title":"!HS극한직업!HE"}`))
	require.NoError(t, err)
	assert.Equal(t, "extreme_job", dm.MappedMovieID)

	// Whitespace-stripped variant still matches.
	dm, err = r.Render(json.RawMessage(`{"title":"극한 직업"}`))
	require.NoError(t, err)
	assert.Equal(t, "extreme_job", dm.MappedMovieID)

	dm, err = r.Render(json.RawMessage(`{"title":"모르는 영화"}`))
	require.NoError(t, err)
	assert.Empty(t, dm.MappedMovieID)
}

func TestRenderAllIsolatesBadRecords(t *testing.T) {
	r := NewRenderer(Options{})

	batch := []json.RawMessage{
		json.RawMessage(`{"title":"1987","prodYear":"2017"}`),
		json.RawMessage(`{"title":["not","a","string"]}`),
		json.RawMessage(`{"title":"도가니","prodYear":2011}`),
	}

	out := r.RenderAll(batch)
	require.Len(t, out, 2)

	titles := []string{out[0].Title, out[1].Title}
	assert.ElementsMatch(t, []string{"1987", "도가니"}, titles)
}

func TestRenderAllShufflesButKeepsMultiset(t *testing.T) {
	r := NewRenderer(Options{})

	batch := make([]json.RawMessage, 0, 10)
	want := make([]string, 0, 10)
	for _, title := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		raw, err := json.Marshal(Record{Title: title})
		require.NoError(t, err)
		batch = append(batch, raw)
		want = append(want, title)
	}

	out := r.RenderAll(batch)
	got := make([]string, 0, len(out))
	for _, dm := range out {
		got = append(got, dm.Title)
	}
	assert.ElementsMatch(t, want, got)
}

func TestFlexYear(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{"prodYear":"2019"}`), &rec))
	assert.Equal(t, FlexYear("2019"), rec.ProdYear)

	require.NoError(t, json.Unmarshal([]byte(`{"prodYear":2019}`), &rec))
	assert.Equal(t, FlexYear("2019"), rec.ProdYear)

	require.NoError(t, json.Unmarshal([]byte(`{"prodYear":null}`), &rec))
	assert.Equal(t, FlexYear(""), rec.ProdYear)
}

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "Foo Bar", CleanTitle(" !HSFoo!HE \t Bar "))
	assert.Equal(t, "", CleanTitle("!HS!HE"))
}

func TestParseYear(t *testing.T) {
	assert.Nil(t, ParseYear(""))
	assert.Nil(t, ParseYear("nineteen"))
	if y := ParseYear(" 2019 "); assert.NotNil(t, y) {
		assert.Equal(t, 2019, *y)
	}
}
