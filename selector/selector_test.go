package selector

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	assert_ "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mytube/mytube"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(id string, days int) mytube.VideoRef {
	return mytube.VideoRef{ID: id, Title: id, PublishDate: now.Add(-time.Duration(days) * 24 * time.Hour)}
}

func filter(window Window, keywords string) Filter {
	f := NewFilter(window, keywords)
	f.Now = func() time.Time { return now }
	return f
}

func ids(videos []mytube.VideoRef) []string {
	var result []string
	for _, v := range videos {
		result = append(result, v.ID)
	}
	return result
}

func TestParseKeywords(t *testing.T) {
	assert := assert_.New(t)
	assert.Equal([]string{"cats", "dogs"}, ParseKeywords("Cats, DOGS "))
	assert.Nil(ParseKeywords(""))
	assert.Nil(ParseKeywords(" , ,"))
	assert.Equal([]string{"live music"}, ParseKeywords(",Live Music,"))
}

func TestParseWindow(t *testing.T) {
	assert := assert_.New(t)
	for name, expected := range map[string]Window{"Day": 1, "week": 7, "MONTH": 31, "year": 365, "all": Unbounded, "14": 14} {
		w, err := ParseWindow(name)
		assert.NoError(err)
		assert.Equal(expected, w, name)
	}
	_, err := ParseWindow("fortnight")
	assert.Error(err)
	_, err = ParseWindow("-3")
	assert.Error(err)
	assert.Equal("all", Unbounded.String())
	assert.Equal("7d", Window(7).String())
}

func TestSelect_ShortCircuit(t *testing.T) {
	videos := []mytube.VideoRef{daysAgo("d0", 0), daysAgo("d10", 10), daysAgo("d40", 40), daysAgo("d5", 5)}
	selected := filter(30, "").Select(videos)
	// d5 is out of order, and must not be reached once d40 fails the window
	assert_.Equal(t, []string{"d0", "d10"}, ids(selected))
}

func TestSelect_WindowBoundary(t *testing.T) {
	videos := []mytube.VideoRef{daysAgo("d7", 7), daysAgo("d8", 8)}
	assert_.Equal(t, []string{"d7"}, ids(filter(7, "").Select(videos)))
	// Less than a whole day over the boundary still counts as 7 days
	almost := mytube.VideoRef{ID: "d7.5", PublishDate: now.Add(-(7*24 + 12) * time.Hour)}
	assert_.True(t, filter(7, "").WithinWindow(&almost))
}

func TestSelect_Unbounded(t *testing.T) {
	videos := []mytube.VideoRef{daysAgo("new", 0), daysAgo("old", 5000), daysAgo("older", 20000)}
	assert_.Equal(t, []string{"new", "old", "older"}, ids(filter(Unbounded, "").Select(videos)))
}

func TestMatchesKeywords(t *testing.T) {
	assert := assert_.New(t)
	f := filter(Unbounded, "cats, dogs")

	birthday := mytube.VideoRef{Title: "My Dog's Birthday", Keywords: []string{"pets"}}
	assert.False(f.MatchesKeywords(&birthday), `"dogs" is not a substring of "dog's"`)

	title := mytube.VideoRef{Title: "Funny CATS compilation"}
	assert.True(f.MatchesKeywords(&title))

	tag := mytube.VideoRef{Title: "Untitled", Keywords: []string{" Dogs "}}
	assert.True(f.MatchesKeywords(&tag))

	partialTag := mytube.VideoRef{Title: "Untitled", Keywords: []string{"hotdogs"}}
	assert.False(f.MatchesKeywords(&partialTag), "tags must match exactly")

	substring := mytube.VideoRef{Title: "Bobcats explained"}
	assert.True(f.MatchesKeywords(&substring), "keywords are literal substrings, not words")

	assert.True(filter(Unbounded, "").MatchesKeywords(&birthday))
	assert.True(filter(Unbounded, " , ").MatchesKeywords(&birthday))
}

func TestSelect_KeywordsPreserveOrder(t *testing.T) {
	videos := []mytube.VideoRef{
		{ID: "a", Title: "cats 1", PublishDate: now},
		{ID: "b", Title: "birds", PublishDate: now},
		{ID: "c", Title: "more cats", PublishDate: now},
	}
	assert_.Equal(t, []string{"a", "c"}, ids(filter(1, "cats").Select(videos)))
	assert_.Empty(t, filter(1, "fish").Select(videos))
}

type countingIterator struct {
	videos []mytube.VideoRef
	calls  int
	err    error
}

func (it *countingIterator) Next(ctx context.Context) (*mytube.VideoRef, error) {
	if it.calls == len(it.videos) {
		if it.err != nil {
			return nil, it.err
		}
		return nil, io.EOF
	}
	v := &it.videos[it.calls]
	it.calls++
	return v, nil
}

func TestSelectFrom_StopsFetching(t *testing.T) {
	it := &countingIterator{videos: []mytube.VideoRef{daysAgo("d0", 0), daysAgo("d40", 40), daysAgo("d50", 50)}}
	selected, err := filter(30, "").SelectFrom(context.Background(), it)
	require.NoError(t, err)
	assert_.Equal(t, []string{"d0"}, ids(selected))
	assert_.Equal(t, 2, it.calls)
}

func TestSelectFrom_Error(t *testing.T) {
	boom := errors.New("boom")
	it := &countingIterator{videos: []mytube.VideoRef{daysAgo("d0", 0)}, err: boom}
	selected, err := filter(Unbounded, "").SelectFrom(context.Background(), it)
	assert_.ErrorIs(t, err, boom)
	assert_.Equal(t, []string{"d0"}, ids(selected))
}
