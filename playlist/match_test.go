package playlist

import (
	"context"
	"errors"
	"testing"

	assert_ "github.com/stretchr/testify/assert"

	"github.com/mytube/mytube"
)

type recordingConfirmer struct {
	answers []bool
	asked   []string
}

func (c *recordingConfirmer) Confirm(_ context.Context, question string) (bool, error) {
	c.asked = append(c.asked, question)
	if len(c.answers) == 0 {
		return false, nil
	}
	answer := c.answers[0]
	c.answers = c.answers[1:]
	return answer, nil
}

func candidates(titles ...string) []mytube.PlaylistCandidate {
	var result []mytube.PlaylistCandidate
	for i, title := range titles {
		result = append(result, mytube.PlaylistCandidate{Title: title, URL: "https://www.youtube.com/playlist?list=PL" + string(rune('a'+i))})
	}
	return result
}

func TestSimilarity(t *testing.T) {
	assert := assert_.New(t)
	assert.Equal(1.0, Similarity("abc", "abc"))
	assert.Equal(1.0, Similarity("abc", "cba"), "quick ratio ignores order")
	assert.Equal(0.0, Similarity("abc", "xyz"))
	assert.Equal(1.0, Similarity("", ""))
	assert.Equal(Similarity("best of 2020", "top hits 2020"), Similarity("top hits 2020", "best of 2020"))
	assert.InDelta(22.0/24.0, Similarity("best of 2020", "best of 2021"), 1e-9)
}

func TestMatch_Exact(t *testing.T) {
	assert := assert_.New(t)
	confirm := &recordingConfirmer{}
	match, err := Match(context.Background(), "Best Of 2020", candidates("Best of 2021", "best of 2020"), confirm)
	assert.NoError(err)
	assert.Equal("best of 2020", match.Title)
	assert.Empty(confirm.asked, "exact match must not prompt")
}

func TestMatch_BelowThreshold(t *testing.T) {
	confirm := &recordingConfirmer{}
	_, err := Match(context.Background(), "Best Of 2020", candidates("Top Hits 2020"), confirm)
	assert_.True(t, errors.Is(err, mytube.ErrNoMatchFound))
	assert_.Empty(t, confirm.asked)
}

func TestMatch_FuzzyAccepted(t *testing.T) {
	assert := assert_.New(t)
	confirm := &recordingConfirmer{answers: []bool{true}}
	match, err := Match(context.Background(), "Best Of 2020", candidates("Top Hits 2020", "Best of 2021", "Best of 2022"), confirm)
	assert.NoError(err)
	assert.Equal("Best of 2021", match.Title)
	assert.Len(confirm.asked, 1, "later candidates are not considered once one is accepted")
	assert.Contains(confirm.asked[0], "Found the playlist called Best of 2021")
}

func TestMatch_FuzzyDeclinedContinues(t *testing.T) {
	assert := assert_.New(t)
	confirm := &recordingConfirmer{answers: []bool{false, true}}
	match, err := Match(context.Background(), "Best Of 2020", candidates("Best of 2021", "Top Hits 2020", "Best of 2022"), confirm)
	assert.NoError(err)
	assert.Equal("Best of 2022", match.Title)
	assert.Len(confirm.asked, 2)
}

func TestMatch_AllDeclined(t *testing.T) {
	confirm := &recordingConfirmer{answers: []bool{false, false}}
	_, err := Match(context.Background(), "Best Of 2020", candidates("Best of 2021", "Best of 2022"), confirm)
	assert_.ErrorIs(t, err, mytube.ErrNoMatchFound)
	assert_.Len(t, confirm.asked, 2)
}

func TestMatch_Empty(t *testing.T) {
	confirm := &recordingConfirmer{}
	_, err := Match(context.Background(), "anything", nil, confirm)
	assert_.ErrorIs(t, err, mytube.ErrNoMatchFound)
	assert_.Empty(t, confirm.asked)
}

func TestMatch_ConfirmError(t *testing.T) {
	boom := errors.New("prompt closed")
	confirm := mytube.ConfirmFunc(func(context.Context, string) (bool, error) { return false, boom })
	_, err := Match(context.Background(), "Best Of 2020", candidates("Best of 2021"), confirm)
	assert_.ErrorIs(t, err, boom)
}
