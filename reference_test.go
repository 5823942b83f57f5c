package mytube

import (
	"errors"
	"strings"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func prefixMatcher(prefix string, kind ReferenceKind) MatchFunc {
	return func(s string) (*Reference, error) {
		if !strings.HasPrefix(s, prefix) {
			return nil, errors.New("wrong prefix")
		}
		return &Reference{Kind: kind, Value: strings.TrimPrefix(s, prefix)}, nil
	}
}

func TestMatcherRegistry_Add(t *testing.T) {
	assert := assert_.New(t)
	var r MatcherRegistry
	assert.Equal(ErrInvalidMatcher, r.Add(Matcher{Name: "x"}))
	assert.Equal(ErrInvalidMatcher, r.Add(Matcher{Match: prefixMatcher("v:", ReferenceVideo)}))
	assert.Nil(r.Add(Matcher{Name: "video", Match: prefixMatcher("v:", ReferenceVideo)}))
	assert.Equal(ErrDuplicateMatcher, r.Add(Matcher{Name: "video", Match: prefixMatcher("v:", ReferenceVideo)}))
	assert.Panics(func() { r.MustCreatePriority("video", prefixMatcher("v:", ReferenceVideo), 0) })
}

func TestMatcherRegistry_Priority(t *testing.T) {
	assert := assert_.New(t)
	var r MatcherRegistry
	r.MustCreatePriority("b", prefixMatcher("", ReferenceChannel), PriorityDefault)
	r.MustCreatePriority("a", prefixMatcher("", ReferenceVideo), PriorityLowest)
	r.MustCreatePriority("c", prefixMatcher("", ReferencePlaylist), PriorityHighest)
	assert.Equal([]string{"c", "b", "a"}, r.List())

	ref, err := r.Match("anything")
	assert.Nil(err)
	assert.Equal(ReferencePlaylist, ref.Kind)
	assert.Equal("c", ref.MatcherName)

	// Equal priorities keep registration order.
	assert.Nil(r.setPriority("a", PriorityHighest))
	assert.Equal([]string{"c", "a", "b"}, r.List())
	assert.Nil(r.setPriority("c", PriorityDefault))
	assert.Equal([]string{"a", "c", "b"}, r.List())
	assert.Equal(ErrUnknownMatcher, r.setPriority("missing", 0))
}

func TestMatcherRegistry_Match(t *testing.T) {
	assert := assert_.New(t)
	var r MatcherRegistry
	_, err := r.Match("v:abc")
	assert.True(errors.Is(err, ErrInvalidReference))

	r.MustCreatePriority("video", prefixMatcher("v:", ReferenceVideo), 0)
	r.MustCreatePriority("playlist", prefixMatcher("p:", ReferencePlaylist), 1)

	ref, err := r.Match("p:list")
	assert.Nil(err)
	assert.Equal(&Reference{Kind: ReferencePlaylist, Value: "list", MatcherName: "playlist"}, ref)

	_, err = r.Match("x:nothing")
	assert.True(errors.Is(err, ErrInvalidReference))
	assert.Contains(err.Error(), "[video] wrong prefix")
	assert.Contains(err.Error(), "[playlist] wrong prefix")
}
