// Package selector picks which of a channel's videos to download, by upload recency and keywords.
package selector

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mytube/mytube"
	"github.com/mytube/mytube/generic"
)

// Window is a recency limit in whole days.
type Window int

// Unbounded accepts videos of any age.
const Unbounded Window = -1

// Named windows offered to the user.
var Windows = map[string]Window{
	"day":   1,
	"week":  7,
	"month": 31,
	"year":  365,
	"all":   Unbounded,
}

// ParseWindow accepts a name from Windows (case-insensitive) or a non-negative number of days.
func ParseWindow(s string) (Window, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if w, ok := Windows[s]; ok {
		return w, nil
	}
	if days, err := strconv.Atoi(s); err == nil && days >= 0 {
		return Window(days), nil
	}
	return 0, fmt.Errorf("unknown timeframe %q", s)
}

func (w Window) String() string {
	if w == Unbounded {
		return "all"
	}
	return fmt.Sprintf("%dd", int(w))
}

// ParseKeywords splits a comma separated list into trimmed, lower-case tokens, dropping empty ones. An empty result
// means no keyword filtering.
func ParseKeywords(raw string) []string {
	var keywords []string
	for _, token := range strings.Split(raw, ",") {
		if token = strings.ToLower(strings.TrimSpace(token)); token != "" {
			keywords = append(keywords, token)
		}
	}
	return keywords
}

type Filter struct {
	Window Window
	// Keywords must already be normalised, see ParseKeywords.
	Keywords []string
	Now      func() time.Time
}

func NewFilter(window Window, rawKeywords string) Filter {
	return Filter{
		Window:   window,
		Keywords: ParseKeywords(rawKeywords),
		Now:      time.Now,
	}
}

func (f Filter) now() time.Time {
	if f.Now == nil {
		return time.Now()
	}
	return f.Now()
}

// WithinWindow reports whether the video was published no more than Window whole days ago.
func (f Filter) WithinWindow(v *mytube.VideoRef) bool {
	if f.Window == Unbounded {
		return true
	}
	days := int(math.Floor(f.now().Sub(v.PublishDate).Hours() / 24))
	return days <= int(f.Window)
}

// MatchesKeywords reports whether any keyword equals one of the video's tags or occurs literally in its title.
func (f Filter) MatchesKeywords(v *mytube.VideoRef) bool {
	if len(f.Keywords) == 0 {
		return true
	}
	tags := generic.Map(v.Keywords, func(tag string) string {
		return strings.ToLower(strings.TrimSpace(tag))
	})
	title := strings.ToLower(v.Title)
	for _, keyword := range f.Keywords {
		if tags.Contains(keyword) || strings.Contains(title, keyword) {
			return true
		}
	}
	return false
}

// Select returns the matching videos in their original order. Videos must be newest first: the scan stops at the
// first video outside the window, and anything after it is never considered.
func (f Filter) Select(videos []mytube.VideoRef) []mytube.VideoRef {
	selected, _ := f.SelectFrom(context.Background(), mytube.NewSliceIterator(videos))
	return selected
}

// SelectFrom is like Select but pulls from an iterator, so videos after the cut-off are never fetched.
func (f Filter) SelectFrom(ctx context.Context, it mytube.VideoIterator) ([]mytube.VideoRef, error) {
	var selected []mytube.VideoRef
	for {
		v, err := it.Next(ctx)
		if err == io.EOF {
			return selected, nil
		} else if err != nil {
			return selected, err
		}
		if !f.WithinWindow(v) {
			return selected, nil
		}
		if f.MatchesKeywords(v) {
			selected = append(selected, *v)
		}
	}
}
