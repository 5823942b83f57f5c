package mytube

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/mytube/mytube/generic"
)

var (
	ErrDuplicateMatcher = errors.New("duplicate matcher name")
	ErrInvalidMatcher   = errors.New("invalid matcher")
	ErrUnknownMatcher   = errors.New("unknown matcher")
)

var (
	PriorityHighest int16 = math.MinInt16
	PriorityDefault int16 = 0
	PriorityLowest  int16 = math.MaxInt16
)

// ReferenceKind says which kind of download a user-supplied reference asks for.
type ReferenceKind string

const (
	ReferenceVideo    ReferenceKind = "video"
	ReferencePlaylist ReferenceKind = "playlist"
	ReferenceChannel  ReferenceKind = "channel"
)

// A Reference is a user input that a Matcher has recognised.
type Reference struct {
	Kind ReferenceKind
	// Value is the normalised input, e.g. a bare video ID or playlist URL.
	Value       string
	MatcherName string
}

type MatchFunc = func(string) (*Reference, error)

// A Matcher recognises the inputs it knows how to handle.
type Matcher struct {
	Name  string
	Match MatchFunc
	// Priority of the matcher, lower (including negative) means matching earlier.
	Priority int16
}

// A MatcherRegistry is a collection of Matcher instances which can be used to classify references.
type MatcherRegistry struct {
	matchers   []*Matcher
	matcherMap map[string]*Matcher
}

// Add registers a Matcher. Matcher.Name and Matcher.Match must be set, and Matcher.Name must be unique within the
// MatcherRegistry.
func (r *MatcherRegistry) Add(m Matcher) error {
	if r.matcherMap == nil {
		r.matcherMap = make(map[string]*Matcher)
	}
	if m.Name == "" || m.Match == nil {
		return ErrInvalidMatcher
	}
	if _, ok := r.matcherMap[m.Name]; ok {
		return ErrDuplicateMatcher
	}
	r.matcherMap[m.Name] = &m
	r.matchers = append(r.matchers, r.matcherMap[m.Name])
	r.sortByPriority()
	return nil
}

// CreatePriority is a shortcut for Add(Matcher{Name: ..., Match: ..., Priority: ...}).
func (r *MatcherRegistry) CreatePriority(name string, f MatchFunc, priority int16) error {
	return r.Add(Matcher{
		Name:     name,
		Match:    f,
		Priority: priority,
	})
}

// MustCreatePriority wraps CreatePriority but panics if there is an error.
func (r *MatcherRegistry) MustCreatePriority(name string, f MatchFunc, priority int16) {
	generic.Unwrap_(r.CreatePriority(name, f, priority))
}

// List returns the names of registered matchers in priority order.
func (r *MatcherRegistry) List() []string {
	names := make([]string, 0, len(r.matchers))
	for _, m := range r.matchers {
		names = append(names, m.Name)
	}
	return names
}

// Match a string against each Matcher in priority order. If none match, the error wraps ErrInvalidReference and
// collects why each matcher rejected the input.
func (r *MatcherRegistry) Match(s string) (*Reference, error) {
	var result error
	for _, m := range r.matchers {
		ref, err := m.Match(s)
		if ref != nil && err == nil {
			ref.MatcherName = m.Name
			return ref, nil
		}
		if err == nil {
			err = errors.New("not matched")
		}
		result = multierror.Append(result, multierror.Prefix(err, fmt.Sprintf("[%v]", m.Name)))
	}
	if result == nil {
		return nil, fmt.Errorf("%w: no matchers registered", ErrInvalidReference)
	}
	return nil, fmt.Errorf("%w: %w", ErrInvalidReference, result)
}

// setPriority adjusts the priority of a named Matcher.
func (r *MatcherRegistry) setPriority(name string, priority int16) error {
	m, ok := r.matcherMap[name]
	if !ok {
		return ErrUnknownMatcher
	}
	m.Priority = priority
	r.sortByPriority()
	return nil
}

func (r *MatcherRegistry) sortByPriority() {
	sort.SliceStable(r.matchers, func(i, j int) bool {
		return r.matchers[i].Priority < r.matchers[j].Priority
	})
}

var DefaultMatcherRegistry MatcherRegistry
