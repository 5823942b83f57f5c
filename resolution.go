package mytube

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownResolution = errors.New("unknown resolution")

// Resolution is one quality tier of the download ladder. The zero value, ResolutionNone, means there is no lower tier
// left to try.
type Resolution int

const (
	ResolutionNone Resolution = iota
	Resolution144p
	Resolution360p
	Resolution480p
	Resolution720p
)

var resolutionLabels = map[Resolution]string{
	Resolution144p: "144p",
	Resolution360p: "360p",
	Resolution480p: "480p",
	Resolution720p: "720p",
}

// Resolutions returns the supported tiers, lowest first.
func Resolutions() []Resolution {
	return []Resolution{Resolution144p, Resolution360p, Resolution480p, Resolution720p}
}

// DefaultResolution is the highest supported tier.
func DefaultResolution() Resolution {
	return Resolution720p
}

// Downgrade returns the tier immediately below r, or ResolutionNone if r is already the lowest tier.
func (r Resolution) Downgrade() Resolution {
	if r <= Resolution144p || r > Resolution720p {
		return ResolutionNone
	}
	return r - 1
}

func (r Resolution) IsNone() bool {
	return r == ResolutionNone
}

func (r Resolution) String() string {
	if label, ok := resolutionLabels[r]; ok {
		return label
	}
	return "none"
}

// ParseResolution accepts "720p", "720" or "720P" style labels for any tier on the ladder.
func ParseResolution(s string) (Resolution, error) {
	label := strings.ToLower(strings.TrimSpace(s))
	if !strings.HasSuffix(label, "p") {
		label += "p"
	}
	for r, l := range resolutionLabels {
		if l == label {
			return r, nil
		}
	}
	return ResolutionNone, fmt.Errorf("%w: %q", ErrUnknownResolution, s)
}
