// Package playlist finds a channel playlist by name, exactly or by close match confirmed by the user.
package playlist

import (
	"context"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/mytube/mytube"
)

// Threshold is the minimum Similarity for a close match to be suggested.
const Threshold = 0.85

// Similarity compares two strings character by character, giving a value in [0, 1].
func Similarity(a, b string) float64 {
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).QuickRatio()
}

// Question is what the user is asked about a close match.
func Question(candidate mytube.PlaylistCandidate) string {
	return fmt.Sprintf(
		"Found the playlist called %s\nThe name looks similar to what you were looking for!\nDo you want to download it?",
		candidate.Title,
	)
}

// Match returns the first candidate whose title equals target ignoring case. Failing that, each candidate at or above
// Threshold is offered to confirm in listing order, and the first accepted one is returned. ErrNoMatchFound is
// returned if nothing matched or everything was declined.
func Match(ctx context.Context, target string, candidates []mytube.PlaylistCandidate, confirm mytube.Confirmer) (mytube.PlaylistCandidate, error) {
	log := mytube.Logger(ctx).Sugar().Named("playlist")
	name := strings.ToLower(target)

	for _, c := range candidates {
		if strings.ToLower(c.Title) == name {
			log.Debugw("exact playlist match", "title", c.Title)
			return c, nil
		}
	}

	for _, c := range candidates {
		score := Similarity(name, strings.ToLower(c.Title))
		if score < Threshold {
			continue
		}
		log.Debugw("suggesting close playlist match", "title", c.Title, "similarity", score)
		accepted, err := confirm.Confirm(ctx, Question(c))
		if err != nil {
			return mytube.PlaylistCandidate{}, err
		}
		if accepted {
			return c, nil
		}
	}

	log.Infow("no playlist matched", "target", target, "candidates", len(candidates))
	return mytube.PlaylistCandidate{}, fmt.Errorf("%w: %q", mytube.ErrNoMatchFound, target)
}
