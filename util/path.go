package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// unsafeSegmentChars are removed from any user or metadata supplied path segment.
const unsafeSegmentChars = `\/|:&*?><`

var segmentReplacer = func() *strings.Replacer {
	var pairs []string
	for _, c := range unsafeSegmentChars {
		pairs = append(pairs, string(c), "")
	}
	return strings.NewReplacer(pairs...)
}()

// SanitizeSegment strips filesystem-unsafe characters from a single path segment. Nothing else is trimmed, so the
// result may be empty.
func SanitizeSegment(text string) string {
	return segmentReplacer.Replace(text)
}

// ResolveDestination joins base with each sanitized segment, creates any missing directories, and returns the absolute
// path of the result.
func ResolveDestination(base string, segments ...string) (string, error) {
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, base)
	for _, segment := range segments {
		parts = append(parts, SanitizeSegment(segment))
	}
	dir, err := filepath.Abs(filepath.Join(parts...))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create destination: %w", err)
	}
	return dir, nil
}

// OutputFilename builds the name of the downloaded file: the override if given (gaining the container extension when
// missing), otherwise the sanitized title. A non-empty prefix is rendered as "[prefix] ".
func OutputFilename(title string, override string, container string, prefix string) string {
	ext := "." + container
	var name string
	if override = strings.TrimSpace(override); override != "" {
		name = SanitizeSegment(override)
		if !strings.HasSuffix(strings.ToLower(name), ext) {
			name += ext
		}
	} else {
		name = SanitizeSegment(title) + ext
	}
	if prefix != "" {
		name = fmt.Sprintf("[%s] %s", prefix, name)
	}
	return name
}
