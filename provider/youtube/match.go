package youtube

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/mytube/mytube"
)

var (
	bareVideoIDPattern    = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)
	barePlaylistIDPattern = regexp.MustCompile(`^(PL|UU|OL|FL|RD)[0-9A-Za-z_-]{10,}$`)
)

// Register adds matchers for YouTube video, playlist and channel references.
func Register(r *mytube.MatcherRegistry) {
	r.MustCreatePriority("youtube-playlist", MatchPlaylist, mytube.PriorityDefault-1)
	r.MustCreatePriority("youtube-video", MatchVideo, mytube.PriorityDefault)
	r.MustCreatePriority("youtube-channel", MatchChannel, mytube.PriorityDefault+1)
}

func MatchVideo(s string) (*mytube.Reference, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "/") && !bareVideoIDPattern.MatchString(s) {
		return nil, fmt.Errorf("%q is not a video ID", s)
	}
	id, err := ExtractVideoID(s)
	if err != nil {
		return nil, err
	}
	return &mytube.Reference{Kind: mytube.ReferenceVideo, Value: id}, nil
}

// MatchPlaylist accepts playlist IDs and /playlist?list= URLs. Watch URLs that carry a list are videos.
func MatchPlaylist(s string) (*mytube.Reference, error) {
	s = strings.TrimSpace(s)
	if barePlaylistIDPattern.MatchString(s) {
		return &mytube.Reference{Kind: mytube.ReferencePlaylist, Value: s}, nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	if !isYouTubeHost(u.Hostname()) || u.Path != "/playlist" || u.Query().Get("list") == "" {
		return nil, fmt.Errorf("%q is not a playlist URL", s)
	}
	return &mytube.Reference{Kind: mytube.ReferencePlaylist, Value: s}, nil
}

// MatchChannel accepts channel IDs, @handles and channel page URLs.
func MatchChannel(s string) (*mytube.Reference, error) {
	s = strings.TrimSpace(s)
	if IsChannelID(s) || (strings.HasPrefix(s, "@") && len(s) > 1 && !strings.ContainsAny(s, "/ ")) {
		return &mytube.Reference{Kind: mytube.ReferenceChannel, Value: s}, nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	if !isYouTubeHost(u.Hostname()) {
		return nil, fmt.Errorf("%q is not a channel URL", s)
	}
	path := strings.Trim(u.Path, "/")
	first, _, _ := strings.Cut(path, "/")
	switch {
	case strings.HasPrefix(first, "@"), first == "channel", first == "c", first == "user":
		return &mytube.Reference{Kind: mytube.ReferenceChannel, Value: s}, nil
	default:
		return nil, fmt.Errorf("%q is not a channel URL", s)
	}
}

func isYouTubeHost(host string) bool {
	switch host {
	case "www.youtube.com", "youtube.com", "m.youtube.com":
		return true
	default:
		return false
	}
}
