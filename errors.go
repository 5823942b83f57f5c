package mytube

import "errors"

var (
	// ErrInvalidReference means a URL or channel/playlist identifier could not be understood.
	ErrInvalidReference = errors.New("invalid reference")
	// ErrNoPlayableResolution means every tier down to the bottom of the ladder was tried without success.
	ErrNoPlayableResolution = errors.New("no playable resolution available")
	// ErrTransferInterrupted is raised by a stream when the remote side closes it mid-transfer.
	ErrTransferInterrupted  = errors.New("transfer interrupted")
	ErrConnectivity         = errors.New("connectivity error")
	ErrNoMatchFound         = errors.New("no matching playlist found")
	ErrNoCandidatesSelected = errors.New("no videos matched the filters")
	ErrInvalidSaveDir       = errors.New("invalid save directory")
)

// UserMessage turns an error into the text shown to the user. Unclassified errors are shown as-is.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidReference):
		return "Please enter a valid YouTube URL or name."
	case errors.Is(err, ErrConnectivity):
		return "Could not reach YouTube, please check your internet connection."
	case errors.Is(err, ErrNoMatchFound):
		return "Channel playlists not found. Please check that the channel name is correct."
	case errors.Is(err, ErrNoCandidatesSelected):
		return "No videos on the channel matched the timeframe and keywords."
	case errors.Is(err, ErrInvalidSaveDir):
		return "Please enter a valid save directory."
	case errors.Is(err, ErrNoPlayableResolution):
		return "No playable resolution available for this video."
	default:
		return err.Error()
	}
}
