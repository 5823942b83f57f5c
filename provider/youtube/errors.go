package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"

	"github.com/kkdai/youtube/v2"

	"github.com/mytube/mytube"
)

// classify wraps kkdai/youtube and transport errors with the matching mytube error.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, youtube.ErrInvalidCharactersInVideoID),
		errors.Is(err, youtube.ErrVideoIDMinLength),
		errors.Is(err, youtube.ErrInvalidPlaylist):
		return fmt.Errorf("%w: %w", mytube.ErrInvalidReference, err)
	}
	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %w", mytube.ErrConnectivity, err)
	}
	return err
}

func isConnectivity(err error) bool {
	return errors.Is(err, mytube.ErrConnectivity)
}

// isInterruption reports whether a read error means the stream was closed under us.
func isInterruption(err error) bool {
	return errors.Is(err, youtube.ErrReadOnClosedResBody) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed)
}

// interruptReader turns stream closures into mytube.ErrTransferInterrupted.
type interruptReader struct {
	io.ReadCloser
}

func (r *interruptReader) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	if err != nil && err != io.EOF && isInterruption(err) {
		err = fmt.Errorf("%w: %w", mytube.ErrTransferInterrupted, err)
	}
	return n, err
}
