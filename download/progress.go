package download

import (
	"context"
	"io"

	"github.com/mytube/mytube"
)

// progressWriter discards data but counts it, reporting a percentage every interval bytes. Put it last in an
// io.MultiWriter so failed writes are not counted.
type progressWriter struct {
	total        int64
	received     int64
	lastReported int64
	interval     int64
	report       mytube.ProgressFunc
}

func newProgressWriter(total int64, interval int64, report mytube.ProgressFunc) *progressWriter {
	return &progressWriter{total: total, interval: interval, report: report}
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.received += int64(len(p))
	if w.received-w.lastReported >= w.interval {
		w.emit()
	}
	return len(p), nil
}

func (w *progressWriter) percent() float64 {
	if w.total <= 0 {
		return 0
	}
	pct := float64(w.received) * 100 / float64(w.total)
	if pct > 100 {
		pct = 100
	}
	return pct
}

func (w *progressWriter) emit() {
	w.lastReported = w.received
	if w.report != nil {
		w.report(w.percent())
	}
}

func (w *progressWriter) finish() {
	if w.report != nil {
		w.report(100)
	}
}

// readerContext stops reading once its context is done.
type readerContext struct {
	ctx context.Context
	r   io.Reader
}

func (r *readerContext) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
