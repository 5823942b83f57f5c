package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/r3labs/diff/v3"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/mytube/mytube/async"
	"github.com/mytube/mytube/internal/pubsub"
	"github.com/mytube/mytube/internal/session"
)

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// terminal renders task events: a progress bar per running task when attached to a terminal, log lines otherwise.
type terminal struct {
	mu          sync.Mutex
	w           io.Writer
	log         *zap.SugaredLogger
	interactive bool
	bars        map[session.TaskID]*progressbar.ProgressBar
	last        map[session.TaskID]session.Task
}

func newTerminal(w io.Writer, log *zap.SugaredLogger) *terminal {
	return &terminal{
		w:           w,
		log:         log.Named("ui"),
		interactive: w == os.Stdout && isTerminal(os.Stdout),
		bars:        make(map[session.TaskID]*progressbar.ProgressBar),
		last:        make(map[session.TaskID]session.Task),
	}
}

func (t *terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, format, args...)
}

// watch consumes events until the subscription is closed.
func (t *terminal) watch(events pubsub.Subscription[session.Event]) {
	for event := range events.Receive() {
		t.logChanges(event.Task())
		t.mu.Lock()
		switch e := event.(type) {
		case session.TaskStarted:
			t.start(e.Task())
		case session.TaskProgress:
			if bar, ok := t.bars[e.Task().ID]; ok {
				_ = bar.Set(int(e.Percent))
			}
		case session.TaskFinished:
			t.finish(e.Task(), e.Err)
		}
		t.mu.Unlock()
	}
}

func (t *terminal) start(task session.Task) {
	if !t.interactive {
		t.log.Infof("Downloading %q", task.Title)
		return
	}
	t.bars[task.ID] = progressbar.NewOptions(100,
		progressbar.OptionSetWriter(t.w),
		progressbar.OptionSetDescription(truncate(task.Title, 40)),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
	)
}

func (t *terminal) finish(task session.Task, err error) {
	if bar, ok := t.bars[task.ID]; ok {
		if err == nil {
			_ = bar.Finish()
		} else {
			_ = bar.Clear()
		}
		delete(t.bars, task.ID)
	}
	delete(t.last, task.ID)
	if err != nil {
		t.log.Warnf("Failed to download %q: %v", task.Title, err)
	}
}

// logChanges writes each changed field of a task to the debug log.
func (t *terminal) logChanges(task session.Task) {
	t.mu.Lock()
	old := t.last[task.ID]
	t.last[task.ID] = task
	t.mu.Unlock()
	changes, err := diff.Diff(old, task)
	if err != nil {
		t.log.Errorf("failed to diff old and new task state: %v", err)
		return
	}
	for _, change := range changes {
		t.log.Debugf("%s: %v: %#v -> %#v", task.ID, change.Path, change.From, change.To)
	}
}

func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}

// terminalConfirmer asks questions on the terminal. Without a terminal to ask on, the answer is always no, unless
// assumeYes is set.
type terminalConfirmer struct {
	in          *bufio.Reader
	out         io.Writer
	assumeYes   bool
	interactive bool
}

func newTerminalConfirmer(in *os.File, out io.Writer, assumeYes bool) *terminalConfirmer {
	return &terminalConfirmer{
		in:          bufio.NewReader(in),
		out:         out,
		assumeYes:   assumeYes,
		interactive: isTerminal(in),
	}
}

func (c *terminalConfirmer) Confirm(ctx context.Context, question string) (bool, error) {
	if c.assumeYes {
		fmt.Fprintf(c.out, "%s yes\n", question)
		return true, nil
	}
	if !c.interactive {
		fmt.Fprintf(c.out, "%s no (not a terminal, use --yes to accept)\n", question)
		return false, nil
	}
	fmt.Fprintf(c.out, "%s [y/N] ", question)
	type answer struct {
		line string
		err  error
	}
	result := async.Run(func() answer {
		line, err := c.in.ReadString('\n')
		return answer{line, err}
	})
	select {
	case a := <-result:
		if a.err != nil && a.err != io.EOF {
			return false, a.err
		}
		reply := strings.ToLower(strings.TrimSpace(a.line))
		return reply == "y" || reply == "yes", nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
