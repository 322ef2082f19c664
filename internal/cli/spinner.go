package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner redraws a one-line status on w until stopped or ctx is done.
type Spinner struct {
	w      io.Writer
	ctx    context.Context
	cancel context.CancelFunc
	exited chan struct{}
	once   sync.Once

	mu      sync.Mutex
	message string
	width   int // longest message drawn
}

func newSpinner(ctx context.Context, w io.Writer, message string) *Spinner {
	ctx, cancel := context.WithCancel(ctx)
	return &Spinner{
		w:       w,
		ctx:     ctx,
		cancel:  cancel,
		exited:  make(chan struct{}),
		message: message,
		width:   len(message),
	}
}

// Start draws frames every 80ms in a background goroutine.
func (s *Spinner) Start() {
	go func() {
		defer close(s.exited)
		tick := time.NewTicker(80 * time.Millisecond)
		defer tick.Stop()
		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				return
			case <-tick.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

// SetMessage replaces the status text. Safe for concurrent use.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.width = max(s.width, len(message))
	s.mu.Unlock()
}

// Stop halts the animation and blanks the line. Further calls are no-ops.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		<-s.exited
		s.mu.Lock()
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width+4))
		s.mu.Unlock()
	})
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.message))
}
