package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
)

// SpinnerFrames are drawn in order, one per interval
var SpinnerFrames = []string{"|", "/", "-", "\\"}

// DefaultSpinnerMessage is shown next to the spinner while the model works
const DefaultSpinnerMessage = "Processing your request..."

var spinnerStyle = color.New(color.FgCyan)

// Spinner animates a single line while a request is in flight
type Spinner struct {
	writer   io.Writer
	frames   []string
	interval time.Duration
	mu       sync.Mutex
	running  bool
	message  string
	done     chan struct{}
}

// NewSpinner creates a spinner writing to writer
func NewSpinner(writer io.Writer) *Spinner {
	return &Spinner{
		writer:   writer,
		frames:   SpinnerFrames,
		interval: 100 * time.Millisecond,
		message:  DefaultSpinnerMessage,
	}
}

// Start begins the animation and returns a stop function. The stop function blocks until
// the line is cleared and may be called more than once.
func (s *Spinner) Start(ctx context.Context) func() {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return cancel
	}
	s.running = true
	done := make(chan struct{})
	s.done = done
	s.mu.Unlock()

	go s.run(ctx, done)

	var once sync.Once
	return func() {
		once.Do(cancel)
		<-done
	}
}

// Running reports whether the animation goroutine is active
func (s *Spinner) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Spinner) run(ctx context.Context, done chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	frameIndex := 0
	s.renderFrame(frameIndex)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprint(s.writer, "\r\033[K")
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			close(done)
			return
		case <-ticker.C:
			frameIndex = (frameIndex + 1) % len(s.frames)
			s.renderFrame(frameIndex)
		}
	}
}

func (s *Spinner) renderFrame(frameIndex int) {
	fmt.Fprintf(s.writer, "\r\033[K%s %s", spinnerStyle.Sprint(s.frames[frameIndex]), s.message)
}
