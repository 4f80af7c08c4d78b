package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// lineSpinner redraws one status line with bubbles spinner frames. It is
// used before the session view takes over the terminal.
type lineSpinner struct {
	message  string
	frames   spinner.Spinner
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

func (s *lineSpinner) run() {
	defer close(s.stopped)
	ticker := time.NewTicker(s.frames.FPS)
	defer ticker.Stop()
	for i := 0; ; i++ {
		frame := s.frames.Frames[i%len(s.frames.Frames)]
		fmt.Fprintf(Output, "\r%s %s", SpinnerStyle.Render(frame), s.message)
		select {
		case <-s.done:
			fmt.Fprint(Output, "\r\033[K")
			return
		case <-ticker.C:
		}
	}
}

func (s *lineSpinner) stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		<-s.stopped
	})
}

// RunConnectionSpinner shows message with a globe spinner until the
// returned function is called. The line is cleared on stop.
func RunConnectionSpinner(message string) func() {
	s := &lineSpinner{
		message: message,
		frames:  spinner.Globe,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.run()
	return s.stop
}
