package ui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/soratui/internal/workflow"
)

// chanSurface connects the workflow goroutine to the Bubble Tea loop. Fields
// are captured on the UI goroutine before each trigger; log lines travel over
// a buffered channel drained by waitForLine.
type chanSurface struct {
	mu     sync.Mutex
	fields workflow.Fields

	lines chan logLineMsg
	done  chan struct{}
	once  sync.Once
}

func newChanSurface() *chanSurface {
	return &chanSurface{
		lines: make(chan logLineMsg, LogChannelBuffer),
		done:  make(chan struct{}),
	}
}

func (s *chanSurface) setFields(f workflow.Fields) {
	s.mu.Lock()
	s.fields = f
	s.mu.Unlock()
}

// Fields implements workflow.Surface.
func (s *chanSurface) Fields() workflow.Fields {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fields
}

// Log implements workflow.Surface. It blocks when the buffer is full and
// drops the line once the UI has shut down.
func (s *chanSurface) Log(line string) {
	msg := logLineMsg{at: time.Now(), text: line}
	select {
	case s.lines <- msg:
	case <-s.done:
	}
}

func (s *chanSurface) close() {
	s.once.Do(func() { close(s.done) })
}

type logLineMsg struct {
	at   time.Time
	text string
}

// waitForLine delivers the next workflow line. Update re-arms it after every
// line so exactly one read is outstanding.
func waitForLine(s *chanSurface) tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-s.lines:
			return msg
		case <-s.done:
			return nil
		}
	}
}
