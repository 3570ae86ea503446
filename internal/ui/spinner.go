// Package ui renders terminal output for long-running generation commands.
package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner renders an animated single-line status while a job runs.
type Spinner struct {
	mu        sync.Mutex
	message   string
	detail    string
	running   bool
	done      chan struct{}
	writer    io.Writer
	startTime time.Time
}

// NewSpinner creates a spinner writing to stdout.
func NewSpinner() *Spinner {
	return &Spinner{writer: os.Stdout}
}

// SetWriter sets the output writer.
func (s *Spinner) SetWriter(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer = w
}

// Start begins the animation with a message.
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.message = message
	s.detail = ""
	s.running = true
	s.done = make(chan struct{})
	s.startTime = time.Now()
	s.mu.Unlock()

	go s.animate()
}

// Update changes the message and detail while running.
func (s *Spinner) Update(message, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
	s.detail = detail
}

// Stop ends the animation and prints an optional final line.
func (s *Spinner) Stop(finalMessage string) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.done)
	writer := s.writer
	s.mu.Unlock()

	fmt.Fprint(writer, "\r\033[K")
	if finalMessage != "" {
		fmt.Fprintln(writer, finalMessage)
	}
}

// Success stops with a green checkmark.
func (s *Spinner) Success(message string) {
	s.Stop(color.GreenString("✓") + " " + message)
}

// Fail stops with a red X.
func (s *Spinner) Fail(message string) {
	s.Stop(color.RedString("✗") + " " + message)
}

func (s *Spinner) animate() {
	frameIndex := 0
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			frame := spinnerFrames[frameIndex%len(spinnerFrames)]
			message := s.message
			detail := s.detail
			elapsed := time.Since(s.startTime)
			writer := s.writer
			s.mu.Unlock()

			var detailStr string
			if detail != "" {
				detailStr = color.HiBlackString(" %s", detail)
			}
			var timeStr string
			if elapsed > time.Second {
				timeStr = color.HiBlackString(" (%s)", formatDuration(elapsed))
			}

			fmt.Fprint(writer, "\r\033[K")
			fmt.Fprintf(writer, "%s %s%s%s", color.CyanString(frame), message, detailStr, timeStr)
			frameIndex++
		}
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%ds", minutes, seconds)
}
