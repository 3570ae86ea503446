package ui

import (
	"fmt"
	"strings"

	"github.com/linguara-ai/linguara-cli/internal/poll"
)

// ProgressBar renders a fixed-width text progress bar for a 0-100 value.
func ProgressBar(progress int, width int) string {
	if width <= 0 {
		width = 20
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	filled := progress * width / 100
	return fmt.Sprintf("[%s%s] %3d%%",
		strings.Repeat("█", filled),
		strings.Repeat("░", width-filled),
		progress)
}

// SnapshotLine formats a poller snapshot as a spinner message and detail.
func SnapshotLine(snap poll.Snapshot) (message, detail string) {
	switch snap.Status {
	case poll.StatusQueued:
		message = "Waiting in queue..."
	case poll.StatusRunning:
		message = "Generating article " + ProgressBar(snap.Progress, 20)
	case poll.StatusIdle:
		message = "Waiting for job..."
	default:
		message = string(snap.Status)
	}
	detail = snap.Message
	return message, detail
}
