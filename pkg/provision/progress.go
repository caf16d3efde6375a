package provision

import "time"

// Stage represents a provisioning stage.
type Stage string

const (
	StageValidating  Stage = "validating"
	StageUpdating    Stage = "updating"
	StageDeps        Stage = "dependencies"
	StageDownloading Stage = "downloading"
	StageInstalling  Stage = "installing"
	StageRepairing   Stage = "repairing"
	StageVerifying   Stage = "verifying"
	StageComplete    Stage = "complete"
	StageError       Stage = "error"
)

// String returns the string representation of the stage.
func (s Stage) String() string {
	return string(s)
}

// DisplayName returns a human-readable name for the stage.
func (s Stage) DisplayName() string {
	switch s {
	case StageValidating:
		return "Validating"
	case StageUpdating:
		return "Refreshing Package Index"
	case StageDeps:
		return "Installing Dependencies"
	case StageDownloading:
		return "Downloading Package"
	case StageInstalling:
		return "Installing Package"
	case StageRepairing:
		return "Repairing Dependencies"
	case StageVerifying:
		return "Verifying"
	case StageComplete:
		return "Complete"
	case StageError:
		return "Error"
	default:
		return string(s)
	}
}

// ProgressEvent represents a provisioning progress update.
type ProgressEvent struct {
	Stage     Stage     // Current stage
	Message   string    // Human-readable message
	Command   string    // Command being executed (e.g., "apt-get update")
	Detail    string    // Additional detail or output
	Percent   int       // 0-100, -1 for indeterminate
	IsError   bool      // True if this is an error message
	Timestamp time.Time // When this event occurred
}

// NewProgressEvent creates a new progress event.
func NewProgressEvent(stage Stage, message string, percent int) ProgressEvent {
	return ProgressEvent{
		Stage:     stage,
		Message:   message,
		Percent:   percent,
		Timestamp: time.Now(),
	}
}

// NewProgressEventWithCommand creates a progress event with a command.
func NewProgressEventWithCommand(stage Stage, message, command string, percent int) ProgressEvent {
	return ProgressEvent{
		Stage:     stage,
		Message:   message,
		Command:   command,
		Percent:   percent,
		Timestamp: time.Now(),
	}
}

// NewProgressEventWithDetail creates a progress event with detail.
func NewProgressEventWithDetail(stage Stage, message, detail string, percent int) ProgressEvent {
	return ProgressEvent{
		Stage:     stage,
		Message:   message,
		Detail:    detail,
		Percent:   percent,
		Timestamp: time.Now(),
	}
}

// NewErrorEvent creates a new error progress event.
func NewErrorEvent(message string) ProgressEvent {
	return ProgressEvent{
		Stage:     StageError,
		Message:   message,
		Percent:   -1,
		IsError:   true,
		Timestamp: time.Now(),
	}
}

// ProgressCallback is called with progress updates during provisioning.
type ProgressCallback func(ProgressEvent)

// NoOpProgress is a progress callback that does nothing.
func NoOpProgress(_ ProgressEvent) {}

// ProgressTracker collects progress events for later review.
type ProgressTracker struct {
	events []ProgressEvent
}

// NewProgressTracker creates a new progress tracker.
func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{}
}

// Callback returns a ProgressCallback that records into the tracker.
func (t *ProgressTracker) Callback() ProgressCallback {
	return func(e ProgressEvent) {
		t.events = append(t.events, e)
	}
}

// Events returns all recorded events.
func (t *ProgressTracker) Events() []ProgressEvent {
	return t.events
}

// Stages returns the distinct stages in the order they were first seen.
func (t *ProgressTracker) Stages() []Stage {
	var stages []Stage
	seen := make(map[Stage]bool)
	for _, e := range t.events {
		if !seen[e.Stage] {
			seen[e.Stage] = true
			stages = append(stages, e.Stage)
		}
	}
	return stages
}
