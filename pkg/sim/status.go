package sim

import "fmt"

// Status is the state of a trial.
type Status int

const (
	StatusInvalid Status = iota
	StatusReady
	StatusRunning
	StatusFinishing
	StatusFinished
)

var statusNames = [...]string{
	StatusInvalid:   "invalid",
	StatusReady:     "ready",
	StatusRunning:   "running",
	StatusFinishing: "finishing",
	StatusFinished:  "finished",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	for i, name := range statusNames {
		if name == string(b) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("sim: unknown status %q", b)
}

// IsDone reports whether the trial can make no further progress.
func (s Status) IsDone() bool {
	return s == StatusFinished || s == StatusInvalid
}
