package actions

// Payload is the tagged union over the seven action kinds. Each kind carries
// its own strongly-typed parameter struct, so the executor can dispatch with
// an exhaustive type switch instead of digging through a loose key/value map.
type Payload interface {
	Kind() Type
}

// PhotoCategory classifies a job photo by when it was taken.
type PhotoCategory string

const (
	PhotoBefore PhotoCategory = "before"
	PhotoDuring PhotoCategory = "during"
	PhotoAfter  PhotoCategory = "after"
)

// ClockIn records the user clocking in, optionally against a specific job.
type ClockIn struct {
	UserID int `json:"userId"`
	// JobID is optional; zero means the clock-in is not tied to a job.
	JobID int `json:"jobId,omitempty"`
}

// ClockOut records the user clocking out.
type ClockOut struct {
	UserID int `json:"userId"`
}

// BreakStart records the start of a break.
type BreakStart struct {
	UserID int `json:"userId"`
}

// BreakEnd records the end of a break.
type BreakEnd struct {
	UserID int `json:"userId"`
}

// StatusUpdate sets a job's status field. Last write wins; there is no
// compare-and-swap against a prior expected status.
type StatusUpdate struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

// AddNote creates a note on a job.
type AddNote struct {
	JobID string `json:"jobId"`
	Text  string `json:"text"`
}

// AddPhoto uploads the file at URI and creates a photo record on the job.
type AddPhoto struct {
	JobID    string        `json:"jobId"`
	URI      string        `json:"uri"`
	Category PhotoCategory `json:"category"`
	Caption  string        `json:"caption,omitempty"`
}

func (ClockIn) Kind() Type      { return TypeClockIn }
func (ClockOut) Kind() Type     { return TypeClockOut }
func (BreakStart) Kind() Type   { return TypeBreakStart }
func (BreakEnd) Kind() Type     { return TypeBreakEnd }
func (StatusUpdate) Kind() Type { return TypeStatusUpdate }
func (AddNote) Kind() Type      { return TypeAddNote }
func (AddPhoto) Kind() Type     { return TypeAddPhoto }
