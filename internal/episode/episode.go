package episode

import (
	"slices"
	"time"
)

// Status describes how a run concluded.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Provenance tags where media came from.
type Provenance string

const (
	// ProvenanceReal marks media produced by the configured backend.
	ProvenanceReal Provenance = "real"
	// ProvenanceSynthetic marks locally synthesized placeholder media.
	ProvenanceSynthetic Provenance = "synthetic"
	// ProvenanceMixed marks an artifact assembled from both real and synthetic segments.
	ProvenanceMixed Provenance = "mixed"
)

// Story is the narrative payload of an episode.
type Story struct {
	Title       string   `json:"title"`
	Subject     string   `json:"subject"`
	Summary     string   `json:"summary"`
	Narrative   string   `json:"narrative"`
	Steps       []string `json:"steps"`
	Prompts     []string `json:"prompts"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
	// Fallback is set when the collaborator's response failed validation and
	// the payload was derived deterministically from the raw text.
	Fallback bool `json:"fallback"`
}

// Artifact is the final media file for an episode.
type Artifact struct {
	Path              string     `json:"path"`
	Provenance        Provenance `json:"provenance"`
	SegmentCount      int        `json:"segment_count"`
	SyntheticSegments int        `json:"synthetic_segments"`
	DurationSeconds   float64    `json:"duration_seconds"`
}

// PublishResult is what the publish collaborator reported.
type PublishResult struct {
	RemoteID   string `json:"remote_id"`
	URL        string `json:"url"`
	Visibility string `json:"visibility"`
	Skipped    bool   `json:"skipped"`
}

// Failure is the error payload recorded for a failed run.
type Failure struct {
	Stage   string `json:"stage"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Episode identifies one run. It is created in memory at the start of a run
// and never mutated after it is appended to the continuity store.
type Episode struct {
	Number    int            `json:"episode_number"`
	RunID     string         `json:"run_id"`
	CreatedAt time.Time      `json:"created_at"`
	Status    Status         `json:"status"`
	Story     Story          `json:"story"`
	Artifact  *Artifact      `json:"artifact,omitempty"`
	Publish   *PublishResult `json:"publish,omitempty"`
	Failure   *Failure       `json:"failure,omitempty"`
}

// Completed reports whether the record counts toward episode numbering.
func (e Episode) Completed() bool {
	return e.Status == StatusCompleted
}

// Window is the ContinuityWindow: the most recent records, most-recent-last.
type Window []Episode

// NewWindow returns the last k records of history. It never aliases history.
func NewWindow(history []Episode, k int) Window {
	if k <= 0 || len(history) == 0 {
		return Window{}
	}
	start := max(len(history)-k, 0)
	return slices.Clone(Window(history[start:]))
}

// Subjects returns the distinct non-empty subjects in the window, in order.
func (w Window) Subjects() []string {
	return DistinctSubjects(w)
}

// DistinctSubjects returns each non-empty subject once, in first-seen order.
func DistinctSubjects(history []Episode) []string {
	seen := make(map[string]struct{}, len(history))
	out := make([]string, 0, len(history))
	for _, ep := range history {
		subject := ep.Story.Subject
		if subject == "" {
			continue
		}
		if _, ok := seen[subject]; ok {
			continue
		}
		seen[subject] = struct{}{}
		out = append(out, subject)
	}
	return out
}

// NextNumber returns max(completed episode numbers)+1, or 1 on a cold start.
// Failed records do not advance numbering, so a retried run keeps its number.
func NextNumber(history []Episode) int {
	highest := 0
	for _, ep := range history {
		if ep.Completed() && ep.Number > highest {
			highest = ep.Number
		}
	}
	return highest + 1
}

// FindCompleted returns the completed record numbered n, if any.
func FindCompleted(history []Episode, n int) (Episode, bool) {
	for _, ep := range history {
		if ep.Completed() && ep.Number == n {
			return ep, true
		}
	}
	return Episode{}, false
}
