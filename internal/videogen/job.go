package videogen

import (
	"fmt"

	"reelcast/internal/episode"
)

// JobState is the lifecycle of a SegmentJob.
type JobState string

const (
	JobSubmitted JobState = "submitted"
	JobPolling   JobState = "polling"
	JobReady     JobState = "ready"
	JobFailed    JobState = "failed"
)

// SegmentJob tracks one outstanding or completed generation request. It is
// owned by a single Generator call and never shared.
type SegmentJob struct {
	Prompt       string
	State        JobState
	Handle       string
	ArtifactPath string
	Attempts     int
}

// transition moves the job forward. Only submitted->polling, submitted->ready,
// polling->ready and any non-terminal->failed are legal.
func (j *SegmentJob) transition(to JobState) error {
	legal := false
	switch j.State {
	case JobSubmitted:
		legal = to == JobPolling || to == JobReady || to == JobFailed
	case JobPolling:
		legal = to == JobReady || to == JobFailed
	}
	if !legal {
		return fmt.Errorf("segment job: illegal transition %s -> %s", j.State, to)
	}
	j.State = to
	return nil
}

// Segment is one generated clip on local disk.
type Segment struct {
	Index      int
	Prompt     string
	Path       string
	Provenance episode.Provenance
	Attempts   int
}

// Synthetic reports whether the segment is a locally synthesized placeholder.
func (s Segment) Synthetic() bool {
	return s.Provenance == episode.ProvenanceSynthetic
}

// SegmentSet is the ordered collection of segments, index-aligned with prompts.
type SegmentSet []Segment

// Paths returns the segment paths in order.
func (s SegmentSet) Paths() []string {
	out := make([]string, len(s))
	for i, seg := range s {
		out[i] = seg.Path
	}
	return out
}

// SyntheticCount returns the number of placeholder segments.
func (s SegmentSet) SyntheticCount() int {
	n := 0
	for _, seg := range s {
		if seg.Synthetic() {
			n++
		}
	}
	return n
}

// Provenance summarizes the set: real, synthetic, or mixed.
func (s SegmentSet) Provenance() episode.Provenance {
	synthetic := s.SyntheticCount()
	switch {
	case synthetic == 0:
		return episode.ProvenanceReal
	case synthetic == len(s):
		return episode.ProvenanceSynthetic
	default:
		return episode.ProvenanceMixed
	}
}
