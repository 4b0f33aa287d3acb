// Package episode defines the records that flow through an episode run: the
// story payload, the final artifact and its provenance, the publish result and
// the failure payload, plus the Episode record appended to the continuity
// store once the run concludes.
package episode
