package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"reelcast/internal/episode"
	"reelcast/internal/services"
)

const episodeColumns = `episode_number, run_id, status, created_at,
    title, subject, summary, narrative, steps_json, prompts_json, tags_json, description, story_fallback,
    artifact_path, artifact_provenance, segment_count, synthetic_segments, duration_seconds,
    publish_remote_id, publish_url, publish_visibility, publish_skipped,
    failure_stage, failure_kind, failure_message`

// Append writes one episode record. The insert runs in its own transaction so
// the ledger either contains the whole record or none of it.
func (s *Store) Append(ctx context.Context, ep episode.Episode) error {
	ctx = ensureContext(ctx)
	if ep.Number <= 0 {
		return services.Wrap(services.ErrStoreWriteFailed, "", "append", fmt.Sprintf("invalid episode number %d", ep.Number), nil)
	}
	args, err := episodeArgs(ep)
	if err != nil {
		return services.Wrap(services.ErrStoreWriteFailed, "", "append", "encode record", err)
	}

	if err := s.insert(ctx, [][]any{args}); err != nil {
		return services.Wrap(services.ErrStoreWriteFailed, "", "append", fmt.Sprintf("episode %d", ep.Number), err)
	}
	return nil
}

// insert writes every row in one transaction, retrying while the database is busy.
func (s *Store) insert(ctx context.Context, rows [][]any) error {
	return withBusyRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()
		for _, args := range rows {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO episodes (`+episodeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				args...,
			); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

// Load returns every record, most-recent-last. An empty store yields an empty slice.
func (s *Store) Load(ctx context.Context) ([]episode.Episode, error) {
	return s.query(ctx, `SELECT `+episodeColumns+` FROM episodes ORDER BY seq`)
}

// Recent returns the last k records, most-recent-last.
func (s *Store) Recent(ctx context.Context, k int) ([]episode.Episode, error) {
	if k <= 0 {
		return []episode.Episode{}, nil
	}
	return s.query(ctx,
		`SELECT `+episodeColumns+` FROM (SELECT seq, `+episodeColumns+` FROM episodes ORDER BY seq DESC LIMIT ?) ORDER BY seq`,
		k,
	)
}

// NextEpisodeNumber returns max(completed episode number)+1, or 1 for an empty ledger.
func (s *Store) NextEpisodeNumber(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	var highest sql.NullInt64
	if err := s.db.QueryRowContext(ctx,
		`SELECT MAX(episode_number) FROM episodes WHERE status = ?`, episode.StatusCompleted,
	).Scan(&highest); err != nil {
		return 0, services.Wrap(services.ErrStoreReadFailed, "", "next episode number", "", err)
	}
	return int(highest.Int64) + 1, nil
}

// Stats counts records by status.
func (s *Store) Stats(ctx context.Context) (map[episode.Status]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM episodes GROUP BY status`)
	if err != nil {
		return nil, services.Wrap(services.ErrStoreReadFailed, "", "stats", "", err)
	}
	defer rows.Close()
	stats := make(map[episode.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, services.Wrap(services.ErrStoreReadFailed, "", "stats", "scan", err)
		}
		stats[episode.Status(status)] = count
	}
	return stats, rows.Err()
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]episode.Episode, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, services.Wrap(services.ErrStoreReadFailed, "", "load", "query episodes", err)
	}
	defer rows.Close()

	episodes := []episode.Episode{}
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, services.Wrap(services.ErrStoreReadFailed, "", "load", "scan episode", err)
		}
		episodes = append(episodes, ep)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrStoreReadFailed, "", "load", "iterate episodes", err)
	}
	return episodes, nil
}

func episodeArgs(ep episode.Episode) ([]any, error) {
	steps, err := json.Marshal(ep.Story.Steps)
	if err != nil {
		return nil, fmt.Errorf("marshal steps: %w", err)
	}
	prompts, err := json.Marshal(ep.Story.Prompts)
	if err != nil {
		return nil, fmt.Errorf("marshal prompts: %w", err)
	}
	tags, err := json.Marshal(ep.Story.Tags)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}

	args := []any{
		ep.Number,
		ep.RunID,
		string(ep.Status),
		ep.CreatedAt.UTC().Format(time.RFC3339Nano),
		ep.Story.Title,
		ep.Story.Subject,
		ep.Story.Summary,
		ep.Story.Narrative,
		string(steps),
		string(prompts),
		string(tags),
		ep.Story.Description,
		boolToInt(ep.Story.Fallback),
	}
	if a := ep.Artifact; a != nil {
		args = append(args, a.Path, string(a.Provenance), a.SegmentCount, a.SyntheticSegments, a.DurationSeconds)
	} else {
		args = append(args, nil, nil, nil, nil, nil)
	}
	if p := ep.Publish; p != nil {
		args = append(args, p.RemoteID, p.URL, p.Visibility, boolToInt(p.Skipped))
	} else {
		args = append(args, nil, nil, nil, nil)
	}
	if f := ep.Failure; f != nil {
		args = append(args, f.Stage, f.Kind, f.Message)
	} else {
		args = append(args, nil, nil, nil)
	}
	return args, nil
}

func scanEpisode(scanner interface{ Scan(dest ...any) error }) (episode.Episode, error) {
	var (
		ep          episode.Episode
		status      string
		createdRaw  string
		stepsJSON   string
		promptsJSON string
		tagsJSON    string
		fallback    int64

		artifactPath       sql.NullString
		artifactProvenance sql.NullString
		segmentCount       sql.NullInt64
		syntheticSegments  sql.NullInt64
		durationSeconds    sql.NullFloat64

		publishRemoteID   sql.NullString
		publishURL        sql.NullString
		publishVisibility sql.NullString
		publishSkipped    sql.NullInt64

		failureStage   sql.NullString
		failureKind    sql.NullString
		failureMessage sql.NullString
	)
	if err := scanner.Scan(
		&ep.Number, &ep.RunID, &status, &createdRaw,
		&ep.Story.Title, &ep.Story.Subject, &ep.Story.Summary, &ep.Story.Narrative,
		&stepsJSON, &promptsJSON, &tagsJSON, &ep.Story.Description, &fallback,
		&artifactPath, &artifactProvenance, &segmentCount, &syntheticSegments, &durationSeconds,
		&publishRemoteID, &publishURL, &publishVisibility, &publishSkipped,
		&failureStage, &failureKind, &failureMessage,
	); err != nil {
		return episode.Episode{}, err
	}

	ep.Status = episode.Status(status)
	ep.Story.Fallback = fallback != 0
	created, err := time.Parse(time.RFC3339Nano, createdRaw)
	if err != nil {
		return episode.Episode{}, fmt.Errorf("parse created_at %q: %w", createdRaw, err)
	}
	ep.CreatedAt = created
	if err := decodeList(stepsJSON, &ep.Story.Steps); err != nil {
		return episode.Episode{}, fmt.Errorf("decode steps: %w", err)
	}
	if err := decodeList(promptsJSON, &ep.Story.Prompts); err != nil {
		return episode.Episode{}, fmt.Errorf("decode prompts: %w", err)
	}
	if err := decodeList(tagsJSON, &ep.Story.Tags); err != nil {
		return episode.Episode{}, fmt.Errorf("decode tags: %w", err)
	}

	if artifactPath.Valid {
		ep.Artifact = &episode.Artifact{
			Path:              artifactPath.String,
			Provenance:        episode.Provenance(artifactProvenance.String),
			SegmentCount:      int(segmentCount.Int64),
			SyntheticSegments: int(syntheticSegments.Int64),
			DurationSeconds:   durationSeconds.Float64,
		}
	}
	if publishVisibility.Valid {
		ep.Publish = &episode.PublishResult{
			RemoteID:   publishRemoteID.String,
			URL:        publishURL.String,
			Visibility: publishVisibility.String,
			Skipped:    publishSkipped.Int64 != 0,
		}
	}
	if failureKind.Valid {
		ep.Failure = &episode.Failure{
			Stage:   failureStage.String,
			Kind:    failureKind.String,
			Message: failureMessage.String,
		}
	}
	return ep, nil
}

func decodeList(raw string, target *[]string) error {
	if raw == "" {
		return errors.New("empty column")
	}
	return json.Unmarshal([]byte(raw), target)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
