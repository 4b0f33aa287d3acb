package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"reelcast/internal/episode"
	"reelcast/internal/services"
)

// DecodeRecords reads a JSON array of episode records, as written by
// EncodeRecords, and validates each one for import.
func DecodeRecords(r io.Reader) ([]episode.Episode, error) {
	var records []episode.Episode
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&records); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "import", "decode records", err)
	}
	for i, rec := range records {
		if err := validateRecord(rec); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "", "import", fmt.Sprintf("record %d", i+1), err)
		}
	}
	return records, nil
}

// EncodeRecords writes records as an indented JSON array.
func EncodeRecords(w io.Writer, records []episode.Episode) error {
	if records == nil {
		records = []episode.Episode{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func validateRecord(rec episode.Episode) error {
	if rec.Number <= 0 {
		return fmt.Errorf("invalid episode number %d", rec.Number)
	}
	if rec.CreatedAt.IsZero() {
		return fmt.Errorf("episode %d: created_at required", rec.Number)
	}
	switch rec.Status {
	case episode.StatusCompleted:
		if rec.Failure != nil {
			return fmt.Errorf("episode %d: completed record carries a failure", rec.Number)
		}
	case episode.StatusFailed:
		if rec.Failure == nil {
			return fmt.Errorf("episode %d: failed record has no failure", rec.Number)
		}
		if rec.Failure.Kind != services.KindUnknown && services.MarkerForKind(rec.Failure.Kind) == nil {
			return fmt.Errorf("episode %d: unknown failure kind %q", rec.Number, rec.Failure.Kind)
		}
	default:
		return fmt.Errorf("episode %d: unknown status %q", rec.Number, rec.Status)
	}
	return nil
}

// Import appends records after the existing ledger in one transaction. A
// completed number already present in the store or repeated within records
// rejects the whole batch.
func (s *Store) Import(ctx context.Context, records []episode.Episode) error {
	existing, err := s.Load(ctx)
	if err != nil {
		return err
	}
	taken := make(map[int]bool)
	for _, rec := range existing {
		if rec.Completed() {
			taken[rec.Number] = true
		}
	}

	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		if err := validateRecord(rec); err != nil {
			return services.Wrap(services.ErrStoreWriteFailed, "", "import", "", err)
		}
		if rec.Completed() {
			if taken[rec.Number] {
				return services.Wrap(services.ErrStoreWriteFailed, "", "import", fmt.Sprintf("episode %d already completed", rec.Number), nil)
			}
			taken[rec.Number] = true
		}
		args, err := episodeArgs(rec)
		if err != nil {
			return services.Wrap(services.ErrStoreWriteFailed, "", "import", "encode record", err)
		}
		rows = append(rows, args)
	}
	if len(rows) == 0 {
		return nil
	}
	if err := s.insert(ensureContext(ctx), rows); err != nil {
		return services.Wrap(services.ErrStoreWriteFailed, "", "import", fmt.Sprintf("%d records", len(rows)), err)
	}
	return nil
}
