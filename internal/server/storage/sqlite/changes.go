package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iudanet/notex/internal/models"
)

// AppendChange records a feed entry in the change log
// Вызывается в той же транзакции, что и запись самого ресурса
func (t *tx) AppendChange(ctx context.Context, entry models.FeedEntry) error {
	var (
		payload []byte
		err     error
	)

	if entry.IsTombstone() {
		payload, err = json.Marshal(entry.Deletion)
	} else {
		payload, err = json.Marshal(entry.Resource)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal change payload: %w", err)
	}

	query := `
		INSERT INTO change_log (sync_version, kind, resource_id, tombstone, payload)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err = t.q.ExecContext(ctx, query,
		int64(entry.Version()),
		string(entry.Kind),
		entry.ResourceID(),
		boolToInt(entry.IsTombstone()),
		payload,
	)
	if err != nil {
		return fmt.Errorf("failed to append change: %w", err)
	}

	return nil
}

// ReadChanges returns change log entries with after < sync_version <= upTo
// ordered by sync_version ascending
func (s *Storage) ReadChanges(ctx context.Context, after, upTo models.SyncVersion, limit int) ([]models.FeedEntry, error) {
	if limit <= 0 {
		limit = -1 // в SQLite отрицательный LIMIT означает "без ограничения"
	}

	query := `
		SELECT sync_version, kind, tombstone, payload
		FROM change_log
		WHERE sync_version > ? AND sync_version <= ?
		ORDER BY sync_version ASC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, int64(after), int64(upTo), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query changes: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]models.FeedEntry, 0)

	for rows.Next() {
		var (
			stamp     int64
			kindName  string
			tombstone int
			payload   []byte
		)

		if err := rows.Scan(&stamp, &kindName, &tombstone, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan change: %w", err)
		}

		entry, err := decodeChange(kindName, intToBool(tombstone), payload)
		if err != nil {
			return nil, fmt.Errorf("change %d: %w", stamp, err)
		}
		if entry.Version() != models.SyncVersion(stamp) {
			return nil, fmt.Errorf("change %d: payload carries stamp %d", stamp, entry.Version())
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return entries, nil
}

// MaxSyncVersion returns the highest persisted stamp
func (s *Storage) MaxSyncVersion(ctx context.Context) (models.SyncVersion, error) {
	var stamp int64

	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(sync_version), 0) FROM change_log`).Scan(&stamp)
	if err != nil {
		return 0, fmt.Errorf("failed to get max sync version: %w", err)
	}

	return models.SyncVersion(stamp), nil
}

func decodeChange(kindName string, tombstone bool, payload []byte) (models.FeedEntry, error) {
	kind, err := models.ParseKind(kindName)
	if err != nil {
		return models.FeedEntry{}, err
	}

	if tombstone {
		del := &models.Deletion{}
		if err := json.Unmarshal(payload, del); err != nil {
			return models.FeedEntry{}, fmt.Errorf("failed to decode deletion: %w", err)
		}
		return models.Tombstone(del), nil
	}

	res, err := models.DecodeResource(kind, payload)
	if err != nil {
		return models.FeedEntry{}, err
	}

	return models.Upsert(res), nil
}
