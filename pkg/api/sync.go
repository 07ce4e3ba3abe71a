package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iudanet/notex/internal/models"
)

// NotificationTypeChanges is the type of the notification sent after a commit
const NotificationTypeChanges = "changes"

// FeedEntry представляет одну запись ленты изменений.
// Ровно одно из полей Upsert или Tombstone заполнено.
type FeedEntry struct {
	Kind      models.Kind      `json:"kind"`                // тип ресурса
	Upsert    json.RawMessage  `json:"upsert,omitempty"`    // полная версия ресурса
	Tombstone *models.Deletion `json:"tombstone,omitempty"` // запись об удалении
}

// SyncResponse представляет ответ на GET /api/v1/sync
type SyncResponse struct {
	Entries       []FeedEntry        `json:"entries"`       // изменения в порядке штампов
	NextWatermark models.SyncVersion `json:"nextWatermark"` // передать как since в следующем запросе
	HasMore       bool               `json:"hasMore"`       // есть ещё страницы
}

// ChangeNotification is pushed over the websocket after each committed mutation
type ChangeNotification struct {
	Type      string             `json:"type"`
	Watermark models.SyncVersion `json:"watermark"`
}

// NewFeedEntry converts a feed entry into its wire form.
func NewFeedEntry(e models.FeedEntry) (FeedEntry, error) {
	if e.IsTombstone() {
		return FeedEntry{Kind: e.Kind, Tombstone: e.Deletion}, nil
	}

	if e.Resource == nil {
		return FeedEntry{}, errors.New("feed entry carries neither resource nor deletion")
	}

	data, err := json.Marshal(e.Resource)
	if err != nil {
		return FeedEntry{}, fmt.Errorf("failed to marshal %s: %w", e.Kind, err)
	}

	return FeedEntry{Kind: e.Kind, Upsert: data}, nil
}

// ToModel decodes the wire entry. Unknown kinds and entries that are
// neither upsert nor tombstone are rejected.
func (e FeedEntry) ToModel() (models.FeedEntry, error) {
	kind, err := models.ParseKind(string(e.Kind))
	if err != nil {
		return models.FeedEntry{}, err
	}

	// "upsert": null равнозначно отсутствию поля
	upsert := e.Upsert
	if bytes.Equal(bytes.TrimSpace(upsert), []byte("null")) {
		upsert = nil
	}

	switch {
	case e.Tombstone != nil && len(upsert) > 0:
		return models.FeedEntry{}, fmt.Errorf("%s entry carries both upsert and tombstone", kind)
	case e.Tombstone != nil:
		if e.Tombstone.Type != kind {
			return models.FeedEntry{}, fmt.Errorf("tombstone type %q does not match entry kind %q", e.Tombstone.Type, kind)
		}
		return models.Tombstone(e.Tombstone), nil
	case len(upsert) > 0:
		res, err := models.DecodeResource(kind, upsert)
		if err != nil {
			return models.FeedEntry{}, err
		}
		return models.Upsert(res), nil
	default:
		return models.FeedEntry{}, fmt.Errorf("%s entry carries neither upsert nor tombstone", kind)
	}
}
