package searchindex

import (
	"context"

	"firmsync/internal/common/logger"
	"firmsync/internal/models"
)

// Verification mirror fields inside each nested location entry.
const (
	fieldIsVerified = "is_verified"
	fieldVerified   = "verified" // human-readable Yes/No
)

// Syncer performs the verification-only read-merge-write against the index.
type Syncer struct {
	client *Client
	logger logger.Logger
}

func NewSyncer(client *Client, log logger.Logger) *Syncer {
	return &Syncer{
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "index-syncer"}),
	}
}

// SyncVerification reads the full index record, rewrites only the two
// verification mirror fields of every nested location entry, and writes the
// whole record back. The round trip is mandatory: the nested array cannot be
// merged atomically, and writing without reading first would truncate the
// record to the fields being set, destroying the search attributes other
// pipelines maintain.
func (s *Syncer) SyncVerification(ctx context.Context, objectID string, state models.VerificationState) error {
	record, err := s.client.GetObject(ctx, objectID)
	if err != nil {
		return err
	}

	touched := mergeVerification(record, state)

	if err := s.client.PutObject(ctx, objectID, record); err != nil {
		return err
	}

	s.logger.Info("synced verification mirror", map[string]interface{}{
		"objectId":  objectID,
		"state":     string(state),
		"locations": touched,
	})
	return nil
}

// GetObject exposes the read side for propagation diagnostics.
func (s *Syncer) GetObject(ctx context.Context, objectID string) (map[string]interface{}, error) {
	return s.client.GetObject(ctx, objectID)
}

// mergeVerification mutates only the mirror fields of each location entry and
// returns how many entries were touched.
func mergeVerification(record map[string]interface{}, state models.VerificationState) int {
	raw, ok := record["locations"].([]interface{})
	if !ok {
		return 0
	}

	verified := state.IsVerified()
	label := "No"
	if verified {
		label = "Yes"
	}

	touched := 0
	for _, item := range raw {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		entry[fieldIsVerified] = verified
		entry[fieldVerified] = label
		touched++
	}
	return touched
}
