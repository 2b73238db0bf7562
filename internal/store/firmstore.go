// Package store reads and writes firm records in the canonical relational
// store. The store is the single source of truth; CMS and search-index
// representations are derived caches.
package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"

	apperrors "firmsync/internal/common/errors"
	"firmsync/internal/common/logger"
	"firmsync/internal/models"
)

const firmQuery = `
	SELECT id, name, slug, COALESCE(description, ''), verification_state,
	       COALESCE(publication_state, ''), is_active,
	       cms_id, search_index_id, synced, last_synced_at
	FROM firm
	WHERE id = $1`

// Principal location first; remaining order is by insertion id.
const locationsQuery = `
	SELECT id, firm_id, COALESCE(name, ''), COALESCE(street, ''),
	       COALESCE(number, ''), COALESCE(floor, ''), COALESCE(postal_code, ''),
	       COALESCE(locality, ''), COALESCE(province, ''), COALESCE(country, ''),
	       COALESCE(phone, ''), COALESCE(contact_email, ''), COALESCE(web, ''),
	       practice_areas, COALESCE(schedule, '{}'), COALESCE(social_links, '{}'),
	       COALESCE(photo, ''), is_principal, is_active,
	       COALESCE(verification_state, ''), is_verified
	FROM location
	WHERE firm_id = $1
	ORDER BY is_principal DESC, id`

const saveExternalIDsQuery = `
	UPDATE firm
	SET cms_id = $2, search_index_id = NULLIF($3, ''), synced = TRUE, last_synced_at = NOW()
	WHERE id = $1`

const setVerificationStateQuery = `
	UPDATE firm
	SET verification_state = $2
	WHERE id = $1`

type FirmStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewFirmStore(db *sql.DB, log logger.Logger) *FirmStore {
	return &FirmStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "firmstore"}),
	}
}

// GetFirmWithLocations fetches the firm row and all of its locations,
// principal location first. Returns (nil, nil) when the firm does not exist;
// a firm with zero locations is logged as a warning, not an error.
func (s *FirmStore) GetFirmWithLocations(ctx context.Context, firmID int64) (*models.Firm, error) {
	var (
		firm       models.Firm
		cmsID      sql.NullInt64
		indexID    sql.NullString
		lastSynced sql.NullTime
		state      string
	)

	err := s.db.QueryRowContext(ctx, firmQuery, firmID).Scan(
		&firm.ID, &firm.Name, &firm.Slug, &firm.Description, &state,
		&firm.PublicationState, &firm.IsActive,
		&cmsID, &indexID, &firm.Synced, &lastSynced,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStoreReadError(err)
	}

	firm.VerificationState = models.VerificationState(state)
	if cmsID.Valid {
		firm.CMSID = &cmsID.Int64
	}
	if indexID.Valid {
		firm.SearchIndexID = indexID.String
	}
	if lastSynced.Valid {
		t := lastSynced.Time
		firm.LastSyncedAt = &t
	}

	locations, err := s.loadLocations(ctx, firmID)
	if err != nil {
		return nil, err
	}
	firm.Locations = locations

	if len(firm.Locations) == 0 {
		s.logger.Warn("firm has no locations", map[string]interface{}{
			"firmId": firmID,
		})
	}

	return &firm, nil
}

func (s *FirmStore) loadLocations(ctx context.Context, firmID int64) ([]models.Location, error) {
	rows, err := s.db.QueryContext(ctx, locationsQuery, firmID)
	if err != nil {
		return nil, apperrors.NewStoreReadError(err)
	}
	defer rows.Close()

	var locations []models.Location
	for rows.Next() {
		var (
			loc          models.Location
			state        string
			scheduleJSON []byte
			socialJSON   []byte
		)
		err := rows.Scan(
			&loc.ID, &loc.FirmID, &loc.Name, &loc.Street,
			&loc.Number, &loc.Floor, &loc.PostalCode,
			&loc.Locality, &loc.Province, &loc.Country,
			&loc.Phone, &loc.ContactEmail, &loc.Web,
			pq.Array(&loc.PracticeAreas), &scheduleJSON, &socialJSON,
			&loc.Photo, &loc.IsPrincipal, &loc.IsActive,
			&state, &loc.IsVerified,
		)
		if err != nil {
			return nil, apperrors.NewStoreReadError(err)
		}

		loc.VerificationState = models.VerificationState(state)
		loc.Schedule = decodeStringMap(scheduleJSON)
		loc.SocialLinks = decodeStringMap(socialJSON)
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreReadError(err)
	}

	return locations, nil
}

// SaveExternalIDs persists the externally assigned identifiers back to the
// canonical store and stamps the sync bookkeeping. Idempotent.
func (s *FirmStore) SaveExternalIDs(ctx context.Context, firmID, cmsID int64, indexID string) error {
	res, err := s.db.ExecContext(ctx, saveExternalIDsQuery, firmID, cmsID, indexID)
	if err != nil {
		return apperrors.NewStoreWriteError(err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return apperrors.NewFirmNotFoundError(firmID)
	}

	s.logger.Info("persisted external ids", map[string]interface{}{
		"firmId":  firmID,
		"cmsId":   cmsID,
		"indexId": indexID,
	})
	return nil
}

// SetVerificationState validates and writes the firm-level verification state.
func (s *FirmStore) SetVerificationState(ctx context.Context, firmID int64, state models.VerificationState) error {
	if !state.Valid() {
		return apperrors.NewValidationError("verification state must be one of pending, verified, rejected")
	}

	res, err := s.db.ExecContext(ctx, setVerificationStateQuery, firmID, string(state))
	if err != nil {
		return apperrors.NewStoreWriteError(err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return apperrors.NewFirmNotFoundError(firmID)
	}
	return nil
}

func decodeStringMap(raw []byte) map[string]string {
	out := map[string]string{}
	if len(raw) == 0 {
		return out
	}
	// Tolerate malformed json columns; an empty map is safe for publishing.
	_ = json.Unmarshal(raw, &out)
	return out
}
