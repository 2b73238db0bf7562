package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "firmsync/internal/common/errors"
	"firmsync/internal/common/logger"
	"firmsync/internal/models"
)

var firmColumns = []string{
	"id", "name", "slug", "description", "verification_state",
	"publication_state", "is_active", "cms_id", "search_index_id",
	"synced", "last_synced_at",
}

var locationColumns = []string{
	"id", "firm_id", "name", "street", "number", "floor", "postal_code",
	"locality", "province", "country", "phone", "contact_email", "web",
	"practice_areas", "schedule", "social_links", "photo",
	"is_principal", "is_active", "verification_state", "is_verified",
}

func newTestStore(t *testing.T) (*FirmStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewFirmStore(db, logger.NewTestLogger(t)), mock
}

func expectFirmRow(mock sqlmock.Sqlmock, firmID int64, cmsID interface{}) {
	rows := sqlmock.NewRows(firmColumns).AddRow(
		firmID, "Despacho García", "despacho-garcia", "Labor law specialists",
		"verified", "", true, cmsID, "obj-42", false, nil,
	)
	mock.ExpectQuery(`SELECT id, name, slug, COALESCE\(description, ''\), verification_state`).
		WithArgs(firmID).
		WillReturnRows(rows)
}

func TestGetFirmWithLocations(t *testing.T) {
	s, mock := newTestStore(t)

	expectFirmRow(mock, 42, int64(777))

	locRows := sqlmock.NewRows(locationColumns).AddRow(
		2, 42, "Sede central", "Calle Gran Vía", "25", "", "28013",
		"Madrid", "Madrid", "España", "+34910000000", "info@garcia.es", "https://garcia.es",
		"{laboral,civil}", []byte(`{"mon":"9-17"}`), []byte(`{"twitter":"@garcia"}`), "",
		true, true, "pending", false,
	).AddRow(
		3, 42, "Delegación", "Calle Mayor", "1", "", "08001",
		"Barcelona", "Barcelona", "", "", "", "",
		"{mercantil}", []byte(`{}`), []byte(`{}`), "",
		false, true, "pending", false,
	)
	mock.ExpectQuery(`FROM location`).
		WithArgs(int64(42)).
		WillReturnRows(locRows)

	firm, err := s.GetFirmWithLocations(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, firm)

	assert.Equal(t, "despacho-garcia", firm.Slug)
	assert.Equal(t, models.VerificationVerified, firm.VerificationState)
	require.NotNil(t, firm.CMSID)
	assert.Equal(t, int64(777), *firm.CMSID)
	assert.Equal(t, "obj-42", firm.SearchIndexID)

	require.Len(t, firm.Locations, 2)
	assert.True(t, firm.Locations[0].IsPrincipal, "principal location must come first")
	assert.Equal(t, []string{"laboral", "civil"}, firm.Locations[0].PracticeAreas)
	assert.Equal(t, map[string]string{"mon": "9-17"}, firm.Locations[0].Schedule)
	assert.Equal(t, map[string]string{"twitter": "@garcia"}, firm.Locations[0].SocialLinks)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetFirmWithLocations_FirmAbsent(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT id, name, slug`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(firmColumns))

	firm, err := s.GetFirmWithLocations(context.Background(), 99)
	assert.NoError(t, err)
	assert.Nil(t, firm, "absent firm must be nil, not an error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetFirmWithLocations_ZeroLocations(t *testing.T) {
	s, mock := newTestStore(t)

	expectFirmRow(mock, 42, nil)
	mock.ExpectQuery(`FROM location`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(locationColumns))

	firm, err := s.GetFirmWithLocations(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, firm)
	assert.Empty(t, firm.Locations)
	assert.Nil(t, firm.CMSID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveExternalIDs(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec(`UPDATE firm`).
		WithArgs(int64(42), int64(777), "obj-42").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.SaveExternalIDs(context.Background(), 42, 777, "obj-42")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveExternalIDs_FirmAbsent(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec(`UPDATE firm`).
		WithArgs(int64(99), int64(777), "").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.SaveExternalIDs(context.Background(), 99, 777, "")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeFirmNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetVerificationState(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec(`UPDATE firm`).
		WithArgs(int64(42), "verified").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.SetVerificationState(context.Background(), 42, models.VerificationVerified)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetVerificationState_InvalidState(t *testing.T) {
	s, mock := newTestStore(t)

	err := s.SetVerificationState(context.Background(), 42, models.VerificationState("approved"))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed))
	assert.NoError(t, mock.ExpectationsWereMet(), "invalid state must never reach the database")
}
