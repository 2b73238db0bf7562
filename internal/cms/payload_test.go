package cms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firmsync/internal/models"
)

func TestComposeAddress(t *testing.T) {
	tests := []struct {
		name     string
		location models.Location
		expected string
	}{
		{
			name: "floor omitted when absent",
			location: models.Location{
				Street: "Calle Gran Vía", Number: "25",
				Locality: "Madrid", Province: "Madrid", PostalCode: "28013",
			},
			expected: "Calle Gran Vía 25, Madrid, Madrid (28013)",
		},
		{
			name: "all segments present",
			location: models.Location{
				Street: "Calle Mayor", Number: "1", Floor: "2ºB",
				Locality: "Toledo", Province: "Toledo", PostalCode: "45001",
			},
			expected: "Calle Mayor 1, 2ºB, Toledo, Toledo (45001)",
		},
		{
			name:     "number without street",
			location: models.Location{Number: "14", Locality: "Sevilla"},
			expected: "14, Sevilla",
		},
		{
			name:     "street without number",
			location: models.Location{Street: "Paseo de Gracia", Locality: "Barcelona"},
			expected: "Paseo de Gracia, Barcelona",
		},
		{
			name:     "postal code only",
			location: models.Location{PostalCode: "28001"},
			expected: "(28001)",
		},
		{
			name:     "empty location",
			location: models.Location{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ComposeAddress(tt.location))
		})
	}
}

func TestBuildEntry_VerificationOverridesLocations(t *testing.T) {
	firm := &models.Firm{
		ID: 42, Name: "Despacho García", Slug: "despacho-garcia",
		Description:       "Labor law specialists",
		VerificationState: models.VerificationVerified,
		IsActive:          true,
		Locations: []models.Location{
			// Stale mirror values on purpose.
			{Name: "Sede", IsPrincipal: true, IsActive: true, VerificationState: models.VerificationPending, IsVerified: false},
			{Name: "Delegación", IsActive: true, VerificationState: models.VerificationRejected, IsVerified: false},
		},
	}

	entry := BuildEntry(firm)

	assert.True(t, entry.Meta.IsVerified)
	assert.Equal(t, "verified", entry.Meta.VerificationState)
	require.Len(t, entry.Meta.Locations, 2)
	for _, loc := range entry.Meta.Locations {
		assert.True(t, loc.IsVerified, "location %s must mirror the firm", loc.Name)
		assert.Equal(t, "verified", loc.VerificationState)
	}
}

func TestBuildEntry_PhotoOnlyWhenAbsolute(t *testing.T) {
	tests := []struct {
		name  string
		photo string
		want  string
	}{
		{"https kept", "https://cdn.example.com/logo.png", "https://cdn.example.com/logo.png"},
		{"http kept", "http://cdn.example.com/logo.png", "http://cdn.example.com/logo.png"},
		{"relative dropped", "/uploads/logo.png", ""},
		{"bare filename dropped", "logo.png", ""},
		{"other scheme dropped", "ftp://cdn.example.com/logo.png", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			firm := &models.Firm{
				Name: "X", Slug: "x", IsActive: true,
				VerificationState: models.VerificationPending,
				Locations:         []models.Location{{Photo: tt.photo, IsActive: true}},
			}
			entry := BuildEntry(firm)
			require.Len(t, entry.Meta.Locations, 1)
			assert.Equal(t, tt.want, entry.Meta.Locations[0].Photo)
		})
	}
}

func TestBuildEntry_ContentSynthesizedWhenDescriptionEmpty(t *testing.T) {
	firm := &models.Firm{
		Name: "Despacho García", Slug: "despacho-garcia",
		VerificationState: models.VerificationPending,
		IsActive:          true,
		Locations: []models.Location{{
			IsPrincipal:   true,
			Locality:      "Madrid",
			Province:      "Madrid",
			PracticeAreas: []string{"laboral", "civil"},
			IsActive:      true,
		}},
	}

	entry := BuildEntry(firm)

	assert.NotEmpty(t, entry.Content, "external entry must never be empty")
	assert.Contains(t, entry.Content, "Despacho García")
	assert.Contains(t, entry.Content, "Madrid")
	assert.Contains(t, entry.Content, "laboral")
}

func TestBuildEntry_ContentUsesStoredDescription(t *testing.T) {
	firm := &models.Firm{
		Name: "X", Slug: "x", Description: "Hand-written prose.",
		VerificationState: models.VerificationPending, IsActive: true,
	}
	assert.Equal(t, "Hand-written prose.", BuildEntry(firm).Content)
}

func TestBuildEntry_Defaults(t *testing.T) {
	firm := &models.Firm{
		Name: "X", Slug: "x",
		VerificationState: models.VerificationPending,
		IsActive:          true,
		Locations:         []models.Location{{IsActive: true}},
	}

	entry := BuildEntry(firm)

	require.Len(t, entry.Meta.Locations, 1)
	loc := entry.Meta.Locations[0]
	assert.Equal(t, "España", loc.Country)
	assert.NotNil(t, loc.PracticeAreas)
	assert.Empty(t, loc.PracticeAreas)
	assert.NotNil(t, loc.Schedule)
	assert.NotNil(t, loc.SocialLinks)
	assert.True(t, loc.IsActive)
}

func TestBuildEntry_PublicationStatus(t *testing.T) {
	tests := []struct {
		name     string
		override string
		active   bool
		expected string
	}{
		{"active derives publish", "", true, "publish"},
		{"inactive derives draft", "", false, "draft"},
		{"override wins over active flag", "draft", true, "draft"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			firm := &models.Firm{
				Name: "X", Slug: "x",
				PublicationState:  tt.override,
				IsActive:          tt.active,
				VerificationState: models.VerificationPending,
			}
			assert.Equal(t, tt.expected, BuildEntry(firm).Status)
		})
	}
}

func TestBuildEntry_FirmMetaFlattensPrincipal(t *testing.T) {
	firm := &models.Firm{
		Name: "X", Slug: "x", IsActive: true,
		VerificationState: models.VerificationPending,
		Locations: []models.Location{
			{Locality: "Barcelona", Phone: "+34930000000", IsActive: true},
			{
				IsPrincipal: true, IsActive: true,
				Street: "Calle Gran Vía", Number: "25",
				Locality: "Madrid", Province: "Madrid", PostalCode: "28013",
				Phone: "+34910000000", ContactEmail: "info@x.es", Web: "https://x.es",
				PracticeAreas: []string{"laboral"},
			},
		},
	}

	entry := BuildEntry(firm)

	assert.Equal(t, "+34910000000", entry.Meta.Phone, "principal wins even when listed second")
	assert.Equal(t, "info@x.es", entry.Meta.ContactEmail)
	assert.Equal(t, "Madrid", entry.Meta.Locality)
	assert.Equal(t, "Calle Gran Vía 25, Madrid, Madrid (28013)", entry.Meta.Address)
	assert.Equal(t, []string{"laboral"}, entry.Meta.PracticeAreas)
}
