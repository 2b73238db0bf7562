// internal/models/firm.go
package models

import "time"

// VerificationState is the firm-level verification status. It is the only
// verification authority; location mirror fields are always rewritten from it.
type VerificationState string

const (
	VerificationPending  VerificationState = "pending"
	VerificationVerified VerificationState = "verified"
	VerificationRejected VerificationState = "rejected"
)

// Valid reports whether s is one of the three allowed states.
func (s VerificationState) Valid() bool {
	switch s {
	case VerificationPending, VerificationVerified, VerificationRejected:
		return true
	}
	return false
}

// IsVerified reports whether s maps to the boolean mirror flag.
func (s VerificationState) IsVerified() bool {
	return s == VerificationVerified
}

// Publication states as the CMS understands them.
const (
	PublicationPublish = "publish"
	PublicationDraft   = "draft"
)

type Firm struct {
	ID                int64             `json:"id"`
	Name              string            `json:"name"`
	Slug              string            `json:"slug"`
	Description       string            `json:"description"`
	VerificationState VerificationState `json:"verificationState"`
	PublicationState  string            `json:"publicationState,omitempty"` // explicit override; empty means derive from IsActive
	IsActive          bool              `json:"isActive"`
	CMSID             *int64            `json:"cmsId,omitempty"`
	SearchIndexID     string            `json:"searchIndexId,omitempty"`
	Synced            bool              `json:"synced"`
	LastSyncedAt      *time.Time        `json:"lastSyncedAt,omitempty"`
	Locations         []Location        `json:"locations"`
}

// PublicationStatus returns the explicit override when set, otherwise the
// state derived from the active flag.
func (f *Firm) PublicationStatus() string {
	if f.PublicationState != "" {
		return f.PublicationState
	}
	if f.IsActive {
		return PublicationPublish
	}
	return PublicationDraft
}

// PrincipalLocation returns the firm's principal office, or the first
// location when none is flagged, or nil for a firm without locations.
func (f *Firm) PrincipalLocation() *Location {
	for i := range f.Locations {
		if f.Locations[i].IsPrincipal {
			return &f.Locations[i]
		}
	}
	if len(f.Locations) > 0 {
		return &f.Locations[0]
	}
	return nil
}

type Location struct {
	ID            int64             `json:"id"`
	FirmID        int64             `json:"firmId"`
	Name          string            `json:"name"`
	Street        string            `json:"street"`
	Number        string            `json:"number"`
	Floor         string            `json:"floor"`
	PostalCode    string            `json:"postalCode"`
	Locality      string            `json:"locality"`
	Province      string            `json:"province"`
	Country       string            `json:"country"`
	Phone         string            `json:"phone"`
	ContactEmail  string            `json:"contactEmail"`
	Web           string            `json:"web"`
	PracticeAreas []string          `json:"practiceAreas"`
	Experience    string            `json:"experience"`
	Observations  string            `json:"observations"`
	Services      string            `json:"services"`
	Schedule      map[string]string `json:"schedule"`
	SocialLinks   map[string]string `json:"socialLinks"`
	Photo         string            `json:"photo,omitempty"`
	IsPrincipal   bool              `json:"isPrincipal"`
	IsActive      bool              `json:"isActive"`

	// Mirror fields, overwritten from the parent firm on every publish.
	VerificationState VerificationState `json:"verificationState"`
	IsVerified        bool              `json:"isVerified"`
}
