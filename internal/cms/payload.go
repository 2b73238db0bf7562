// Package cms builds the external representation of a firm and pushes it to
// the content-publishing system.
package cms

import (
	"fmt"
	"net/url"
	"strings"

	"firmsync/internal/models"
)

// Country applied when a location row left the field blank.
const defaultCountry = "España"

// Entry is the complete payload the CMS expects for one firm.
type Entry struct {
	Title   string    `json:"title"`
	Slug    string    `json:"slug"`
	Content string    `json:"content"`
	Status  string    `json:"status"`
	Meta    EntryMeta `json:"meta"`
}

// EntryMeta carries the flat firm-level metadata namespace plus the nested
// location list. Typed fields replace the historical string-keyed bag so a
// mistyped key cannot compile.
type EntryMeta struct {
	Phone             string          `json:"_phone"`
	ContactEmail      string          `json:"_contact_email"`
	Web               string          `json:"_web"`
	Address           string          `json:"_address"`
	Locality          string          `json:"_locality"`
	Province          string          `json:"_province"`
	PostalCode        string          `json:"_postal_code"`
	Country           string          `json:"_country"`
	PracticeAreas     []string        `json:"_practice_areas"`
	VerificationState string          `json:"_verification_state"`
	IsVerified        bool            `json:"_is_verified"`
	Locations         []LocationEntry `json:"_locations"`
}

// LocationEntry is the per-location payload nested under meta._locations.
type LocationEntry struct {
	Name          string            `json:"name"`
	Address       string            `json:"address"`
	Street        string            `json:"street"`
	Number        string            `json:"number"`
	Floor         string            `json:"floor"`
	PostalCode    string            `json:"postal_code"`
	Locality      string            `json:"locality"`
	Province      string            `json:"province"`
	Country       string            `json:"country"`
	Phone         string            `json:"phone"`
	ContactEmail  string            `json:"contact_email"`
	Web           string            `json:"web"`
	PracticeAreas []string          `json:"practice_areas"`
	Experience    string            `json:"experience"`
	Observations  string            `json:"observations"`
	Services      string            `json:"services"`
	Schedule      map[string]string `json:"schedule"`
	SocialLinks   map[string]string `json:"social_links"`
	Photo         string            `json:"photo,omitempty"`
	IsPrincipal   bool              `json:"is_principal"`
	IsActive      bool              `json:"is_active"`

	// Always overwritten from the parent firm, never from the location row.
	VerificationState string `json:"verification_state"`
	IsVerified        bool   `json:"is_verified"`
}

// BuildEntry produces the complete external representation of a firm.
func BuildEntry(firm *models.Firm) *Entry {
	entry := &Entry{
		Title:   firm.Name,
		Slug:    firm.Slug,
		Content: buildContent(firm),
		Status:  firm.PublicationStatus(),
		Meta: EntryMeta{
			Country:           defaultCountry,
			PracticeAreas:     []string{},
			VerificationState: string(firm.VerificationState),
			IsVerified:        firm.VerificationState.IsVerified(),
			Locations:         make([]LocationEntry, 0, len(firm.Locations)),
		},
	}

	for _, loc := range firm.Locations {
		entry.Meta.Locations = append(entry.Meta.Locations, buildLocationEntry(firm, loc))
	}

	// External consumers read firm-level fields without traversing the
	// location list, so the principal location is flattened onto the firm.
	if principal := firm.PrincipalLocation(); principal != nil {
		entry.Meta.Phone = principal.Phone
		entry.Meta.ContactEmail = principal.ContactEmail
		entry.Meta.Web = principal.Web
		entry.Meta.Address = ComposeAddress(*principal)
		entry.Meta.Locality = principal.Locality
		entry.Meta.Province = principal.Province
		entry.Meta.PostalCode = principal.PostalCode
		entry.Meta.Country = countryOrDefault(principal.Country)
		if len(principal.PracticeAreas) > 0 {
			entry.Meta.PracticeAreas = principal.PracticeAreas
		}
	}

	return entry
}

func buildLocationEntry(firm *models.Firm, loc models.Location) LocationEntry {
	out := LocationEntry{
		Name:          loc.Name,
		Address:       ComposeAddress(loc),
		Street:        loc.Street,
		Number:        loc.Number,
		Floor:         loc.Floor,
		PostalCode:    loc.PostalCode,
		Locality:      loc.Locality,
		Province:      loc.Province,
		Country:       countryOrDefault(loc.Country),
		Phone:         loc.Phone,
		ContactEmail:  loc.ContactEmail,
		Web:           loc.Web,
		PracticeAreas: loc.PracticeAreas,
		Experience:    loc.Experience,
		Observations:  loc.Observations,
		Services:      loc.Services,
		Schedule:      loc.Schedule,
		SocialLinks:   loc.SocialLinks,
		IsPrincipal:   loc.IsPrincipal,
		IsActive:      loc.IsActive,

		// The firm is the only verification authority; a stale location row
		// must not leak its own value into the external schema.
		VerificationState: string(firm.VerificationState),
		IsVerified:        firm.VerificationState.IsVerified(),
	}

	if out.PracticeAreas == nil {
		out.PracticeAreas = []string{}
	}
	if out.Schedule == nil {
		out.Schedule = map[string]string{}
	}
	if out.SocialLinks == nil {
		out.SocialLinks = map[string]string{}
	}

	// Relative or placeholder paths would break external rendering.
	if isAbsoluteURL(loc.Photo) {
		out.Photo = loc.Photo
	}

	return out
}

// ComposeAddress builds the display address in fixed order: street+number,
// floor, locality, province, parenthesized postal code. Empty segments are
// skipped.
func ComposeAddress(loc models.Location) string {
	var segments []string

	streetLine := loc.Street
	switch {
	case streetLine != "" && loc.Number != "":
		streetLine = streetLine + " " + loc.Number
	case streetLine == "":
		streetLine = loc.Number
	}
	if streetLine != "" {
		segments = append(segments, streetLine)
	}
	if loc.Floor != "" {
		segments = append(segments, loc.Floor)
	}
	if loc.Locality != "" {
		segments = append(segments, loc.Locality)
	}
	if loc.Province != "" {
		segments = append(segments, loc.Province)
	}

	address := strings.Join(segments, ", ")
	if loc.PostalCode != "" {
		if address == "" {
			return "(" + loc.PostalCode + ")"
		}
		address += " (" + loc.PostalCode + ")"
	}
	return address
}

// buildContent uses the stored description when present and synthesizes one
// otherwise, so the external entry is never empty.
func buildContent(firm *models.Firm) string {
	if desc := strings.TrimSpace(firm.Description); desc != "" {
		return desc
	}

	var b strings.Builder
	b.WriteString(firm.Name)
	b.WriteString(" is a professional services firm")

	principal := firm.PrincipalLocation()
	if principal != nil {
		place := principal.Locality
		if principal.Province != "" && principal.Province != principal.Locality {
			if place != "" {
				place += ", " + principal.Province
			} else {
				place = principal.Province
			}
		}
		if place != "" {
			fmt.Fprintf(&b, " based in %s", place)
		}
	}
	b.WriteString(".")

	if principal != nil && len(principal.PracticeAreas) > 0 {
		fmt.Fprintf(&b, " Practice areas: %s.", strings.Join(principal.PracticeAreas, ", "))
	}

	return b.String()
}

func countryOrDefault(country string) string {
	if country == "" {
		return defaultCountry
	}
	return country
}

func isAbsoluteURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
