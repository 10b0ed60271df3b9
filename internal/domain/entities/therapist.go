package entities

import (
	"strings"
	"time"
)

// Therapist represents a therapist profile in the directory
type Therapist struct {
	ID                   string    `json:"id" db:"id"`
	Slug                 string    `json:"slug" db:"slug"`
	UserID               *string   `json:"user_id,omitempty" db:"user_id"`
	Name                 string    `json:"name" db:"name"`
	Credentials          string    `json:"credentials" db:"credentials"`
	Tagline              string    `json:"tagline" db:"tagline"`
	Email                string    `json:"email" db:"email"`
	Phone                string    `json:"phone" db:"phone"`
	Website              string    `json:"website" db:"website"`
	Bio                  string    `json:"bio" db:"bio"`
	SpecialtyDescription string    `json:"specialty_description" db:"specialty_description"`
	TreatmentDescription string    `json:"treatment_description" db:"treatment_description"`
	Address              Address   `json:"address" db:"-"`
	Remote               bool      `json:"remote" db:"remote"`
	Insurance            string    `json:"insurance" db:"insurance"`
	FeeIndividual        string    `json:"fee_individual" db:"fee_individual"`
	FeeCouples           string    `json:"fee_couples" db:"fee_couples"`
	Languages            []string  `json:"languages" db:"languages"`
	Issues               []string  `json:"issues" db:"issues"`
	Ages                 []string  `json:"ages" db:"ages"`
	Communities          []string  `json:"communities" db:"communities"`
	TreatmentStyle       []string  `json:"treatment_style" db:"treatment_style"`
	PaymentMethods       []string  `json:"payment_methods" db:"payment_methods"`
	Published            bool      `json:"published" db:"published"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}

// Address represents a therapist's primary practice location
type Address struct {
	City  string `json:"city" db:"city"`
	State string `json:"state" db:"state"`
	Zip   string `json:"zip" db:"zip"`
}

// IsPublic reports whether the profile may be shown to visitors.
func (t *Therapist) IsPublic() bool {
	return t.Published && strings.TrimSpace(t.Slug) != ""
}

// Summary returns the subset of profile fields used for relevance ranking.
func (t *Therapist) Summary() TherapistSummary {
	specialties := append([]string{}, t.Issues...)
	if desc := strings.TrimSpace(t.SpecialtyDescription); desc != "" {
		specialties = append(specialties, desc)
	}

	location := strings.TrimSpace(strings.Join(nonEmpty(t.Address.City, t.Address.State), ", "))
	if t.Remote {
		if location == "" {
			location = "Telehealth"
		} else {
			location += " (telehealth available)"
		}
	}

	modalities := append([]string{}, t.TreatmentStyle...)
	if desc := strings.TrimSpace(t.TreatmentDescription); desc != "" {
		modalities = append(modalities, desc)
	}

	return TherapistSummary{
		ID:          t.ID,
		Name:        t.Name,
		Specialties: specialties,
		Languages:   t.Languages,
		Insurance:   t.Insurance,
		Fee:         t.FeeIndividual,
		Location:    location,
		Modalities:  modalities,
		Bio:         t.Bio,
	}
}

// TherapistSummary is the ranking view of a therapist
type TherapistSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Specialties []string `json:"specialties"`
	Languages   []string `json:"languages"`
	Insurance   string   `json:"insurance"`
	Fee         string   `json:"fee"`
	Location    string   `json:"location"`
	Modalities  []string `json:"modalities"`
	Bio         string   `json:"bio"`
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// TherapistSuggestion is a typeahead hit
type TherapistSuggestion struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Credentials string `json:"credentials,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
}
