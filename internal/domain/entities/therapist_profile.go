package entities

// StubInput is the data available when an account registers
type StubInput struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// ProfileUpdate carries an incremental profile save. Nil fields are left unchanged.
type ProfileUpdate struct {
	Name                 *string   `json:"name,omitempty"`
	Credentials          *string   `json:"credentials,omitempty"`
	Tagline              *string   `json:"tagline,omitempty"`
	Email                *string   `json:"email,omitempty"`
	Phone                *string   `json:"phone,omitempty"`
	Website              *string   `json:"website,omitempty"`
	Bio                  *string   `json:"bio,omitempty"`
	SpecialtyDescription *string   `json:"specialty_description,omitempty"`
	TreatmentDescription *string   `json:"treatment_description,omitempty"`
	City                 *string   `json:"city,omitempty"`
	State                *string   `json:"state,omitempty"`
	Zip                  *string   `json:"zip,omitempty"`
	Remote               *bool     `json:"remote,omitempty"`
	Insurance            *string   `json:"insurance,omitempty"`
	FeeIndividual        *string   `json:"fee_individual,omitempty"`
	FeeCouples           *string   `json:"fee_couples,omitempty"`
	Languages            *[]string `json:"languages,omitempty"`
	Issues               *[]string `json:"issues,omitempty"`
	Ages                 *[]string `json:"ages,omitempty"`
	Communities          *[]string `json:"communities,omitempty"`
	TreatmentStyle       *[]string `json:"treatment_style,omitempty"`
	PaymentMethods       *[]string `json:"payment_methods,omitempty"`
}

// ImportRecord is one row of a bulk therapist import file
type ImportRecord struct {
	Name                 string   `json:"name"`
	Credentials          string   `json:"credentials"`
	Tagline              string   `json:"tagline"`
	Email                string   `json:"email"`
	Phone                string   `json:"phone"`
	Website              string   `json:"website"`
	Bio                  string   `json:"bio"`
	SpecialtyDescription string   `json:"specialty_description"`
	TreatmentDescription string   `json:"treatment_description"`
	City                 string   `json:"city"`
	State                string   `json:"state"`
	Zip                  string   `json:"zip"`
	Remote               bool     `json:"remote"`
	Insurance            string   `json:"insurance"`
	FeeIndividual        string   `json:"fee_individual"`
	FeeCouples           string   `json:"fee_couples"`
	Languages            []string `json:"languages"`
	Issues               []string `json:"issues"`
	Ages                 []string `json:"ages"`
	Communities          []string `json:"communities"`
	TreatmentStyle       []string `json:"treatment_style"`
	PaymentMethods       []string `json:"payment_methods"`
}

// ImportSummary reports the outcome of a bulk import
type ImportSummary struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}
