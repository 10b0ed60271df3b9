package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/zatekoja/therapistdirectory/internal/domain/entities"
	"github.com/zatekoja/therapistdirectory/internal/domain/filters"
	"github.com/zatekoja/therapistdirectory/internal/domain/repositories"
	"github.com/zatekoja/therapistdirectory/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/therapistdirectory/pkg/errors"
	"golang.org/x/text/unicode/norm"
)

const (
	defaultSuggestLimit = 8
	maxSuggestLimit     = 20
	maxSlugAttempts     = 50
)

// TherapistService handles therapist profile lifecycle
type TherapistService struct {
	repo       repositories.TherapistRepository
	searchRepo repositories.TherapistSearchRepository
	now        func() time.Time
}

// NewTherapistService creates a new therapist service. searchRepo may be nil.
func NewTherapistService(repo repositories.TherapistRepository, searchRepo repositories.TherapistSearchRepository) *TherapistService {
	return &TherapistService{
		repo:       repo,
		searchRepo: searchRepo,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateStub creates the unpublished profile a new account starts with
func (s *TherapistService) CreateStub(ctx context.Context, input entities.StubInput) (*entities.Therapist, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	if name == "" && email == "" {
		return nil, apperrors.NewValidationError("a name or email is required")
	}

	now := s.now()
	therapist := &entities.Therapist{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if uid := strings.TrimSpace(input.UserID); uid != "" {
		therapist.UserID = &uid
	}

	if err := s.repo.Create(ctx, therapist); err != nil {
		return nil, err
	}
	return therapist, nil
}

// GetByID retrieves a therapist by ID regardless of visibility
func (s *TherapistService) GetByID(ctx context.Context, id string) (*entities.Therapist, error) {
	return s.repo.GetByID(ctx, id)
}

// GetPublicProfile returns a published profile by slug
func (s *TherapistService) GetPublicProfile(ctx context.Context, slug string) (*entities.Therapist, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, apperrors.NewNotFoundError("therapist not found")
	}

	therapist, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !therapist.IsPublic() {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("therapist %s not found", slug))
	}
	return therapist, nil
}

// SaveProfile applies an incremental update. Fields left nil are unchanged.
func (s *TherapistService) SaveProfile(ctx context.Context, id string, update entities.ProfileUpdate) (*entities.Therapist, error) {
	therapist, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil && strings.TrimSpace(*update.Name) == "" && therapist.Published {
		return nil, apperrors.NewValidationError("a published profile must keep a name")
	}
	applyProfileUpdate(therapist, update)

	if err := s.repo.Update(ctx, therapist); err != nil {
		return nil, err
	}

	if therapist.IsPublic() {
		s.index(ctx, therapist)
	}
	return therapist, nil
}

// Publish makes a profile visible, assigning a unique slug when it has none
func (s *TherapistService) Publish(ctx context.Context, id string) (*entities.Therapist, error) {
	therapist, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(therapist.Name) == "" {
		return nil, apperrors.NewValidationError("a name is required before publishing")
	}

	if strings.TrimSpace(therapist.Slug) == "" {
		slug, err := s.uniqueSlug(ctx, therapist.Name, therapist.ID)
		if err != nil {
			return nil, err
		}
		therapist.Slug = slug
	}
	therapist.Published = true

	if err := s.repo.Update(ctx, therapist); err != nil {
		return nil, err
	}
	s.index(ctx, therapist)
	return therapist, nil
}

// Unpublish hides a profile and removes it from the typeahead index
func (s *TherapistService) Unpublish(ctx context.Context, id string) (*entities.Therapist, error) {
	therapist, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	therapist.Published = false
	if err := s.repo.Update(ctx, therapist); err != nil {
		return nil, err
	}

	if s.searchRepo != nil {
		if err := s.searchRepo.Delete(ctx, therapist.ID); err != nil {
			observability.ComponentLogger(ctx, "therapist_service").Warn().Err(err).
				Str("therapist_id", therapist.ID).
				Msg("failed to remove therapist from search index")
		}
	}
	return therapist, nil
}

// Import creates one therapist per record. Records without a name are
// skipped; a failing record never aborts the batch.
func (s *TherapistService) Import(ctx context.Context, records []entities.ImportRecord, publish bool) (*entities.ImportSummary, error) {
	logger := observability.ComponentLogger(ctx, "therapist_import")
	summary := &entities.ImportSummary{}

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		name := strings.TrimSpace(rec.Name)
		if name == "" {
			summary.Skipped++
			summary.Errors = append(summary.Errors, fmt.Sprintf("record %d: name is required", i+1))
			continue
		}

		therapist := therapistFromImport(rec)
		therapist.ID = uuid.New().String()
		therapist.CreatedAt = s.now()
		therapist.UpdatedAt = therapist.CreatedAt

		if publish {
			slug, err := s.uniqueSlug(ctx, name, therapist.ID)
			if err != nil {
				summary.Skipped++
				summary.Errors = append(summary.Errors, fmt.Sprintf("record %d (%s): %v", i+1, name, err))
				continue
			}
			therapist.Slug = slug
			therapist.Published = true
		}

		if err := s.repo.Create(ctx, therapist); err != nil {
			summary.Skipped++
			summary.Errors = append(summary.Errors, fmt.Sprintf("record %d (%s): %v", i+1, name, err))
			continue
		}
		summary.Created++

		if therapist.IsPublic() {
			s.index(ctx, therapist)
		}
	}

	logger.Info().
		Int("created", summary.Created).
		Int("skipped", summary.Skipped).
		Bool("publish", publish).
		Msg("therapist import finished")
	return summary, nil
}

// Suggest returns published therapists whose name starts with prefix
func (s *TherapistService) Suggest(ctx context.Context, prefix string, limit int) ([]*entities.TherapistSuggestion, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return []*entities.TherapistSuggestion{}, nil
	}
	if limit <= 0 {
		limit = defaultSuggestLimit
	}
	if limit > maxSuggestLimit {
		limit = maxSuggestLimit
	}

	if s.searchRepo != nil {
		suggestions, err := s.searchRepo.Suggest(ctx, prefix, limit)
		if err == nil {
			return suggestions, nil
		}
		observability.ComponentLogger(ctx, "therapist_service").Warn().Err(err).
			Str("prefix", prefix).
			Msg("search index suggest failed, falling back to store")
	}

	pred := filters.NewPredicate(filters.Published(), filters.NamePrefix(prefix))
	therapists, err := s.repo.Find(ctx, pred, limit, 0)
	if err != nil {
		return nil, err
	}

	suggestions := make([]*entities.TherapistSuggestion, 0, len(therapists))
	for _, t := range therapists {
		if !t.IsPublic() {
			continue
		}
		suggestions = append(suggestions, &entities.TherapistSuggestion{
			ID:          t.ID,
			Slug:        t.Slug,
			Name:        t.Name,
			Credentials: t.Credentials,
			City:        t.Address.City,
			State:       t.Address.State,
		})
	}
	return suggestions, nil
}

func (s *TherapistService) index(ctx context.Context, therapist *entities.Therapist) {
	if s.searchRepo == nil {
		return
	}
	if err := s.searchRepo.Index(ctx, therapist); err != nil {
		observability.ComponentLogger(ctx, "therapist_service").Warn().Err(err).
			Str("therapist_id", therapist.ID).
			Msg("failed to index therapist")
	}
}

func (s *TherapistService) uniqueSlug(ctx context.Context, name, id string) (string, error) {
	base := Slugify(name)
	if base == "" {
		base = "therapist"
	}

	for n := 1; n <= maxSlugAttempts; n++ {
		candidate := base
		if n > 1 {
			candidate = fmt.Sprintf("%s-%d", base, n)
		}
		taken, err := s.repo.SlugExists(ctx, candidate, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return fmt.Sprintf("%s-%s", base, strings.SplitN(id, "-", 2)[0]), nil
}

// Slugify lowercases name and joins its letters and digits with dashes
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range norm.NFD.String(strings.ToLower(name)) {
		switch {
		case unicode.Is(unicode.Mn, r):
			// accents dropped after decomposition
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case r == '\'' || r == '.':
			// initials and apostrophes join the surrounding word
		default:
			if b.Len() > 0 && !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func applyProfileUpdate(t *entities.Therapist, u entities.ProfileUpdate) {
	setString(&t.Name, u.Name)
	setString(&t.Credentials, u.Credentials)
	setString(&t.Tagline, u.Tagline)
	setString(&t.Email, u.Email)
	setString(&t.Phone, u.Phone)
	setString(&t.Website, u.Website)
	setString(&t.Bio, u.Bio)
	setString(&t.SpecialtyDescription, u.SpecialtyDescription)
	setString(&t.TreatmentDescription, u.TreatmentDescription)
	setString(&t.Address.City, u.City)
	setString(&t.Address.State, u.State)
	setString(&t.Address.Zip, u.Zip)
	setString(&t.Insurance, u.Insurance)
	setString(&t.FeeIndividual, u.FeeIndividual)
	setString(&t.FeeCouples, u.FeeCouples)
	if u.Remote != nil {
		t.Remote = *u.Remote
	}
	setList(&t.Languages, u.Languages)
	setList(&t.Issues, u.Issues)
	setList(&t.Ages, u.Ages)
	setList(&t.Communities, u.Communities)
	setList(&t.TreatmentStyle, u.TreatmentStyle)
	setList(&t.PaymentMethods, u.PaymentMethods)
}

func therapistFromImport(rec entities.ImportRecord) *entities.Therapist {
	return &entities.Therapist{
		Name:                 strings.TrimSpace(rec.Name),
		Credentials:          strings.TrimSpace(rec.Credentials),
		Tagline:              strings.TrimSpace(rec.Tagline),
		Email:                strings.TrimSpace(rec.Email),
		Phone:                strings.TrimSpace(rec.Phone),
		Website:              strings.TrimSpace(rec.Website),
		Bio:                  strings.TrimSpace(rec.Bio),
		SpecialtyDescription: strings.TrimSpace(rec.SpecialtyDescription),
		TreatmentDescription: strings.TrimSpace(rec.TreatmentDescription),
		Address: entities.Address{
			City:  strings.TrimSpace(rec.City),
			State: strings.TrimSpace(rec.State),
			Zip:   strings.TrimSpace(rec.Zip),
		},
		Remote:         rec.Remote,
		Insurance:      strings.TrimSpace(rec.Insurance),
		FeeIndividual:  strings.TrimSpace(rec.FeeIndividual),
		FeeCouples:     strings.TrimSpace(rec.FeeCouples),
		Languages:      normalizeList(rec.Languages),
		Issues:         normalizeList(rec.Issues),
		Ages:           normalizeList(rec.Ages),
		Communities:    normalizeList(rec.Communities),
		TreatmentStyle: normalizeList(rec.TreatmentStyle),
		PaymentMethods: normalizeList(rec.PaymentMethods),
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setList(dst *[]string, src *[]string) {
	if src != nil {
		*dst = normalizeList(*src)
	}
}

// normalizeList trims values, drops empties and keeps the first of any duplicate
func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
