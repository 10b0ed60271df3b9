package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"
	"github.com/zatekoja/therapistdirectory/internal/domain/entities"
	"github.com/zatekoja/therapistdirectory/internal/domain/filters"
	"github.com/zatekoja/therapistdirectory/internal/domain/repositories"
	"github.com/zatekoja/therapistdirectory/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/therapistdirectory/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/therapistdirectory/pkg/errors"
)

const therapistsTable = "therapists"

var therapistColumns = []interface{}{
	"id", "slug", "user_id", "name", "credentials", "tagline",
	"email", "phone", "website", "bio",
	"specialty_description", "treatment_description",
	"city", "state", "zip", "remote",
	"insurance", "fee_individual", "fee_couples",
	"languages", "issues", "ages", "communities", "treatment_style", "payment_methods",
	"published", "created_at", "updated_at",
}

// TherapistAdapter implements the TherapistRepository interface
type TherapistAdapter struct {
	client  *postgres.Client
	db      *goqu.Database
	metrics *observability.Metrics
}

var _ repositories.TherapistRepository = (*TherapistAdapter)(nil)

// NewTherapistAdapter creates a new therapist adapter. metrics may be nil.
func NewTherapistAdapter(client *postgres.Client, metrics *observability.Metrics) *TherapistAdapter {
	return &TherapistAdapter{
		client:  client,
		db:      goqu.New("postgres", client.DB()),
		metrics: metrics,
	}
}

// Count returns the number of therapists matching the predicate
func (a *TherapistAdapter) Count(ctx context.Context, pred *filters.Predicate) (int, error) {
	defer a.observe(ctx, "count", time.Now())

	query, args, err := a.db.From(therapistsTable).
		Select(goqu.COUNT("*")).
		Where(pred.Expression()).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var total int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, apperrors.NewInternalError("failed to count therapists", err)
	}
	return total, nil
}

// Find returns one page of matching therapists ordered by lower-cased name,
// then id, the same order the memory store uses
func (a *TherapistAdapter) Find(ctx context.Context, pred *filters.Predicate, limit, offset int) ([]*entities.Therapist, error) {
	defer a.observe(ctx, "find", time.Now())

	ds := a.db.Select(therapistColumns...).
		From(therapistsTable).
		Where(pred.Expression()).
		Order(goqu.Func("LOWER", goqu.I("name")).Asc(), goqu.I("id").Asc())

	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	if offset > 0 {
		ds = ds.Offset(uint(offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build find query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to find therapists", err)
	}
	defer rows.Close()

	therapists := []*entities.Therapist{}
	for rows.Next() {
		therapist, err := scanTherapist(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan therapist", err)
		}
		therapists = append(therapists, therapist)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate therapists", err)
	}

	return therapists, nil
}

// GetByID retrieves a therapist by ID
func (a *TherapistAdapter) GetByID(ctx context.Context, id string) (*entities.Therapist, error) {
	return a.getOne(ctx, goqu.Ex{"id": id}, fmt.Sprintf("therapist with id %s not found", id))
}

// GetBySlug retrieves a therapist by public slug
func (a *TherapistAdapter) GetBySlug(ctx context.Context, slug string) (*entities.Therapist, error) {
	return a.getOne(ctx, goqu.Ex{"slug": slug}, fmt.Sprintf("therapist with slug %s not found", slug))
}

func (a *TherapistAdapter) getOne(ctx context.Context, where goqu.Ex, notFound string) (*entities.Therapist, error) {
	defer a.observe(ctx, "get", time.Now())

	query, args, err := a.db.Select(therapistColumns...).
		From(therapistsTable).
		Where(where).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	therapist, err := scanTherapist(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(notFound)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get therapist", err)
	}
	return therapist, nil
}

// Create creates a new therapist
func (a *TherapistAdapter) Create(ctx context.Context, therapist *entities.Therapist) error {
	defer a.observe(ctx, "create", time.Now())

	record := therapistRecord(therapist)
	record["id"] = therapist.ID
	record["created_at"] = therapist.CreatedAt

	query, args, err := a.db.Insert(therapistsTable).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return apperrors.NewConflictError(fmt.Sprintf("therapist %s already exists", therapist.ID))
		}
		return apperrors.NewInternalError("failed to create therapist", err)
	}
	return nil
}

// Update updates a therapist
func (a *TherapistAdapter) Update(ctx context.Context, therapist *entities.Therapist) error {
	defer a.observe(ctx, "update", time.Now())

	therapist.UpdatedAt = time.Now().UTC()

	query, args, err := a.db.Update(therapistsTable).
		Set(therapistRecord(therapist)).
		Where(goqu.Ex{"id": therapist.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return apperrors.NewConflictError(fmt.Sprintf("slug %s is already taken", therapist.Slug))
		}
		return apperrors.NewInternalError("failed to update therapist", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to read update result", err)
	}
	if affected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("therapist with id %s not found", therapist.ID))
	}
	return nil
}

// SlugExists reports whether any therapist other than excludeID holds slug
func (a *TherapistAdapter) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	query, args, err := a.db.From(therapistsTable).
		Select(goqu.COUNT("*")).
		Where(goqu.Ex{"slug": slug, "id": goqu.Op{"neq": excludeID}}).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build slug query", err)
	}

	var n int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, apperrors.NewInternalError("failed to check slug", err)
	}
	return n > 0, nil
}

func (a *TherapistAdapter) observe(ctx context.Context, op string, start time.Time) {
	observability.RecordDBMetric(ctx, a.metrics, "therapists."+op, time.Since(start))
}

// therapistRecord holds every mutable column
func therapistRecord(t *entities.Therapist) goqu.Record {
	return goqu.Record{
		"slug":                  t.Slug,
		"user_id":               t.UserID,
		"name":                  t.Name,
		"credentials":           t.Credentials,
		"tagline":               t.Tagline,
		"email":                 t.Email,
		"phone":                 t.Phone,
		"website":               t.Website,
		"bio":                   t.Bio,
		"specialty_description": t.SpecialtyDescription,
		"treatment_description": t.TreatmentDescription,
		"city":                  t.Address.City,
		"state":                 t.Address.State,
		"zip":                   t.Address.Zip,
		"remote":                t.Remote,
		"insurance":             t.Insurance,
		"fee_individual":        t.FeeIndividual,
		"fee_couples":           t.FeeCouples,
		"languages":             pq.Array(nonNil(t.Languages)),
		"issues":                pq.Array(nonNil(t.Issues)),
		"ages":                  pq.Array(nonNil(t.Ages)),
		"communities":           pq.Array(nonNil(t.Communities)),
		"treatment_style":       pq.Array(nonNil(t.TreatmentStyle)),
		"payment_methods":       pq.Array(nonNil(t.PaymentMethods)),
		"published":             t.Published,
		"updated_at":            t.UpdatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTherapist(row rowScanner) (*entities.Therapist, error) {
	t := &entities.Therapist{}
	var userID sql.NullString

	err := row.Scan(
		&t.ID,
		&t.Slug,
		&userID,
		&t.Name,
		&t.Credentials,
		&t.Tagline,
		&t.Email,
		&t.Phone,
		&t.Website,
		&t.Bio,
		&t.SpecialtyDescription,
		&t.TreatmentDescription,
		&t.Address.City,
		&t.Address.State,
		&t.Address.Zip,
		&t.Remote,
		&t.Insurance,
		&t.FeeIndividual,
		&t.FeeCouples,
		pq.Array(&t.Languages),
		pq.Array(&t.Issues),
		pq.Array(&t.Ages),
		pq.Array(&t.Communities),
		pq.Array(&t.TreatmentStyle),
		pq.Array(&t.PaymentMethods),
		&t.Published,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		t.UserID = &userID.String
	}
	return t, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
