package database_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/therapistdirectory/internal/adapters/database"
	"github.com/zatekoja/therapistdirectory/internal/domain/entities"
	"github.com/zatekoja/therapistdirectory/internal/domain/filters"
	"github.com/zatekoja/therapistdirectory/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/therapistdirectory/pkg/errors"
)

var therapistColumnNames = []string{
	"id", "slug", "user_id", "name", "credentials", "tagline",
	"email", "phone", "website", "bio",
	"specialty_description", "treatment_description",
	"city", "state", "zip", "remote",
	"insurance", "fee_individual", "fee_couples",
	"languages", "issues", "ages", "communities", "treatment_style", "payment_methods",
	"published", "created_at", "updated_at",
}

func newMockAdapter(t *testing.T) (*database.TherapistAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return database.NewTherapistAdapter(postgres.NewClientFromDB(db), nil), mock
}

func therapistRow(id, name string) []driver.Value {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return []driver.Value{
		id, "jane-doe", nil, name, "LCSW", "Here to help",
		"jane@example.com", "555-0100", "https://example.com", "Bio",
		"Anxiety and depression", "CBT informed",
		"Oakland", "California", "94610", true,
		"Aetna", "$150", "$180",
		"{English,Spanish}", "{Anxiety}", "{Adults}", "{}", "{CBT}", "{Cash}",
		true, now, now,
	}
}

func TestTherapistAdapter_Count(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "therapists" WHERE .*"published" IS TRUE`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(15))

	q := filters.BuildQuery(entities.SearchCriteria{entities.CriteriaState: {"california"}})
	total, err := adapter.Count(context.Background(), q.Predicate)

	require.NoError(t, err)
	assert.Equal(t, 15, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTherapistAdapter_Count_DriverError(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(`SELECT COUNT`).WillReturnError(errors.New("connection reset"))

	_, err := adapter.Count(context.Background(), filters.NewPredicate(filters.Published()))

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
}

func TestTherapistAdapter_Find(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	rows := sqlmock.NewRows(therapistColumnNames).
		AddRow(therapistRow("t-1", "Jane Doe")...).
		AddRow(therapistRow("t-2", "Kim Lee")...)
	mock.ExpectQuery(`FROM "therapists" WHERE .* ORDER BY LOWER\("name"\) ASC, "id" ASC LIMIT 10 OFFSET 10`).
		WillReturnRows(rows)

	q := filters.BuildQuery(entities.SearchCriteria{entities.CriteriaPage: {"2"}})
	therapists, err := adapter.Find(context.Background(), q.Predicate, q.Limit, q.Offset)

	require.NoError(t, err)
	require.Len(t, therapists, 2)
	assert.Equal(t, "Jane Doe", therapists[0].Name)
	assert.Equal(t, []string{"English", "Spanish"}, therapists[0].Languages)
	assert.Equal(t, []string{"CBT"}, therapists[0].TreatmentStyle)
	assert.Equal(t, "California", therapists[0].Address.State)
	assert.Nil(t, therapists[0].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTherapistAdapter_Find_Empty(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(`FROM "therapists"`).WillReturnRows(sqlmock.NewRows(therapistColumnNames))

	therapists, err := adapter.Find(context.Background(), filters.NewPredicate(filters.Published()), 10, 0)

	require.NoError(t, err)
	assert.NotNil(t, therapists)
	assert.Empty(t, therapists)
}

func TestTherapistAdapter_GetByID(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(`FROM "therapists" WHERE \("id" = 't-1'\) LIMIT 1`).
		WillReturnRows(sqlmock.NewRows(therapistColumnNames).AddRow(therapistRow("t-1", "Jane Doe")...))

	therapist, err := adapter.GetByID(context.Background(), "t-1")

	require.NoError(t, err)
	assert.Equal(t, "t-1", therapist.ID)
	assert.Equal(t, "jane-doe", therapist.Slug)
}

func TestTherapistAdapter_GetBySlug_NotFound(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(`WHERE \("slug" = 'missing'\)`).WillReturnRows(sqlmock.NewRows(therapistColumnNames))

	_, err := adapter.GetBySlug(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestTherapistAdapter_Create(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectExec(`INSERT INTO "therapists"`).WillReturnResult(sqlmock.NewResult(0, 1))

	err := adapter.Create(context.Background(), &entities.Therapist{ID: "t-1", Name: "Jane Doe"})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTherapistAdapter_Update_NotFound(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectExec(`UPDATE "therapists" SET .* WHERE \("id" = 'nope'\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := adapter.Update(context.Background(), &entities.Therapist{ID: "nope"})

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestTherapistAdapter_Update_SetsUpdatedAt(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectExec(`UPDATE "therapists"`).WillReturnResult(sqlmock.NewResult(0, 1))

	therapist := &entities.Therapist{ID: "t-1", Name: "Jane Doe"}
	require.NoError(t, adapter.Update(context.Background(), therapist))
	assert.False(t, therapist.UpdatedAt.IsZero())
}

func TestTherapistAdapter_SlugExists(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "therapists" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := adapter.SlugExists(context.Background(), "jane-doe", "t-2")

	require.NoError(t, err)
	assert.True(t, exists)
}
