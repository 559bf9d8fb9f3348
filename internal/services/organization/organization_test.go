package organization

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "leadgenius/internal/common/errors"
	"leadgenius/internal/common/logger"
	"leadgenius/internal/models"
)

var orgColumns = []string{"id", "name", "slug", "branding", "created_at", "updated_at"}

func createTestStore(t *testing.T) (*Store, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, logger.NewTestLogger(t)), mock, db
}

func strPtr(s string) *string { return &s }

// ==========================
// GetForUser Tests
// ==========================

func TestGetForUser_Success(t *testing.T) {
	store, mock, _ := createTestStore(t)
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT o.id, o.name, o.slug, o.branding`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(orgColumns).
			AddRow("org-1", "My Agency", "agency-user-1", []byte(`{"primaryColor":"#4f46e5","logoUrl":null}`), now, now))

	org, err := store.GetForUser(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, "org-1", org.ID)
	assert.Equal(t, "#4f46e5", org.Branding.PrimaryColor)
	assert.Nil(t, org.Branding.LogoURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetForUser_NotFound(t *testing.T) {
	store, mock, _ := createTestStore(t)

	mock.ExpectQuery(`SELECT o.id`).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := store.GetForUser(context.Background(), "ghost")

	assert.True(t, apperrors.IsNotFound(err))
}

func TestGetForUser_DatabaseError(t *testing.T) {
	store, mock, _ := createTestStore(t)

	mock.ExpectQuery(`SELECT o.id`).WithArgs("user-1").WillReturnError(errors.New("connection refused"))

	_, err := store.GetForUser(context.Background(), "user-1")

	require.Error(t, err)
	assert.Equal(t, 500, apperrors.HTTPStatus(err))
}

// ==========================
// UpdateBranding Tests
// ==========================

func TestUpdateBranding_Success(t *testing.T) {
	store, mock, _ := createTestStore(t)
	now := time.Now()

	mock.ExpectQuery(`UPDATE organizations`).
		WithArgs("user-1", "Acme Growth", []byte(`{"primaryColor":"#112233","logoUrl":"https://cdn.example.com/logo.png"}`)).
		WillReturnRows(sqlmock.NewRows(orgColumns).
			AddRow("org-1", "Acme Growth", "agency-user-1", []byte(`{"primaryColor":"#112233","logoUrl":"https://cdn.example.com/logo.png"}`), now, now))

	org, err := store.UpdateBranding(context.Background(), "user-1", models.BrandingUpdate{
		Name:         strPtr("Acme Growth"),
		PrimaryColor: strPtr("#112233"),
		LogoURL:      strPtr("https://cdn.example.com/logo.png"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Acme Growth", org.Name)
	require.NotNil(t, org.Branding.LogoURL)
	assert.Equal(t, "https://cdn.example.com/logo.png", *org.Branding.LogoURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBranding_KeepsNameWhenUnset(t *testing.T) {
	store, mock, _ := createTestStore(t)
	now := time.Now()

	mock.ExpectQuery(`UPDATE organizations`).
		WithArgs("user-1", nil, []byte(`{"primaryColor":"#ABCDEF","logoUrl":null}`)).
		WillReturnRows(sqlmock.NewRows(orgColumns).
			AddRow("org-1", "My Agency", "agency-user-1", []byte(`{"primaryColor":"#ABCDEF","logoUrl":null}`), now, now))

	org, err := store.UpdateBranding(context.Background(), "user-1", models.BrandingUpdate{PrimaryColor: strPtr("#ABCDEF")})

	require.NoError(t, err)
	assert.Equal(t, "My Agency", org.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBranding_NoOrganization(t *testing.T) {
	store, mock, _ := createTestStore(t)

	mock.ExpectQuery(`UPDATE organizations`).WillReturnError(sql.ErrNoRows)

	_, err := store.UpdateBranding(context.Background(), "ghost", models.BrandingUpdate{})

	assert.True(t, apperrors.IsNotFound(err))
}

func TestValidateBranding(t *testing.T) {
	tests := []struct {
		name    string
		update  models.BrandingUpdate
		wantErr bool
	}{
		{"empty update", models.BrandingUpdate{}, false},
		{"valid", models.BrandingUpdate{Name: strPtr("Ok"), PrimaryColor: strPtr("#a1B2c3"), LogoURL: strPtr("https://x.io/l.png")}, false},
		{"short name", models.BrandingUpdate{Name: strPtr("A")}, true},
		{"named color", models.BrandingUpdate{PrimaryColor: strPtr("red")}, true},
		{"short hex", models.BrandingUpdate{PrimaryColor: strPtr("#fff")}, true},
		{"relative logo", models.BrandingUpdate{LogoURL: strPtr("/logo.png")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBranding(tt.update)
			if tt.wantErr {
				assert.True(t, apperrors.IsValidation(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestMigrate(t *testing.T) {
	store, mock, _ := createTestStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS organizations`).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, store.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
