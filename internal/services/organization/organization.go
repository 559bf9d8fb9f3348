// internal/services/organization/organization.go
package organization

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"net/url"
	"regexp"
	"strings"

	"leadgenius/internal/common/errors"
	"leadgenius/internal/common/logger"
	"leadgenius/internal/models"
)

// Schema creates the tables the store reads. Users are provisioned elsewhere.
const Schema = `
CREATE TABLE IF NOT EXISTS organizations (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    slug       TEXT NOT NULL UNIQUE,
    branding   JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS users (
    id              TEXT PRIMARY KEY,
    email           TEXT NOT NULL UNIQUE,
    role            TEXT NOT NULL DEFAULT 'MEMBER',
    organization_id TEXT REFERENCES organizations(id)
);
`

const selectForUser = `
SELECT o.id, o.name, o.slug, o.branding, o.created_at, o.updated_at
FROM users u
JOIN organizations o ON o.id = u.organization_id
WHERE u.id = $1`

const updateForUser = `
UPDATE organizations
SET name = COALESCE($2, name), branding = $3, updated_at = NOW()
WHERE id = (SELECT organization_id FROM users WHERE id = $1)
RETURNING id, name, slug, branding, created_at, updated_at`

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type Store struct {
	db     *sql.DB
	logger logger.Logger
}

func New(db *sql.DB, log logger.Logger) *Store {
	return &Store{db: db, logger: log.With(map[string]interface{}{"service": "organization"})}
}

// Migrate applies Schema.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return errors.NewQueryExecutionFailedError("migrate", err)
	}
	return nil
}

// GetForUser returns the organization userID belongs to.
func (s *Store) GetForUser(ctx context.Context, userID string) (*models.Organization, error) {
	org, err := scanOrganization(s.db.QueryRowContext(ctx, selectForUser, userID))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("Organization not found")
	}
	if err != nil {
		s.logger.Error("get organization error", map[string]interface{}{"userId": userID, "error": err.Error()})
		return nil, errors.NewQueryExecutionFailedError("select_organization", err)
	}
	return org, nil
}

// UpdateBranding renames the user's organization when a name is given and
// replaces its branding.
func (s *Store) UpdateBranding(ctx context.Context, userID string, update models.BrandingUpdate) (*models.Organization, error) {
	if err := ValidateBranding(update); err != nil {
		return nil, err
	}

	branding := models.Branding{LogoURL: update.LogoURL}
	if update.PrimaryColor != nil {
		branding.PrimaryColor = *update.PrimaryColor
	}
	brandingJSON, err := json.Marshal(branding)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	var name interface{}
	if update.Name != nil && *update.Name != "" {
		name = *update.Name
	}

	org, err := scanOrganization(s.db.QueryRowContext(ctx, updateForUser, userID, name, brandingJSON))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("Organization not found")
	}
	if err != nil {
		s.logger.Error("update organization error", map[string]interface{}{"userId": userID, "error": err.Error()})
		return nil, errors.NewQueryExecutionFailedError("update_organization", err)
	}

	s.logger.Info("organization branding updated", map[string]interface{}{"organizationId": org.ID})
	return org, nil
}

// ValidateBranding checks the optional fields of a branding update.
func ValidateBranding(update models.BrandingUpdate) error {
	if update.Name != nil && len([]rune(strings.TrimSpace(*update.Name))) < 2 {
		return errors.NewValidationError("name must be at least 2 characters")
	}
	if update.PrimaryColor != nil && !colorPattern.MatchString(*update.PrimaryColor) {
		return errors.NewValidationError("primaryColor must be a hex color like #4f46e5")
	}
	if update.LogoURL != nil {
		u, err := url.Parse(*update.LogoURL)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return errors.NewValidationError("logoUrl must be an absolute URL")
		}
	}
	return nil
}

func scanOrganization(row *sql.Row) (*models.Organization, error) {
	var org models.Organization
	var branding []byte
	if err := row.Scan(&org.ID, &org.Name, &org.Slug, &branding, &org.CreatedAt, &org.UpdatedAt); err != nil {
		return nil, err
	}
	if len(branding) > 0 {
		if err := json.Unmarshal(branding, &org.Branding); err != nil {
			return nil, err
		}
	}
	return &org, nil
}
