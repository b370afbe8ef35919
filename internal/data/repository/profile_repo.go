package repository

import (
	"context"
	"errors"
	"fmt"

	"car-share/internal/data/entity"
	"car-share/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ProfileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error)
	FindByEmail(ctx context.Context, email string) (*entity.Profile, error)
	// Upsert inserts the profile or updates name, email and connected account of an existing one.
	Upsert(ctx context.Context, profile *entity.Profile) error
	// SetAccountStatus writes the status and the linked flag together. It reports whether
	// a row was found.
	SetAccountStatus(ctx context.Context, id uuid.UUID, status entity.ConnectedAccountStatus) (bool, error)
}

type profileRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewProfileRepository(db database.PgxIface, log *zap.Logger) ProfileRepository {
	return &profileRepository{
		db:  db,
		log: log.With(zap.String("repository", "profile")),
	}
}

const upsertProfileSQL = `
	INSERT INTO profiles (id, full_name, email, connected_account_id, stripe_connected_linked,
	                      account_status, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO UPDATE
	SET full_name = EXCLUDED.full_name,
	    email = EXCLUDED.email,
	    connected_account_id = EXCLUDED.connected_account_id,
	    account_status = CASE
	        WHEN profiles.connected_account_id IS DISTINCT FROM EXCLUDED.connected_account_id
	        THEN EXCLUDED.account_status
	        ELSE profiles.account_status END,
	    stripe_connected_linked = CASE
	        WHEN profiles.connected_account_id IS DISTINCT FROM EXCLUDED.connected_account_id
	        THEN EXCLUDED.stripe_connected_linked
	        ELSE profiles.stripe_connected_linked END,
	    updated_at = EXCLUDED.updated_at
`

func profileArgs(p *entity.Profile) []any {
	return []any{
		p.ID,
		p.FullName,
		p.Email,
		p.ConnectedAccountID,
		p.StripeConnectedLinked,
		p.AccountStatus,
		p.CreatedAt,
		p.UpdatedAt,
	}
}

func (r *profileRepository) findOne(ctx context.Context, where string, arg any) (*entity.Profile, error) {
	query := `
		SELECT id, full_name, email, connected_account_id, stripe_connected_linked,
		       account_status, created_at, updated_at
		FROM profiles
		WHERE ` + where

	var p entity.Profile
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&p.ID,
		&p.FullName,
		&p.Email,
		&p.ConnectedAccountID,
		&p.StripeConnectedLinked,
		&p.AccountStatus,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

func (r *profileRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error) {
	p, err := r.findOne(ctx, "id = $1", id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find profile by ID",
			zap.Error(err),
			zap.String("profile_id", id.String()),
		)
		return nil, fmt.Errorf("find profile by ID %s: %w", id.String(), err)
	}

	return p, nil
}

func (r *profileRepository) FindByEmail(ctx context.Context, email string) (*entity.Profile, error) {
	p, err := r.findOne(ctx, "LOWER(email) = LOWER($1)", email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find profile by email",
			zap.Error(err),
			zap.String("email", email),
		)
		return nil, fmt.Errorf("find profile by email %s: %w", email, err)
	}

	return p, nil
}

func (r *profileRepository) Upsert(ctx context.Context, profile *entity.Profile) error {
	if _, err := r.db.Exec(ctx, upsertProfileSQL, profileArgs(profile)...); err != nil {
		r.log.Error("Failed to upsert profile",
			zap.Error(err),
			zap.String("profile_id", profile.ID.String()),
		)
		return fmt.Errorf("upsert profile %s: %w", profile.ID.String(), err)
	}

	return nil
}

func (r *profileRepository) SetAccountStatus(ctx context.Context, id uuid.UUID, status entity.ConnectedAccountStatus) (bool, error) {
	query := `
		UPDATE profiles
		SET account_status = $2, stripe_connected_linked = $3, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id, status, status == entity.AccountStatusActive)
	if err != nil {
		r.log.Error("Failed to set account status",
			zap.Error(err),
			zap.String("profile_id", id.String()),
			zap.String("status", string(status)),
		)
		return false, fmt.Errorf("set account status of %s to %s: %w", id.String(), status, err)
	}

	return result.RowsAffected() > 0, nil
}
