package repository

import (
	"context"
	"errors"
	"fmt"

	"car-share/internal/data/entity"
	"car-share/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type OTPRepository interface {
	// Issue stores a new code and retires the user's outstanding codes of the same type.
	Issue(ctx context.Context, otp *entity.OTP) error
	// Consume marks the newest live code matching email and code as used and returns it,
	// or nil when there is none. A code can be consumed once.
	Consume(ctx context.Context, email, code string, otpType entity.OTPType) (*entity.OTP, error)
}

type otpRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewOTPRepository(db database.PgxIface, log *zap.Logger) OTPRepository {
	return &otpRepository{
		db:  db,
		log: log.With(zap.String("repository", "otp")),
	}
}

func (r *otpRepository) Issue(ctx context.Context, otp *entity.OTP) error {
	err := database.InTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`UPDATE otps SET is_used = true WHERE user_id = $1 AND otp_type = $2 AND is_used = false`,
			otp.UserID, otp.OTPType,
		); err != nil {
			return fmt.Errorf("retire previous codes: %w", err)
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO otps (id, user_id, email, otp_code, otp_type, expires_at, is_used, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, false, $7)
		`, otp.ID, otp.UserID, otp.Email, otp.OTPCode, otp.OTPType, otp.ExpiresAt, otp.CreatedAt)
		return err
	})
	if err != nil {
		r.log.Error("Failed to issue OTP",
			zap.Error(err),
			zap.String("user_id", otp.UserID.String()),
			zap.String("otp_type", string(otp.OTPType)),
		)
		return fmt.Errorf("issue OTP for %s: %w", otp.UserID.String(), err)
	}

	return nil
}

func (r *otpRepository) Consume(ctx context.Context, email, code string, otpType entity.OTPType) (*entity.OTP, error) {
	query := `
		UPDATE otps SET is_used = true
		WHERE id = (
			SELECT id FROM otps
			WHERE LOWER(email) = LOWER($1)
			  AND otp_code = $2
			  AND otp_type = $3
			  AND is_used = false
			  AND expires_at > NOW()
			ORDER BY created_at DESC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, user_id, email, otp_code, otp_type, expires_at, is_used, created_at
	`

	var otp entity.OTP
	err := r.db.QueryRow(ctx, query, email, code, otpType).Scan(
		&otp.ID,
		&otp.UserID,
		&otp.Email,
		&otp.OTPCode,
		&otp.OTPType,
		&otp.ExpiresAt,
		&otp.IsUsed,
		&otp.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to consume OTP", zap.Error(err), zap.String("otp_type", string(otpType)))
		return nil, fmt.Errorf("consume OTP: %w", err)
	}

	return &otp, nil
}
