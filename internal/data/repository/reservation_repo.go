package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"car-share/internal/data/entity"
	"car-share/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// ErrReservationOverlap is returned by Create when the exclusion constraint on active
// reservations of a listing rejects the date range.
var ErrReservationOverlap = errors.New("reservation overlaps an active reservation")

const pgExclusionViolation = "23P01"

type ReservationRepository interface {
	Create(ctx context.Context, reservation *entity.Reservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error)
	FindByRenter(ctx context.Context, renterID uuid.UUID, limit, offset int) ([]*entity.Reservation, error)
	CountByRenter(ctx context.Context, renterID uuid.UUID) (int64, error)
	// FindActiveByListing returns pending and confirmed reservations of a listing.
	FindActiveByListing(ctx context.Context, listingID int64) ([]*entity.Reservation, error)
	SetCheckoutSession(ctx context.Context, id uuid.UUID, sessionID string) error
	// TransitionStatus moves a pending reservation to status. It reports false when the
	// reservation was not pending anymore.
	TransitionStatus(ctx context.Context, id uuid.UUID, status entity.ReservationStatus) (bool, error)
	ExpirePendingBefore(ctx context.Context, cutoff time.Time) (int64, error)
	// Reinstate confirms an expired or cancelled reservation that was paid after all. It
	// returns ErrReservationOverlap when its dates were booked in the meantime.
	Reinstate(ctx context.Context, id uuid.UUID) (bool, error)
}

type reservationRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewReservationRepository(db database.PgxIface, log *zap.Logger) ReservationRepository {
	return &reservationRepository{
		db:  db,
		log: log.With(zap.String("repository", "reservation")),
	}
}

const reservationColumns = `
	id, code, listing_id, renter_id, start_date, end_date, days, base_price, discount,
	total_price, amount_minor, application_fee_minor, currency, checkout_session_id,
	status, created_at, updated_at
`

func scanReservation(row pgx.Row) (*entity.Reservation, error) {
	var res entity.Reservation
	err := row.Scan(
		&res.ID,
		&res.Code,
		&res.ListingID,
		&res.RenterID,
		&res.StartDate,
		&res.EndDate,
		&res.Days,
		&res.BasePrice,
		&res.Discount,
		&res.TotalPrice,
		&res.AmountMinor,
		&res.ApplicationFeeMinor,
		&res.Currency,
		&res.CheckoutSessionID,
		&res.Status,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *reservationRepository) Create(ctx context.Context, res *entity.Reservation) error {
	query := `
		INSERT INTO reservations (` + reservationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.db.Exec(ctx, query,
		res.ID,
		res.Code,
		res.ListingID,
		res.RenterID,
		res.StartDate,
		res.EndDate,
		res.Days,
		res.BasePrice,
		res.Discount,
		res.TotalPrice,
		res.AmountMinor,
		res.ApplicationFeeMinor,
		res.Currency,
		res.CheckoutSessionID,
		res.Status,
		res.CreatedAt,
		res.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation {
			return fmt.Errorf("create reservation %s: %w", res.Code, ErrReservationOverlap)
		}
		r.log.Error("Failed to create reservation",
			zap.Error(err),
			zap.String("code", res.Code),
			zap.Int64("listing_id", res.ListingID),
		)
		return fmt.Errorf("create reservation %s: %w", res.Code, err)
	}

	return nil
}

func (r *reservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	res, err := scanReservation(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find reservation by ID",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
		)
		return nil, fmt.Errorf("find reservation %s: %w", id.String(), err)
	}

	return res, nil
}

func (r *reservationRepository) findMany(ctx context.Context, query string, args ...any) ([]*entity.Reservation, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []*entity.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation row: %w", err)
		}
		reservations = append(reservations, res)
	}

	return reservations, rows.Err()
}

func (r *reservationRepository) FindByRenter(ctx context.Context, renterID uuid.UUID, limit, offset int) ([]*entity.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE renter_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	reservations, err := r.findMany(ctx, query, renterID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find reservations by renter",
			zap.Error(err),
			zap.String("renter_id", renterID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find reservations of %s: %w", renterID.String(), err)
	}

	return reservations, nil
}

func (r *reservationRepository) CountByRenter(ctx context.Context, renterID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reservations WHERE renter_id = $1`, renterID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count reservations by renter",
			zap.Error(err),
			zap.String("renter_id", renterID.String()),
		)
		return 0, fmt.Errorf("count reservations of %s: %w", renterID.String(), err)
	}

	return count, nil
}

func (r *reservationRepository) FindActiveByListing(ctx context.Context, listingID int64) ([]*entity.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE listing_id = $1 AND status IN ($2, $3)
		ORDER BY start_date
	`

	reservations, err := r.findMany(ctx, query, listingID,
		entity.ReservationPendingPayment, entity.ReservationConfirmed)
	if err != nil {
		r.log.Error("Failed to find active reservations",
			zap.Error(err),
			zap.Int64("listing_id", listingID),
		)
		return nil, fmt.Errorf("find active reservations of listing %d: %w", listingID, err)
	}

	return reservations, nil
}

func (r *reservationRepository) SetCheckoutSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	query := `UPDATE reservations SET checkout_session_id = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, sessionID)
	if err != nil {
		r.log.Error("Failed to set checkout session",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
		)
		return fmt.Errorf("set checkout session of %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("reservation %s not found", id.String())
	}

	return nil
}

func (r *reservationRepository) TransitionStatus(ctx context.Context, id uuid.UUID, status entity.ReservationStatus) (bool, error) {
	query := `
		UPDATE reservations
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`

	result, err := r.db.Exec(ctx, query, id, status, entity.ReservationPendingPayment)
	if err != nil {
		r.log.Error("Failed to transition reservation",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
			zap.String("status", string(status)),
		)
		return false, fmt.Errorf("transition reservation %s to %s: %w", id.String(), status, err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *reservationRepository) ExpirePendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE reservations
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND created_at < $3
	`

	result, err := r.db.Exec(ctx, query, entity.ReservationExpired, entity.ReservationPendingPayment, cutoff)
	if err != nil {
		r.log.Error("Failed to expire pending reservations",
			zap.Error(err),
			zap.Time("cutoff", cutoff),
		)
		return 0, fmt.Errorf("expire reservations before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	return result.RowsAffected(), nil
}

func (r *reservationRepository) Reinstate(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE reservations
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status IN ($3, $4)
	`

	result, err := r.db.Exec(ctx, query, id,
		entity.ReservationConfirmed, entity.ReservationExpired, entity.ReservationCancelled)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation {
			return false, fmt.Errorf("reinstate reservation %s: %w", id.String(), ErrReservationOverlap)
		}
		r.log.Error("Failed to reinstate reservation",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
		)
		return false, fmt.Errorf("reinstate reservation %s: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}
