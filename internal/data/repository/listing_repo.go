package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"car-share/internal/data/entity"
	"car-share/internal/data/query"
	"car-share/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ListingRepository interface {
	Create(ctx context.Context, listing *entity.Listing) error
	FindByID(ctx context.Context, id int64) (*entity.Listing, error)
	Search(ctx context.Context, spec query.QuerySpec, limit, offset int) ([]*entity.Listing, error)
	Count(ctx context.Context, spec query.QuerySpec) (int64, error)
	// FindOwnersByPhotoKey returns the owners of listings showing a photo stored under key.
	FindOwnersByPhotoKey(ctx context.Context, key string) ([]uuid.UUID, error)
}

type listingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewListingRepository(db database.PgxIface, log *zap.Logger) ListingRepository {
	return &listingRepository{
		db:  db,
		log: log.With(zap.String("repository", "listing")),
	}
}

const listingColumns = `
	id, owner_id, make, model, year, vehicle_type, transmission, fuel_type,
	seating_capacity, number_of_doors, trunk_space, description, features,
	special_conditions, photos, license_plate, vin, price_per_day, weekly_discount,
	monthly_discount, mileage_limit, extra_mileage_charge, fuel_policy,
	min_rental_duration, max_rental_duration, availability_from, availability_to,
	created_at, updated_at
`

func scanListing(row pgx.Row) (*entity.Listing, error) {
	var l entity.Listing
	err := row.Scan(
		&l.ID,
		&l.OwnerID,
		&l.Make,
		&l.Model,
		&l.Year,
		&l.VehicleType,
		&l.Transmission,
		&l.FuelType,
		&l.SeatingCapacity,
		&l.NumberOfDoors,
		&l.TrunkSpace,
		&l.Description,
		&l.Features,
		&l.SpecialConditions,
		&l.Photos,
		&l.LicensePlate,
		&l.VIN,
		&l.PricePerDay,
		&l.WeeklyDiscount,
		&l.MonthlyDiscount,
		&l.MileageLimit,
		&l.ExtraMileageCharge,
		&l.FuelPolicy,
		&l.MinRentalDuration,
		&l.MaxRentalDuration,
		&l.AvailabilityFrom,
		&l.AvailabilityTo,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Create inserts the listing and sets its generated ID.
func (r *listingRepository) Create(ctx context.Context, l *entity.Listing) error {
	q := `
		INSERT INTO cars (owner_id, make, model, year, vehicle_type, transmission, fuel_type,
		                  seating_capacity, number_of_doors, trunk_space, description, features,
		                  special_conditions, photos, license_plate, vin, price_per_day,
		                  weekly_discount, monthly_discount, mileage_limit, extra_mileage_charge,
		                  fuel_policy, min_rental_duration, max_rental_duration,
		                  availability_from, availability_to, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
		        $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, q,
		l.OwnerID,
		l.Make,
		l.Model,
		l.Year,
		l.VehicleType,
		l.Transmission,
		l.FuelType,
		l.SeatingCapacity,
		l.NumberOfDoors,
		l.TrunkSpace,
		l.Description,
		l.Features,
		l.SpecialConditions,
		l.Photos,
		l.LicensePlate,
		l.VIN,
		l.PricePerDay,
		l.WeeklyDiscount,
		l.MonthlyDiscount,
		l.MileageLimit,
		l.ExtraMileageCharge,
		l.FuelPolicy,
		l.MinRentalDuration,
		l.MaxRentalDuration,
		l.AvailabilityFrom,
		l.AvailabilityTo,
		l.CreatedAt,
		l.UpdatedAt,
	).Scan(&l.ID)
	if err != nil {
		r.log.Error("Failed to create listing",
			zap.Error(err),
			zap.String("owner_id", l.OwnerID.String()),
			zap.String("make", l.Make),
			zap.String("model", l.Model),
		)
		return fmt.Errorf("create listing: %w", err)
	}

	return nil
}

func (r *listingRepository) FindByID(ctx context.Context, id int64) (*entity.Listing, error) {
	q := `SELECT ` + listingColumns + ` FROM cars WHERE id = $1`

	l, err := scanListing(r.db.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find listing by ID",
			zap.Error(err),
			zap.Int64("listing_id", id),
		)
		return nil, fmt.Errorf("find listing %d: %w", id, err)
	}

	return l, nil
}

func (r *listingRepository) Search(ctx context.Context, spec query.QuerySpec, limit, offset int) ([]*entity.Listing, error) {
	where, args := spec.Where(1)
	argCount := len(args) + 1

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + listingColumns + ` FROM cars WHERE `)
	queryBuilder.WriteString(where)
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		r.log.Error("Failed to search listings",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
			zap.Int("predicates", len(spec.Predicates)),
		)
		return nil, fmt.Errorf("search listings: %w", err)
	}
	defer rows.Close()

	var listings []*entity.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			r.log.Error("Failed to scan listing row", zap.Error(err))
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, l)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate listing rows: %w", err)
	}

	r.log.Debug("Listings found",
		zap.Int("count", len(listings)),
		zap.Int("offset", offset),
		zap.Int("limit", limit),
	)

	return listings, nil
}

func (r *listingRepository) Count(ctx context.Context, spec query.QuerySpec) (int64, error) {
	where, args := spec.Where(1)

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM cars WHERE `+where, args...).Scan(&total); err != nil {
		r.log.Error("Failed to count listings", zap.Error(err))
		return 0, fmt.Errorf("count listings: %w", err)
	}

	return total, nil
}

func (r *listingRepository) FindOwnersByPhotoKey(ctx context.Context, key string) ([]uuid.UUID, error) {
	// the key is the last path segment of the stored url, query string excluded
	q := `
		SELECT DISTINCT c.owner_id
		FROM cars c, unnest(c.photos) AS photo
		WHERE right(split_part(photo, '?', 1), length($1) + 1) = '/' || $1
	`

	rows, err := r.db.Query(ctx, q, key)
	if err != nil {
		r.log.Error("Failed to find photo owners", zap.Error(err), zap.String("key", key))
		return nil, fmt.Errorf("find owners of photo %s: %w", key, err)
	}
	defer rows.Close()

	var owners []uuid.UUID
	for rows.Next() {
		var owner uuid.UUID
		if err := rows.Scan(&owner); err != nil {
			return nil, fmt.Errorf("scan photo owner: %w", err)
		}
		owners = append(owners, owner)
	}

	return owners, rows.Err()
}
