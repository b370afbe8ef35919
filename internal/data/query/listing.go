package query

import (
	"fmt"
	"strings"

	"car-share/internal/pricing"
)

type Op string

const (
	OpContains Op = "contains"
	OpEq       Op = "eq"
	OpGte      Op = "gte"
	OpLte      Op = "lte"
)

// Predicate constrains one column. Predicates of a QuerySpec are joined with AND.
type Predicate struct {
	Column string
	Op     Op
	Value  any
}

type QuerySpec struct {
	Predicates []Predicate
}

type PriceRange struct {
	Min float64
	Max float64
}

// ListingFilter is the closed set of search filters. A nil field imposes no constraint.
type ListingFilter struct {
	Make            *string
	Model           *string
	Year            *int
	Transmission    *string
	FuelType        *string
	VehicleType     *string
	SeatingCapacity *int
	PriceRange      *PriceRange
	DateRange       *pricing.DateRange
}

func BuildListingQuery(f ListingFilter) QuerySpec {
	var spec QuerySpec

	if f.Make != nil {
		spec.add("make", OpContains, *f.Make)
	}
	if f.Model != nil {
		spec.add("model", OpContains, *f.Model)
	}
	if f.Year != nil {
		spec.add("year", OpEq, *f.Year)
	}
	if f.Transmission != nil {
		spec.add("transmission", OpEq, *f.Transmission)
	}
	if f.FuelType != nil {
		spec.add("fuel_type", OpEq, *f.FuelType)
	}
	if f.VehicleType != nil {
		spec.add("vehicle_type", OpEq, *f.VehicleType)
	}
	if f.SeatingCapacity != nil {
		spec.add("seating_capacity", OpGte, *f.SeatingCapacity)
	}
	if f.PriceRange != nil {
		spec.add("price_per_day", OpGte, f.PriceRange.Min)
		spec.add("price_per_day", OpLte, f.PriceRange.Max)
	}
	// interval overlap, not containment
	if f.DateRange != nil {
		spec.add("availability_from", OpLte, f.DateRange.To)
		spec.add("availability_to", OpGte, f.DateRange.From)
	}

	return spec
}

func (s *QuerySpec) add(column string, op Op, value any) {
	s.Predicates = append(s.Predicates, Predicate{Column: column, Op: op, Value: value})
}

// Where renders the predicates as an AND-joined SQL condition whose placeholders start at
// $startArg. An empty spec renders as "TRUE".
func (s QuerySpec) Where(startArg int) (string, []any) {
	if len(s.Predicates) == 0 {
		return "TRUE", nil
	}

	var sb strings.Builder
	args := make([]any, 0, len(s.Predicates))
	argCount := startArg

	for i, p := range s.Predicates {
		if i > 0 {
			sb.WriteString(" AND ")
		}

		value := p.Value
		switch p.Op {
		case OpContains:
			sb.WriteString(fmt.Sprintf("%s ILIKE $%d", p.Column, argCount))
			value = "%" + escapeLike(fmt.Sprint(p.Value)) + "%"
		case OpGte:
			sb.WriteString(fmt.Sprintf("%s >= $%d", p.Column, argCount))
		case OpLte:
			sb.WriteString(fmt.Sprintf("%s <= $%d", p.Column, argCount))
		default:
			sb.WriteString(fmt.Sprintf("%s = $%d", p.Column, argCount))
		}

		args = append(args, value)
		argCount++
	}

	return sb.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
