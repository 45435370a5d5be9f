package core

import (
	"context"
	"fmt"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
)

type ImpactFactorService struct {
	db DB
}

func NewImpactFactorService(db DB) *ImpactFactorService {
	return &ImpactFactorService{db: db}
}

// List returns every impact factor ordered by item.
func (s *ImpactFactorService) List(ctx context.Context) ([]model.ImpactFactor, error) {
	rows, err := s.db.Query(ctx, `SELECT item, co2_saved_kg FROM impact_factors ORDER BY item`)
	if err != nil {
		return nil, fetchErr("impact_factors", fmt.Errorf("list impact factors: %w", err))
	}
	defer rows.Close()

	factors := []model.ImpactFactor{}
	for rows.Next() {
		var f model.ImpactFactor
		if err := rows.Scan(&f.Item, &f.CO2SavedKg); err != nil {
			return nil, fetchErr("impact_factors", fmt.Errorf("scan impact factor: %w", err))
		}
		factors = append(factors, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fetchErr("impact_factors", fmt.Errorf("iterate impact factors: %w", err))
	}
	return factors, nil
}

// Lookup returns the impact factors keyed by item. Negative factors are
// clamped to zero.
func (s *ImpactFactorService) Lookup(ctx context.Context) (map[string]float64, error) {
	factors, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	lookup := make(map[string]float64, len(factors))
	for _, f := range factors {
		lookup[f.Item] = max(f.CO2SavedKg, 0)
	}
	return lookup, nil
}
