package service

import (
	"context"
	"fmt"
	"time"

	"github.com/equity-capital-ledger/internal/capital/register"
	"github.com/equity-capital-ledger/internal/domain/movement"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// HoldingsReport returns the share register of a company as of a date. A zero
// asOf means today; an empty shareClass covers every class.
func (s *CapitalServiceImpl) HoldingsReport(ctx context.Context, company string, asOf time.Time, shareClass string) ([]register.Holding, error) {
	if asOf.IsZero() {
		asOf = time.Now()
	}
	asOf = shared.NormalizeDate(asOf)

	if _, err := s.repos.Companies.GetByName(ctx, company); err != nil {
		return nil, err
	}
	movements, err := s.repos.Movements.ListForRegister(ctx, movement.RegisterFilter{
		Company:    company,
		AsOf:       asOf,
		ShareClass: shareClass,
	})
	if err != nil {
		s.logger.Error("Failed to list movements for register", "company", company, "error", err)
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}

	rows := register.Holdings(movements, asOf, shareClass)
	names := make(map[uuid.UUID]string)
	for i := range rows {
		id := rows[i].ShareholderID
		name, seen := names[id]
		if !seen {
			h, err := s.repos.Shareholders.GetByID(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("failed to load shareholder %s: %w", id, err)
			}
			name = h.Name
			names[id] = name
		}
		rows[i].ShareholderName = name
	}
	return rows, nil
}
