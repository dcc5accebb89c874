package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/smallbiznis/tidybill/internal/billing/domain"
	clientdomain "github.com/smallbiznis/tidybill/internal/client/domain"
	facilitydomain "github.com/smallbiznis/tidybill/internal/facility/domain"
	"github.com/smallbiznis/tidybill/pkg/rls"
	"gorm.io/gorm"
)

type monthSnapshot struct {
	client     clientdomain.Client
	facilities []facilitydomain.Snapshot
}

// loadMonth reads the client and its facilities inside one transaction so the
// rule and override set cannot shift mid-computation.
func (s *Service) loadMonth(ctx context.Context, companyID, clientID snowflake.ID, p period) (*monthSnapshot, error) {
	var snap monthSnapshot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := rls.WithCompany(tx, int64(companyID)); err != nil {
			return fmt.Errorf("scope tenant: %w", err)
		}
		client, err := s.clients.FindByID(ctx, tx, companyID, clientID)
		if err != nil {
			return fmt.Errorf("load client: %w", err)
		}
		if client == nil {
			return billingdomain.ErrClientNotFound
		}

		facilities, err := s.facilities.ListSnapshots(ctx, tx, companyID, clientID, p.year, int(p.month))
		if err != nil {
			return fmt.Errorf("load facilities: %w", err)
		}

		snap = monthSnapshot{client: *client, facilities: facilities}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *Service) loadFacilities(ctx context.Context, companyID, clientID snowflake.ID, p period) ([]facilitydomain.Snapshot, error) {
	var facilities []facilitydomain.Snapshot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := rls.WithCompany(tx, int64(companyID)); err != nil {
			return err
		}
		var err error
		facilities, err = s.facilities.ListSnapshots(ctx, tx, companyID, clientID, p.year, int(p.month))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load facilities: %w", err)
	}
	return facilities, nil
}
