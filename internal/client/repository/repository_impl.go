package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tidybill/internal/client/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, client *domain.Client) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO clients (id, company_id, name, tax_rate, tax_exempt, billing_display_mode, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		client.ID,
		client.CompanyID,
		client.Name,
		client.TaxRate,
		client.TaxExempt,
		client.BillingDisplayMode,
		client.CreatedAt,
		client.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, companyID, id snowflake.ID) (*domain.Client, error) {
	var client domain.Client
	err := db.WithContext(ctx).Raw(
		`SELECT id, company_id, name, tax_rate, tax_exempt, billing_display_mode, created_at, updated_at
		 FROM clients WHERE company_id = ? AND id = ?`,
		companyID,
		id,
	).Scan(&client).Error
	if err != nil {
		return nil, err
	}
	if client.ID == 0 {
		return nil, nil
	}
	return &client, nil
}

func (r *repo) ListRefs(ctx context.Context, db *gorm.DB, afterID snowflake.ID, limit int) ([]domain.Ref, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []struct {
		ID        snowflake.ID
		CompanyID snowflake.ID
	}
	err := db.WithContext(ctx).Raw(
		`SELECT id, company_id FROM clients WHERE id > ? ORDER BY id ASC LIMIT ?`,
		afterID,
		limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	refs := make([]domain.Ref, 0, len(rows))
	for _, row := range rows {
		refs = append(refs, domain.Ref{CompanyID: row.CompanyID, ClientID: row.ID})
	}
	return refs, nil
}
