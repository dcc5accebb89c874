// Package rls scopes a postgres transaction to one tenant so row-level
// security policies keyed on app.current_company_id can apply.
package rls

import (
	"strconv"

	"gorm.io/gorm"
)

const companySetting = "app.current_company_id"

// WithCompany sets the tenant for the rest of tx. It is a no-op on dialects
// without session settings.
func WithCompany(tx *gorm.DB, companyID int64) error {
	if tx == nil || tx.Dialector == nil || tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec(
		"SELECT set_config(?, ?, true)",
		companySetting,
		strconv.FormatInt(companyID, 10),
	).Error
}
