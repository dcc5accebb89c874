package rls

import (
	"testing"

	"github.com/smallbiznis/tidybill/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestWithCompany_NoopOutsidePostgres(t *testing.T) {
	conn := dbtest.Open(t)

	err := conn.Transaction(func(tx *gorm.DB) error {
		return WithCompany(tx, 1001)
	})
	assert.NoError(t, err)
	assert.NoError(t, WithCompany(nil, 1001))
}
