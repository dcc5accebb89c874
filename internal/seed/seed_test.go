package seed

import (
	"testing"

	clientdomain "github.com/smallbiznis/tidybill/internal/client/domain"
	facilitydomain "github.com/smallbiznis/tidybill/internal/facility/domain"
	"github.com/smallbiznis/tidybill/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDemoData_Idempotent(t *testing.T) {
	conn := dbtest.Open(t,
		&clientdomain.Client{},
		&facilitydomain.Profile{},
		&facilitydomain.SeasonalRule{},
		&facilitydomain.MonthlyOverride{},
	)

	require.NoError(t, EnsureDemoData(conn))
	require.NoError(t, EnsureDemoData(conn))

	var clients, profiles, rules, overrides int64
	require.NoError(t, conn.Model(&clientdomain.Client{}).Count(&clients).Error)
	require.NoError(t, conn.Model(&facilitydomain.Profile{}).Where("company_id = ?", DemoCompanyID).Count(&profiles).Error)
	require.NoError(t, conn.Model(&facilitydomain.SeasonalRule{}).Count(&rules).Error)
	require.NoError(t, conn.Model(&facilitydomain.MonthlyOverride{}).Count(&overrides).Error)

	assert.Equal(t, int64(1), clients)
	assert.Equal(t, int64(4), profiles)
	assert.Equal(t, int64(1), rules)
	assert.Equal(t, int64(1), overrides)
}

func TestEnsureDemoData_NilHandle(t *testing.T) {
	assert.Error(t, EnsureDemoData(nil))
}
