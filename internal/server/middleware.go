package server

import (
	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/tidybill/internal/observability/context"
	"github.com/smallbiznis/tidybill/internal/orgcontext"
)

const HeaderCompany = "X-Company-ID"

// CompanyContext resolves the tenant from the request header and scopes the
// request context to it. Every billing read requires a tenant.
func CompanyContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID, ok := orgcontext.ParseCompanyID(c.GetHeader(HeaderCompany))
		if !ok {
			AbortWithError(c, ErrCompanyRequired)
			return
		}

		ctx := orgcontext.WithCompanyID(c.Request.Context(), int64(companyID))
		ctx = obscontext.WithCompanyID(ctx, companyID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
