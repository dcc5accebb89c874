package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/smallbiznis/tidybill/internal/billing/domain"
	"github.com/smallbiznis/tidybill/internal/cache"
	"github.com/smallbiznis/tidybill/internal/orgcontext"
)

const headerCache = "X-Cache"

// GetBillingPreview returns the invoice preview for one client month. Year and
// month default to the current UTC month.
func (s *Server) GetBillingPreview(c *gin.Context) {
	clientID := strings.TrimSpace(c.Param("client_id"))
	if clientID == "" {
		AbortWithError(c, billingdomain.ErrInvalidClient)
		return
	}

	year, err := parseOptionalInt(c.Query("year"))
	if err != nil {
		AbortWithError(c, billingdomain.ErrInvalidYear)
		return
	}
	month, err := parseOptionalInt(c.Query("month"))
	if err != nil {
		AbortWithError(c, billingdomain.ErrInvalidMonth)
		return
	}

	now := s.clock.Now()
	req := billingdomain.PreviewRequest{
		ClientID: clientID,
		Year:     now.Year(),
		Month:    int(now.Month()),
	}
	if year != nil {
		req.Year = *year
	}
	if month != nil {
		req.Month = *month
	}

	ctx := c.Request.Context()
	companyID, ok := orgcontext.CompanyIDFromContext(ctx)
	if !ok {
		AbortWithError(c, ErrCompanyRequired)
		return
	}
	key := cache.PreviewKey{
		CompanyID: companyID.String(),
		ClientID:  clientID,
		Year:      req.Year,
		Month:     req.Month,
	}

	if s.previewCache != nil && !noCache(c) {
		if preview, hit := s.previewCache.Get(ctx, key); hit {
			c.Header(headerCache, "hit")
			c.JSON(http.StatusOK, gin.H{"preview": preview})
			return
		}
	}

	preview, err := s.billingSvc.Preview(ctx, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.previewCache != nil {
		s.previewCache.Set(ctx, key, preview, s.billingCfg.Get().PreviewCacheTTL)
	}
	c.Header(headerCache, "miss")
	c.JSON(http.StatusOK, gin.H{"preview": preview})
}

func noCache(c *gin.Context) bool {
	return strings.Contains(strings.ToLower(c.GetHeader("Cache-Control")), "no-cache")
}
