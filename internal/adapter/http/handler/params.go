package handler

import (
	"strconv"
	"time"

	"gig-escrow/internal/adapter/http/middleware"
	"gig-escrow/internal/core/domain"
	"gig-escrow/pkg/apperror"

	"github.com/gin-gonic/gin"
)

const timeLayout = time.RFC3339

// pathID reads a positive numeric path parameter. notFound is returned for
// ids that cannot name an existing record.
func pathID(c *gin.Context, name string, notFound *apperror.AppError) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, notFound
	}
	return id, nil
}

// identityParam parses an identity from a path or query value. "me" resolves
// to the authenticated caller.
func identityParam(c *gin.Context, raw, field string) (domain.Address, error) {
	if raw == "me" {
		caller := middleware.Caller(c)
		if caller.IsZero() {
			return "", apperror.ErrInvalidToken()
		}
		return caller, nil
	}
	addr, err := domain.ParseAddress(raw)
	if err != nil {
		return "", apperror.Validation(field + " must be a valid identity")
	}
	return addr, nil
}

// optionalIdentity is identityParam for filters: empty means no filter.
func optionalIdentity(c *gin.Context, field string) (domain.Address, error) {
	raw := c.Query(field)
	if raw == "" {
		return "", nil
	}
	return identityParam(c, raw, field)
}

// pageQuery reads offset and limit query parameters.
func pageQuery(c *gin.Context) domain.Page {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(domain.DefaultPageLimit)))
	return domain.Page{Offset: offset, Limit: limit}.Normalize()
}

// requireCaller returns the authenticated identity or AUTH_003.
func requireCaller(c *gin.Context) (domain.Address, bool) {
	caller := middleware.Caller(c)
	if caller.IsZero() {
		return "", false
	}
	return caller, true
}
