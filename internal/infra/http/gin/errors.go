package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	feedssvc "staycal/internal/app/services/feeds"
	domainavailability "staycal/internal/domain/availability"
	domainexport "staycal/internal/domain/export"
	domainfeeds "staycal/internal/domain/feeds"
	"staycal/internal/domain/shared/dateutil"
)

// respondError maps service errors onto HTTP statuses. Validation
// failures never caused writes, not-found means the caller referenced
// something outside its scope, everything else is a retryable server
// failure.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dateutil.ErrInvalidRange),
		errors.Is(err, domainavailability.ErrPropertyRequired),
		errors.Is(err, domainfeeds.ErrNameRequired),
		errors.Is(err, domainfeeds.ErrURLRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, feedssvc.ErrInvalidFeed),
		errors.Is(err, domainfeeds.ErrUnreachable),
		errors.Is(err, domainfeeds.ErrMalformed):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, domainfeeds.ErrSubscriptionNotFound),
		errors.Is(err, domainexport.ErrArtifactNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
