package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/facetlabs/facet/internal/domain/auctions"
	"github.com/facetlabs/facet/internal/domain/diamonds"
	"github.com/facetlabs/facet/internal/domain/results"
	"github.com/facetlabs/facet/internal/domain/userbids"
	"github.com/facetlabs/facet/internal/domain/users"
	"github.com/facetlabs/facet/pkg/auth"
)

// respondError maps domain sentinel errors onto HTTP statuses. Anything
// unmapped is a 500 and gets logged with the request path.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, users.ErrInvalidInput),
		errors.Is(err, auctions.ErrInvalidTimeRange),
		errors.Is(err, auctions.ErrEndTimeInPast),
		errors.Is(err, auctions.ErrInvalidBasePrice),
		errors.Is(err, diamonds.ErrInvalidName),
		errors.Is(err, diamonds.ErrInvalidBasePrice),
		errors.Is(err, userbids.ErrAmountBelowBase),
		errors.Is(err, userbids.ErrAmountNotIncreased),
		errors.Is(err, results.ErrBeforeEndTime),
		errors.Is(err, results.ErrNoBids):
		status = http.StatusBadRequest

	case errors.Is(err, users.ErrInvalidCredentials):
		status = http.StatusUnauthorized

	case errors.Is(err, users.ErrAccountDeactivated),
		errors.Is(err, userbids.ErrUserNotAllowed):
		status = http.StatusForbidden

	case errors.Is(err, users.ErrUserNotFound),
		errors.Is(err, diamonds.ErrDiamondNotFound),
		errors.Is(err, auctions.ErrAuctionNotFound),
		errors.Is(err, auctions.ErrDiamondNotFound),
		errors.Is(err, userbids.ErrAuctionNotFound),
		errors.Is(err, userbids.ErrUserBidNotFound),
		errors.Is(err, results.ErrAuctionNotFound),
		errors.Is(err, results.ErrNotDeclared):
		status = http.StatusNotFound

	case errors.Is(err, users.ErrUserAlreadyExists),
		errors.Is(err, auctions.ErrDiamondHasOpenAuction),
		errors.Is(err, auctions.ErrNotDraft),
		errors.Is(err, auctions.ErrAlreadyClosed),
		errors.Is(err, auctions.ErrAuctionEnded),
		errors.Is(err, auctions.ErrHasUserBids),
		errors.Is(err, userbids.ErrBiddingNotActive),
		errors.Is(err, userbids.ErrBiddingWindowClosed),
		errors.Is(err, results.ErrAlreadyDeclared):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		logger.Error("Unhandled error", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(status, gin.H{"message": err.Error()})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": message})
}

// pathUUID parses a :param path segment as a UUID and writes a 400 on failure.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// callerID returns the authenticated user's id from the Gin context.
func callerID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString(auth.UserIDKey))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return uuid.Nil, false
	}
	return id, true
}
