// Package api is the HTTP adapter: Gin handlers, route groups, and the
// mapping from domain errors to HTTP statuses.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/facetlabs/facet/internal/domain/users"
	"github.com/facetlabs/facet/pkg/auth"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth     *AuthHandler
	Users    *UserHandler
	Diamonds *DiamondHandler
	Auctions *AuctionHandler
	Bids     *BidHandler
	Results  *ResultHandler
	Monitor  *MonitorHandler
}

// NewRouter wires the three route surfaces: public, authenticated user, and
// admin-only.
func NewRouter(h Handlers, signer *auth.Signer, denylist auth.Denylist, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public.
	v1.POST("/auth/login", h.Auth.Login)

	// Any authenticated user.
	authed := v1.Group("", auth.Authenticate(signer, denylist))
	{
		authed.POST("/auth/logout", h.Auth.Logout)
		authed.GET("/auth/me", h.Auth.Me)

		authed.GET("/auctions/active", h.Auctions.ListActive)
		authed.GET("/auctions/active/:id", h.Auctions.GetActive)
		authed.GET("/auctions/upcoming", h.Auctions.ListUpcoming)
		authed.GET("/auctions/closed", h.Auctions.ListRecentlyClosed)

		authed.POST("/auctions/:id/bids", h.Bids.Place)
		authed.GET("/me/bids", h.Bids.MyBids)
		authed.GET("/me/bids/:id/history", h.Bids.History)

		authed.GET("/me/results", h.Results.MyResults)
		authed.GET("/me/results/:id", h.Results.MyResult)
	}

	// Admin only.
	admin := v1.Group("/admin", auth.Authenticate(signer, denylist), auth.RequireRole(string(users.RoleAdmin)))
	{
		admin.POST("/users", h.Users.Create)
		admin.GET("/users", h.Users.List)
		admin.GET("/users/:id", h.Users.Get)
		admin.PATCH("/users/:id/active", h.Users.SetActive)

		admin.POST("/diamonds", h.Diamonds.Create)
		admin.GET("/diamonds", h.Diamonds.List)
		admin.GET("/diamonds/:id", h.Diamonds.Get)
		admin.PATCH("/diamonds/:id", h.Diamonds.Update)

		admin.POST("/auctions", h.Auctions.Create)
		admin.GET("/auctions", h.Auctions.List)
		admin.GET("/auctions/:id", h.Auctions.Get)
		admin.PATCH("/auctions/:id", h.Auctions.Update)
		admin.DELETE("/auctions/:id", h.Auctions.Delete)
		admin.POST("/auctions/:id/activate", h.Auctions.Activate)
		admin.POST("/auctions/:id/close", h.Auctions.Close)
		admin.GET("/auctions/:id/statistics", h.Auctions.Statistics)
		admin.POST("/auctions/:id/result", h.Results.Declare)

		admin.GET("/monitor/auctions", h.Monitor.List)
	}

	return router
}
