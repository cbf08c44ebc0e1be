package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterOptions configures NewRouter
type RouterOptions struct {
	RequestTimeout time.Duration
	ExposeErrors   bool
}

// NewRouter builds the gin engine with middleware, health check and graph routes
func NewRouter(svc GraphService, log *zap.Logger, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(RequestID())
	router.Use(Logger(log))
	router.Use(gin.Recovery())
	router.Use(CORS())
	router.Use(Timeout(opts.RequestTimeout))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	Register(router.Group("/api"), NewHandler(svc, log, opts.ExposeErrors))
	return router
}

// Register mounts the graph routes under r
func Register(r gin.IRouter, h *Handler) {
	g := r.Group("/graph")
	{
		// Traversal views
		g.GET("", h.getGraph)
		g.POST("", h.postParticipationGraph)
		g.POST("/filtered", h.postFilteredGraph)
		g.GET("/athletes/:name", h.getAthleteOrganisations)
		g.GET("/liked/:email", h.getLikedByEmail)
		g.GET("/liked/:email/summary", h.getLikedSummary)
		g.GET("/likes", h.getAllLikes)
		g.GET("/friends/:email", h.getFriendsByEmail)
		g.GET("/accepted-friends/:username", h.getAcceptedFriends)
		g.GET("/top-organisation", h.getTopOrganisation)

		// Analytics
		g.GET("/similar", h.getSimilar)
		g.POST("/embeddings", h.postEmbeddings)
		g.POST("/knn", h.postKnn)
		g.POST("/knn/setup", h.postKnnSetup)
		g.POST("/pagerank", h.postPageRank)
		g.GET("/pagerank", h.getPageRank)
		g.GET("/communities", h.getCommunities)
		g.GET("/communities/groups", h.getCommunityGroups)
		g.GET("/communities/stored", h.getStoredCommunities)
		g.POST("/communities", h.postCommunities)
		g.GET("/export", h.getExport)

		// Projection lifecycle
		g.POST("/projection/rebuild", h.postProjectionRebuild)
		g.DELETE("/projection", h.deleteProjection)
	}
}
