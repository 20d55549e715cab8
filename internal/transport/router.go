package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	assignsvc "github.com/vigneswara-propelo/harness-core-sub004/internal/service/assign"
	assignmenthandler "github.com/vigneswara-propelo/harness-core-sub004/internal/transport/assignment"
)

func NewRouter(assignSvc *assignsvc.Service) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	assignmenthandler.Register(api.Group("/assignments"), assignSvc)
	assignmenthandler.RegisterConnectionResults(api, assignSvc)
	assignmenthandler.RegisterAccount(api.Group("/accounts"), assignSvc)

	return r
}
