package assignment

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainconn "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/connection"
	domaintask "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/task"
	assignsvc "github.com/vigneswara-propelo/harness-core-sub004/internal/service/assign"
)

func Register(rg *gin.RouterGroup, svc *assignsvc.Service) {
	rg.POST("/can-assign", canAssign(svc))
	rg.POST("/whitelisted", whitelistedDelegates(svc))
	rg.POST("/first-attempt", firstAttemptDelegate(svc))
	rg.POST("/should-validate", shouldValidate(svc))
	rg.POST("/error-message", errorMessage(svc))
}

type delegateTaskReq struct {
	DelegateID string          `json:"delegate_id" binding:"required"`
	Task       domaintask.Task `json:"task" binding:"required"`
}

type taskReq struct {
	Task domaintask.Task `json:"task" binding:"required"`
}

func canAssign(svc *assignsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req delegateTaskReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		batch := svc.NewBatch(req.Task)
		ok, err := svc.CanAssign(c.Request.Context(), batch, req.DelegateID, req.Task)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		svc.SaveBatch(c.Request.Context(), batch)
		c.JSON(http.StatusOK, gin.H{"can_assign": ok})
	}
}

func whitelistedDelegates(svc *assignsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req taskReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		delegates := svc.ConnectedWhitelistedDelegates(c.Request.Context(), req.Task)
		if delegates == nil {
			delegates = []string{}
		}
		c.JSON(http.StatusOK, gin.H{"delegate_ids": delegates})
	}
}

func firstAttemptDelegate(svc *assignsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req taskReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		delegateID := svc.PickFirstAttemptDelegate(c.Request.Context(), req.Task)
		c.JSON(http.StatusOK, gin.H{"delegate_id": delegateID})
	}
}

func shouldValidate(svc *assignsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req delegateTaskReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"should_validate": svc.ShouldValidate(c.Request.Context(), req.Task, req.DelegateID),
		})
	}
}

type errorMessageReq struct {
	Reason string          `json:"reason"`
	Task   domaintask.Task `json:"task" binding:"required"`
}

func errorMessage(svc *assignsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req errorMessageReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		msg := svc.ActiveDelegateAssignmentErrorMessage(
			c.Request.Context(), assignsvc.FailureReason(req.Reason), req.Task)
		c.JSON(http.StatusOK, gin.H{"message": msg})
	}
}

// RegisterConnectionResults wires the probe-outcome ingestion and cleanup
// endpoints delegates report into.
func RegisterConnectionResults(rg *gin.RouterGroup, svc *assignsvc.Service) {
	rg.POST("/connection-results", saveConnectionResults(svc))
}

type saveResultsReq struct {
	Results []domainconn.Result `json:"results" binding:"required"`
}

func saveConnectionResults(svc *assignsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req saveResultsReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		svc.SaveConnectionResults(c.Request.Context(), req.Results)
		c.Status(http.StatusNoContent)
	}
}

// RegisterAccount wires per-account cleanup.
func RegisterAccount(rg *gin.RouterGroup, svc *assignsvc.Service) {
	rg.DELETE("/:accountId/connection-results", clearConnectionResults(svc))
}

func clearConnectionResults(svc *assignsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc.ClearConnectionResults(c.Request.Context(), c.Param("accountId"), c.Query("delegateId"))
		c.Status(http.StatusNoContent)
	}
}
