package ginserver

import (
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	feedssvc "staycal/internal/app/services/feeds"
)

type FeedsHandler struct {
	Registry     *feedssvc.Registry
	Syncer       *feedssvc.Syncer
	ConflictsSvc *feedssvc.Conflicts
}

type addSubscriptionRequest struct {
	Name    string `json:"calendar_name" binding:"required"`
	FeedURL string `json:"feed_url" binding:"required"`
}

type toggleRequest struct {
	Enabled *bool `json:"is_enabled" binding:"required"`
}

type conflictsRequest struct {
	CalendarIDs []string `json:"calendar_ids" binding:"required"`
}

func (h FeedsHandler) Add(c *gin.Context) {
	var req addSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.Registry.AddSubscription(c.Request.Context(), c.Param("id"), req.Name, req.FeedURL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h FeedsHandler) Remove(c *gin.Context) {
	removeDates, _ := strconv.ParseBool(c.DefaultQuery("remove_dates", "false"))
	if err := h.Registry.Remove(c.Request.Context(), c.Param("id"), c.Param("calID"), removeDates); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h FeedsHandler) Toggle(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Registry.Toggle(c.Request.Context(), c.Param("calID"), *req.Enabled); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h FeedsHandler) SyncAll(c *gin.Context) {
	result, err := h.Syncer.SyncAll(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h FeedsHandler) SyncOne(c *gin.Context) {
	result, err := h.Syncer.SyncOne(c.Request.Context(), c.Param("id"), c.Param("calID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h FeedsHandler) Conflicts(c *gin.Context) {
	var req conflictsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.ConflictsSvc.Analyze(c.Request.Context(), c.Param("id"), req.CalendarIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ FeedsHTTP = FeedsHandler{}
