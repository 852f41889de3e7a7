package activity

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/models"
	"gorm.io/gorm"
)

// Handler exposes the activity log to the admin dashboard
type Handler struct {
	ledger *Ledger
}

// NewHandler creates a new activity handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{ledger: NewLedger(db, nil)}
}

// ListResponse wraps a page of activity entries
type ListResponse struct {
	Entries []models.ActivityLog `json:"entries"`
	Total   int64                `json:"total"`
}

// List returns activity entries, filterable by actor, action substring,
// resource and time range, newest first.
func (h *Handler) List(c *gin.Context) {
	var f Filters

	if v := c.Query("actor_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid actor_id"})
			return
		}
		f.ActorID = uint(id)
	}
	f.Action = c.Query("action")
	f.ResourceType = c.Query("resource_type")
	f.ResourceID = c.Query("resource_id")

	if v := c.Query("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid since timestamp, expected RFC3339"})
			return
		}
		f.Since = t
	}
	if v := c.Query("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid until timestamp, expected RFC3339"})
			return
		}
		f.Until = t
	}

	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	f.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, total, err := h.ledger.Query(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch activity log"})
		return
	}

	c.JSON(http.StatusOK, ListResponse{Entries: entries, Total: total})
}

// RegisterRoutes registers activity routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/activity", h.List)
}
