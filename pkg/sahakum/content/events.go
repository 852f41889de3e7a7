package content

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/activity"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/auth"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/models"
)

// CreateEventRequest represents the request to create an event
type CreateEventRequest struct {
	Slug        string          `json:"slug" binding:"required"`
	Title       TranslatedInput `json:"title" binding:"required"`
	Description TranslatedInput `json:"description" binding:"required"`
	Location    string          `json:"location"`
	StartsAt    time.Time       `json:"starts_at" binding:"required"`
	EndsAt      *time.Time      `json:"ends_at"`
}

// UpdateEventRequest represents the request to update an event
type UpdateEventRequest struct {
	Title       *TranslatedInput `json:"title"`
	Description *TranslatedInput `json:"description"`
	Location    *string          `json:"location"`
	StartsAt    *time.Time       `json:"starts_at"`
	EndsAt      *time.Time       `json:"ends_at"`
	Published   *bool            `json:"published"`
}

// ListEvents returns all events (dashboard view, includes drafts)
func (h *Handler) ListEvents(c *gin.Context) {
	var events []models.Event
	if err := h.db.Order("starts_at DESC").Find(&events).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
		return
	}
	c.JSON(http.StatusOK, events)
}

// CreateEvent creates a draft event
func (h *Handler) CreateEvent(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validSlug(c, req.Slug) {
		return
	}
	if req.EndsAt != nil && req.EndsAt.Before(req.StartsAt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Event cannot end before it starts"})
		return
	}

	var count int64
	h.db.Model(&models.Event{}).Where("slug = ?", req.Slug).Count(&count)
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Slug already in use"})
		return
	}

	userID, _ := auth.GetUserID(c)
	event := models.Event{
		Slug:        req.Slug,
		Title:       req.Title.toModel(),
		Description: req.Description.toModel(),
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		AuthorID:    userID,
	}
	if err := h.db.Create(&event).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create event"})
		return
	}

	h.ledger.Record(activity.Entry{
		ActorID:      userID,
		Action:       "event.create",
		ResourceType: "event",
		ResourceID:   event.Slug,
		Description:  "Created event " + event.Slug,
	})

	c.JSON(http.StatusCreated, event)
}

// UpdateEvent updates an event; publishing requires EDITOR authority
func (h *Handler) UpdateEvent(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return
	}

	var event models.Event
	if err := h.db.First(&event, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	if !canEdit(c, event.AuthorID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You may only edit your own content"})
		return
	}

	var req UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Published != nil && !canPublish(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Publishing requires editor access"})
		return
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		t := req.Title.toModel()
		updates["title_sv"], updates["title_en"], updates["title_km"] = t.Sv, t.En, t.Km
	}
	if req.Description != nil {
		d := req.Description.toModel()
		updates["desc_sv"], updates["desc_en"], updates["desc_km"] = d.Sv, d.En, d.Km
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.StartsAt != nil {
		updates["starts_at"] = *req.StartsAt
	}
	if req.EndsAt != nil {
		updates["ends_at"] = *req.EndsAt
	}
	if req.Published != nil {
		updates["published"] = *req.Published
	}

	if len(updates) > 0 {
		if err := h.db.Model(&event).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update event"})
			return
		}
	}

	h.db.First(&event, id)

	userID, _ := auth.GetUserID(c)
	h.ledger.Record(activity.Entry{
		ActorID:      userID,
		Action:       "event.update",
		ResourceType: "event",
		ResourceID:   event.Slug,
		Description:  "Updated event " + event.Slug,
	})

	c.JSON(http.StatusOK, event)
}

// DeleteEvent removes an event
func (h *Handler) DeleteEvent(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return
	}

	var event models.Event
	if err := h.db.First(&event, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	if !canEdit(c, event.AuthorID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You may only delete your own content"})
		return
	}

	if err := h.db.Delete(&event).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete event"})
		return
	}

	userID, _ := auth.GetUserID(c)
	h.ledger.Record(activity.Entry{
		ActorID:      userID,
		Action:       "event.delete",
		ResourceType: "event",
		ResourceID:   event.Slug,
		Description:  "Deleted event " + event.Slug,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Event deleted"})
}

// ListPublicEvents returns published events. By default only upcoming
// ones; pass ?all=true for the archive.
func (h *Handler) ListPublicEvents(c *gin.Context) {
	query := h.db.Where("published = ?", true).Order("starts_at ASC")
	if c.Query("all") != "true" {
		query = query.Where("starts_at >= ?", time.Now())
	}

	var events []models.Event
	if err := query.Find(&events).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
		return
	}
	c.JSON(http.StatusOK, events)
}
