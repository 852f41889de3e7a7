package content

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/activity"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/auth"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/models"
)

// CreateServiceRequest represents the request to create a service
type CreateServiceRequest struct {
	Slug         string          `json:"slug" binding:"required"`
	Title        TranslatedInput `json:"title" binding:"required"`
	Description  TranslatedInput `json:"description" binding:"required"`
	ContactEmail string          `json:"contact_email" binding:"omitempty,email"`
}

// UpdateServiceRequest represents the request to update a service
type UpdateServiceRequest struct {
	Title        *TranslatedInput `json:"title"`
	Description  *TranslatedInput `json:"description"`
	ContactEmail *string          `json:"contact_email"`
	Published    *bool            `json:"published"`
}

// ListServices returns all services (dashboard view, includes drafts)
func (h *Handler) ListServices(c *gin.Context) {
	var services []models.Service
	if err := h.db.Order("slug ASC").Find(&services).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch services"})
		return
	}
	c.JSON(http.StatusOK, services)
}

// CreateService creates a draft service
func (h *Handler) CreateService(c *gin.Context) {
	var req CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validSlug(c, req.Slug) {
		return
	}

	var count int64
	h.db.Model(&models.Service{}).Where("slug = ?", req.Slug).Count(&count)
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Slug already in use"})
		return
	}

	userID, _ := auth.GetUserID(c)
	service := models.Service{
		Slug:         req.Slug,
		Title:        req.Title.toModel(),
		Description:  req.Description.toModel(),
		ContactEmail: req.ContactEmail,
		AuthorID:     userID,
	}
	if err := h.db.Create(&service).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create service"})
		return
	}

	h.ledger.Record(activity.Entry{
		ActorID:      userID,
		Action:       "service.create",
		ResourceType: "service",
		ResourceID:   service.Slug,
		Description:  "Created service " + service.Slug,
	})

	c.JSON(http.StatusCreated, service)
}

// UpdateService updates a service; publishing requires EDITOR authority
func (h *Handler) UpdateService(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid service ID"})
		return
	}

	var service models.Service
	if err := h.db.First(&service, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Service not found"})
		return
	}

	if !canEdit(c, service.AuthorID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You may only edit your own content"})
		return
	}

	var req UpdateServiceRequest
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
	if req.ContactEmail != nil {
		updates["contact_email"] = *req.ContactEmail
	}
	if req.Published != nil {
		updates["published"] = *req.Published
	}

	if len(updates) > 0 {
		if err := h.db.Model(&service).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update service"})
			return
		}
	}

	h.db.First(&service, id)

	userID, _ := auth.GetUserID(c)
	h.ledger.Record(activity.Entry{
		ActorID:      userID,
		Action:       "service.update",
		ResourceType: "service",
		ResourceID:   service.Slug,
		Description:  "Updated service " + service.Slug,
	})

	c.JSON(http.StatusOK, service)
}

// DeleteService removes a service
func (h *Handler) DeleteService(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid service ID"})
		return
	}

	var service models.Service
	if err := h.db.First(&service, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Service not found"})
		return
	}

	if !canEdit(c, service.AuthorID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You may only delete your own content"})
		return
	}

	if err := h.db.Delete(&service).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete service"})
		return
	}

	userID, _ := auth.GetUserID(c)
	h.ledger.Record(activity.Entry{
		ActorID:      userID,
		Action:       "service.delete",
		ResourceType: "service",
		ResourceID:   service.Slug,
		Description:  "Deleted service " + service.Slug,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Service deleted"})
}

// ListPublicServices returns published services
func (h *Handler) ListPublicServices(c *gin.Context) {
	var services []models.Service
	if err := h.db.Where("published = ?", true).Order("slug ASC").Find(&services).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch services"})
		return
	}
	c.JSON(http.StatusOK, services)
}
