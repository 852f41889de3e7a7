package content

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/activity"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/auth"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/models"
)

// CreatePageRequest represents the request to create a page
type CreatePageRequest struct {
	Slug  string          `json:"slug" binding:"required"`
	Title TranslatedInput `json:"title" binding:"required"`
	Body  TranslatedInput `json:"body" binding:"required"`
}

// UpdatePageRequest represents the request to update a page
type UpdatePageRequest struct {
	Title     *TranslatedInput `json:"title"`
	Body      *TranslatedInput `json:"body"`
	Published *bool            `json:"published"`
}

// ListPages returns all pages (dashboard view, includes drafts)
func (h *Handler) ListPages(c *gin.Context) {
	var pages []models.Page
	if err := h.db.Order("slug ASC").Find(&pages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch pages"})
		return
	}
	c.JSON(http.StatusOK, pages)
}

// CreatePage creates a draft page
func (h *Handler) CreatePage(c *gin.Context) {
	var req CreatePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validSlug(c, req.Slug) {
		return
	}

	var count int64
	h.db.Model(&models.Page{}).Where("slug = ?", req.Slug).Count(&count)
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Slug already in use"})
		return
	}

	userID, _ := auth.GetUserID(c)
	page := models.Page{
		Slug:     req.Slug,
		Title:    req.Title.toModel(),
		Body:     req.Body.toModel(),
		AuthorID: userID,
	}
	if err := h.db.Create(&page).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create page"})
		return
	}

	h.ledger.Record(activity.Entry{
		ActorID:      userID,
		Action:       "page.create",
		ResourceType: "page",
		ResourceID:   page.Slug,
		Description:  "Created page " + page.Slug,
	})

	c.JSON(http.StatusCreated, page)
}

// UpdatePage updates a page; publishing requires EDITOR authority
func (h *Handler) UpdatePage(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page ID"})
		return
	}

	var page models.Page
	if err := h.db.First(&page, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
		return
	}

	if !canEdit(c, page.AuthorID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You may only edit your own content"})
		return
	}

	var req UpdatePageRequest
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
	if req.Body != nil {
		b := req.Body.toModel()
		updates["body_sv"], updates["body_en"], updates["body_km"] = b.Sv, b.En, b.Km
	}
	if req.Published != nil {
		updates["published"] = *req.Published
	}

	if len(updates) > 0 {
		if err := h.db.Model(&page).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update page"})
			return
		}
	}

	h.db.First(&page, id)

	userID, _ := auth.GetUserID(c)
	h.ledger.Record(activity.Entry{
		ActorID:      userID,
		Action:       "page.update",
		ResourceType: "page",
		ResourceID:   page.Slug,
		Description:  "Updated page " + page.Slug,
	})

	c.JSON(http.StatusOK, page)
}

// DeletePage removes a page
func (h *Handler) DeletePage(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page ID"})
		return
	}

	var page models.Page
	if err := h.db.First(&page, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
		return
	}

	if !canEdit(c, page.AuthorID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You may only delete your own content"})
		return
	}

	if err := h.db.Delete(&page).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete page"})
		return
	}

	userID, _ := auth.GetUserID(c)
	h.ledger.Record(activity.Entry{
		ActorID:      userID,
		Action:       "page.delete",
		ResourceType: "page",
		ResourceID:   page.Slug,
		Description:  "Deleted page " + page.Slug,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Page deleted"})
}

// GetPublicPage returns a published page by slug
func (h *Handler) GetPublicPage(c *gin.Context) {
	var page models.Page
	if err := h.db.Where("slug = ? AND published = ?", c.Param("slug"), true).First(&page).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
		return
	}
	c.JSON(http.StatusOK, page)
}
