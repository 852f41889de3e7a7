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

// CreatePostRequest represents the request to create a post
type CreatePostRequest struct {
	Slug  string          `json:"slug" binding:"required"`
	Title TranslatedInput `json:"title" binding:"required"`
	Body  TranslatedInput `json:"body" binding:"required"`
}

// UpdatePostRequest represents the request to update a post
type UpdatePostRequest struct {
	Title     *TranslatedInput `json:"title"`
	Body      *TranslatedInput `json:"body"`
	Published *bool            `json:"published"`
}

// ListPosts returns all posts (dashboard view, includes drafts)
func (h *Handler) ListPosts(c *gin.Context) {
	query := h.db.Order("created_at DESC")
	if author := c.Query("author_id"); author != "" {
		query = query.Where("author_id = ?", author)
	}

	var posts []models.Post
	if err := query.Find(&posts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}
	c.JSON(http.StatusOK, posts)
}

// CreatePost creates a draft post
func (h *Handler) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validSlug(c, req.Slug) {
		return
	}

	var count int64
	h.db.Model(&models.Post{}).Where("slug = ?", req.Slug).Count(&count)
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Slug already in use"})
		return
	}

	userID, _ := auth.GetUserID(c)
	post := models.Post{
		Slug:     req.Slug,
		Title:    req.Title.toModel(),
		Body:     req.Body.toModel(),
		AuthorID: userID,
	}
	if err := h.db.Create(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	h.ledger.Record(activity.Entry{
		ActorID:      userID,
		Action:       "post.create",
		ResourceType: "post",
		ResourceID:   post.Slug,
		Description:  "Created post " + post.Slug,
	})

	c.JSON(http.StatusCreated, post)
}

// UpdatePost updates a post; publishing requires EDITOR authority and
// stamps published_at on the first publish.
func (h *Handler) UpdatePost(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}

	var post models.Post
	if err := h.db.First(&post, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	if !canEdit(c, post.AuthorID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You may only edit your own content"})
		return
	}

	var req UpdatePostRequest
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
		if *req.Published && post.PublishedAt == nil {
			updates["published_at"] = time.Now()
		}
	}

	if len(updates) > 0 {
		if err := h.db.Model(&post).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update post"})
			return
		}
	}

	h.db.First(&post, id)

	userID, _ := auth.GetUserID(c)
	h.ledger.Record(activity.Entry{
		ActorID:      userID,
		Action:       "post.update",
		ResourceType: "post",
		ResourceID:   post.Slug,
		Description:  "Updated post " + post.Slug,
	})

	c.JSON(http.StatusOK, post)
}

// DeletePost removes a post
func (h *Handler) DeletePost(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}

	var post models.Post
	if err := h.db.First(&post, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	if !canEdit(c, post.AuthorID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You may only delete your own content"})
		return
	}

	if err := h.db.Delete(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		return
	}

	userID, _ := auth.GetUserID(c)
	h.ledger.Record(activity.Entry{
		ActorID:      userID,
		Action:       "post.delete",
		ResourceType: "post",
		ResourceID:   post.Slug,
		Description:  "Deleted post " + post.Slug,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}

// ListPublicPosts returns published posts, newest first
func (h *Handler) ListPublicPosts(c *gin.Context) {
	var posts []models.Post
	if err := h.db.Where("published = ?", true).
		Order("published_at DESC").Find(&posts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}
	c.JSON(http.StatusOK, posts)
}

// GetPublicPost returns a published post by slug
func (h *Handler) GetPublicPost(c *gin.Context) {
	var post models.Post
	if err := h.db.Where("slug = ? AND published = ?", c.Param("slug"), true).First(&post).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	c.JSON(http.StatusOK, post)
}
