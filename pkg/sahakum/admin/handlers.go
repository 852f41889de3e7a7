package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/activity"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/auth"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/models"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/roles"
	"gorm.io/gorm"
)

// Handler handles admin requests
type Handler struct {
	db     *gorm.DB
	ledger *activity.Ledger
}

// NewHandler creates a new admin handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db, ledger: activity.NewLedger(db, nil)}
}

// UserResponse represents user data in admin responses
type UserResponse struct {
	ID            uint   `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	IsBoardMember bool   `json:"is_board_member"`
	Active        bool   `json:"active"`
	CreatedAt     string `json:"created_at"`
}

// CreateUserRequest represents the request to provision a user
type CreateUserRequest struct {
	Email         string `json:"email" binding:"required,email"`
	Name          string `json:"name" binding:"required"`
	Password      string `json:"password" binding:"required,min=8"`
	Role          string `json:"role"`
	IsBoardMember bool   `json:"is_board_member"`
}

// UpdateUserRequest represents the request to update a user
type UpdateUserRequest struct {
	Name          *string `json:"name"`
	Role          *string `json:"role"`
	IsBoardMember *bool   `json:"is_board_member"`
	Active        *bool   `json:"active"`
}

// StatsResponse represents system statistics for the dashboard
type StatsResponse struct {
	TotalUsers      int64 `json:"total_users"`
	ActiveUsers     int64 `json:"active_users"`
	TotalMembers    int64 `json:"total_members"`
	ActiveMembers   int64 `json:"active_members"`
	PendingRequests int64 `json:"pending_requests"`
	TotalPages      int64 `json:"total_pages"`
	TotalPosts      int64 `json:"total_posts"`
	PublishedPosts  int64 `json:"published_posts"`
	TotalEvents     int64 `json:"total_events"`
	TotalServices   int64 `json:"total_services"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          string(u.Role),
		IsBoardMember: u.IsBoardMember,
		Active:        u.Active,
		CreatedAt:     u.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// ListUsers returns all users (admin only)
func (h *Handler) ListUsers(c *gin.Context) {
	var users []models.User

	query := h.db.Order("created_at DESC")

	// Optional search by email or name
	if search := c.Query("q"); search != "" {
		query = query.Where("email LIKE ? OR name LIKE ?", "%"+search+"%", "%"+search+"%")
	}

	// Optional filter by role
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	if err := query.Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	responses := make([]UserResponse, len(users))
	for i := range users {
		responses[i] = toUserResponse(&users[i])
	}

	c.JSON(http.StatusOK, responses)
}

// GetUser returns a single user by ID (admin only)
func (h *Handler) GetUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var user models.User
	if err := h.db.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, toUserResponse(&user))
}

// CreateUser provisions a user account directly (admin only)
func (h *Handler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := roles.RoleUser
	if req.Role != "" {
		role = roles.Role(req.Role)
		if !roles.Valid(role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
			return
		}
	}

	var existing models.User
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
		return
	}

	user := models.User{
		Email:         req.Email,
		Name:          req.Name,
		PasswordHash:  hash,
		Role:          role,
		IsBoardMember: req.IsBoardMember,
		Active:        true,
	}
	if err := h.db.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	actorID, _ := auth.GetUserID(c)
	h.ledger.Record(activity.Entry{
		ActorID:      actorID,
		Action:       "user.create",
		ResourceType: "user",
		ResourceID:   strconv.FormatUint(uint64(user.ID), 10),
		Description:  "Provisioned user " + user.Email,
		NewValues:    toUserResponse(&user),
	})

	c.JSON(http.StatusCreated, toUserResponse(&user))
}

// otherActiveAdmins counts active ADMIN users excluding the given id.
func (h *Handler) otherActiveAdmins(excludeID uint) int64 {
	var count int64
	h.db.Model(&models.User{}).
		Where("role = ? AND active = ? AND id <> ?", roles.RoleAdmin, true, excludeID).
		Count(&count)
	return count
}

// UpdateUser updates a user's profile, role or activity flag (admin only)
func (h *Handler) UpdateUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var user models.User
	if err := h.db.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Prevent admin from demoting themselves
	currentUserID, _ := auth.GetUserID(c)
	if uint(id) == currentUserID && req.Role != nil && roles.Role(*req.Role) != roles.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot demote yourself"})
		return
	}

	before := toUserResponse(&user)

	demoting := req.Role != nil && roles.Role(*req.Role) != roles.RoleAdmin
	deactivating := req.Active != nil && !*req.Active
	if user.Role == roles.RoleAdmin && user.Active && (demoting || deactivating) {
		if h.otherActiveAdmins(user.ID) == 0 {
			c.JSON(http.StatusConflict, gin.H{
				"error": "Cannot remove the last active admin",
				"code":  "LAST_ADMIN",
			})
			return
		}
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Role != nil {
		if !roles.Valid(roles.Role(*req.Role)) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
			return
		}
		updates["role"] = *req.Role
	}
	if req.IsBoardMember != nil {
		updates["is_board_member"] = *req.IsBoardMember
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	if len(updates) > 0 {
		if err := h.db.Model(&user).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
			return
		}
	}

	// Reload user
	h.db.First(&user, id)

	h.ledger.Record(activity.Entry{
		ActorID:      currentUserID,
		Action:       "user.update",
		ResourceType: "user",
		ResourceID:   strconv.FormatUint(id, 10),
		Description:  "Updated user " + user.Email,
		OldValues:    before,
		NewValues:    toUserResponse(&user),
	})

	c.JSON(http.StatusOK, toUserResponse(&user))
}

// DeleteUser soft-deletes a user (admin only)
func (h *Handler) DeleteUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	// Prevent admin from deleting themselves
	currentUserID, _ := auth.GetUserID(c)
	if uint(id) == currentUserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete yourself"})
		return
	}

	var user models.User
	if err := h.db.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if user.Role == roles.RoleAdmin && user.Active && h.otherActiveAdmins(user.ID) == 0 {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Cannot delete the last active admin",
			"code":  "LAST_ADMIN",
		})
		return
	}

	// Detach any member link, then delete, in a transaction
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Member{}).Where("user_id = ?", user.ID).
			Update("user_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	h.ledger.Record(activity.Entry{
		ActorID:      currentUserID,
		Action:       "user.delete",
		ResourceType: "user",
		ResourceID:   strconv.FormatUint(id, 10),
		Description:  "Deleted user " + user.Email,
		OldValues:    toUserResponse(&user),
	})

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// GetStats returns system-wide statistics (admin only)
func (h *Handler) GetStats(c *gin.Context) {
	var stats StatsResponse

	h.db.Model(&models.User{}).Count(&stats.TotalUsers)
	h.db.Model(&models.User{}).Where("active = ?", true).Count(&stats.ActiveUsers)
	h.db.Model(&models.Member{}).Count(&stats.TotalMembers)
	h.db.Model(&models.Member{}).Where("active = ?", true).Count(&stats.ActiveMembers)
	h.db.Model(&models.MembershipRequest{}).
		Where("status IN ?", []models.RequestStatus{
			models.StatusPending, models.StatusUnderReview, models.StatusInfoRequested,
		}).
		Count(&stats.PendingRequests)
	h.db.Model(&models.Page{}).Count(&stats.TotalPages)
	h.db.Model(&models.Post{}).Count(&stats.TotalPosts)
	h.db.Model(&models.Post{}).Where("published = ?", true).Count(&stats.PublishedPosts)
	h.db.Model(&models.Event{}).Count(&stats.TotalEvents)
	h.db.Model(&models.Service{}).Count(&stats.TotalServices)

	c.JSON(http.StatusOK, stats)
}

// RegisterRoutes registers admin routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stats", h.GetStats)
	rg.GET("/users", h.ListUsers)
	rg.POST("/users", h.CreateUser)
	rg.GET("/users/:id", h.GetUser)
	rg.PUT("/users/:id", h.UpdateUser)
	rg.DELETE("/users/:id", h.DeleteUser)
}
