package members

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/activity"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/auth"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/models"
	"gorm.io/gorm"
)

// Handler handles the member registry (board only)
type Handler struct {
	db     *gorm.DB
	ledger *activity.Ledger
}

// NewHandler creates a new members handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db, ledger: activity.NewLedger(db, nil)}
}

// UpdateMemberRequest represents the request to update a member.
// Member numbers are fixed at creation and cannot be changed.
type UpdateMemberRequest struct {
	Phone          *string `json:"phone"`
	MembershipType *string `json:"membership_type"`
	Active         *bool   `json:"active"`
}

// List returns members with optional search and filters
func (h *Handler) List(c *gin.Context) {
	query := h.db.Model(&models.Member{}).Order("member_number ASC")

	if search := c.Query("q"); search != "" {
		like := "%" + search + "%"
		query = query.Where("email LIKE ? OR first_name LIKE ? OR last_name LIKE ? OR member_number LIKE ?",
			like, like, like, like)
	}
	if t := c.Query("type"); t != "" {
		query = query.Where("membership_type = ?", t)
	}
	if active := c.Query("active"); active != "" {
		query = query.Where("active = ?", active == "true")
	}

	var members []models.Member
	if err := query.Find(&members).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch members"})
		return
	}

	c.JSON(http.StatusOK, members)
}

// Get returns a single member with its linked account
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid member ID"})
		return
	}

	var member models.Member
	if err := h.db.Preload("User").First(&member, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		return
	}

	c.JSON(http.StatusOK, member)
}

// Update modifies a member's contact details, type or active flag
func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid member ID"})
		return
	}

	var member models.Member
	if err := h.db.First(&member, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		return
	}

	var req UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	before := member

	updates := make(map[string]interface{})
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.MembershipType != nil {
		if !models.ValidMembershipType(models.MembershipType(*req.MembershipType)) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid membership type"})
			return
		}
		updates["membership_type"] = *req.MembershipType
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	if len(updates) > 0 {
		if err := h.db.Model(&member).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update member"})
			return
		}
	}

	h.db.First(&member, id)

	actorID, _ := auth.GetUserID(c)
	h.ledger.Record(activity.Entry{
		ActorID:      actorID,
		Action:       "member.update",
		ResourceType: "member",
		ResourceID:   member.MemberNumber,
		Description:  "Member updated",
		OldValues:    before,
		NewValues:    member,
	})

	c.JSON(http.StatusOK, member)
}

// LinkAccountRequest links an existing user account to a member
type LinkAccountRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// LinkAccount associates an existing user with a member record
func (h *Handler) LinkAccount(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid member ID"})
		return
	}

	var member models.Member
	if err := h.db.First(&member, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		return
	}

	if member.UserID != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Member already has a linked account", "code": "ACCOUNT_ALREADY_EXISTS"})
		return
	}

	var req LinkAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, req.UserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var linked int64
	h.db.Model(&models.Member{}).Where("user_id = ?", user.ID).Count(&linked)
	if linked > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "User is already linked to another member"})
		return
	}

	if err := h.db.Model(&member).Update("user_id", user.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to link account"})
		return
	}

	actorID, _ := auth.GetUserID(c)
	h.ledger.Record(activity.Entry{
		ActorID:      actorID,
		Action:       "member.link_account",
		ResourceType: "member",
		ResourceID:   member.MemberNumber,
		Description:  "Linked user account " + user.Email,
	})

	h.db.Preload("User").First(&member, id)
	c.JSON(http.StatusOK, member)
}

// UnlinkAccount detaches a member's user account. The account itself is
// left untouched; deleting it is an admin operation.
func (h *Handler) UnlinkAccount(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid member ID"})
		return
	}

	var member models.Member
	if err := h.db.First(&member, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		return
	}

	if member.UserID == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Member has no linked account"})
		return
	}

	if err := h.db.Model(&member).Update("user_id", nil).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unlink account"})
		return
	}

	actorID, _ := auth.GetUserID(c)
	h.ledger.Record(activity.Entry{
		ActorID:      actorID,
		Action:       "member.unlink_account",
		ResourceType: "member",
		ResourceID:   member.MemberNumber,
		Description:  "Unlinked user account",
	})

	c.JSON(http.StatusOK, gin.H{"message": "Account unlinked"})
}

// RegisterRoutes registers member registry routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/members", h.List)
	rg.GET("/members/:id", h.Get)
	rg.PUT("/members/:id", h.Update)
	rg.POST("/members/:id/link-account", h.LinkAccount)
	rg.DELETE("/members/:id/link-account", h.UnlinkAccount)
}
