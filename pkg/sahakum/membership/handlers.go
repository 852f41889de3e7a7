package membership

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/auth"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/models"
	"gorm.io/gorm"
)

// Handler exposes the membership engine over HTTP
type Handler struct {
	db     *gorm.DB
	engine *Engine
}

// NewHandler creates a new membership handler
func NewHandler(db *gorm.DB, engine *Engine) *Handler {
	return &Handler{db: db, engine: engine}
}

func respondError(c *gin.Context, err error) {
	if e, ok := err.(*Error); ok {
		c.JSON(HTTPStatus(err), gin.H{"error": e.Message, "code": e.Code})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error", "code": "INTERNAL"})
}

// SubmitRequest represents the public application form
type SubmitRequest struct {
	FirstName      string `json:"first_name" binding:"required"`
	LastName       string `json:"last_name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Phone          string `json:"phone"`
	AddressLine    string `json:"address_line" binding:"required"`
	PostalCode     string `json:"postal_code" binding:"required"`
	City           string `json:"city" binding:"required"`
	Country        string `json:"country"`
	Motivation     string `json:"motivation" binding:"required,min=10"`
	MembershipType string `json:"membership_type"`
}

// SubmitResponse is returned to the applicant. The reference token is the
// applicant's only handle on the request (status lookup, withdrawal).
type SubmitResponse struct {
	RequestNumber  string `json:"request_number"`
	ReferenceToken string `json:"reference_token"`
	Status         string `json:"status"`
}

// Submit handles a new membership application
// @Summary Apply for membership
// @Tags membership
// @Accept json
// @Produce json
// @Param request body SubmitRequest true "Application"
// @Success 201 {object} SubmitResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 409 {object} map[string]string "Duplicate application"
// @Router /membership/requests [post]
func (h *Handler) Submit(c *gin.Context) {
	var body SubmitRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": CodeValidationFailed})
		return
	}

	req, err := h.engine.Submit(SubmitInput{
		FirstName:      body.FirstName,
		LastName:       body.LastName,
		Email:          body.Email,
		Phone:          body.Phone,
		AddressLine:    body.AddressLine,
		PostalCode:     body.PostalCode,
		City:           body.City,
		Country:        body.Country,
		Motivation:     body.Motivation,
		MembershipType: models.MembershipType(body.MembershipType),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SubmitResponse{
		RequestNumber:  req.RequestNumber,
		ReferenceToken: req.ReferenceToken,
		Status:         string(req.Status),
	})
}

// StatusByReference lets an applicant check their application
func (h *Handler) StatusByReference(c *gin.Context) {
	req, err := h.engine.GetByReference(c.Param("reference"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"request_number": req.RequestNumber,
		"status":         string(req.Status),
		"submitted_at":   req.CreatedAt,
	})
}

// WithdrawByReference lets an applicant withdraw a still-pending application
func (h *Handler) WithdrawByReference(c *gin.Context) {
	reference := c.Param("reference")
	req, err := h.engine.GetByReference(reference)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.engine.Withdraw(req.ID, reference); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Application withdrawn"})
}

// List returns membership requests for review (board only)
func (h *Handler) List(c *gin.Context) {
	query := h.db.Model(&models.MembershipRequest{}).Order("created_at DESC")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if search := c.Query("q"); search != "" {
		like := "%" + search + "%"
		query = query.Where("email LIKE ? OR first_name LIKE ? OR last_name LIKE ? OR request_number LIKE ?",
			like, like, like, like)
	}

	var requests []models.MembershipRequest
	if err := query.Find(&requests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch requests"})
		return
	}

	c.JSON(http.StatusOK, requests)
}

// Get returns a single request with its status history (board only)
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	var req models.MembershipRequest
	if err := h.db.Preload("StatusHistory").Preload("Member").First(&req, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Membership request not found", "code": CodeNotFound})
		return
	}

	c.JSON(http.StatusOK, req)
}

// TransitionRequest is the body for a review status change
type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

// Transition moves a request between review states (board only)
func (h *Handler) Transition(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	var body TransitionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": CodeValidationFailed})
		return
	}

	actorID, _ := auth.GetUserID(c)
	req, err := h.engine.TransitionStatus(uint(id), models.RequestStatus(body.Status), actorID, body.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// ApproveRequest is the body for an approval
type ApproveRequest struct {
	Notes string `json:"notes"`
}

// ApproveResponse includes the one-time temporary password so the board
// member can fall back to manual delivery when email bounces.
type ApproveResponse struct {
	Request      *models.MembershipRequest `json:"request"`
	Member       *models.Member            `json:"member"`
	TempPassword string                    `json:"temp_password,omitempty"`
}

// Approve approves a request, creating the member and account (board only)
func (h *Handler) Approve(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	var body ApproveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": CodeValidationFailed})
			return
		}
	}

	actorID, _ := auth.GetUserID(c)
	result, err := h.engine.Approve(uint(id), actorID, body.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ApproveResponse{
		Request:      result.Request,
		Member:       result.Member,
		TempPassword: result.TempPassword,
	})
}

// RejectRequest is the body for a rejection
type RejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Reject rejects a request with a reason (board only)
func (h *Handler) Reject(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	var body RejectRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": CodeValidationFailed})
		return
	}

	actorID, _ := auth.GetUserID(c)
	req, err := h.engine.Reject(uint(id), actorID, body.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// CreateAccount manually creates a login account for an approved member
func (h *Handler) CreateAccount(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	actorID, _ := auth.GetUserID(c)
	result, err := h.engine.CreateAccountForApprovedMember(uint(id), actorID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":          result.User,
		"temp_password": result.TempPassword,
	})
}

// RegisterPublicRoutes registers the applicant-facing routes
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/requests", h.Submit)
	rg.GET("/requests/:reference", h.StatusByReference)
	rg.DELETE("/requests/:reference", h.WithdrawByReference)
}

// RegisterAdminRoutes registers the board review routes
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/requests", h.List)
	rg.GET("/requests/:id", h.Get)
	rg.POST("/requests/:id/transition", h.Transition)
	rg.POST("/requests/:id/approve", h.Approve)
	rg.POST("/requests/:id/reject", h.Reject)
	rg.POST("/requests/:id/create-account", h.CreateAccount)
}
