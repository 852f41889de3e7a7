package content

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/activity"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/auth"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/models"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/roles"
	"gorm.io/gorm"
)

var slugRegex = regexp.MustCompile(`^[a-z0-9-]+$`)

// Handler handles CMS content CRUD (pages, posts, events, services)
type Handler struct {
	db     *gorm.DB
	ledger *activity.Ledger
}

// NewHandler creates a new content handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db, ledger: activity.NewLedger(db, nil)}
}

// TranslatedInput carries the three site languages. Swedish is the
// canonical language and is required; the others may lag behind.
type TranslatedInput struct {
	Sv string `json:"sv" binding:"required"`
	En string `json:"en"`
	Km string `json:"km"`
}

func (t TranslatedInput) toModel() models.Translated {
	return models.Translated{Sv: t.Sv, En: t.En, Km: t.Km}
}

// canEdit applies the ownership rule: authors edit their own content,
// EDITOR and above edit anything.
func canEdit(c *gin.Context, authorID uint) bool {
	userID, ok := auth.GetUserID(c)
	if !ok {
		return false
	}
	role, _ := auth.GetRole(c)
	board, _ := auth.GetIsBoardMember(c)
	perms := roles.ProjectPermissions(role, board)
	if perms.CanEditOthersContent {
		return true
	}
	return perms.CanEditOwnContent && authorID == userID
}

// canPublish reports whether the caller may change the published flag.
func canPublish(c *gin.Context) bool {
	role, ok := auth.GetRole(c)
	if !ok {
		return false
	}
	board, _ := auth.GetIsBoardMember(c)
	return roles.ProjectPermissions(role, board).CanPublishContent
}

func validSlug(c *gin.Context, slug string) bool {
	if !slugRegex.MatchString(slug) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Slug may only contain lowercase letters, digits and hyphens"})
		return false
	}
	return true
}

// RegisterAdminRoutes registers the authenticated CMS routes.
// Creation is gated at AUTHOR; finer rules are enforced per handler.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/pages", h.ListPages)
	rg.POST("/pages", h.CreatePage)
	rg.PUT("/pages/:id", h.UpdatePage)
	rg.DELETE("/pages/:id", h.DeletePage)

	rg.GET("/posts", h.ListPosts)
	rg.POST("/posts", h.CreatePost)
	rg.PUT("/posts/:id", h.UpdatePost)
	rg.DELETE("/posts/:id", h.DeletePost)

	rg.GET("/events", h.ListEvents)
	rg.POST("/events", h.CreateEvent)
	rg.PUT("/events/:id", h.UpdateEvent)
	rg.DELETE("/events/:id", h.DeleteEvent)

	rg.GET("/services", h.ListServices)
	rg.POST("/services", h.CreateService)
	rg.PUT("/services/:id", h.UpdateService)
	rg.DELETE("/services/:id", h.DeleteService)
}

// RegisterPublicRoutes registers the unauthenticated read routes, which
// only expose published content.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/pages/:slug", h.GetPublicPage)
	rg.GET("/posts", h.ListPublicPosts)
	rg.GET("/posts/:slug", h.GetPublicPost)
	rg.GET("/events", h.ListPublicEvents)
	rg.GET("/services", h.ListPublicServices)
}
