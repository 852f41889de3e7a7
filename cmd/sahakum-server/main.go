package main

import (
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/activity"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/admin"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/auth"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/config"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/content"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/database"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/mailer"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/members"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/membership"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/metrics"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/models"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/roles"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := database.Connect(cfg.DBPath); err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := models.AutoMigrate(database.GetDB()); err != nil {
		log.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	log.Info("database migrations completed")

	// Create bootstrap admin if no active admin exists
	if err := ensureAdminExists(cfg); err != nil {
		log.Error("failed to ensure admin user exists", "error", err)
		os.Exit(1)
	}

	var mail mailer.Mailer
	if cfg.SMTPConfigured() {
		mail = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	} else {
		mail = mailer.NewLogMailer(log)
	}

	engine := membership.NewEngine(database.GetDB(), mail, log, cfg.BaseURL)

	// Set up Gin router
	r := gin.Default()
	r.Use(metrics.Middleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	{
		// Auth routes (public)
		authHandler := auth.NewHandler(database.GetDB())
		authHandler.RegisterRoutes(api.Group("/auth"))

		// Public membership application routes
		membershipHandler := membership.NewHandler(database.GetDB(), engine)
		membershipHandler.RegisterPublicRoutes(api.Group("/membership"))

		// Public published content
		contentHandler := content.NewHandler(database.GetDB())
		contentHandler.RegisterPublicRoutes(api.Group("/public"))

		// CMS routes (AUTHOR and above; per-handler ownership rules apply)
		cmsGroup := api.Group("/cms")
		cmsGroup.Use(auth.AuthMiddleware(), auth.RequireRole(roles.RoleAuthor))
		contentHandler.RegisterAdminRoutes(cmsGroup)

		// Board routes: membership review and member registry
		boardGroup := api.Group("/board")
		boardGroup.Use(auth.AuthMiddleware(), auth.RequireBoard())
		membershipHandler.RegisterAdminRoutes(boardGroup.Group("/membership"))
		membersHandler := members.NewHandler(database.GetDB())
		membersHandler.RegisterRoutes(boardGroup)

		// Admin routes (ADMIN role required)
		adminGroup := api.Group("/admin")
		adminGroup.Use(auth.AuthMiddleware(), auth.RequireRole(roles.RoleAdmin))
		adminHandler := admin.NewHandler(database.GetDB())
		adminHandler.RegisterRoutes(adminGroup)
		activityHandler := activity.NewHandler(database.GetDB())
		activityHandler.RegisterRoutes(adminGroup)
	}

	log.Info("starting sahakum-portal server", "port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// ensureAdminExists creates the bootstrap admin account if no active
// ADMIN user exists in the database.
func ensureAdminExists(cfg *config.Config) error {
	db := database.GetDB()

	var count int64
	if err := db.Model(&models.User{}).
		Where("role = ? AND active = ?", roles.RoleAdmin, true).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	adminUser := models.User{
		Email:        cfg.AdminEmail,
		Name:         "Administrator",
		PasswordHash: hash,
		Role:         roles.RoleAdmin,
		Active:       true,
	}
	if err := db.Create(&adminUser).Error; err != nil {
		return err
	}

	slog.Info("created bootstrap admin user", "email", cfg.AdminEmail)
	return nil
}
