package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/roles"
)

const (
	// ContextKeyUserID is the key for user ID in gin context
	ContextKeyUserID = "user_id"
	// ContextKeyEmail is the key for email in gin context
	ContextKeyEmail = "email"
	// ContextKeyRole is the key for the user's role in gin context
	ContextKeyRole = "role"
	// ContextKeyBoard is the key for the board-member flag in gin context
	ContextKeyBoard = "is_board_member"
)

// AuthMiddleware validates JWT tokens and sets user info in context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		// Expect "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := ValidateToken(parts[1])
		if err != nil {
			if err == ErrExpiredToken {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Token has expired"})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			}
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyEmail, claims.Email)
		c.Set(ContextKeyRole, claims.Role)
		c.Set(ContextKeyBoard, claims.IsBoardMember)

		c.Next()
	}
}

// RequireRole gates a route on minimum role authority. Denials are
// security-relevant events and are logged, but they are not faults.
func RequireRole(required roles.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := GetRole(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		if !roles.Valid(role) || !roles.HasAuthority(role, required) {
			userID, _ := GetUserID(c)
			slog.Warn("authorization denied",
				"user_id", userID,
				"role", string(role),
				"required", string(required),
				"path", c.FullPath())
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Insufficient role",
				"code":  "FORBIDDEN",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireBoard gates a route on board capability: BOARD-level authority
// or the independent board-member flag.
func RequireBoard() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := GetRole(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		board, _ := GetIsBoardMember(c)
		if !roles.Valid(role) || (!roles.HasAuthority(role, roles.RoleBoard) && !board) {
			userID, _ := GetUserID(c)
			slog.Warn("authorization denied",
				"user_id", userID,
				"role", string(role),
				"required", "board",
				"path", c.FullPath())
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Board access required",
				"code":  "FORBIDDEN",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetUserID returns the user ID from the gin context
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return userID.(uint), true
}

// GetEmail returns the email from the gin context
func GetEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(ContextKeyEmail)
	if !exists {
		return "", false
	}
	return email.(string), true
}

// GetRole returns the role from the gin context
func GetRole(c *gin.Context) (roles.Role, bool) {
	role, exists := c.Get(ContextKeyRole)
	if !exists {
		return "", false
	}
	return role.(roles.Role), true
}

// GetIsBoardMember returns the board-member flag from the gin context
func GetIsBoardMember(c *gin.Context) (bool, bool) {
	board, exists := c.Get(ContextKeyBoard)
	if !exists {
		return false, false
	}
	return board.(bool), true
}
