package handler

import (
	"net/http"

	"pyra-drive/internal/model"
	"pyra-drive/internal/session"
	"pyra-drive/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Login authenticates a user and issues a session token. Unknown usernames
// and wrong passwords get the same answer.
func Login(users *store.Users, sessions *session.Manager, activity *store.Activity, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		user, err := users.ByUsername(input.Username)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		tokenString, err := sessions.Issue(user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate token"})
			return
		}

		if err := users.TouchLogin(user); err != nil {
			log.Warn("failed to record last login time",
				zap.String("username", user.Username), zap.Error(err))
		}
		record(activity, c, session.SnapshotOf(user), "login", "", nil)

		c.JSON(http.StatusOK, gin.H{
			"token": tokenString,
			"user":  session.SnapshotOf(user),
		})
	}
}

// Logout revokes the current session.
func Logout(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sid := c.GetString("sessionID"); sid != "" {
			sessions.Revoke(sid)
		}
		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
	}
}

// Me returns the snapshot the current session was issued with.
func Me() gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

// ChangePassword lets a user replace their own password.
func ChangePassword(users *store.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			CurrentPassword string `json:"current_password"`
			NewPassword     string `json:"new_password"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if input.NewPassword == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "New password required"})
			return
		}

		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		user, err := users.ByUsername(snap.Username)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.CurrentPassword)); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Current password incorrect"})
			return
		}

		hash, err := model.HashPassword(input.NewPassword)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		if err := users.SetPassword(snap.Username, hash); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
	}
}
