package handler

import (
	"errors"
	"net/http"

	"pyra-drive/internal/model"
	"pyra-drive/internal/session"
	"pyra-drive/internal/store"

	"github.com/gin-gonic/gin"
)

func ListUsers(users *store.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		all, err := users.All()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
			return
		}
		c.JSON(http.StatusOK, all)
	}
}

func CreateUser(users *store.Users, activity *store.Activity) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		var input struct {
			Username    string      `json:"username"`
			Password    string      `json:"password"`
			DisplayName string      `json:"display_name"`
			Role        string      `json:"role"`
			TelegramID  int64       `json:"telegram_id"`
			Permissions model.Grant `json:"permissions"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if input.Username == "" || input.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password required"})
			return
		}
		if input.Role == "" {
			input.Role = model.RoleClient
		}
		if !model.ValidRole(input.Role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
			return
		}

		user := model.User{
			Username:    input.Username,
			Password:    input.Password, // BeforeCreate hook will hash this
			DisplayName: input.DisplayName,
			Role:        input.Role,
			TelegramID:  input.TelegramID,
			Permissions: input.Permissions,
		}
		if err := users.Create(&user); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create user"})
			return
		}
		record(activity, c, snap, "user_created", "", map[string]any{"username": user.Username})
		c.JSON(http.StatusCreated, user)
	}
}

// UpdateUser edits a user's profile, role and grant. Grant edits land on the
// target's next login; only when an admin edits their own row is the live
// session refreshed in place.
func UpdateUser(users *store.Users, sessions *session.Manager, activity *store.Activity) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		username := c.Param("username")
		user, err := users.ByUsername(username)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		var input struct {
			DisplayName *string      `json:"display_name"`
			Role        *string      `json:"role"`
			TelegramID  *int64       `json:"telegram_id"`
			Permissions *model.Grant `json:"permissions"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if input.Role != nil {
			if !model.ValidRole(*input.Role) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
				return
			}
			user.Role = *input.Role
		}
		if input.DisplayName != nil {
			user.DisplayName = *input.DisplayName
		}
		if input.TelegramID != nil {
			user.TelegramID = *input.TelegramID
		}
		if input.Permissions != nil {
			user.Permissions = *input.Permissions
		}

		if err := users.Save(user); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update user"})
			return
		}
		if user.Username == snap.Username {
			sessions.Refresh(c.GetString("sessionID"), user)
		}
		record(activity, c, snap, "user_updated", "", map[string]any{"username": user.Username})
		c.JSON(http.StatusOK, user)
	}
}

func DeleteUser(users *store.Users, activity *store.Activity) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		username := c.Param("username")
		if username == snap.Username {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete yourself"})
			return
		}
		if err := users.Delete(username); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
			return
		}
		record(activity, c, snap, "user_deleted", "", map[string]any{"username": username})
		c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
	}
}

func ResetUserPassword(users *store.Users, activity *store.Activity) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		username := c.Param("username")
		var input struct {
			NewPassword string `json:"new_password"`
		}
		if err := c.ShouldBindJSON(&input); err != nil || input.NewPassword == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "New password required"})
			return
		}

		hash, err := model.HashPassword(input.NewPassword)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		if err := users.SetPassword(username, hash); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
			return
		}
		record(activity, c, snap, "password_reset", "", map[string]any{"username": username})
		c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
	}
}
