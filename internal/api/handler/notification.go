package handler

import (
	"errors"
	"net/http"
	"strconv"

	"pyra-drive/internal/store"

	"github.com/gin-gonic/gin"
)

func ListNotifications(notifications *store.Notifications) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		if limit <= 0 || limit > 200 {
			limit = 50
		}
		unreadOnly := c.Query("unread_only") == "true"

		rows, err := notifications.For(snap.Username, limit, unreadOnly)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list notifications"})
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func UnreadNotificationCount(notifications *store.Notifications) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		count, err := notifications.UnreadCount(snap.Username)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count notifications"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"unread": count})
	}
}

// MarkNotificationRead marks one of the caller's notifications read. The
// recipient filter stops users from touching anyone else's.
func MarkNotificationRead(notifications *store.Notifications) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		if err := notifications.MarkRead(c.Param("id"), snap.Username); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark read"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Marked read"})
	}
}

func MarkAllNotificationsRead(notifications *store.Notifications) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		if err := notifications.MarkAllRead(snap.Username); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark all read"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "All marked read"})
	}
}
