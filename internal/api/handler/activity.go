package handler

import (
	"net/http"
	"strconv"
	"time"

	"pyra-drive/internal/store"

	"github.com/gin-gonic/gin"
)

// ListActivity returns audit records, newest first, optionally filtered by
// user, action type and time window.
func ListActivity(activity *store.Activity) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := store.ActivityFilter{
			Username:   c.Query("username"),
			ActionType: c.Query("action_type"),
		}
		filter.Limit, _ = strconv.Atoi(c.Query("limit"))
		filter.Offset, _ = strconv.Atoi(c.Query("offset"))

		if v := c.Query("from"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "from must be RFC 3339"})
				return
			}
			filter.From = &t
		}
		if v := c.Query("to"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "to must be RFC 3339"})
				return
			}
			filter.To = &t
		}

		entries, err := activity.List(filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list activity"})
			return
		}
		c.JSON(http.StatusOK, entries)
	}
}
