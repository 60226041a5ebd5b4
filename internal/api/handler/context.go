package handler

import (
	"net/http"

	"pyra-drive/internal/authz"
	"pyra-drive/internal/model"
	"pyra-drive/internal/store"

	"github.com/gin-gonic/gin"
)

// snapshotFrom pulls the session snapshot the auth middleware attached.
// Aborts with 401 when it is missing, so callers can just return.
func snapshotFrom(c *gin.Context) (authz.Snapshot, bool) {
	v, exists := c.Get("snapshot")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return authz.Snapshot{}, false
	}
	return v.(authz.Snapshot), true
}

// record appends one audit entry. Audit failures are swallowed; the action
// itself already happened.
func record(activity *store.Activity, c *gin.Context, snap authz.Snapshot, action, targetPath string, details map[string]any) {
	if activity == nil {
		return
	}
	_ = activity.Log(&model.ActivityEntry{
		ActionType:  action,
		Username:    snap.Username,
		DisplayName: snap.DisplayName,
		TargetPath:  targetPath,
		IPAddress:   c.ClientIP(),
		Details:     details,
	})
}
