package handler

import (
	"errors"
	"net/http"
	"time"

	"pyra-drive/internal/authz"
	"pyra-drive/internal/model"
	"pyra-drive/internal/notify"
	"pyra-drive/internal/pathutil"
	"pyra-drive/internal/store"

	"github.com/gin-gonic/gin"
)

// SetOverride grants a capability set on one path to a user or team,
// superseding any previous override for the same triple.
func SetOverride(overrides *store.Overrides, notifier *notify.Notifier, activity *store.Activity) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		var input struct {
			Path           string              `json:"path"`
			TargetType     string              `json:"target_type"`
			TargetID       string              `json:"target_id"`
			Permissions    model.CapabilitySet `json:"permissions"`
			ExpiresInHours int                 `json:"expires_in_hours"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		target := pathutil.Normalize(input.Path)
		if target == "" || input.TargetID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Path and target required"})
			return
		}

		override := model.PathOverride{
			Path:        target,
			TargetType:  input.TargetType,
			TargetID:    input.TargetID,
			CreatedBy:   snap.Username,
			Permissions: input.Permissions,
		}
		if input.ExpiresInHours > 0 {
			expires := time.Now().Add(time.Duration(input.ExpiresInHours) * time.Hour)
			override.ExpiresAt = &expires
		}

		if err := overrides.Set(&override); err != nil {
			if errors.Is(err, store.ErrInvalidTarget) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store override"})
			return
		}

		if notifier != nil && override.TargetType == model.TargetUser {
			notifier.Send(snap, override.TargetID, "access_granted",
				"Access granted", "You were granted access to "+target, target)
		}
		record(activity, c, snap, "override_set", target, map[string]any{
			"target_type": override.TargetType, "target_id": override.TargetID,
		})
		c.JSON(http.StatusCreated, override)
	}
}

// ListOverrides shows every override on a path, expired rows included, for
// the admin UI.
func ListOverrides(overrides *store.Overrides) gin.HandlerFunc {
	return func(c *gin.Context) {
		target := pathutil.Normalize(c.Query("path"))
		rows, err := overrides.ForPath(target)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list overrides"})
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func RemoveOverride(overrides *store.Overrides, activity *store.Activity) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		id := c.Param("id")
		if err := overrides.Remove(id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Override not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove override"})
			return
		}
		record(activity, c, snap, "override_removed", "", map[string]any{"override_id": id})
		c.JSON(http.StatusOK, gin.H{"message": "Override removed"})
	}
}

// SweepOverrides physically removes expired override rows. Correctness never
// depends on this running; it only keeps the table tidy.
func SweepOverrides(overrides *store.Overrides) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := overrides.SweepExpired()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Sweep failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"removed": n})
	}
}

// EffectivePermissions reports the six-flag set the UI should render for the
// current user on one path.
func EffectivePermissions(engine *authz.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		target := pathutil.Normalize(c.Query("path"))
		c.JSON(http.StatusOK, gin.H{
			"path":        target,
			"permissions": engine.EffectivePermissions(snap, target),
		})
	}
}
