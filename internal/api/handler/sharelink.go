package handler

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"time"

	"pyra-drive/internal/authz"
	"pyra-drive/internal/model"
	"pyra-drive/internal/pathutil"
	"pyra-drive/internal/sharelink"
	"pyra-drive/internal/storage"
	"pyra-drive/internal/store"

	"github.com/gin-gonic/gin"
)

const (
	shareDefaultHours = 24
	shareMaxHours     = 720 // 30 days
)

// CreateShareLink mints an anonymous download token for one file. Requires
// the download capability on the file, or the admin role.
func CreateShareLink(engine *authz.Engine, links *store.ShareLinks, activity *store.Activity) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		var input struct {
			Path           string `json:"path"`
			ExpiresInHours int    `json:"expires_in_hours"`
			MaxAccess      int    `json:"max_access"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		target := pathutil.Normalize(input.Path)
		if target == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Path required"})
			return
		}
		if ok := authorize(c, engine, snap, model.CapDownload, target); !ok {
			return
		}

		hours := input.ExpiresInHours
		if hours <= 0 {
			hours = shareDefaultHours
		}
		if hours > shareMaxHours {
			hours = shareMaxHours
		}
		if input.MaxAccess < 0 {
			input.MaxAccess = 0
		}

		token, err := store.NewToken()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate token"})
			return
		}
		link := model.ShareLink{
			Token:            token,
			FilePath:         target,
			FileName:         path.Base(target),
			CreatedBy:        snap.Username,
			CreatedByDisplay: snap.DisplayName,
			ExpiresAt:        time.Now().Add(time.Duration(hours) * time.Hour),
			MaxAccess:        input.MaxAccess,
		}
		if err := links.Create(&link); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create share link"})
			return
		}
		record(activity, c, snap, "share_created", target, map[string]any{
			"expires_at": link.ExpiresAt, "max_access": link.MaxAccess,
		})
		c.JSON(http.StatusCreated, link)
	}
}

// ListShareLinks shows the active links on one reachable file.
func ListShareLinks(engine *authz.Engine, links *store.ShareLinks) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		target := pathutil.Normalize(c.Query("path"))
		reachable, err := engine.CanReachEnhanced(snap, target)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Permission check failed"})
			return
		}
		if !reachable {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}

		rows, err := links.ForPath(target)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list share links"})
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

// DeactivateShareLink turns a link off. Only the creator or an admin may;
// deactivation is permanent.
func DeactivateShareLink(links *store.ShareLinks, activity *store.Activity) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		link, err := links.ByID(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Share link not found"})
			return
		}
		if !snap.IsAdmin() && link.CreatedBy != snap.Username {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
		if err := links.Deactivate(link.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate link"})
			return
		}
		record(activity, c, snap, "share_deactivated", link.FilePath, map[string]any{"link_id": link.ID})
		c.JSON(http.StatusOK, gin.H{"message": "Share link deactivated"})
	}
}

var shareStateMessages = map[sharelink.State]string{
	sharelink.StateExpired:      "This share link has expired",
	sharelink.StateDeactivated:  "This share link has been deactivated",
	sharelink.StateLimitReached: "This share link has reached its access limit",
}

// RedeemShareLink is the anonymous download endpoint. It consumes one access
// and streams the file; terminal links answer 410 with what happened.
func RedeemShareLink(ledger *sharelink.Ledger, bucket *storage.Client, activity *store.Activity) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Token required"})
			return
		}

		link, err := ledger.Resolve(token)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Share link not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Share lookup failed"})
			return
		}

		state, err := ledger.Consume(link)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Share redemption failed"})
			return
		}
		if state != sharelink.StateActive {
			c.JSON(http.StatusGone, gin.H{"error": shareStateMessages[state], "state": state.String()})
			return
		}

		data, contentType, err := bucket.Download(link.FilePath)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		if contentType == "" {
			contentType = mimeByExt(link.FilePath)
		}

		if activity != nil {
			_ = activity.Log(&model.ActivityEntry{
				ActionType: "share_accessed",
				TargetPath: link.FilePath,
				IPAddress:  c.ClientIP(),
				Details:    map[string]any{"link_id": link.ID, "access_count": link.AccessCount},
			})
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", link.FileName))
		c.Data(http.StatusOK, contentType, data)
	}
}
