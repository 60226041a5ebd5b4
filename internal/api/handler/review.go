package handler

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"pyra-drive/internal/authz"
	"pyra-drive/internal/model"
	"pyra-drive/internal/notify"
	"pyra-drive/internal/pathutil"
	"pyra-drive/internal/store"

	"github.com/gin-gonic/gin"
)

// AddReview attaches a comment or approval to a file and notifies everyone
// who can see its folder.
func AddReview(engine *authz.Engine, reviews *store.Reviews, notifier *notify.Notifier, fanout *authz.Fanout, activity *store.Activity) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		var input struct {
			Path string `json:"path"`
			Type string `json:"type"`
			Text string `json:"text"`
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
		if input.Type != model.ReviewComment && input.Type != model.ReviewApproval {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Type must be comment or approval"})
			return
		}
		if input.Type == model.ReviewComment && strings.TrimSpace(input.Text) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Comment text required"})
			return
		}
		if ok := authorize(c, engine, snap, model.CapReview, target); !ok {
			return
		}

		review := model.Review{
			FilePath:    target,
			Username:    snap.Username,
			DisplayName: snap.DisplayName,
			Type:        input.Type,
			Text:        input.Text,
		}
		if err := reviews.Create(&review); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not store review"})
			return
		}

		verb := "commented on"
		if input.Type == model.ReviewApproval {
			verb = "approved"
		}
		broadcast(notifier, fanout, snap, parentDir(target), "review_added",
			"File review", fmt.Sprintf("%s %s %s", snap.DisplayName, verb, path.Base(target)), target)

		record(activity, c, snap, "review_added", target, map[string]any{"type": input.Type})
		c.JSON(http.StatusCreated, review)
	}
}

// ListReviews returns the reviews on one reachable file, newest first.
func ListReviews(engine *authz.Engine, reviews *store.Reviews) gin.HandlerFunc {
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

		rows, err := reviews.ForPath(target)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list reviews"})
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

// ToggleReviewResolved flips a review's resolved flag.
func ToggleReviewResolved(reviews *store.Reviews) gin.HandlerFunc {
	return func(c *gin.Context) {
		resolved, err := reviews.ToggleResolved(c.Param("id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update review"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"resolved": resolved})
	}
}

func DeleteReview(reviews *store.Reviews) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := reviews.Delete(c.Param("id")); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete review"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Review deleted"})
	}
}
