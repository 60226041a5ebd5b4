package handler

import (
	"errors"
	"net/http"
	"time"

	"pyra-drive/internal/storage"
	"pyra-drive/internal/store"

	"github.com/gin-gonic/gin"
)

func ListTrash(trash *store.Trash) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := trash.All()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list trash"})
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// RestoreTrashItem moves an object back to where it was deleted from.
func RestoreTrashItem(trash *store.Trash, bucket *storage.Client, activity *store.Activity) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		item, err := trash.ByID(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Trash item not found"})
			return
		}

		if err := bucket.Move(item.TrashPath, item.OriginalPath); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		if err := trash.Remove(item.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Restored, but record removal failed"})
			return
		}
		record(activity, c, snap, "trash_restored", item.OriginalPath, nil)
		c.JSON(http.StatusOK, gin.H{"path": item.OriginalPath})
	}
}

// PurgeTrashItem deletes one trashed object for good.
func PurgeTrashItem(trash *store.Trash, bucket *storage.Client, activity *store.Activity) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		item, err := trash.ByID(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Trash item not found"})
			return
		}

		if err := bucket.Delete(item.TrashPath); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		if err := trash.Remove(item.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Deleted, but record removal failed"})
			return
		}
		record(activity, c, snap, "trash_purged", item.OriginalPath, nil)
		c.JSON(http.StatusOK, gin.H{"message": "Item permanently deleted"})
	}
}

// EmptyTrash permanently deletes everything in the trash. Per-item failures
// leave the record in place so a retry can finish the job.
func EmptyTrash(trash *store.Trash, bucket *storage.Client, activity *store.Activity) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		items, err := trash.All()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list trash"})
			return
		}

		purged := 0
		for i := range items {
			if err := bucket.Delete(items[i].TrashPath); err != nil {
				continue
			}
			if err := trash.Remove(items[i].ID); err != nil && !errors.Is(err, store.ErrNotFound) {
				continue
			}
			purged++
		}
		record(activity, c, snap, "trash_emptied", "", map[string]any{"purged": purged})
		c.JSON(http.StatusOK, gin.H{"purged": purged, "total": len(items)})
	}
}

// PurgeExpiredTrash removes items whose retention window has passed.
func PurgeExpiredTrash(trash *store.Trash, bucket *storage.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := trash.Expired(time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list expired items"})
			return
		}

		purged := 0
		for i := range items {
			if err := bucket.Delete(items[i].TrashPath); err != nil {
				continue
			}
			if err := trash.Remove(items[i].ID); err != nil && !errors.Is(err, store.ErrNotFound) {
				continue
			}
			purged++
		}
		c.JSON(http.StatusOK, gin.H{"purged": purged})
	}
}
