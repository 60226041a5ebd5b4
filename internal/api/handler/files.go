package handler

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"pyra-drive/internal/authz"
	"pyra-drive/internal/model"
	"pyra-drive/internal/notify"
	"pyra-drive/internal/pathutil"
	"pyra-drive/internal/storage"
	"pyra-drive/internal/store"

	"github.com/gin-gonic/gin"
)

// trashRetention is how long soft-deleted objects stay restorable.
const trashRetention = 30 * 24 * time.Hour

// officeMimes maps extensions the browser cannot sniff to their real types
// so previews render instead of downloading.
var officeMimes = map[string]string{
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".doc":  "application/msword",
	".xls":  "application/vnd.ms-excel",
	".pdf":  "application/pdf",
}

func mimeByExt(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if m, ok := officeMimes[ext]; ok {
		return m
	}
	if m := mime.TypeByExtension(ext); m != "" {
		return m
	}
	return "application/octet-stream"
}

func parentDir(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[:i]
	}
	return ""
}

// ListFiles lists one folder. The folder itself must be reachable; each
// entry is then filtered by the same check, so pass-through folders stay
// visible while sibling files outside the grant disappear.
func ListFiles(engine *authz.Engine, bucket *storage.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		prefix := pathutil.Normalize(c.Query("path"))

		reachable, err := engine.CanReachEnhanced(snap, prefix)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Permission check failed"})
			return
		}
		if !reachable {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}

		entries, err := bucket.List(prefix)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}

		visible := make([]storage.Entry, 0, len(entries))
		for _, entry := range entries {
			if entry.Name == storage.KeepFile || entry.Name == storage.TrashPrefix {
				continue
			}
			ok, err := engine.CanReachEnhanced(snap, entry.Path)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Permission check failed"})
				return
			}
			if ok {
				visible = append(visible, entry)
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"path":        prefix,
			"entries":     visible,
			"permissions": engine.EffectivePermissions(snap, prefix),
		})
	}
}

// UploadFile stores one multipart file into the target folder.
func UploadFile(engine *authz.Engine, bucket *storage.Client, activity *store.Activity, notifier *notify.Notifier, fanout *authz.Fanout) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		prefix := pathutil.Normalize(c.PostForm("path"))

		header, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File required"})
			return
		}
		name := path.Base(header.Filename)
		target := name
		if prefix != "" {
			target = prefix + "/" + name
		}

		if ok := authorize(c, engine, snap, model.CapUpload, target); !ok {
			return
		}

		f, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read file"})
			return
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read file"})
			return
		}

		if err := bucket.Upload(target, data, header.Header.Get("Content-Type")); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}

		record(activity, c, snap, "upload", target, map[string]any{"size": header.Size})
		broadcast(notifier, fanout, snap, prefix, "file_uploaded",
			"New file uploaded", fmt.Sprintf("%s uploaded %s", snap.DisplayName, name), target)

		c.JSON(http.StatusCreated, gin.H{"path": target})
	}
}

// DownloadFile streams a file as an attachment.
func DownloadFile(engine *authz.Engine, bucket *storage.Client, activity *store.Activity) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		target := pathutil.Normalize(c.Query("path"))
		if target == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Path required"})
			return
		}
		if ok := authorize(c, engine, snap, model.CapDownload, target); !ok {
			return
		}

		data, contentType, err := bucket.Download(target)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		if contentType == "" {
			contentType = mimeByExt(target)
		}

		record(activity, c, snap, "download", target, nil)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(target)))
		c.Data(http.StatusOK, contentType, data)
	}
}

// ProxyFile streams a file inline for previews. Reachability is enough; no
// download capability is consumed by looking at a file in the browser.
func ProxyFile(engine *authz.Engine, bucket *storage.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		target := pathutil.Normalize(c.Query("path"))
		if target == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Path required"})
			return
		}
		reachable, err := engine.CanReachEnhanced(snap, target)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Permission check failed"})
			return
		}
		if !reachable {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}

		data, contentType, err := bucket.Download(target)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		if override := mimeByExt(target); override != "application/octet-stream" {
			contentType = override
		}
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		c.Data(http.StatusOK, contentType, data)
	}
}

// SaveFile overwrites a file's content (in-browser text edits).
func SaveFile(engine *authz.Engine, bucket *storage.Client, activity *store.Activity) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		var input struct {
			Path    string `json:"path"`
			Content string `json:"content"`
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
		if ok := authorize(c, engine, snap, model.CapEdit, target); !ok {
			return
		}

		if err := bucket.Save(target, []byte(input.Content), mimeByExt(target)); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		record(activity, c, snap, "edit", target, nil)
		c.JSON(http.StatusOK, gin.H{"path": target})
	}
}

// RenameFile renames an object within its folder and repoints its reviews.
func RenameFile(engine *authz.Engine, bucket *storage.Client, reviews *store.Reviews, activity *store.Activity) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		var input struct {
			Path    string `json:"path"`
			NewName string `json:"new_name"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		source := pathutil.Normalize(input.Path)
		name := path.Base(input.NewName)
		if source == "" || name == "" || name == "." || strings.Contains(input.NewName, "/") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid name"})
			return
		}
		if ok := authorize(c, engine, snap, model.CapEdit, source); !ok {
			return
		}

		target := name
		if dir := parentDir(source); dir != "" {
			target = dir + "/" + name
		}
		if err := bucket.Move(source, target); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		if err := reviews.RewritePaths(source, target); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Renamed, but review records were not updated"})
			return
		}
		record(activity, c, snap, "rename", source, map[string]any{"new_path": target})
		c.JSON(http.StatusOK, gin.H{"path": target})
	}
}

// DeleteFiles soft-deletes a batch of files by moving each into the trash
// prefix and recording a restorable trash row. Per-path failures do not stop
// the batch; the response reports both lists.
func DeleteFiles(engine *authz.Engine, bucket *storage.Client, trash *store.Trash, activity *store.Activity, notifier *notify.Notifier, fanout *authz.Fanout) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		var input struct {
			Paths []string `json:"paths"`
		}
		if err := c.ShouldBindJSON(&input); err != nil || len(input.Paths) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Paths required"})
			return
		}

		deleted := make([]string, 0, len(input.Paths))
		failed := make(map[string]string)
		for _, raw := range input.Paths {
			target := pathutil.Normalize(raw)
			if target == "" {
				failed[raw] = "Invalid path"
				continue
			}
			allowed, err := engine.HasCapabilityEnhanced(snap, model.CapDelete, target)
			if err != nil {
				failed[target] = "Permission check failed"
				continue
			}
			reachable, err := engine.CanReachEnhanced(snap, target)
			if err != nil || !allowed || !reachable {
				failed[target] = "Access denied"
				continue
			}

			trashPath, err := moveToTrash(bucket, target)
			if err != nil {
				failed[target] = err.Error()
				continue
			}
			purgeAt := time.Now().Add(trashRetention)
			if err := trash.Add(&model.TrashItem{
				OriginalPath:     target,
				TrashPath:        trashPath,
				FileName:         path.Base(target),
				MimeType:         mimeByExt(target),
				DeletedBy:        snap.Username,
				DeletedByDisplay: snap.DisplayName,
				AutoPurgeAt:      &purgeAt,
			}); err != nil {
				failed[target] = "Moved to trash, but record failed"
				continue
			}
			deleted = append(deleted, target)
			record(activity, c, snap, "delete", target, map[string]any{"trash_path": trashPath})
		}

		for _, target := range deleted {
			broadcast(notifier, fanout, snap, parentDir(target), "file_deleted",
				"File deleted", fmt.Sprintf("%s deleted %s", snap.DisplayName, path.Base(target)), target)
		}
		c.JSON(http.StatusOK, gin.H{"deleted": deleted, "failed": failed})
	}
}

// moveToTrash relocates one object under the trash prefix with a collision
// proof name and returns the new key.
func moveToTrash(bucket *storage.Client, target string) (string, error) {
	nonce := make([]byte, 4)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	trashPath := fmt.Sprintf("%s/%d_%s_%s",
		storage.TrashPrefix, time.Now().Unix(), hex.EncodeToString(nonce), path.Base(target))
	if err := bucket.Move(target, trashPath); err != nil {
		return "", err
	}
	return trashPath, nil
}

// CreateFolder materializes an empty folder under the given parent.
func CreateFolder(engine *authz.Engine, bucket *storage.Client, activity *store.Activity) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		var input struct {
			Path string `json:"path"`
			Name string `json:"name"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		prefix := pathutil.Normalize(input.Path)
		name := strings.TrimSpace(input.Name)
		if name == "" || strings.ContainsAny(name, "/\\") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid folder name"})
			return
		}

		target := name
		if prefix != "" {
			target = prefix + "/" + name
		}
		if ok := authorize(c, engine, snap, model.CapCreateFolder, target); !ok {
			return
		}

		if err := bucket.CreateFolder(prefix, name); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		record(activity, c, snap, "create_folder", target, nil)
		c.JSON(http.StatusCreated, gin.H{"path": target})
	}
}

// FileURL hands out a time-limited signed URL for one reachable file.
func FileURL(engine *authz.Engine, bucket *storage.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		target := pathutil.Normalize(c.Query("path"))
		if target == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Path required"})
			return
		}
		reachable, err := engine.CanReachEnhanced(snap, target)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Permission check failed"})
			return
		}
		if !reachable {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": bucket.SignedURL(target, time.Hour)})
	}
}

// deepSearchMaxDepth bounds how far search walks into the tree.
const deepSearchMaxDepth = 6

// DeepSearch walks the whole tree and returns entries whose name contains
// the query. Non-admin results are filtered by disclosure on the base grant:
// search never reveals more than browsing would.
func DeepSearch(engine *authz.Engine, bucket *storage.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		query := strings.ToLower(strings.TrimSpace(c.Query("q")))
		if query == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Query required"})
			return
		}

		entries, err := bucket.ListRecursive("", deepSearchMaxDepth)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}

		matches := make([]storage.Entry, 0)
		for _, entry := range entries {
			if !strings.Contains(strings.ToLower(entry.Name), query) {
				continue
			}
			if !snap.IsAdmin() && !pathutil.IsDescendantOrEqual(entry.Path, snap.Grant.AllowedPaths) {
				continue
			}
			matches = append(matches, entry)
		}
		c.JSON(http.StatusOK, gin.H{"query": query, "results": matches})
	}
}

// authorize runs the reachability and capability checks for one operation,
// writing the error response itself. Store faults deny.
func authorize(c *gin.Context, engine *authz.Engine, snap authz.Snapshot, cap model.Capability, target string) bool {
	reachable, err := engine.CanReachEnhanced(snap, target)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Permission check failed"})
		return false
	}
	allowed := false
	if reachable {
		allowed, err = engine.HasCapabilityEnhanced(snap, cap, target)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Permission check failed"})
			return false
		}
	}
	if !reachable || !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return false
	}
	return true
}

// broadcast fans an event out to everyone who can see the folder it happened
// in. Fan-out failures are not the client's problem.
func broadcast(notifier *notify.Notifier, fanout *authz.Fanout, snap authz.Snapshot, dir, ntype, title, message, targetPath string) {
	if notifier == nil || fanout == nil {
		return
	}
	recipients, err := fanout.RecipientsFor(dir)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return
	}
	notifier.Broadcast(snap, recipients, ntype, title, message, targetPath)
}
