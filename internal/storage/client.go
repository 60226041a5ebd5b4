// Package storage is the thin forwarding layer to the remote object bucket.
// It only moves bytes and listings; all authorization happens before a call
// lands here.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// KeepFile is the placeholder object that makes an empty folder visible.
const KeepFile = ".keep"

// TrashPrefix is where soft-deleted objects live inside the bucket.
const TrashPrefix = ".trash"

// Config points the client at one bucket.
type Config struct {
	BaseURL    string // e.g. https://project.supabase.co/storage/v1
	Bucket     string
	ServiceKey string
}

// Entry is one listed object or folder.
type Entry struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Type      string `json:"type"` // "file" or "folder"
	Size      int64  `json:"size,omitempty"`
	MimeType  string `json:"mimetype,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Client talks to the bucket's REST API.
type Client struct {
	cfg   Config
	httpc *http.Client
	log   *zap.Logger
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	return &Client{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 120 * time.Second},
		log:   log,
	}
}

type listItem struct {
	ID        *string `json:"id"`
	Name      string  `json:"name"`
	UpdatedAt string  `json:"updated_at"`
	Metadata  *struct {
		Size     int64  `json:"size"`
		MimeType string `json:"mimetype"`
	} `json:"metadata"`
}

// List returns the folders and files directly under prefix.
func (c *Client) List(prefix string) ([]Entry, error) {
	items, err := c.list(prefix)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		path := item.Name
		if prefix != "" {
			path = prefix + "/" + item.Name
		}
		// A null id marks a folder pseudo-entry.
		if item.ID == nil && item.Metadata == nil {
			entries = append(entries, Entry{Name: item.Name, Path: path, Type: "folder"})
			continue
		}
		entry := Entry{Name: item.Name, Path: path, Type: "file", UpdatedAt: item.UpdatedAt}
		if item.Metadata != nil {
			entry.Size = item.Metadata.Size
			entry.MimeType = item.Metadata.MimeType
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ListRecursive walks the tree under prefix up to maxDepth levels, skipping
// the trash folder and keep placeholders.
func (c *Client) ListRecursive(prefix string, maxDepth int) ([]Entry, error) {
	if maxDepth <= 0 {
		return nil, nil
	}

	items, err := c.list(prefix)
	if err != nil {
		return nil, err
	}

	var all []Entry
	for _, item := range items {
		if item.Name == TrashPrefix || item.Name == KeepFile {
			continue
		}
		path := item.Name
		if prefix != "" {
			path = prefix + "/" + item.Name
		}
		if item.ID == nil && item.Metadata == nil {
			sub, err := c.ListRecursive(path, maxDepth-1)
			if err != nil {
				return nil, err
			}
			all = append(all, sub...)
			continue
		}
		entry := Entry{Name: item.Name, Path: path, Type: "file", UpdatedAt: item.UpdatedAt}
		if item.Metadata != nil {
			entry.Size = item.Metadata.Size
			entry.MimeType = item.Metadata.MimeType
		}
		all = append(all, entry)
	}
	return all, nil
}

func (c *Client) list(prefix string) ([]listItem, error) {
	body := map[string]any{
		"prefix": prefix,
		"limit":  1000,
		"offset": 0,
		"sortBy": map[string]string{"column": "name", "order": "asc"},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, c.cfg.BaseURL+"/object/list/"+c.cfg.Bucket, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.ServiceKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(resp, "list failed")
	}

	var items []listItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, err
	}
	return items, nil
}

// Download fetches an object's bytes and content type.
func (c *Client) Download(path string) ([]byte, string, error) {
	req, err := http.NewRequest(http.MethodGet, c.objectURL(path), nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.ServiceKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", c.apiError(resp, "download failed")
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// Upload writes an object, overwriting any existing one.
func (c *Client) Upload(path string, data []byte, contentType string) error {
	return c.put(http.MethodPost, path, data, contentType)
}

// Save overwrites an object's content (text edits from the UI).
func (c *Client) Save(path string, data []byte, contentType string) error {
	return c.put(http.MethodPut, path, data, contentType)
}

func (c *Client) put(method, path string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req, err := http.NewRequest(method, c.objectURL(path), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.ServiceKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")
	req.Header.Set("Cache-Control", "max-age=3600")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return c.apiError(resp, "upload failed")
	}
	return nil
}

// Move renames an object inside the bucket.
func (c *Client) Move(sourceKey, destinationKey string) error {
	body := map[string]string{
		"bucketId":       c.cfg.Bucket,
		"sourceKey":      sourceKey,
		"destinationKey": destinationKey,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, c.cfg.BaseURL+"/object/move", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.ServiceKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return c.apiError(resp, "move failed")
	}
	return nil
}

// Delete removes one object.
func (c *Client) Delete(path string) error {
	req, err := http.NewRequest(http.MethodDelete, c.objectURL(path), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.ServiceKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return c.apiError(resp, "delete failed")
	}
	return nil
}

// CreateFolder materializes an empty folder by writing a keep placeholder.
func (c *Client) CreateFolder(prefix, name string) error {
	path := name + "/" + KeepFile
	if prefix != "" {
		path = prefix + "/" + path
	}
	return c.put(http.MethodPost, path, nil, "text/plain")
}

// PublicURL is the unauthenticated URL of a public object.
func (c *Client) PublicURL(path string) string {
	return c.cfg.BaseURL + "/object/public/" + c.cfg.Bucket + "/" + path
}

// SignedURL asks the bucket for a time-limited URL, falling back to the
// public one when signing is unavailable.
func (c *Client) SignedURL(path string, expiresIn time.Duration) string {
	payload, err := json.Marshal(map[string]int{"expiresIn": int(expiresIn.Seconds())})
	if err != nil {
		return c.PublicURL(path)
	}
	req, err := http.NewRequest(http.MethodPost,
		c.cfg.BaseURL+"/object/sign/"+c.cfg.Bucket+"/"+encodePath(path), bytes.NewReader(payload))
	if err != nil {
		return c.PublicURL(path)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.ServiceKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.log.Warn("sign url failed", zap.String("path", path), zap.Error(err))
		return c.PublicURL(path)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return c.PublicURL(path)
	}

	var out struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.SignedURL == "" {
		return c.PublicURL(path)
	}
	return c.cfg.BaseURL + out.SignedURL
}

func (c *Client) objectURL(path string) string {
	return c.cfg.BaseURL + "/object/" + c.cfg.Bucket + "/" + encodePath(path)
}

// encodePath escapes each segment while keeping the separators.
func encodePath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func (c *Client) apiError(resp *http.Response, fallback string) error {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Message != "" {
		return fmt.Errorf("%s (HTTP %d)", body.Message, resp.StatusCode)
	}
	return fmt.Errorf("%s (HTTP %d)", fallback, resp.StatusCode)
}
