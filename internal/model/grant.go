package model

import (
	"bytes"
	"encoding/json"
)

// Capability names one of the six operation flags. The string values double
// as the JSON keys used in stored grants.
type Capability string

const (
	CapUpload       Capability = "can_upload"
	CapEdit         Capability = "can_edit"
	CapDelete       Capability = "can_delete"
	CapDownload     Capability = "can_download"
	CapCreateFolder Capability = "can_create_folder"
	CapReview       Capability = "can_review"
)

// Capabilities lists every known capability.
var Capabilities = []Capability{
	CapUpload, CapEdit, CapDelete, CapDownload, CapCreateFolder, CapReview,
}

// PathWildcard grants access to the entire tree when present in AllowedPaths.
const PathWildcard = "*"

// CapabilitySet is the fixed six-flag permission bundle.
type CapabilitySet struct {
	Upload       bool `json:"can_upload"`
	Edit         bool `json:"can_edit"`
	Delete       bool `json:"can_delete"`
	Download     bool `json:"can_download"`
	CreateFolder bool `json:"can_create_folder"`
	Review       bool `json:"can_review"`
}

// AllCapabilities is the set with every flag on (admin view).
func AllCapabilities() CapabilitySet {
	return CapabilitySet{
		Upload:       true,
		Edit:         true,
		Delete:       true,
		Download:     true,
		CreateFolder: true,
		Review:       true,
	}
}

// Has reports whether the named capability is set. Unknown names are false.
func (s CapabilitySet) Has(cap Capability) bool {
	switch cap {
	case CapUpload:
		return s.Upload
	case CapEdit:
		return s.Edit
	case CapDelete:
		return s.Delete
	case CapDownload:
		return s.Download
	case CapCreateFolder:
		return s.CreateFolder
	case CapReview:
		return s.Review
	default:
		return false
	}
}

// Grant is a capability set plus the allowed path prefixes it applies to.
// PerFolder carries the legacy per-folder permission map that predates
// path overrides; it is consulted only by EffectivePermissions.
type Grant struct {
	CapabilitySet
	AllowedPaths []string                 `json:"allowed_paths"`
	PerFolder    map[string]CapabilitySet `json:"per_folder_perms,omitempty"`
}

// ParseGrant decodes a grant from JSON, rejecting unknown keys so that
// loosely-typed permission bags cannot smuggle extra flags in.
func ParseGrant(data []byte) (Grant, error) {
	var g Grant
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&g); err != nil {
		return Grant{}, err
	}
	return g, nil
}
