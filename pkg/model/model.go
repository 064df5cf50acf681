// Package model defines the plain value records shared by the catalog and
// the core operations.
//
// Records carry no behavior beyond trivial accessors: queries and mutations
// live in the catalog access layer, and the core always operates on
// immutable snapshots of these values, never on live database rows.
package model

import (
	"time"
)

// NodeKind discriminates folder and file entries in the tree
type NodeKind string

const (
	// KindFolder is a tree entry that owns children and no content
	KindFolder NodeKind = "folder"

	// KindFile is a tree entry referencing a content record
	KindFile NodeKind = "file"
)

// ContentRecord is the stored-once description of a unique content
// fingerprint. There is at most one record per fingerprint value; the
// record is immutable once written and is only ever removed when the
// last referencing tree entry goes away.
type ContentRecord struct {
	Fingerprint string    `json:"fingerprint" yaml:"fingerprint"`
	Size        uint64    `json:"size" yaml:"size"`
	MimeType    string    `json:"mimeType,omitempty" yaml:"mimeType,omitempty"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt"`
	CreatedBy   string    `json:"createdBy,omitempty" yaml:"createdBy,omitempty"`
	_           struct{}
}

// TreeEntry is a node in the folder hierarchy, either a folder or a
// file. Its Key is an opaque random identifier, unique across all
// entries and never reused.
//
// A root entry has an empty ParentKey. Every other entry references an
// existing folder entry as its parent; cycles are impossible because
// entries only ever attach below entries that already exist.
type TreeEntry struct {
	Key         string    `json:"key" yaml:"key"`
	Name        string    `json:"name" yaml:"name"`
	ParentKey   string    `json:"parentKey,omitempty" yaml:"parentKey,omitempty"`
	Kind        NodeKind  `json:"kind" yaml:"kind"`
	Fingerprint string    `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	SortOrder   int64     `json:"sortOrder,omitempty" yaml:"sortOrder,omitempty"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt"`
	CreatedBy   string    `json:"createdBy,omitempty" yaml:"createdBy,omitempty"`
	_           struct{}
}

// IsRoot reports whether the entry is the root of a tree
func (e TreeEntry) IsRoot() bool {
	return e.ParentKey == ""
}

// IsFile reports whether the entry references content
func (e TreeEntry) IsFile() bool {
	return e.Kind == KindFile
}
