// Package storage is the content-addressable staging store the publish stage
// pushes built sites into.
package storage

import (
	"context"
	"time"
)

// ObjectStore provides content-addressable storage for build artifacts.
// Objects are stored by their content hash, so a file that did not change
// between two pushes is stored once.
type ObjectStore interface {
	// Put stores an object and returns its content hash. Storing an existing
	// object only bumps its reference count.
	Put(ctx context.Context, obj *Object) (hash string, created bool, err error)

	// Get retrieves an object by its content hash.
	// Returns ErrNotFound if the object doesn't exist.
	Get(ctx context.Context, hash string) (*Object, error)

	// Exists checks if an object with the given hash exists.
	Exists(ctx context.Context, hash string) (bool, error)

	// List returns all object hashes matching the given type filter.
	// If objectType is empty, returns all objects.
	List(ctx context.Context, objectType ObjectType) ([]string, error)

	Close() error
}

// Object is a stored artifact with its metadata.
type Object struct {
	Hash     string
	Type     ObjectType
	Size     int64
	Data     []byte
	Metadata Metadata
}

// Metadata stores object metadata.
type Metadata struct {
	CreatedAt    time.Time         `json:"created_at"`
	LastAccessed time.Time         `json:"last_accessed"`
	RefCount     int               `json:"ref_count"`
	Custom       map[string]string `json:"custom,omitempty"`
}

// ObjectType identifies the kind of stored object.
type ObjectType string

const (
	// ObjectTypeSiteFile is one file of a rendered site.
	ObjectTypeSiteFile ObjectType = "site_file"
)

// StageRef points a staging location (owner/repo/branch) at a set of objects.
type StageRef struct {
	Name      string          `json:"name"`
	JobID     string          `json:"job_id"`
	UpdatedAt time.Time       `json:"updated_at"`
	Entries   []ManifestEntry `json:"entries"`
}

// ManifestEntry maps a site-relative path to the object holding its content.
type ManifestEntry struct {
	Path string `json:"path"`
	Hash string `json:"hash"`
	Size int64  `json:"size"`
}

// ErrNotFound is returned when an object doesn't exist.
type ErrNotFound struct {
	Hash string
}

func (e ErrNotFound) Error() string {
	return "object not found: " + e.Hash
}

// IsNotFound returns true if the error is ErrNotFound.
func IsNotFound(err error) bool {
	_, ok := err.(ErrNotFound)
	return ok
}
