// Package store provides persistence for Skua resources.
//
// Keys follow the convention "/{kind}/{project}/{name}". Everything is
// serialised as JSON, so any resource (and the vector index's chunk
// records) can live in the same keyspace.
package store

import (
	"errors"
	"fmt"
	"strings"

	v1alpha1 "github.com/skua-dev/skua/pkg/apis/v1alpha1"
)

// Store is the persistence interface for all Skua resources.
type Store interface {
	// Create stores a new object at the given key.
	// Returns ErrAlreadyExists if the key is taken.
	Create(key string, value interface{}) error

	// Get retrieves the object stored at key and deserialises it into
	// target. Returns ErrNotFound if the key does not exist.
	Get(key string, target interface{}) error

	// Update replaces the object at the given key.
	// Returns ErrNotFound if the key does not exist.
	Update(key string, value interface{}) error

	// Delete removes the object at the given key.
	// Returns ErrNotFound if the key does not exist.
	Delete(key string) error

	// List returns every object whose key starts with prefix. factory is
	// called once per result to create a zero-value pointer that the
	// stored JSON is unmarshalled into.
	List(prefix string, factory func() interface{}) ([]interface{}, error)

	// Watch returns a channel that emits events for every mutation whose
	// key starts with prefix. The returned cancel function removes the
	// watcher and closes the channel.
	Watch(prefix string) (<-chan v1alpha1.WatchEvent, func())

	// Close releases any resources held by the store.
	Close() error
}

// Common sentinel errors.
var (
	ErrAlreadyExists = errors.New("key already exists")
	ErrNotFound      = errors.New("key not found")
)

// ResourceKey builds a canonical store key for a resource.
//
//	ResourceKey("Task", "default", "groceries")
//	=> "/Task/default/groceries"
func ResourceKey(kind, project, name string) string {
	return fmt.Sprintf("/%s/%s/%s", kind, project, name)
}

// SplitKey decomposes a canonical store key into kind, project and
// name.
func SplitKey(key string) (kind, project, name string, err error) {
	parts := strings.SplitN(strings.TrimPrefix(key, "/"), "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("malformed resource key %q", key)
	}
	return parts[0], parts[1], parts[2], nil
}

// KindPrefix builds the watch/list prefix covering every resource of a
// kind across all projects.
func KindPrefix(kind string) string {
	return "/" + kind + "/"
}

// ProjectPrefix builds the list prefix covering one kind within one
// project.
func ProjectPrefix(kind, project string) string {
	return fmt.Sprintf("/%s/%s/", kind, project)
}
