// Package database is the realtime database the admin layer persists to: a
// tree of JSON values addressed by '/'-joined paths.
package database

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Persisted roots.
const (
	ActivityLogPath    = "activityLog1"
	DeletedContentPath = "deletedContent1"
	UsersPath          = "users"
	QuestionsPath      = "questions"
	UnitsPath          = "units"
)

var ErrInvalidPath = errors.New("invalid path")

// Node is one stored value.
type Node struct {
	Path  string
	Value json.RawMessage
}

// Key returns the last path segment.
func (n Node) Key() string {
	return Base(n.Path)
}

// Tree is the realtime database client.
type Tree interface {
	// Get decodes the value at path into out. found is false when nothing is stored there.
	Get(ctx context.Context, path string, out any) (found bool, err error)
	// Set overwrites the value at path and removes anything stored beneath it.
	Set(ctx context.Context, path string, value any) error
	// Push stores value under a new, time-ordered child key of parent.
	Push(ctx context.Context, parent string, value any) (string, error)
	// Remove deletes path and everything beneath it.
	Remove(ctx context.Context, path string) error
	// List returns every value stored beneath prefix, ordered by path.
	List(ctx context.Context, prefix string) ([]Node, error)
	// Update applies several writes at once. A nil value removes the path.
	Update(ctx context.Context, values map[string]any) error
}

// Join builds a path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// Base returns the last segment of path.
func Base(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Parent returns path without its last segment.
func Parent(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[:i]
	}
	return ""
}

// Clean validates path and trims surrounding slashes.
func Clean(path string) (string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return "", ErrInvalidPath
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", ErrInvalidPath
		}
	}
	return path, nil
}

// within reports whether path is prefix itself or lies beneath it.
func within(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func newPushKey() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
