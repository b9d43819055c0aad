package models

import "time"

// Catalog event types emitted by the file monitor
const (
	EventCreate = "create"
	EventModify = "modify"
	EventDelete = "delete"
)

// CatalogEvent represents a change to a catalog file on disk
type CatalogEvent struct {
	Type string `json:"type"` // "create", "modify", "delete"
	Path string `json:"path"`
}

// LiveMessage is pushed to connected browsers when the catalog changes
type LiveMessage struct {
	Event     string    `json:"event"` // "catalog.reloaded", "hello"
	Patterns  int       `json:"patterns"`
	Paths     []string  `json:"paths,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
