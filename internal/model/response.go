package model

import "time"

// ErrorResponse represents an error response structure.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// StatusResponse is returned by operations that only confirm success.
type StatusResponse struct {
	Status string `json:"status"`
}

// StatusDeleted is the status reported by product deletion.
const StatusDeleted = "deleted"

// Catalog event types pushed over the WebSocket feed.
const (
	EventProductCreated  = "product_created"
	EventProductDeleted  = "product_deleted"
	EventSettingsUpdated = "settings_updated"
)

// CatalogEvent describes a completed write to the catalog.
type CatalogEvent struct {
	Type      string    `json:"type"`
	Product   Product   `json:"product,omitempty"`
	ProductID int64     `json:"product_id,omitempty"`
	Removed   int       `json:"removed,omitempty"`
	Settings  Settings  `json:"settings,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewProductCreatedEvent creates an event for a newly stored product.
func NewProductCreatedEvent(p Product) CatalogEvent {
	return CatalogEvent{
		Type:      EventProductCreated,
		Product:   p,
		Timestamp: time.Now().UTC(),
	}
}

// NewProductDeletedEvent creates an event for a delete request.
func NewProductDeletedEvent(id int64, removed int) CatalogEvent {
	return CatalogEvent{
		Type:      EventProductDeleted,
		ProductID: id,
		Removed:   removed,
		Timestamp: time.Now().UTC(),
	}
}

// NewSettingsUpdatedEvent creates an event carrying the merged settings.
func NewSettingsUpdatedEvent(s Settings) CatalogEvent {
	return CatalogEvent{
		Type:      EventSettingsUpdated,
		Settings:  s,
		Timestamp: time.Now().UTC(),
	}
}
