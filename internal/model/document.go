// Package model defines data structures used throughout the application.
package model

import (
	"github.com/spf13/cast"
)

// Product field names inspected or written by the service.
const (
	FieldID    = "id"
	FieldTitle = "title"
	FieldPrice = "price"
	FieldImage = "image"
)

// DefaultWhatsApp is the contact number written into a fresh document.
const DefaultWhatsApp = "1234567890"

// Product is a catalog entry. Only the id field is interpreted; every
// other field is stored and returned as received.
type Product map[string]any

// ID returns the product id coerced to an integer. The second return
// value is false when the field is missing or not numeric.
func (p Product) ID() (int64, bool) {
	v, ok := p[FieldID]
	if !ok || v == nil {
		return 0, false
	}

	id, err := cast.ToInt64E(v)
	if err != nil {
		return 0, false
	}

	return id, true
}

// SetID overwrites the product id.
func (p Product) SetID(id int64) {
	p[FieldID] = id
}

// Settings is a flat key/value map of shop settings.
type Settings map[string]any

// Merge copies every key of patch into s, replacing existing values.
// Keys absent from patch are left alone. Nested values are replaced, not merged.
func (s Settings) Merge(patch Settings) {
	for k, v := range patch {
		s[k] = v
	}
}

// Document is the whole persisted application state.
type Document struct {
	Products []Product `json:"products"`
	Settings Settings  `json:"settings"`
}

// Normalize replaces nil collections with empty ones so the document
// always serializes as {"products": [], "settings": {}}.
func (d *Document) Normalize() {
	if d.Products == nil {
		d.Products = []Product{}
	}
	if d.Settings == nil {
		d.Settings = Settings{}
	}
}

// NextProductID returns one more than the highest id among products,
// or 1 when there are none. Products without a numeric id are ignored.
func (d *Document) NextProductID() int64 {
	var maxID int64
	for _, p := range d.Products {
		if id, ok := p.ID(); ok && id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}

// RemoveProduct drops every product whose id equals id and reports how
// many were removed. Order of the remaining products is kept.
func (d *Document) RemoveProduct(id int64) int {
	kept := d.Products[:0]
	removed := 0
	for _, p := range d.Products {
		if pid, ok := p.ID(); ok && pid == id {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	d.Products = kept
	return removed
}

// DefaultDocument returns the seed document used when no data file exists.
func DefaultDocument() *Document {
	return &Document{
		Products: []Product{
			{
				FieldID:    int64(1),
				FieldTitle: "Premium Netflix 4K",
				FieldPrice: "$12.99",
				FieldImage: "https://images.unsplash.com/photo-1522869635100-9f4c5e86aa37?w=400&q=80",
			},
			{
				FieldID:    int64(2),
				FieldTitle: "Spotify Premium 1yr",
				FieldPrice: "$24.99",
				FieldImage: "https://images.unsplash.com/photo-1614680376593-902f74cf0d41?w=400&q=80",
			},
			{
				FieldID:    int64(3),
				FieldTitle: "Canva Pro Lifetime",
				FieldPrice: "$5.00",
				FieldImage: "https://images.unsplash.com/photo-1626785774573-4b799315345d?w=400&q=80",
			},
			{
				FieldID:    int64(4),
				FieldTitle: "YouTube Premium",
				FieldPrice: "$3.50",
				FieldImage: "https://images.unsplash.com/photo-1611162617213-7d7a39e9b1d7?w=400&q=80",
			},
		},
		Settings: Settings{
			"whatsapp": DefaultWhatsApp,
		},
	}
}
