package domain

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

// Product represents a catalog product. Timestamps are only populated by
// the document-store backend, which manages them on insert and update.
type Product struct {
	ID          ID         `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Code        string     `json:"code"`
	Price       float64    `json:"price"`
	Status      bool       `json:"status"`
	Stock       float64    `json:"stock"`
	Category    string     `json:"category"`
	Thumbnails  []string   `json:"thumbnails"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// ProductInput is a fully validated create payload.
type ProductInput struct {
	Title       string
	Description string
	Code        string
	Price       float64
	Status      bool
	Stock       float64
	Category    string
	Thumbnails  []string
}

// DecodeProductInput decodes a create payload field by field so a single
// validation pass can name every offending field, not just the first one
// the decoder trips on.
func DecodeProductInput(data []byte) (*ProductInput, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, InvalidMsg("invalid JSON body")
	}

	in := &ProductInput{}
	var bad []string

	text := func(field string, dst *string) {
		var s string
		if msg, ok := raw[field]; !ok || json.Unmarshal(msg, &s) != nil || strings.TrimSpace(s) == "" {
			bad = append(bad, field)
			return
		}
		*dst = s
	}
	number := func(field string, dst *float64) {
		var n float64
		if msg, ok := raw[field]; !ok || json.Unmarshal(msg, &n) != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			bad = append(bad, field)
			return
		}
		*dst = n
	}

	text("title", &in.Title)
	text("description", &in.Description)
	text("code", &in.Code)
	number("price", &in.Price)
	if msg, ok := raw["status"]; !ok || json.Unmarshal(msg, &in.Status) != nil {
		bad = append(bad, "status")
	}
	number("stock", &in.Stock)
	text("category", &in.Category)
	if msg, ok := raw["thumbnails"]; !ok || string(msg) == "null" || json.Unmarshal(msg, &in.Thumbnails) != nil {
		bad = append(bad, "thumbnails")
	}
	if in.Thumbnails == nil {
		in.Thumbnails = []string{}
	}

	if len(bad) > 0 {
		return nil, Invalid(bad)
	}
	return in, nil
}

// ProductPatch is a partial update. A client-supplied id has no matching
// field and is dropped at decode time, so the stored id never changes.
type ProductPatch struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Code        *string   `json:"code"`
	Price       *float64  `json:"price"`
	Status      *bool     `json:"status"`
	Stock       *float64  `json:"stock"`
	Category    *string   `json:"category"`
	Thumbnails  *[]string `json:"thumbnails"`
}

// DecodeProductPatch decodes a partial update payload.
func DecodeProductPatch(data []byte) (*ProductPatch, error) {
	var p ProductPatch
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, InvalidMsg("invalid JSON body")
	}
	return &p, nil
}

// Apply merges the supplied fields into dst; unspecified fields keep
// their prior values.
func (p *ProductPatch) Apply(dst *Product) {
	if p.Title != nil {
		dst.Title = *p.Title
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Code != nil {
		dst.Code = *p.Code
	}
	if p.Price != nil {
		dst.Price = *p.Price
	}
	if p.Status != nil {
		dst.Status = *p.Status
	}
	if p.Stock != nil {
		dst.Stock = *p.Stock
	}
	if p.Category != nil {
		dst.Category = *p.Category
	}
	if p.Thumbnails != nil {
		dst.Thumbnails = *p.Thumbnails
	}
}
