package model

import (
	"strings"
	"time"
)

// Category is the bin a detected item was sorted into.
type Category string

const (
	CategoryRecycle Category = "recycle"
	CategoryCompost Category = "compost"
	CategoryTrash   Category = "trash"
)

// ParseCategory normalizes a raw category value. Matching is case-insensitive
// and ignores surrounding whitespace; ok is false for values outside the enum.
func ParseCategory(raw string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryRecycle:
		return CategoryRecycle, true
	case CategoryCompost:
		return CategoryCompost, true
	case CategoryTrash:
		return CategoryTrash, true
	}
	return "", false
}

// Diverted reports whether the category keeps the item out of landfill.
func (c Category) Diverted() bool {
	return c == CategoryRecycle || c == CategoryCompost
}

// Detection is one sorted item event produced by a station. Category holds the
// raw stored value; use ParseCategory to interpret it.
type Detection struct {
	ID        string    `json:"id" db:"id"`
	Category  string    `json:"category" db:"category"`
	Item      string    `json:"item" db:"item"`
	DeviceID  string    `json:"device_id" db:"device_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
