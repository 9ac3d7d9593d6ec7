package model

import "strings"

// Item is a catalog piece ("peça"). JSON names follow the legacy data file.
type Item struct {
	ID           int64   `json:"id"`
	Name         string  `json:"nome"`
	Price        float64 `json:"valor"`
	Availability string  `json:"disponibilidade"`
	Type         string  `json:"tipo"`
	Size         *string `json:"tamanho"`
	ImageRef     string  `json:"imagem"`
}

// Availability values. The set is open: any string is accepted.
const (
	AvailabilityAvailable   = "disponível"
	AvailabilityUnavailable = "indisponível"
)

// TypeRing is the only category that carries a size.
const TypeRing = "Anel"

// ItemPatch holds the fields of a partial update. Nil fields are left untouched.
type ItemPatch struct {
	Name         *string
	Price        *float64
	Availability *string
	Type         *string
	Size         *string
	ImageRef     *string

	// ClearSize drops the stored size. Takes precedence over Size.
	ClearSize bool
}

// Apply returns a copy of item with the patch applied.
func (p ItemPatch) Apply(item Item) Item {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Price != nil {
		item.Price = *p.Price
	}
	if p.Availability != nil {
		item.Availability = *p.Availability
	}
	if p.Type != nil {
		item.Type = *p.Type
	}
	if p.Size != nil {
		size := *p.Size
		item.Size = &size
	}
	if p.ClearSize {
		item.Size = nil
	}
	if p.ImageRef != nil {
		item.ImageRef = *p.ImageRef
	}
	return item
}

// Filter narrows a listing. Empty fields match everything.
type Filter struct {
	// Type is matched exactly.
	Type string
	// Name is matched as a case-insensitive substring.
	Name string
}

// Match reports whether item passes the filter.
func (f Filter) Match(item Item) bool {
	if f.Type != "" && item.Type != f.Type {
		return false
	}
	if f.Name != "" && !strings.Contains(strings.ToLower(item.Name), strings.ToLower(f.Name)) {
		return false
	}
	return true
}

// NormalizeSize returns the size to store for an item of the given type:
// nil unless the type is a ring and the size is non-blank.
func NormalizeSize(itemType string, size *string) *string {
	if itemType != TypeRing || size == nil {
		return nil
	}
	s := strings.TrimSpace(*size)
	if s == "" {
		return nil
	}
	return &s
}
