// Package models defines core data structures for catalog entities, user signals and recommendations.
package models

// Product is a catalog item offered by a seller. Optional attributes are nil when the
// stored column is NULL.
type Product struct {
	ID          int64    `json:"id" db:"id"`
	UserID      int64    `json:"user_id" db:"user_id"`
	Name        *string  `json:"name,omitempty" db:"name"`
	Description *string  `json:"description,omitempty" db:"description"`
	Price       *float64 `json:"price,omitempty" db:"price"`
	Category    *string  `json:"category,omitempty" db:"category"`
	Region      *string  `json:"region,omitempty" db:"region"`
	Technique   *string  `json:"technique,omitempty" db:"technique"`
	Material    *string  `json:"material,omitempty" db:"material"`
	Color       *string  `json:"color,omitempty" db:"color"`
}

// EntityID returns the product ID.
func (p *Product) EntityID() int64 { return p.ID }

// Attribute returns the textual value of the named attribute. known is false when the
// product has no attribute with that name; value is "" when the attribute is NULL.
func (p *Product) Attribute(name string) (value string, known bool) {
	switch name {
	case "name":
		return deref(p.Name), true
	case "description":
		return deref(p.Description), true
	case "price":
		return formatFloat(p.Price), true
	case "category":
		return deref(p.Category), true
	case "region":
		return deref(p.Region), true
	case "technique":
		return deref(p.Technique), true
	case "material":
		return deref(p.Material), true
	case "color":
		return deref(p.Color), true
	}
	return "", false
}

// Store is a seller storefront. A store is linked to products through the shared owner UserID.
type Store struct {
	ID        int64    `json:"id" db:"id"`
	UserID    int64    `json:"user_id" db:"user_id"`
	Name      *string  `json:"name,omitempty" db:"name"`
	District  *string  `json:"district,omitempty" db:"district"`
	Region    *string  `json:"region,omitempty" db:"region"`
	Latitude  *float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude *float64 `json:"longitude,omitempty" db:"longitude"`
}

// EntityID returns the store ID.
func (s *Store) EntityID() int64 { return s.ID }

// Attribute returns the textual value of the named attribute (see Product.Attribute).
func (s *Store) Attribute(name string) (value string, known bool) {
	switch name {
	case "name":
		return deref(s.Name), true
	case "district":
		return deref(s.District), true
	case "region":
		return deref(s.Region), true
	case "latitude":
		return formatFloat(s.Latitude), true
	case "longitude":
		return formatFloat(s.Longitude), true
	}
	return "", false
}
