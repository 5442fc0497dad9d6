// Package model defines domain models and types used throughout the application.
package model

// ImageSlotCount is the fixed number of secondary image slots a product
// carries. The remote API expects the imagesUrl array to always hold this
// many entries; an empty string marks an unset slot.
const ImageSlotCount = 5

// ImageSlots is the fixed-size sequence of secondary image URLs.
// Serializing a value of this type always emits exactly ImageSlotCount
// entries, so unset slots travel as "" rather than being omitted.
type ImageSlots [ImageSlotCount]string

// URLs returns the non-empty slots in order, for display purposes.
func (s ImageSlots) URLs() []string {
	urls := make([]string, 0, len(s))
	for _, u := range s {
		if u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// Product is a catalog entry as returned by the remote API.
// Records are never mutated in place: an edit produces a new draft that
// replaces the server copy only after the API acknowledges it.
type Product struct {
	ID          string     `json:"id,omitempty"`
	Title       string     `json:"title"`
	Category    string     `json:"category"`
	Unit        string     `json:"unit"`
	OriginPrice float64    `json:"origin_price"`
	Price       float64    `json:"price"`
	Description string     `json:"description"`
	Content     string     `json:"content"`
	IsEnabled   int        `json:"is_enabled"` // 0 or 1 on the wire
	ImageURL    string     `json:"imageUrl"`
	ImagesURL   ImageSlots `json:"imagesUrl"`
}

// Enabled reports whether the product is visible on the storefront.
func (p Product) Enabled() bool {
	return p.IsEnabled != 0
}

// Draft is a working copy of a product bound to a single create/edit
// attempt. Fields may be incomplete while the operator is still typing;
// validation happens on submit. A draft is discarded on cancel or success.
type Draft struct {
	ID          string     `json:"id,omitempty"`
	Title       string     `json:"title" validate:"required"`
	Category    string     `json:"category" validate:"required"`
	Unit        string     `json:"unit" validate:"required"`
	OriginPrice float64    `json:"origin_price" validate:"gte=0"`
	Price       float64    `json:"price" validate:"gte=0"`
	Description string     `json:"description"`
	Content     string     `json:"content"`
	IsEnabled   int        `json:"is_enabled" validate:"oneof=0 1"`
	ImageURL    string     `json:"imageUrl"`
	ImagesURL   ImageSlots `json:"imagesUrl"`
}

// NewDraft returns the default draft skeleton for the create form:
// everything empty, product enabled.
func NewDraft() *Draft {
	return &Draft{IsEnabled: 1}
}

// DraftFrom builds an edit draft from an existing product.
func DraftFrom(p Product) *Draft {
	return &Draft{
		ID:          p.ID,
		Title:       p.Title,
		Category:    p.Category,
		Unit:        p.Unit,
		OriginPrice: p.OriginPrice,
		Price:       p.Price,
		Description: p.Description,
		Content:     p.Content,
		IsEnabled:   p.IsEnabled,
		ImageURL:    p.ImageURL,
		ImagesURL:   p.ImagesURL,
	}
}

// SetImage updates a single secondary image slot. Out-of-range indexes are
// ignored so callers can feed user input directly.
func (d *Draft) SetImage(index int, url string) {
	if index < 0 || index >= ImageSlotCount {
		return
	}
	d.ImagesURL[index] = url
}

// SetEnabled stores a checkbox-style boolean as the 0/1 the wire expects.
func (d *Draft) SetEnabled(enabled bool) {
	if enabled {
		d.IsEnabled = 1
	} else {
		d.IsEnabled = 0
	}
}
