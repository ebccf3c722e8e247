package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Collection string

const (
	CollectionWomen  Collection = "Women"
	CollectionMen    Collection = "Men"
	CollectionUnisex Collection = "Unisex"
)

func (c Collection) Valid() bool {
	switch c {
	case CollectionWomen, CollectionMen, CollectionUnisex:
		return true
	}
	return false
}

type Product struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Description    string             `bson:"description,omitempty" json:"description"`
	Price          int64              `bson:"price" json:"price"`
	Images         []string           `bson:"images,omitempty" json:"images"`
	Category       string             `bson:"category,omitempty" json:"category"`
	Collection     Collection         `bson:"collection,omitempty" json:"collection"`
	Colors         []string           `bson:"colors,omitempty" json:"colors"`
	Sizes          []string           `bson:"sizes,omitempty" json:"sizes"`
	InStock        bool               `bson:"inStock" json:"inStock"`
	TrackInventory bool               `bson:"trackInventory,omitempty" json:"trackInventory"`
	Stock          int                `bson:"stock,omitempty" json:"stock"`
	SKU            string             `bson:"sku,omitempty" json:"sku"`
	Rating         float64            `bson:"rating,omitempty" json:"rating"`
	ReviewCount    int                `bson:"reviewCount,omitempty" json:"reviewCount"`
	Features       []string           `bson:"features,omitempty" json:"features"`
	Care           []string           `bson:"care,omitempty" json:"care"`
	Archived       bool               `bson:"archived,omitempty" json:"archived,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Validate checks the fields an admin must get right before a product is
// stored.
func (p *Product) Validate() error {
	switch {
	case p.Name == "":
		return wrap(ErrValidation, "product name is required")
	case p.Price < 0:
		return wrap(ErrValidation, "price must not be negative")
	case p.Rating < 0 || p.Rating > 5:
		return wrap(ErrValidation, "rating must be between 0 and 5")
	case p.Collection != "" && !p.Collection.Valid():
		return wrap(ErrValidation, "unknown collection "+string(p.Collection))
	case p.Stock < 0:
		return wrap(ErrValidation, "stock must not be negative")
	}
	return nil
}

// PrimaryImage is the image snapshotted into order lines.
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Offers reports whether value is one of options. Products that list no
// options accept anything, including the empty string.
func Offers(options []string, value string) bool {
	if len(options) == 0 {
		return true
	}
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}

type Category struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
}

type SortOrder string

const (
	SortFeatured  SortOrder = "featured"
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
	SortNewest    SortOrder = "newest"
)

// ParseSortOrder accepts both the API values and the storefront's labels.
// Anything unrecognised falls back to featured.
func ParseSortOrder(s string) SortOrder {
	switch s {
	case "price_asc", "Price: Low to High":
		return SortPriceAsc
	case "price_desc", "Price: High to Low":
		return SortPriceDesc
	case "newest", "Newest":
		return SortNewest
	}
	return SortFeatured
}

type ProductFilter struct {
	Category   string
	Collection string
	Search     string
	Sort       SortOrder
	Page       int
	Limit      int
}

// Skip returns the number of records to skip for the requested page. Pages
// are 1-based; without a limit nothing is skipped.
func (f ProductFilter) Skip() int {
	if f.Limit <= 0 || f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}
