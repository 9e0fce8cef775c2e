package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductImage is one catalog image.
type ProductImage struct {
	PublicID string `bson:"public_id,omitempty" json:"publicId,omitempty"`
	URL      string `bson:"url" json:"url"`
}

// Product is a catalog entry. The cart copies name, price and image at the
// moment a line is added; later catalog edits do not touch existing carts.
type Product struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name         string             `bson:"name" json:"name"`
	Description  string             `bson:"description" json:"description"`
	Price        float64            `bson:"price" json:"price"`
	Images       []ProductImage     `bson:"images" json:"images"`
	Sizes        []string           `bson:"sizes,omitempty" json:"sizes,omitempty"`
	Colors       []string           `bson:"colors,omitempty" json:"colors,omitempty"`
	CountInStock int                `bson:"count_in_stock" json:"countInStock"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
}

// PrimaryImage returns the first image URL, or "" for an imageless product.
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}
