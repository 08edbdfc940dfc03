package models

import "gorm.io/datatypes"

// Course is a catalog entry. Image stores the filename of the processed
// cover under the uploads directory; the public URL is derived per request.
type Course struct {
	BaseModel

	Title       string `gorm:"not null;index" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Price       int64  `gorm:"not null;default:0" json:"price"`
	Image       string `json:"image"`

	Tags datatypes.JSONSlice[string] `json:"tags,omitempty"`
}
