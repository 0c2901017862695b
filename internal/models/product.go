package models

// ProductStatus represents the listing status of a product
type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "DRAFT"
	ProductStatusActive   ProductStatus = "ACTIVE"
	ProductStatusSold     ProductStatus = "SOLD"
	ProductStatusInactive ProductStatus = "INACTIVE"
)

// Product represents a secondhand listing offered by a seller
type Product struct {
	BaseModel
	SellerID    string        `gorm:"size:36;index" json:"sellerId"`
	Title       string        `gorm:"size:255;not null" json:"title"`
	Description string        `gorm:"type:text" json:"description"`
	Price       float64       `gorm:"type:decimal(10,2)" json:"price"`
	Status      ProductStatus `gorm:"size:20;default:'ACTIVE'" json:"status"`
	MainImage   string        `gorm:"size:255" json:"mainImage,omitempty"`

	// Relations
	Seller User `gorm:"foreignKey:SellerID" json:"-"`
}

// Purchasable reports whether a buyer may open an inquiry on this product.
func (p *Product) Purchasable() bool {
	return p.Status == ProductStatusActive
}
