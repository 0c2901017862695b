package handlers

import (
	"strconv"

	"secondhand-market-server/internal/middleware"
	"secondhand-market-server/internal/models"
	"secondhand-market-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ProductHandler handles listing management requests.
type ProductHandler struct {
	DB *gorm.DB
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{DB: db}
}

// CreateProductRequest represents the request body for creating a listing.
type CreateProductRequest struct {
	Title       string  `json:"title" binding:"required,max=255"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	MainImage   string  `json:"mainImage"`
}

// CreateProduct creates a listing owned by the caller.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req CreateProductRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	product := models.Product{
		SellerID:    userID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Status:      models.ProductStatusActive,
		MainImage:   req.MainImage,
	}
	if err := h.DB.Create(&product).Error; err != nil {
		utils.InternalServerError(c, "Failed to create product: "+err.Error())
		return
	}

	utils.Created(c, "Product created successfully", product)
}

// GetProductByID returns a single listing.
func (h *ProductHandler) GetProductByID(c *gin.Context) {
	productID := c.Param("productId")

	var product models.Product
	if err := h.DB.Preload("Seller").First(&product, "id = ?", productID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Product not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "Product fetched successfully", gin.H{
		"product": product,
		"seller":  product.Seller.Sanitize(),
	})
}

// ListProducts returns a page of active listings, optionally filtered by
// keyword.
func (h *ProductHandler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	query := h.DB.Model(&models.Product{}).Where("status = ?", models.ProductStatusActive)
	if keyword := c.Query("keyword"); keyword != "" {
		query = query.Where("title LIKE ?", "%"+keyword+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	var products []models.Product
	if err := query.Order("created_at DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&products).Error; err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	utils.Success(c, "Products fetched successfully", gin.H{
		"products": products,
		"total":    total,
		"page":     page,
		"size":     size,
	})
}

// ListMyProducts returns every listing owned by the caller, any status.
func (h *ProductHandler) ListMyProducts(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var products []models.Product
	if err := h.DB.Where("seller_id = ?", userID).
		Order("created_at DESC").Find(&products).Error; err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	utils.Success(c, "Products fetched successfully", products)
}
