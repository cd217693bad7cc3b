package handler

import (
	"net/http"

	"credit-api/internal/middleware"
	"credit-api/internal/service"
	"credit-api/pkg/pagination"
	"credit-api/pkg/response"

	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	productService service.ProductService
	auth           *middleware.Authenticator
}

func NewProductHandler(productService service.ProductService, auth *middleware.Authenticator) *ProductHandler {
	return &ProductHandler{productService: productService, auth: auth}
}

func (h *ProductHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/api/products")
	{
		products.GET("", h.ListProducts)
		products.POST("", h.auth.RequireRole("admin", "manager"), h.SaveProduct)
		products.PUT("", h.auth.RequireRole("admin", "manager"), h.UpdateProduct)
		products.DELETE("/:code", h.auth.RequireRole("admin", "manager"), h.DeleteProduct)
	}
}

// SaveProduct creates a product or overwrites the one with the same code
// @Summary      Save product
// @Description  Creates the product when its code is new (201) and updates it otherwise (200)
// @Tags         products
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ProductRequest  true  "Product Payload"
// @Success      200      {object}  response.Response{data=service.ProductResponse}
// @Success      201      {object}  response.Response{data=service.ProductResponse}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/products [post]
func (h *ProductHandler) SaveProduct(c *gin.Context) {
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	product, err := h.productService.Save(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if product.Created {
		status = http.StatusCreated
	}
	c.JSON(status, response.Success(status, product))
}

// UpdateProduct changes an existing product identified by its code
// @Summary      Update product
// @Tags         products
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ProductRequest  true  "Product Payload"
// @Success      200      {object}  response.Response{data=service.ProductResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/products [put]
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	product, err := h.productService.Update(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// ListProducts returns the catalogue ordered by code
// @Summary      List products
// @Tags         products
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=[]service.ProductResponse}
// @Failure      500    {object}  response.Response
// @Router       /api/products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	p := pagination.Parse(c)

	products, total, err := h.productService.List(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, products, p.Page, p.Limit, total))
}

// DeleteProduct removes a product and returns the deleted row
// @Summary      Delete product
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Param        code  path      string  true  "Product code"
// @Success      200   {object}  response.Response{data=service.ProductResponse}
// @Failure      404   {object}  response.Response
// @Failure      500   {object}  response.Response
// @Router       /api/products/{code} [delete]
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	product, err := h.productService.Delete(c.Request.Context(), middleware.Actor(c), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}
