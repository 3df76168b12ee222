package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"catalog-backend/apperrors"
	"catalog-backend/middleware"
	"catalog-backend/models"
	"catalog-backend/services"
)

// GetProducts handles GET /api/products?keyword=&pageNumber=.
func (ctrl *Controller) GetProducts(c *gin.Context) {
	ctx, cancel := ctrl.requestContext(c)
	defer cancel()

	page, err := strconv.Atoi(c.Query("pageNumber"))
	if err != nil || page < 1 {
		page = 1
	}

	result, err := ctrl.Catalog.List(ctx, strings.TrimSpace(c.Query("keyword")), page)
	if err != nil {
		middleware.WriteError(c, err, ctrl.Logger)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetTopProducts handles GET /api/products/top.
func (ctrl *Controller) GetTopProducts(c *gin.Context) {
	ctx, cancel := ctrl.requestContext(c)
	defer cancel()

	products, err := ctrl.Catalog.TopRated(ctx, 0)
	if err != nil {
		middleware.WriteError(c, err, ctrl.Logger)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetProductByID handles GET /api/products/:id.
func (ctrl *Controller) GetProductByID(c *gin.Context) {
	ctx, cancel := ctrl.requestContext(c)
	defer cancel()

	product, err := ctrl.Catalog.GetByID(ctx, c.Param("id"))
	if err != nil {
		middleware.WriteError(c, err, ctrl.Logger)
		return
	}
	c.JSON(http.StatusOK, product)
}

// CreateProduct handles POST /api/products with a JSON body or a multipart form
// carrying an optional "image" file.
func (ctrl *Controller) CreateProduct(c *gin.Context) {
	ctx, cancel := ctrl.requestContext(c)
	defer cancel()

	var input models.ProductInput
	if err := c.ShouldBind(&input); err != nil {
		middleware.WriteError(c, apperrors.Validation("Invalid product data", err), ctrl.Logger)
		return
	}

	upload, closeUpload, err := imageUpload(c)
	if err != nil {
		middleware.WriteError(c, err, ctrl.Logger)
		return
	}
	defer closeUpload()

	product, err := ctrl.Catalog.Create(ctx, middleware.PrincipalFrom(c), input, upload)
	if err != nil {
		middleware.WriteError(c, err, ctrl.Logger)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/products/:id. Only the supplied fields change.
func (ctrl *Controller) UpdateProduct(c *gin.Context) {
	ctx, cancel := ctrl.requestContext(c)
	defer cancel()

	var upd models.ProductUpdate
	if err := c.ShouldBind(&upd); err != nil {
		middleware.WriteError(c, apperrors.Validation("Invalid product data", err), ctrl.Logger)
		return
	}

	upload, closeUpload, err := imageUpload(c)
	if err != nil {
		middleware.WriteError(c, err, ctrl.Logger)
		return
	}
	defer closeUpload()

	product, err := ctrl.Catalog.Update(ctx, middleware.PrincipalFrom(c), c.Param("id"), upd, upload)
	if err != nil {
		middleware.WriteError(c, err, ctrl.Logger)
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/products/:id.
func (ctrl *Controller) DeleteProduct(c *gin.Context) {
	ctx, cancel := ctrl.requestContext(c)
	defer cancel()

	if _, err := ctrl.Catalog.Delete(ctx, middleware.PrincipalFrom(c), c.Param("id")); err != nil {
		middleware.WriteError(c, err, ctrl.Logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product removed"})
}

// CreateProductReview handles POST /api/products/:id/reviews.
func (ctrl *Controller) CreateProductReview(c *gin.Context) {
	ctx, cancel := ctrl.requestContext(c)
	defer cancel()

	var input models.ReviewInput
	if err := c.ShouldBind(&input); err != nil {
		middleware.WriteError(c, apperrors.Validation("Invalid review", err), ctrl.Logger)
		return
	}

	if err := ctrl.Reviews.AddReview(ctx, middleware.PrincipalFrom(c), c.Param("id"), input); err != nil {
		middleware.WriteError(c, err, ctrl.Logger)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Review added"})
}

// imageUpload returns the multipart "image" file, or nil when the request carries none.
func imageUpload(c *gin.Context) (*services.ImageUpload, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		return nil, noop, nil
	}

	fh, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, noop, nil
		}
		return nil, noop, apperrors.Validation("Invalid image upload", err)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, noop, apperrors.Internal(err)
	}
	upload := &services.ImageUpload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Data:        f,
	}
	return upload, func() { closeQuietly(f) }, nil
}

func closeQuietly(c io.Closer) {
	_ = c.Close()
}
