package product

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"pos_system/custom/apperr"
	"pos_system/custom/auth"
	"pos_system/custom/util"
	"pos_system/model"
)

const (
	RouteListProducts   = "/pos/list_products"
	RouteCreateProducts = "/pos/create_products"
	RouteUpdateProduct  = "/pos/update_product"
)

type HandlerContext struct {
	db   *gorm.DB
	auth *auth.Evaluator
}

func (ctx *HandlerContext) InitialHandlerContext(db *gorm.DB, evaluator *auth.Evaluator) {
	ctx.db = db
	ctx.auth = evaluator
}

type CreateProductsRequest struct {
	Products *[]model.Product `json:"products"`
}

type UpdateProductRequest struct {
	ID          uint     `json:"id"`
	Price       *float64 `json:"price,omitempty"`
	IsAvailable *bool    `json:"is_available,omitempty"`
	Description *string  `json:"description,omitempty"`
}

func (ctx *HandlerContext) ListProducts(w http.ResponseWriter, r *http.Request) {
	if !util.IsAllowHttpMethod([]string{http.MethodGet}, w, r) {
		return
	}
	if _, err := ctx.auth.Authorize(r, RouteListProducts, "products:view"); err != nil {
		util.WriteError(w, err)
		return
	}
	products := make([]model.Product, 0)
	if err := ctx.db.Order("name").Find(&products).Error; err != nil {
		util.WriteError(w, err)
		return
	}
	util.WriteJSON(w, products)
}

// CreateProducts Create new Products
func (ctx *HandlerContext) CreateProducts(w http.ResponseWriter, r *http.Request) {
	if !util.IsAllowHttpMethod([]string{http.MethodPost}, w, r) {
		return
	}
	if _, err := ctx.auth.Authorize(r, RouteCreateProducts, "products:manage"); err != nil {
		util.WriteError(w, err)
		return
	}
	req := CreateProductsRequest{}
	if err := util.FetchReqObject(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Products == nil || len(*req.Products) == 0 {
		http.Error(w, "At least one product is required", http.StatusBadRequest)
		return
	}
	validationErr := ""
	for i := range *req.Products {
		if (*req.Products)[i].Name == "" {
			validationErr += fmt.Sprintf("The %d product name is required.", i+1)
		}
		if (*req.Products)[i].Price < 0 {
			validationErr += fmt.Sprintf("The %d product price is invalid.", i+1)
		}
	}
	if validationErr != "" {
		http.Error(w, validationErr, http.StatusBadRequest)
		return
	}

	createdProducts := make([]model.Product, 0)
	err := ctx.db.Transaction(func(tx *gorm.DB) error {
		for _, productInfo := range *req.Products {
			if errCreate := tx.Create(&productInfo).Error; errCreate != nil {
				return errors.New(productInfo.Name + ": " + errCreate.Error())
			}
			createdProducts = append(createdProducts, productInfo)
		}
		return nil
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	util.WriteJSON(w, createdProducts)
}

func (ctx *HandlerContext) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	if !util.IsAllowHttpMethod([]string{http.MethodPost}, w, r) {
		return
	}
	if _, err := ctx.auth.Authorize(r, RouteUpdateProduct, "products:manage"); err != nil {
		util.WriteError(w, err)
		return
	}
	req := UpdateProductRequest{}
	if err := util.FetchReqObject(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == 0 {
		http.Error(w, "Product id is required", http.StatusBadRequest)
		return
	}
	productInfo := model.Product{}
	if err := ctx.db.Where("id = ?", req.ID).First(&productInfo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.WriteError(w, apperr.NotFound("product not found"))
			return
		}
		util.WriteError(w, err)
		return
	}
	updates := map[string]interface{}{}
	if req.Price != nil {
		if *req.Price < 0 {
			util.WriteError(w, apperr.Validation("price cannot be negative"))
			return
		}
		updates["price"] = util.Round2(*req.Price)
	}
	if req.IsAvailable != nil {
		updates["is_available"] = *req.IsAvailable
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if len(updates) > 0 {
		if err := ctx.db.Model(&model.Product{}).Where("id = ?", req.ID).Updates(updates).Error; err != nil {
			util.WriteError(w, err)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Product updated."))
}
