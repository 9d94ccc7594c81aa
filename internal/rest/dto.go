package rest

import (
	"time"

	"marketplace-be/internal/order"
	"marketplace-be/internal/product"
	"marketplace-be/internal/user"

	"github.com/shopspring/decimal"
)

/* ---------- requests ---------- */

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type assignRoleRequest struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

type createProductRequest struct {
	Name    string           `json:"name"`
	Price   *decimal.Decimal `json:"price"`
	InStock *bool            `json:"in_stock"`
}

type updateProductRequest struct {
	Name    *string          `json:"name"`
	Price   *decimal.Decimal `json:"price"`
	InStock *bool            `json:"in_stock"`
}

type orderItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type createOrderRequest struct {
	DeliveryAddress string             `json:"delivery_address"`
	Items           []orderItemRequest `json:"items"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

/* ---------- responses ---------- */

type userResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type productResponse struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	InStock   bool            `json:"in_stock"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type productSnapshotResponse struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	InStock bool            `json:"in_stock"`
}

type orderItemResponse struct {
	ID        int64                   `json:"id"`
	ProductID int64                   `json:"product_id"`
	Quantity  int                     `json:"quantity"`
	Price     decimal.Decimal         `json:"price"`
	Product   productSnapshotResponse `json:"product"`
}

type orderResponse struct {
	ID              int64               `json:"id"`
	UserID          int64               `json:"user_id"`
	DeliveryAddress string              `json:"delivery_address"`
	TotalPrice      decimal.Decimal     `json:"total_price"`
	Status          string              `json:"status"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	Items           []orderItemResponse `json:"items"`
}

type messageResponse struct {
	Message string `json:"message"`
}

/* ---------- mappers ---------- */

func toUserResponse(u *user.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

func toUserResponses(users []*user.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

func toProductResponse(p *product.Product) productResponse {
	return productResponse{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		InStock:   p.InStock,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toProductResponses(products []*product.Product) []productResponse {
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return out
}

func toItemResponse(it *order.OrderItem) orderItemResponse {
	return orderItemResponse{
		ID:        it.ID,
		ProductID: it.ProductID,
		Quantity:  it.Quantity,
		Price:     it.Price,
		Product: productSnapshotResponse{
			ID:      it.Product.ID,
			Name:    it.Product.Name,
			Price:   it.Product.Price,
			InStock: it.Product.InStock,
		},
	}
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, toItemResponse(it))
	}
	return orderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		DeliveryAddress: o.DeliveryAddress,
		TotalPrice:      o.TotalPrice,
		Status:          string(o.Status),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Items:           items,
	}
}

func toOrderResponses(orders []*order.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	return out
}

func toItemInputs(items []orderItemRequest) []order.ItemInput {
	out := make([]order.ItemInput, len(items))
	for i, it := range items {
		out[i] = order.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return out
}
