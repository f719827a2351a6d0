package http

import (
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int32 `json:"quantity"`
}

type cartItemResponse struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int32  `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Subtotal    string `json:"subtotal"`
}

type cartResponse struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	Total     string             `json:"total"`
	Items     []cartItemResponse `json:"items"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type totalResponse struct {
	CartID string `json:"cart_id"`
	Total  string `json:"total"`
}

type orderItemResponse struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Price       string `json:"price"`
	Quantity    int32  `json:"quantity"`
}

type orderResponse struct {
	ID          string              `json:"id"`
	UserID      string              `json:"user_id"`
	Status      string              `json:"status"`
	TotalAmount string              `json:"total_amount"`
	Items       []orderItemResponse `json:"items"`
	CreatedAt   time.Time           `json:"created_at"`
}

func toCartResponse(cart domain.Cart) cartResponse {
	items := make([]cartItemResponse, 0, len(cart.Items))
	for idx := range cart.Items {
		item := &cart.Items[idx]
		items = append(items, cartItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.String(),
			Subtotal:    item.Subtotal.String(),
		})
	}
	return cartResponse{
		ID:        cart.ID,
		UserID:    cart.UserID,
		Total:     cart.Total.String(),
		Items:     items,
		UpdatedAt: cart.UpdatedAt,
	}
}

func toOrderResponse(order domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for idx := range order.Items {
		item := &order.Items[idx]
		items = append(items, orderItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Price:       item.Price.String(),
			Quantity:    item.Quantity,
		})
	}
	return orderResponse{
		ID:          order.ID,
		UserID:      order.UserID,
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount.String(),
		Items:       items,
		CreatedAt:   order.CreatedAt,
	}
}
