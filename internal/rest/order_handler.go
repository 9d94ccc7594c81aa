package rest

import (
	"fmt"
	"net/http"
	"strings"

	"marketplace-be/internal/order"
	"marketplace-be/internal/utils"
)

// orderPath resolves the caller and the {id} path parameter.
func orderPath(w http.ResponseWriter, r *http.Request) (userID, orderID int64, ok bool) {
	userID, ok = utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteJSONError(w, "could not validate credentials", http.StatusUnauthorized)
		return 0, 0, false
	}
	orderID, ok = pathID(w, r, "id")
	return userID, orderID, ok
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	var req createOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	o, err := h.orders.CreateOrder(r.Context(), userID, order.CreateInput{
		DeliveryAddress: req.DeliveryAddress,
		Items:           toItemInputs(req.Items),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, toOrderResponse(o))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	orders, err := h.orders.ListOrders(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	userID, orderID, ok := orderPath(w, r)
	if !ok {
		return
	}

	o, err := h.orders.GetOrder(r.Context(), userID, orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	userID, orderID, ok := orderPath(w, r)
	if !ok {
		return
	}
	var req updateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	status := order.OrderStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	o, err := h.orders.UpdateStatus(r.Context(), userID, orderID, status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	userID, orderID, ok := orderPath(w, r)
	if !ok {
		return
	}

	if err := h.orders.DeleteOrder(r.Context(), userID, orderID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addOrderItem(w http.ResponseWriter, r *http.Request) {
	userID, orderID, ok := orderPath(w, r)
	if !ok {
		return
	}
	var req orderItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.orders.AddItem(r.Context(), userID, orderID, req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toItemResponse(item))
}

func (h *Handler) updateOrderItem(w http.ResponseWriter, r *http.Request) {
	userID, orderID, ok := orderPath(w, r)
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "pid")
	if !ok {
		return
	}
	var req updateQuantityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.orders.UpdateItemQuantity(r.Context(), userID, orderID, productID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toItemResponse(item))
}

func (h *Handler) removeOrderItem(w http.ResponseWriter, r *http.Request) {
	userID, orderID, ok := orderPath(w, r)
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "pid")
	if !ok {
		return
	}

	removed, err := h.orders.RemoveItem(r.Context(), userID, orderID, productID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("product '%s' removed from order %d", removed.Product.Name, orderID),
	})
}

func (h *Handler) clearOrderItems(w http.ResponseWriter, r *http.Request) {
	userID, orderID, ok := orderPath(w, r)
	if !ok {
		return
	}

	o, err := h.orders.ClearItems(r.Context(), userID, orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toOrderResponse(o))
}
