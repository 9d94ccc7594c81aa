package rest

import (
	"fmt"
	"net/http"
	"strconv"

	"marketplace-be/internal/product"
	"marketplace-be/internal/utils"

	"github.com/shopspring/decimal"
)

func parseProductFilter(r *http.Request) (product.ListFilter, error) {
	var f product.ListFilter
	q := r.URL.Query()

	if v := q.Get("in_stock"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("invalid in_stock: %q", v)
		}
		f.InStock = &b
	}
	bounds := []struct {
		key string
		dst **decimal.Decimal
	}{
		{"min_price", &f.MinPrice},
		{"max_price", &f.MaxPrice},
	}
	for _, b := range bounds {
		v := q.Get(b.key)
		if v == "" {
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return f, fmt.Errorf("invalid %s: %q", b.key, v)
		}
		*b.dst = &d
	}
	return f, nil
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	f, err := parseProductFilter(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	products, err := h.products.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toProductResponses(products))
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Price == nil {
		writeError(w, r, product.ErrPriceRequired)
		return
	}

	p, err := h.products.Create(r.Context(), product.CreateInput{
		Name:    req.Name,
		Price:   *req.Price,
		InStock: req.InStock,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, toProductResponse(p))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req updateProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.products.Update(r.Context(), id, product.UpdateInput{
		Name:    req.Name,
		Price:   req.Price,
		InStock: req.InStock,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	p, err := h.products.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("product '%s' deleted", p.Name),
	})
}
