// Package httpapi is the presentation seam: thin handlers that translate
// HTTP into cart store, checkout pipeline and catalog calls. No business
// rules live here.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/cart"
	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/catalog"
	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/cep"
	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/checkout"
	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/domain"
	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/storage"
)

// StoreFactory builds the two storage scopes for a session: durable
// (cart, customer, theme) and session-bound (phones, scheduling marker).
type StoreFactory func(sessionID string) (durable, session storage.Store)

type Handler struct {
	catalog  catalog.Repository
	pipeline *checkout.Pipeline
	cep      *cep.Client
	stores   StoreFactory
	log      *slog.Logger
}

func NewHandler(cat catalog.Repository, pl *checkout.Pipeline, cepClient *cep.Client, stores StoreFactory, log *slog.Logger) *Handler {
	return &Handler{catalog: cat, pipeline: pl, cep: cepClient, stores: stores, log: log}
}

// Routes mounts the API under /api/v1.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/menu", h.GetMenu)
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddItem)
		r.Patch("/items/{item_id}", h.UpdateItem)
		r.Put("/items/{item_id}/quantity", h.SetQuantity)
		r.Delete("/items/{item_id}", h.RemoveItem)
	})
	r.Put("/customer", h.SetCustomer)
	r.Get("/customer", h.GetCustomer)
	r.Put("/payment", h.SetPayment)
	r.Put("/theme", h.SetTheme)
	r.Get("/cep/{code}", h.LookupCEP)
	r.Route("/checkout", func(r chi.Router) {
		r.Post("/", h.BeginCheckout)
		r.Post("/schedule", h.AcknowledgeSchedule)
		r.Post("/confirm", h.ConfirmOrder)
	})
}

func (h *Handler) store(ctx context.Context) (*cart.Store, storage.Store) {
	durable, session := h.stores(sessionID(ctx))
	return cart.NewStore(ctx, h.catalog, durable, session, h.log), session
}

// ---- menu ----

func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.GetAllItems(r.Context())
	if err != nil {
		h.log.Error("menu fetch failed", "error", err)
		respondError(w, http.StatusServiceUnavailable, "menu_unavailable", "could not load the menu, try again")
		return
	}
	if cat := r.URL.Query().Get("category"); cat != "" {
		filtered := items[:0:0]
		for _, it := range items {
			if it.Category == cat {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}
	respondJSON(w, http.StatusOK, items)
}

// ---- cart ----

type cartResponse struct {
	Items       []domain.LineItem `json:"items"`
	Total       decimal.Decimal   `json:"total"`
	DeliveryFee decimal.Decimal   `json:"delivery_fee"`
	ItemCount   int               `json:"item_count"`
	Theme       string            `json:"theme,omitempty"`
}

func (h *Handler) cartView(st *cart.Store) cartResponse {
	state := st.State()
	items := state.Items
	if items == nil {
		items = []domain.LineItem{}
	}
	return cartResponse{
		Items:       items,
		Total:       state.Total(),
		DeliveryFee: domain.DeliveryFee,
		ItemCount:   state.ItemCount(),
		Theme:       state.Theme,
	}
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	st, _ := h.store(r.Context())
	respondJSON(w, http.StatusOK, h.cartView(st))
}

type addItemRequest struct {
	CatalogItemID  int64    `json:"catalog_item_id"`
	AddOnIDs       []string `json:"add_on_ids"`
	Note           string   `json:"note"`
	RecipientLabel string   `json:"recipient_label"`
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.CatalogItemID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "catalog_item_id must be positive")
		return
	}

	st, _ := h.store(r.Context())
	li, err := st.AddItem(r.Context(), req.CatalogItemID, req.AddOnIDs, req.Note, req.RecipientLabel)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, li)
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	st, _ := h.store(r.Context())
	if err := st.SetQuantity(r.Context(), chi.URLParam(r, "item_id"), req.Quantity); err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.cartView(st))
}

type updateItemRequest struct {
	AddOnIDs       *[]string `json:"add_on_ids"`
	Note           *string   `json:"note"`
	RecipientLabel *string   `json:"recipient_label"`
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	st, _ := h.store(r.Context())
	upd := cart.ItemUpdate{AddOnIDs: req.AddOnIDs, Note: req.Note, RecipientLabel: req.RecipientLabel}
	if err := st.UpdateItem(r.Context(), chi.URLParam(r, "item_id"), upd); err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.cartView(st))
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	st, _ := h.store(r.Context())
	st.RemoveItem(r.Context(), chi.URLParam(r, "item_id"))
	respondJSON(w, http.StatusOK, h.cartView(st))
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	st, _ := h.store(r.Context())
	st.ClearCart(r.Context())
	respondJSON(w, http.StatusOK, h.cartView(st))
}

// ---- customer / payment / theme ----

func (h *Handler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	var profile domain.CustomerProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	st, _ := h.store(r.Context())
	if err := st.SetCustomer(r.Context(), profile); err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, st.Customer())
}

func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	st, _ := h.store(r.Context())
	c := st.Customer()
	if c == nil {
		respondError(w, http.StatusNotFound, "no_customer", "delivery data not filled in yet")
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *Handler) SetPayment(w http.ResponseWriter, r *http.Request) {
	var sel domain.PaymentSelection
	if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	st, _ := h.store(r.Context())
	if err := st.SetPayment(r.Context(), sel); err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, st.Payment())
}

type themeRequest struct {
	Theme string `json:"theme"`
}

func (h *Handler) SetTheme(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Theme != "light" && req.Theme != "dark" {
		respondError(w, http.StatusBadRequest, "invalid_theme", "theme must be light or dark")
		return
	}

	st, _ := h.store(r.Context())
	st.SetTheme(r.Context(), req.Theme)
	respondJSON(w, http.StatusOK, map[string]string{"theme": req.Theme})
}

// ---- cep ----

func (h *Handler) LookupCEP(w http.ResponseWriter, r *http.Request) {
	addr, err := h.cep.Lookup(r.Context(), chi.URLParam(r, "code"))
	switch {
	case errors.Is(err, cep.ErrInvalidCEP):
		respondError(w, http.StatusBadRequest, "invalid_cep", "cep must have 8 digits")
	case errors.Is(err, cep.ErrNotFound):
		respondError(w, http.StatusNotFound, "cep_not_found", "cep not found, check the digits")
	case err != nil:
		h.log.Warn("cep lookup failed", "error", err)
		respondError(w, http.StatusServiceUnavailable, "cep_unavailable", "address lookup unavailable, fill the form manually")
	default:
		respondJSON(w, http.StatusOK, addr)
	}
}

// ---- checkout ----

type checkoutResponse struct {
	Open        bool   `json:"open"`
	NeedConsent bool   `json:"need_consent,omitempty"`
	NextWindow  string `json:"next_window,omitempty"`
}

func (h *Handler) BeginCheckout(w http.ResponseWriter, r *http.Request) {
	st, _ := h.store(r.Context())
	decision, err := h.pipeline.Begin(st)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	resp := checkoutResponse{Open: decision.Open}
	if !decision.Open {
		resp.NeedConsent = true
		resp.NextWindow = decision.Next.Label
	}
	respondJSON(w, http.StatusOK, resp)
}

type scheduleRequest struct {
	Accept bool `json:"accept"`
}

func (h *Handler) AcknowledgeSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	_, session := h.store(r.Context())
	if err := h.pipeline.Acknowledge(r.Context(), session, req.Accept); err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"scheduled": true})
}

type confirmResponse struct {
	Message    string `json:"message"`
	HandoffURL string `json:"handoff_url"`
}

func (h *Handler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	st, session := h.store(r.Context())
	composed, err := h.pipeline.Finalize(r.Context(), st, session, isMobile(r))
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, confirmResponse{
		Message:    composed.Text,
		HandoffURL: composed.HandoffURL,
	})
}

// ---- error mapping ----

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (h *Handler) respondDomainError(w http.ResponseWriter, err error) {
	var fe *domain.FieldError
	if errors.As(err, &fe) {
		respondError(w, http.StatusBadRequest, "validation_failed", fe.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrCapacityExceeded):
		respondError(w, http.StatusConflict, "cart_full", err.Error())
	case errors.Is(err, domain.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, domain.ErrItemUnavailable):
		respondError(w, http.StatusConflict, "item_unavailable", err.Error())
	case errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrBelowMinimum),
		errors.Is(err, domain.ErrOutsideHours),
		errors.Is(err, domain.ErrNoCustomer),
		errors.Is(err, domain.ErrNoPayment):
		respondError(w, http.StatusPreconditionFailed, "precondition_failed", err.Error())
	case errors.Is(err, domain.ErrCatalogItemNotFound),
		errors.Is(err, domain.ErrLineItemNotFound),
		errors.Is(err, domain.ErrAddOnNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		h.log.Error("internal error", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}
