package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ndiayelabs/boutique-api/internal/auth"
	"github.com/ndiayelabs/boutique-api/internal/orders/app"
	"github.com/ndiayelabs/boutique-api/internal/orders/app/commands"
	"github.com/ndiayelabs/boutique-api/internal/orders/app/queries"
	"github.com/ndiayelabs/boutique-api/internal/orders/domain"
	"github.com/ndiayelabs/boutique-api/internal/orders/ports"
)

// maxUploadSize bounds the multipart order submission, invoice included.
const maxUploadSize = 10 << 20

// Handler exposes the order endpoints.
type Handler struct {
	service *app.Service
}

// NewHandler constructs a Handler.
func NewHandler(service *app.Service) *Handler {
	return &Handler{service: service}
}

// Register binds the order routes onto the router. The admin subtree is
// additionally guarded by the admin middleware.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/commandes", func(r chi.Router) {
		r.Post("/", h.createOrder)
		r.Get("/", h.listMyOrders)
		r.Get("/{id}", h.getOrder)
		r.Patch("/{id}/statut", h.setStatusUser)
		r.Get("/{id}/facture/download", h.downloadInvoice)
	})

	r.Route("/api/admin/commandes", func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Get("/", h.listAllOrders)
		r.Patch("/{id}/statut", h.setStatusAdmin)
		r.Delete("/{id}", h.deleteOrder)
	})
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idemKey != "" {
		stored, err := h.service.GetIdempotentResponse(ctx, idemKey)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if stored != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(stored.StatusCode)
			_, _ = w.Write(stored.Body)
			return
		}
	}

	cmd, err := parseCreateOrderForm(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if identity, ok := auth.IdentityFromContext(ctx); ok && identity.UserID != "" {
		userID := identity.UserID
		cmd.UserID = &userID
	}

	order, err := h.service.CreateOrder(ctx, *cmd)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	body, err := json.Marshal(map[string]any{"commande": order})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if idemKey != "" {
		stored := ports.StoredResponse{
			StatusCode: http.StatusCreated,
			Body:       body,
			OrderID:    order.ID,
		}
		if err := h.service.SaveIdempotentResponse(ctx, idemKey, stored); err != nil {
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(body)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), queries.GetOrderQuery{
		OrderID: chi.URLParam(r, "id"),
		Caller:  callerFrom(r),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"commande": order})
}

func (h *Handler) listMyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListUserOrders(r.Context(), queries.ListUserOrdersQuery{
		Caller: callerFrom(r),
		Page:   pageFrom(r),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"commandes": orders})
}

func (h *Handler) listAllOrders(w http.ResponseWriter, r *http.Request) {
	filter := ports.ListFilter{
		Search: strings.TrimSpace(r.URL.Query().Get("recherche")),
		Page:   pageFrom(r),
	}

	if raw := r.URL.Query().Get("statut"); raw != "" {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		filter.Status = &status
	}

	var err error
	if filter.From, err = parseDateParam(r, "depuis"); err != nil {
		writeDomainError(w, err)
		return
	}
	if filter.To, err = parseDateParam(r, "jusqua"); err != nil {
		writeDomainError(w, err)
		return
	}

	orders, err := h.service.ListAllOrders(r.Context(), queries.ListAllOrdersQuery{
		Caller: callerFrom(r),
		Filter: filter,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"commandes": orders})
}

// setStatusUser is the customer-facing transition endpoint. The state
// machine itself rejects anything but a pre-shipment cancellation.
func (h *Handler) setStatusUser(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Statut string `json:"statut"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	order, err := h.service.SetStatus(r.Context(), commands.SetStatusCommand{
		OrderID: chi.URLParam(r, "id"),
		Status:  payload.Statut,
		Caller:  callerFrom(r),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"commande": order})
}

func (h *Handler) setStatusAdmin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Statut      string  `json:"statut"`
		NumeroSuivi *string `json:"numero_suivi"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	order, err := h.service.SetStatus(r.Context(), commands.SetStatusCommand{
		OrderID:        chi.URLParam(r, "id"),
		Status:         payload.Statut,
		TrackingNumber: payload.NumeroSuivi,
		Caller:         callerFrom(r),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"commande": order})
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteOrder(r.Context(), commands.DeleteOrderCommand{
		OrderID: chi.URLParam(r, "id"),
		Caller:  callerFrom(r),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"supprimee": true})
}

func (h *Handler) downloadInvoice(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), queries.GetOrderQuery{
		OrderID: chi.URLParam(r, "id"),
		Caller:  callerFrom(r),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if order.InvoiceURL == "" {
		writeError(w, http.StatusNotFound, "invoice not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"url":      order.InvoiceURL,
		"filename": fmt.Sprintf("facture-%s.pdf", order.ID),
	})
}

func parseCreateOrderForm(r *http.Request) (*commands.CreateOrderCommand, error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, domain.NewValidationError("formulaire", "multipart form expected")
	}

	cmd := &commands.CreateOrderCommand{
		Customer: domain.Customer{
			Name:  strings.TrimSpace(r.FormValue("nom")),
			Email: strings.TrimSpace(r.FormValue("email")),
			Phone: strings.TrimSpace(r.FormValue("telephone")),
		},
		Delivery: domain.Delivery{
			Address: strings.TrimSpace(r.FormValue("adresse")),
			City:    strings.TrimSpace(r.FormValue("ville")),
			Country: strings.TrimSpace(r.FormValue("pays")),
			Method:  strings.TrimSpace(r.FormValue("methode_livraison")),
		},
	}

	var err error
	if cmd.ShippingFee, err = parseAmountField(r, "frais_livraison"); err != nil {
		return nil, err
	}
	if cmd.SubmittedSubtotal, err = parseAmountField(r, "prix_soumis"); err != nil {
		return nil, err
	}

	if raw := r.FormValue("articles"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &cmd.Items); err != nil {
			return nil, domain.NewValidationError("articles", "must be a valid JSON array")
		}
	}

	file, _, err := r.FormFile("facture")
	if err == nil {
		defer file.Close()
		pdf, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
		if err != nil {
			return nil, domain.NewValidationError("facture", "could not read uploaded file")
		}
		cmd.InvoicePDF = pdf
	}

	return cmd, nil
}

// parseAmountField reads a monetary form value into minor currency units.
// An absent field stays nil so the command can report it as missing.
func parseAmountField(r *http.Request, field string) (*int64, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, domain.NewValidationError(field, "must be a number")
	}
	amount := int64(math.Round(value))
	return &amount, nil
}

func parseDateParam(r *http.Request, name string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, domain.NewValidationError(name, "must be an RFC 3339 timestamp or YYYY-MM-DD date")
}

// callerFrom builds the domain caller from the authenticated identity,
// falling back to the email query parameter for guest access.
func callerFrom(r *http.Request) domain.Caller {
	identity, _ := auth.IdentityFromContext(r.Context())
	caller := identity.Caller()
	if caller.Email == "" {
		caller.Email = strings.TrimSpace(r.URL.Query().Get("email"))
	}
	return caller
}

func pageFrom(r *http.Request) ports.Page {
	page := ports.Page{}
	if raw := r.URL.Query().Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			page.Number = n
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			page.Size = n
		}
	}
	return page.Normalize()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

// writeDomainError maps the core error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		insufficient *domain.InsufficientStockError
		outOfStock   *domain.OutOfStockError
	)
	switch {
	case domain.IsValidation(err),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.As(err, &insufficient),
		errors.As(err, &outOfStock):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
