package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/ndiayelabs/boutique-api/internal/auth"
	idemmemory "github.com/ndiayelabs/boutique-api/internal/idempotency/memory"
	"github.com/ndiayelabs/boutique-api/internal/invoices"
	"github.com/ndiayelabs/boutique-api/internal/notify"
	httpadapter "github.com/ndiayelabs/boutique-api/internal/orders/adapters/http"
	"github.com/ndiayelabs/boutique-api/internal/orders/adapters/memory"
	"github.com/ndiayelabs/boutique-api/internal/orders/app"
	"github.com/ndiayelabs/boutique-api/internal/orders/domain"
	"github.com/ndiayelabs/boutique-api/internal/orders/metrics"
)

var jwtSecret = []byte("test-secret")

type testServer struct {
	router chi.Router
	repo   *memory.Repository
	store  *invoices.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	repo := memory.NewRepository()
	repo.SeedProduct(domain.Product{ID: "prod-1", Name: "Boubou", UnitPrice: 1500, Stock: 5})
	repo.SeedProduct(domain.Product{ID: "prod-2", Name: "Sandales", UnitPrice: 1000, Stock: 0})

	store := invoices.NewMemoryStore()

	m, err := metrics.NewMetrics(sdkmetric.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := app.NewService(repo, repo, store, notify.NewLogNotifier(), idemmemory.NewStore(), logger, m)

	router := chi.NewRouter()
	router.Use(auth.NewAuthenticator(jwtSecret).Middleware)
	httpadapter.NewHandler(service).Register(router)

	return &testServer{router: router, repo: repo, store: store}
}

func signToken(t *testing.T, subject, email, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString(jwtSecret)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

// orderForm builds the multipart order submission with the given field
// overrides. A nil value removes the field entirely.
func orderForm(t *testing.T, overrides map[string]*string) (*bytes.Buffer, string) {
	t.Helper()

	fields := map[string]string{
		"nom":               "Awa Ndiaye",
		"email":             "awa@example.com",
		"telephone":         "+221770000000",
		"adresse":           "12 rue des Manguiers",
		"ville":             "Dakar",
		"pays":              "SN",
		"methode_livraison": "standard",
		"frais_livraison":   "600",
		"prix_soumis":       "3000",
		"articles":          `[{"product_id":"prod-1","unit_price":1500,"quantity":2}]`,
	}
	withInvoice := true
	for name, value := range overrides {
		if name == "facture" && value == nil {
			withInvoice = false
			continue
		}
		if value == nil {
			delete(fields, name)
			continue
		}
		fields[name] = *value
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("failed to write field %s: %v", name, err)
		}
	}
	if withInvoice {
		part, err := writer.CreateFormFile("facture", "facture.pdf")
		if err != nil {
			t.Fatalf("failed to create file part: %v", err)
		}
		if _, err := part.Write([]byte("%PDF-1.4 fake invoice")); err != nil {
			t.Fatalf("failed to write invoice: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	return &buf, writer.FormDataContentType()
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func postOrder(t *testing.T, srv *testServer, overrides map[string]*string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := orderForm(t, overrides)
	req := httptest.NewRequest(http.MethodPost, "/api/commandes", body)
	req.Header.Set("Content-Type", contentType)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return srv.do(req)
}

func decodeOrder(t *testing.T, rec *httptest.ResponseRecorder) domain.Order {
	t.Helper()
	var payload struct {
		Commande domain.Order `json:"commande"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v\n%s", err, rec.Body.String())
	}
	return payload.Commande
}

func TestCreateOrderEndpoint(t *testing.T) {
	t.Run("guest checkout succeeds", func(t *testing.T) {
		srv := newTestServer(t)

		rec := postOrder(t, srv, nil, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		order := decodeOrder(t, rec)
		if order.Total != 3600 {
			t.Errorf("expected total 3600, got %d", order.Total)
		}
		if order.Status != domain.StatusPending {
			t.Errorf("expected pending, got %s", order.Status)
		}
		if order.UserID != nil {
			t.Error("guest order should have no owner")
		}
		if srv.store.Len() != 1 {
			t.Errorf("expected 1 stored invoice, got %d", srv.store.Len())
		}
	})

	t.Run("authenticated checkout attaches the user", func(t *testing.T) {
		srv := newTestServer(t)

		rec := postOrder(t, srv, nil, map[string]string{
			"Authorization": "Bearer " + signToken(t, "user-1", "awa@example.com", auth.RoleUser),
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		order := decodeOrder(t, rec)
		if order.UserID == nil || *order.UserID != "user-1" {
			t.Errorf("expected owner user-1, got %v", order.UserID)
		}
	})

	t.Run("missing invoice is a 400", func(t *testing.T) {
		srv := newTestServer(t)

		rec := postOrder(t, srv, map[string]*string{"facture": nil}, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("missing shipping fee is a 400", func(t *testing.T) {
		srv := newTestServer(t)

		rec := postOrder(t, srv, map[string]*string{"frais_livraison": nil}, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("insufficient stock reports the available quantity", func(t *testing.T) {
		srv := newTestServer(t)

		articles := `[{"product_id":"prod-1","unit_price":1500,"quantity":99}]`
		subtotal := "148500"
		rec := postOrder(t, srv, map[string]*string{"articles": &articles, "prix_soumis": &subtotal}, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "5 available") {
			t.Errorf("expected available stock in error, got %s", rec.Body.String())
		}
		if srv.store.Len() != 0 {
			t.Errorf("expected no invoice kept after rejection, got %d", srv.store.Len())
		}
	})

	t.Run("idempotency key replays the original response", func(t *testing.T) {
		srv := newTestServer(t)
		headers := map[string]string{"Idempotency-Key": "key-1"}

		first := postOrder(t, srv, nil, headers)
		if first.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", first.Code)
		}
		second := postOrder(t, srv, nil, headers)
		if second.Code != http.StatusCreated {
			t.Fatalf("expected replayed 201, got %d", second.Code)
		}

		if decodeOrder(t, first).ID != decodeOrder(t, second).ID {
			t.Error("expected the same order on replay")
		}
		if srv.store.Len() != 1 {
			t.Errorf("expected a single invoice upload, got %d", srv.store.Len())
		}
	})

	t.Run("invalid bearer token is a 401", func(t *testing.T) {
		srv := newTestServer(t)

		rec := postOrder(t, srv, nil, map[string]string{"Authorization": "Bearer not-a-token"})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})
}

func TestGetOrderEndpoint(t *testing.T) {
	srv := newTestServer(t)
	created := decodeOrder(t, postOrder(t, srv, nil, nil))

	t.Run("guest with matching email reads the order", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			fmt.Sprintf("/api/commandes/%s?email=awa@example.com", created.ID), nil)
		rec := srv.do(req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if decodeOrder(t, rec).ID != created.ID {
			t.Error("unexpected order in response")
		}
	})

	t.Run("wrong email is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			fmt.Sprintf("/api/commandes/%s?email=autre@example.com", created.ID), nil)
		if rec := srv.do(req); rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("admin reads any order", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/commandes/"+created.ID, nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "admin-1", "admin@example.com", auth.RoleAdmin))
		if rec := srv.do(req); rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("unknown order is a 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/commandes/missing", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "admin-1", "admin@example.com", auth.RoleAdmin))
		if rec := srv.do(req); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestListEndpoints(t *testing.T) {
	srv := newTestServer(t)
	userToken := signToken(t, "user-1", "awa@example.com", auth.RoleUser)
	adminToken := signToken(t, "admin-1", "admin@example.com", auth.RoleAdmin)

	postOrder(t, srv, nil, map[string]string{"Authorization": "Bearer " + userToken})
	postOrder(t, srv, nil, nil) // guest order

	t.Run("user sees only their own orders", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/commandes", nil)
		req.Header.Set("Authorization", "Bearer "+userToken)
		rec := srv.do(req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var payload struct {
			Commandes []domain.Order `json:"commandes"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if len(payload.Commandes) != 1 {
			t.Errorf("expected 1 order, got %d", len(payload.Commandes))
		}
	})

	t.Run("anonymous listing is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/commandes", nil)
		if rec := srv.do(req); rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("admin listing requires the admin role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/commandes", nil)
		req.Header.Set("Authorization", "Bearer "+userToken)
		if rec := srv.do(req); rec.Code != http.StatusForbidden {
			t.Errorf("expected 403 for non-admin, got %d", rec.Code)
		}
	})

	t.Run("admin listing returns every order", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/commandes", nil)
		req.Header.Set("Authorization", "Bearer "+adminToken)
		rec := srv.do(req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var payload struct {
			Commandes []domain.Order `json:"commandes"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if len(payload.Commandes) != 2 {
			t.Errorf("expected 2 orders, got %d", len(payload.Commandes))
		}
	})

	t.Run("admin listing rejects an unknown status filter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/commandes?statut=cancelled", nil)
		req.Header.Set("Authorization", "Bearer "+adminToken)
		if rec := srv.do(req); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("admin listing rejects a malformed date", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/commandes?depuis=hier", nil)
		req.Header.Set("Authorization", "Bearer "+adminToken)
		if rec := srv.do(req); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestStatusEndpoints(t *testing.T) {
	userToken := signToken(t, "user-1", "awa@example.com", auth.RoleUser)
	adminToken := signToken(t, "admin-1", "admin@example.com", auth.RoleAdmin)

	createOwned := func(t *testing.T, srv *testServer) domain.Order {
		rec := postOrder(t, srv, nil, map[string]string{"Authorization": "Bearer " + userToken})
		if rec.Code != http.StatusCreated {
			t.Fatalf("setup order failed: %d", rec.Code)
		}
		return decodeOrder(t, rec)
	}

	patchStatus := func(srv *testServer, path, token, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPatch, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return srv.do(req)
	}

	t.Run("user cancels their pending order and stock returns", func(t *testing.T) {
		srv := newTestServer(t)
		order := createOwned(t, srv)

		rec := patchStatus(srv, "/api/commandes/"+order.ID+"/statut", userToken, `{"statut":"annulee"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if decodeOrder(t, rec).Status != domain.StatusCancelled {
			t.Error("expected cancelled status")
		}

		product, err := srv.repo.GetProduct(context.Background(), "prod-1")
		if err != nil {
			t.Fatalf("GetProduct failed: %v", err)
		}
		if product.Stock != 5 {
			t.Errorf("expected stock restored to 5, got %d", product.Stock)
		}
	})

	t.Run("user cannot confirm their order", func(t *testing.T) {
		srv := newTestServer(t)
		order := createOwned(t, srv)

		rec := patchStatus(srv, "/api/commandes/"+order.ID+"/statut", userToken, `{"statut":"confirmed"}`)
		if rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("admin ships with a tracking number", func(t *testing.T) {
		srv := newTestServer(t)
		order := createOwned(t, srv)

		rec := patchStatus(srv, "/api/admin/commandes/"+order.ID+"/statut", adminToken,
			`{"statut":"shipped","numero_suivi":"SN123"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		updated := decodeOrder(t, rec)
		if updated.Status != domain.StatusShipped || updated.TrackingNumber != "SN123" {
			t.Errorf("unexpected order: %+v", updated)
		}
	})

	t.Run("invalid status literal is a 400", func(t *testing.T) {
		srv := newTestServer(t)
		order := createOwned(t, srv)

		rec := patchStatus(srv, "/api/admin/commandes/"+order.ID+"/statut", adminToken, `{"statut":"archived"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestDeleteEndpoint(t *testing.T) {
	userToken := signToken(t, "user-1", "awa@example.com", auth.RoleUser)
	adminToken := signToken(t, "admin-1", "admin@example.com", auth.RoleAdmin)

	t.Run("admin deletes a cancelled order", func(t *testing.T) {
		srv := newTestServer(t)
		order := decodeOrder(t, postOrder(t, srv, nil, map[string]string{"Authorization": "Bearer " + userToken}))

		cancel := httptest.NewRequest(http.MethodPatch, "/api/commandes/"+order.ID+"/statut",
			strings.NewReader(`{"statut":"annulee"}`))
		cancel.Header.Set("Authorization", "Bearer "+userToken)
		if rec := srv.do(cancel); rec.Code != http.StatusOK {
			t.Fatalf("cancel failed: %d", rec.Code)
		}

		del := httptest.NewRequest(http.MethodDelete, "/api/admin/commandes/"+order.ID, nil)
		del.Header.Set("Authorization", "Bearer "+adminToken)
		if rec := srv.do(del); rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		get := httptest.NewRequest(http.MethodGet, "/api/commandes/"+order.ID, nil)
		get.Header.Set("Authorization", "Bearer "+adminToken)
		if rec := srv.do(get); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404 after delete, got %d", rec.Code)
		}
	})

	t.Run("pending order cannot be deleted", func(t *testing.T) {
		srv := newTestServer(t)
		order := decodeOrder(t, postOrder(t, srv, nil, nil))

		del := httptest.NewRequest(http.MethodDelete, "/api/admin/commandes/"+order.ID, nil)
		del.Header.Set("Authorization", "Bearer "+adminToken)
		if rec := srv.do(del); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("delete requires the admin role", func(t *testing.T) {
		srv := newTestServer(t)
		order := decodeOrder(t, postOrder(t, srv, nil, nil))

		del := httptest.NewRequest(http.MethodDelete, "/api/admin/commandes/"+order.ID, nil)
		del.Header.Set("Authorization", "Bearer "+userToken)
		if rec := srv.do(del); rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
	})
}

func TestDownloadInvoiceEndpoint(t *testing.T) {
	srv := newTestServer(t)
	order := decodeOrder(t, postOrder(t, srv, nil, nil))

	req := httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/commandes/%s/facture/download?email=awa@example.com", order.ID), nil)
	rec := srv.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		URL      string `json:"url"`
		Filename string `json:"filename"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if payload.URL == "" {
		t.Error("expected an invoice URL")
	}
	if payload.Filename != "facture-"+order.ID+".pdf" {
		t.Errorf("unexpected filename %q", payload.Filename)
	}
}
