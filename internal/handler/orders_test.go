package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/geo"
	"github.com/tableside-pos/api/internal/handler"
	"github.com/tableside-pos/api/internal/model"
	"github.com/tableside-pos/api/internal/service"
)

// --- Mock OrderServicer ---

type mockOrderService struct {
	orderFn         func(id string) (model.Order, error)
	ordersFn        func(status string) []model.Order
	joinFn          func(code string) (model.Order, error)
	applyFn         func(ctx context.Context, req service.SelectionRequest) (model.Order, error)
	submitFn        func(ctx context.Context, orderID string, loc geo.Locator, expectedVersion int64) (model.Order, error)
	transitionFn    func(ctx context.Context, name, orderID string) (model.Order, error)
	toggleServedFn  func(ctx context.Context, orderID string, key model.LineKey) (model.Order, error)
	checkGeofenceFn func(ctx context.Context, loc geo.Locator) (float64, error)
}

func (m *mockOrderService) Order(id string) (model.Order, error) {
	if m.orderFn != nil {
		return m.orderFn(id)
	}
	return model.Order{}, service.ErrOrderNotFound
}

func (m *mockOrderService) Orders(status string) []model.Order {
	if m.ordersFn != nil {
		return m.ordersFn(status)
	}
	return nil
}

func (m *mockOrderService) JoinByCode(code string) (model.Order, error) {
	if m.joinFn != nil {
		return m.joinFn(code)
	}
	return model.Order{}, service.ErrCodeNotFound
}

func (m *mockOrderService) ApplySelection(ctx context.Context, req service.SelectionRequest) (model.Order, error) {
	if m.applyFn != nil {
		return m.applyFn(ctx, req)
	}
	return model.Order{}, service.ErrOrderNotFound
}

func (m *mockOrderService) Submit(ctx context.Context, orderID string, loc geo.Locator, expectedVersion int64) (model.Order, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, orderID, loc, expectedVersion)
	}
	return model.Order{}, service.ErrOrderNotFound
}

func (m *mockOrderService) transition(ctx context.Context, name, orderID string) (model.Order, error) {
	if m.transitionFn != nil {
		return m.transitionFn(ctx, name, orderID)
	}
	return model.Order{}, service.ErrOrderNotFound
}

func (m *mockOrderService) AcceptForPreparation(ctx context.Context, orderID string) (model.Order, error) {
	return m.transition(ctx, "accept", orderID)
}

func (m *mockOrderService) CheckIn(ctx context.Context, orderID string) (model.Order, error) {
	return m.transition(ctx, "check_in", orderID)
}

func (m *mockOrderService) Settle(ctx context.Context, orderID string) (model.Order, error) {
	return m.transition(ctx, "settle", orderID)
}

func (m *mockOrderService) Cancel(ctx context.Context, orderID string) (model.Order, error) {
	return m.transition(ctx, "cancel", orderID)
}

func (m *mockOrderService) ToggleServed(ctx context.Context, orderID string, key model.LineKey) (model.Order, error) {
	if m.toggleServedFn != nil {
		return m.toggleServedFn(ctx, orderID, key)
	}
	return model.Order{}, service.ErrOrderNotFound
}

func (m *mockOrderService) CheckGeofence(ctx context.Context, loc geo.Locator) (float64, error) {
	if m.checkGeofenceFn != nil {
		return m.checkGeofenceFn(ctx, loc)
	}
	return 0, nil
}

// --- Helpers ---

func setupOrderRouter(svc handler.OrderServicer) *chi.Mux {
	h := handler.NewOrderHandler(svc)
	r := chi.NewRouter()
	r.Route("/orders", h.RegisterRoutes)
	r.Route("/geofence", h.RegisterGeofenceRoutes)
	return r
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewBuffer(b)
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, rr.Body.String())
	}
	return resp
}

func testOrder() model.Order {
	return model.Order{
		ID:          "ord-1",
		TableID:     "tab1",
		TableName:   "Table 1",
		RandomCode:  "4821",
		Status:      enum.OrderStatusOrdering,
		CreatedAt:   time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
		Items:       []model.OrderItem{{DishID: "t1", Name: "Toast", Price: 90, Quantity: 2}},
		ServiceFee:  18,
		TotalAmount: 198,
		Version:     3,
	}
}

// --- Tests ---

func TestOrderGet_Success(t *testing.T) {
	svc := &mockOrderService{
		orderFn: func(id string) (model.Order, error) {
			if id != "ord-1" {
				t.Errorf("id: got %s", id)
			}
			return testOrder(), nil
		},
	}
	router := setupOrderRouter(svc)

	req := httptest.NewRequest("GET", "/orders/ord-1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["random_code"] != "4821" {
		t.Errorf("random_code: got %v", resp["random_code"])
	}
	if resp["subtotal"] != float64(180) {
		t.Errorf("subtotal: got %v, want 180", resp["subtotal"])
	}
	if resp["total_amount"] != float64(198) {
		t.Errorf("total_amount: got %v, want 198", resp["total_amount"])
	}
}

func TestOrderGet_SubtotalFromLines(t *testing.T) {
	stale := testOrder()
	stale.TotalAmount = 500
	svc := &mockOrderService{
		orderFn: func(id string) (model.Order, error) { return stale, nil },
	}
	router := setupOrderRouter(svc)

	req := httptest.NewRequest("GET", "/orders/ord-1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if resp := decodeBody(t, rr); resp["subtotal"] != float64(180) {
		t.Errorf("subtotal: got %v, want 180", resp["subtotal"])
	}
}

func TestOrderGet_NotFound(t *testing.T) {
	router := setupOrderRouter(&mockOrderService{})

	req := httptest.NewRequest("GET", "/orders/missing", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestOrderList_StatusFilter(t *testing.T) {
	var gotStatus string
	svc := &mockOrderService{
		ordersFn: func(status string) []model.Order {
			gotStatus = status
			return []model.Order{testOrder()}
		},
	}
	router := setupOrderRouter(svc)

	req := httptest.NewRequest("GET", "/orders?status=SUBMITTED", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	if gotStatus != enum.OrderStatusSubmitted {
		t.Errorf("status filter: got %q", gotStatus)
	}
	resp := decodeBody(t, rr)
	if orders, ok := resp["orders"].([]interface{}); !ok || len(orders) != 1 {
		t.Errorf("orders: got %v", resp["orders"])
	}
}

func TestOrderList_InvalidStatus(t *testing.T) {
	router := setupOrderRouter(&mockOrderService{})

	req := httptest.NewRequest("GET", "/orders?status=COOKING", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestOrderJoin(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"found", nil, http.StatusOK},
		{"unknown code", service.ErrCodeNotFound, http.StatusNotFound},
		{"malformed code", service.ErrInvalidCode, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockOrderService{
				joinFn: func(code string) (model.Order, error) {
					if code != "4821" {
						t.Errorf("code: got %s", code)
					}
					return testOrder(), tc.err
				},
			}
			router := setupOrderRouter(svc)

			req := httptest.NewRequest("POST", "/orders/join", jsonBody(t, map[string]string{"code": "4821"}))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tc.status {
				t.Fatalf("status: got %d, want %d; body: %s", rr.Code, tc.status, rr.Body.String())
			}
		})
	}
}

func TestOrderAddItem_PassesSelection(t *testing.T) {
	var got service.SelectionRequest
	svc := &mockOrderService{
		applyFn: func(ctx context.Context, req service.SelectionRequest) (model.Order, error) {
			got = req
			return testOrder(), nil
		},
	}
	router := setupOrderRouter(svc)

	body := jsonBody(t, map[string]interface{}{
		"dish_id":          "l1",
		"delta":            1,
		"option":           "Hot",
		"note":             "extra foam",
		"expected_version": 3,
	})
	req := httptest.NewRequest("POST", "/orders/ord-1/items", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	want := service.SelectionRequest{OrderID: "ord-1", DishID: "l1", Delta: 1, Option: "Hot", Note: "extra foam", ExpectedVersion: 3}
	if got != want {
		t.Errorf("selection: got %+v, want %+v", got, want)
	}
}

func TestOrderAddItem_Validation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"bad json", `{`},
		{"missing dish", `{"delta":1}`},
		{"zero delta", `{"dish_id":"l1","delta":0}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockOrderService{
				applyFn: func(ctx context.Context, req service.SelectionRequest) (model.Order, error) {
					t.Fatal("service should not be called")
					return model.Order{}, nil
				},
			}
			router := setupOrderRouter(svc)

			req := httptest.NewRequest("POST", "/orders/ord-1/items", bytes.NewBufferString(tc.body))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestOrderAddItem_ServiceErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{service.ErrOptionRequired, http.StatusBadRequest},
		{service.ErrDishUnavailable, http.StatusBadRequest},
		{service.ErrNotesNotAllowed, http.StatusBadRequest},
		{service.ErrDishNotFound, http.StatusNotFound},
		{service.ErrOrderClosed, http.StatusConflict},
		{service.ErrVersionConflict, http.StatusConflict},
		{fmt.Errorf("persist: %w", errors.New("disk full")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			svc := &mockOrderService{
				applyFn: func(ctx context.Context, req service.SelectionRequest) (model.Order, error) {
					return model.Order{}, tc.err
				},
			}
			router := setupOrderRouter(svc)

			req := httptest.NewRequest("POST", "/orders/ord-1/items", jsonBody(t, map[string]interface{}{"dish_id": "l1", "delta": 1}))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tc.status {
				t.Fatalf("status: got %d, want %d", rr.Code, tc.status)
			}
			if tc.status == http.StatusInternalServerError {
				if resp := decodeBody(t, rr); resp["error"] != "internal server error" {
					t.Errorf("error leaked: %v", resp["error"])
				}
			}
		})
	}
}

func TestOrderSubmit_Success(t *testing.T) {
	svc := &mockOrderService{
		submitFn: func(ctx context.Context, orderID string, loc geo.Locator, expectedVersion int64) (model.Order, error) {
			p, err := loc.Locate(ctx)
			if err != nil {
				t.Fatalf("locate: %v", err)
			}
			if p.Lat != 25.033 || p.Lng != 121.5654 {
				t.Errorf("position: got %+v", p)
			}
			if expectedVersion != 3 {
				t.Errorf("expected_version: got %d", expectedVersion)
			}
			o := testOrder()
			o.Status = enum.OrderStatusSubmitted
			return o, nil
		},
	}
	router := setupOrderRouter(svc)

	body := jsonBody(t, map[string]interface{}{
		"position":         map[string]float64{"lat": 25.033, "lng": 121.5654},
		"expected_version": 3,
	})
	req := httptest.NewRequest("POST", "/orders/ord-1/submit", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	if resp := decodeBody(t, rr); resp["status"] != enum.OrderStatusSubmitted {
		t.Errorf("status: got %v", resp["status"])
	}
}

func TestOrderSubmit_OutOfRange(t *testing.T) {
	svc := &mockOrderService{
		submitFn: func(ctx context.Context, orderID string, loc geo.Locator, expectedVersion int64) (model.Order, error) {
			return model.Order{}, &geo.OutOfRangeError{Distance: 250.5, Radius: 100}
		},
	}
	router := setupOrderRouter(svc)

	body := jsonBody(t, map[string]interface{}{"position": map[string]float64{"lat": 25.0, "lng": 121.0}})
	req := httptest.NewRequest("POST", "/orders/ord-1/submit", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
	resp := decodeBody(t, rr)
	if resp["distance_meters"] != 250.5 || resp["radius_meters"] != float64(100) {
		t.Errorf("range fields: got %v", resp)
	}
}

func TestOrderSubmit_LocationErrors(t *testing.T) {
	cases := []struct {
		locationError string
		wantErr       error
		wantReason    string
	}{
		{enum.LocationPermissionDenied, geo.ErrPermissionDenied, enum.LocationPermissionDenied},
		{enum.LocationTimeout, geo.ErrLocationTimeout, enum.LocationTimeout},
		{enum.LocationUnavailable, geo.ErrPositionUnavailable, enum.LocationUnavailable},
		{"", geo.ErrPositionUnavailable, enum.LocationUnavailable},
	}
	for _, tc := range cases {
		t.Run("reason "+tc.wantReason+"/"+tc.locationError, func(t *testing.T) {
			svc := &mockOrderService{
				submitFn: func(ctx context.Context, orderID string, loc geo.Locator, expectedVersion int64) (model.Order, error) {
					_, err := loc.Locate(ctx)
					if !errors.Is(err, tc.wantErr) {
						t.Errorf("locator error: got %v, want %v", err, tc.wantErr)
					}
					return model.Order{}, fmt.Errorf("%w: %w", geo.ErrCannotVerify, err)
				},
			}
			router := setupOrderRouter(svc)

			body := jsonBody(t, map[string]string{"location_error": tc.locationError})
			req := httptest.NewRequest("POST", "/orders/ord-1/submit", body)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != http.StatusForbidden {
				t.Fatalf("status: got %d, want %d", rr.Code, http.StatusForbidden)
			}
			resp := decodeBody(t, rr)
			if resp["error"] != "cannot verify location" {
				t.Errorf("error: got %v", resp["error"])
			}
			if resp["reason"] != tc.wantReason {
				t.Errorf("reason: got %v, want %s", resp["reason"], tc.wantReason)
			}
		})
	}
}

func TestOrderSubmit_EmptyOrder(t *testing.T) {
	svc := &mockOrderService{
		submitFn: func(ctx context.Context, orderID string, loc geo.Locator, expectedVersion int64) (model.Order, error) {
			return model.Order{}, service.ErrEmptyOrder
		},
	}
	router := setupOrderRouter(svc)

	req := httptest.NewRequest("POST", "/orders/ord-1/submit", bytes.NewBufferString(`{}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestOrderTransitions_Routes(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/orders/ord-1/accept", "accept"},
		{"/orders/ord-1/check-in", "check_in"},
		{"/orders/ord-1/settle", "settle"},
		{"/orders/ord-1/cancel", "cancel"},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			var called string
			svc := &mockOrderService{
				transitionFn: func(ctx context.Context, name, orderID string) (model.Order, error) {
					called = name
					if orderID != "ord-1" {
						t.Errorf("order id: got %s", orderID)
					}
					return testOrder(), nil
				},
			}
			router := setupOrderRouter(svc)

			req := httptest.NewRequest("POST", tc.path, nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
			}
			if called != tc.want {
				t.Errorf("called %q, want %q", called, tc.want)
			}
		})
	}
}

func TestOrderTransitions_Illegal(t *testing.T) {
	svc := &mockOrderService{
		transitionFn: func(ctx context.Context, name, orderID string) (model.Order, error) {
			return model.Order{}, &service.TransitionError{Transition: service.TransitionCancel, From: enum.OrderStatusPaid}
		},
	}
	router := setupOrderRouter(svc)

	req := httptest.NewRequest("POST", "/orders/ord-1/cancel", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestOrderToggleServed(t *testing.T) {
	var gotKey model.LineKey
	svc := &mockOrderService{
		toggleServedFn: func(ctx context.Context, orderID string, key model.LineKey) (model.Order, error) {
			gotKey = key
			return testOrder(), nil
		},
	}
	router := setupOrderRouter(svc)

	body := jsonBody(t, map[string]string{"dish_id": "l1", "option": "Iced"})
	req := httptest.NewRequest("PATCH", "/orders/ord-1/items/served", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	if gotKey != (model.LineKey{DishID: "l1", Option: "Iced"}) {
		t.Errorf("key: got %+v", gotKey)
	}
}

func TestCheckGeofence(t *testing.T) {
	svc := &mockOrderService{
		checkGeofenceFn: func(ctx context.Context, loc geo.Locator) (float64, error) {
			return 42.5, nil
		},
	}
	router := setupOrderRouter(svc)

	body := jsonBody(t, map[string]interface{}{"position": map[string]float64{"lat": 25.0, "lng": 121.0}})
	req := httptest.NewRequest("POST", "/geofence/check", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["within_range"] != true || resp["distance_meters"] != 42.5 {
		t.Errorf("got %v", resp)
	}
}
