package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"ridepool/internal/http/handlers"
	httpmiddleware "ridepool/internal/http/middleware"
	"ridepool/internal/infra"
	"ridepool/internal/modules/payment"
	"ridepool/internal/modules/ride"
	"ridepool/internal/modules/search"
	"ridepool/internal/modules/vehicle"
)

// tokenVerifier treats the raw token as a key into a fixed set of identities.
type tokenVerifier map[string]*infra.FirebaseToken

func (v tokenVerifier) VerifyIDToken(_ context.Context, raw string) (*infra.FirebaseToken, error) {
	tok, ok := v[raw]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return tok, nil
}

var identities = tokenVerifier{
	"driver":     {UID: "driver-1", Claims: map[string]interface{}{"role": "driver", "verification": "Verified"}},
	"driver2":    {UID: "driver-2", Claims: map[string]interface{}{"role": "driver", "verification": "Verified"}},
	"passenger":  {UID: "passenger-1", Claims: map[string]interface{}{"role": "passenger", "verification": "Verified"}},
	"unverified": {UID: "passenger-2", Claims: map[string]interface{}{"role": "passenger", "verification": "Pending"}},
	"admin":      {UID: "admin-1", Claims: map[string]interface{}{"role": "admin"}},
}

type testEnv struct {
	router  *gin.Engine
	gateway *payment.HMAC
}

// buildTestRouter wires the handlers over in-memory stores.
func buildTestRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gateway := payment.NewHMAC("handler-test")
	vehicles := vehicle.NewService(vehicle.NewMemoryStore())
	index := search.NewMemoryIndex()
	rides := ride.NewService(ride.NewMemoryStore(), ride.Deps{
		Vehicles: vehicles,
		Payments: gateway,
		Index:    index,
	})
	searchSvc := search.NewService(index, rides, 5, nil)

	r := gin.New()
	api := r.Group("/api", httpmiddleware.Auth(identities))
	driverOnly := httpmiddleware.RequireRole(httpmiddleware.RoleDriver)

	vh := handlers.NewVehicleHandler(vehicles)
	api.POST("/vehicles", driverOnly, vh.Register)

	rh := handlers.NewRideHandler(rides, searchSvc)
	api.GET("/rides/nearby", rh.Nearby)
	api.GET("/rides/:id", rh.Get)

	dh := handlers.NewDriverHandler(rides)
	api.POST("/rides", driverOnly, dh.Create)
	api.PATCH("/rides/:id/schedule", driverOnly, dh.Reschedule)
	api.POST("/rides/:id/start", driverOnly, dh.Start)
	api.POST("/rides/:id/complete", driverOnly, dh.Complete)
	api.POST("/rides/:id/cancel", driverOnly, dh.Cancel)

	ah := handlers.NewAdminHandler(rides)
	api.POST("/rides/:id/block", httpmiddleware.RequireRole(httpmiddleware.RoleAdmin), ah.Block)

	ph := handlers.NewPassengerHandler(rides)
	api.POST("/rides/:id/eligibility", ph.Eligibility)
	api.POST("/rides/:id/checkout", ph.Checkout)
	api.POST("/rides/:id/join", ph.Join)
	api.POST("/rides/:id/leave", ph.Leave)

	return &testEnv{router: r, gateway: gateway}
}

func doRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

// offerRide registers a vehicle (20 km/unit) and offers a 100 km ride at 100
// per unit of fuel for totalPeople, returning the ride id.
func (e *testEnv) offerRide(t *testing.T, totalPeople int, fuelPrice float64) string {
	t.Helper()
	w := doRequest(e.router, http.MethodPost, "/api/vehicles", map[string]any{
		"model": "Swift", "plate": "KL07AB1234", "seats": 4, "mileage": 20,
	}, "driver")
	if w.Code != http.StatusCreated {
		t.Fatalf("register vehicle: %d %s", w.Code, w.Body.String())
	}
	vehicleID := decode(t, w)["id"].(string)

	w = doRequest(e.router, http.MethodPost, "/api/rides", map[string]any{
		"vehicle_id":   vehicleID,
		"origin":       "10.85,76.27",
		"destination":  "10.52,76.21",
		"depart_at":    time.Now().Add(2 * time.Hour).UTC().Format(time.RFC3339),
		"distance_km":  100,
		"fuel_price":   fuelPrice,
		"total_people": totalPeople,
	}, "driver")
	if w.Code != http.StatusCreated {
		t.Fatalf("create ride: %d %s", w.Code, w.Body.String())
	}
	return decode(t, w)["ride_id"].(string)
}

var route = map[string]any{"pickup": "10.85,76.27", "dropoff": "10.52,76.21"}

func TestCreate_Unauthenticated(t *testing.T) {
	e := buildTestRouter(t)
	w := doRequest(e.router, http.MethodPost, "/api/rides", map[string]any{}, "bogus")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestCreate_RequiresDriverRole(t *testing.T) {
	e := buildTestRouter(t)
	w := doRequest(e.router, http.MethodPost, "/api/rides", map[string]any{}, "passenger")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestCreate_ValidatesInput(t *testing.T) {
	e := buildTestRouter(t)
	cases := []map[string]any{
		{"vehicle_id": "not-a-uuid"},
		{"vehicle_id": "3f0c1d2e-4b5a-4c6d-8e7f-9a0b1c2d3e4f", "origin": "91,0", "destination": "10,76", "depart_at": "2030-01-01T10:00:00Z"},
		{"vehicle_id": "3f0c1d2e-4b5a-4c6d-8e7f-9a0b1c2d3e4f", "origin": "10,76", "destination": "10,76", "depart_at": "tomorrow"},
	}
	for i, body := range cases {
		if w := doRequest(e.router, http.MethodPost, "/api/rides", body, "driver"); w.Code != http.StatusBadRequest {
			t.Errorf("case %d: expected 400, got %d %s", i, w.Code, w.Body.String())
		}
	}
}

func TestCreate_FareSnapshot(t *testing.T) {
	e := buildTestRouter(t)
	id := e.offerRide(t, 4, 100)

	w := doRequest(e.router, http.MethodGet, "/api/rides/"+id, nil, "passenger")
	if w.Code != http.StatusOK {
		t.Fatalf("get: %d %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	fare := body["fare"].(map[string]any)
	if fare["cost_per_person"] != "125.00" || fare["total_fuel_cost"] != "500.00" {
		t.Errorf("unexpected fare: %v", fare)
	}
	if body["available_seats"].(float64) != 3 || body["status"] != "pending" {
		t.Errorf("unexpected ride: %v", body)
	}
}

func TestJoin_PaidFlow(t *testing.T) {
	e := buildTestRouter(t)
	id := e.offerRide(t, 4, 100)

	w := doRequest(e.router, http.MethodPost, "/api/rides/"+id+"/checkout", route, "passenger")
	if w.Code != http.StatusOK {
		t.Fatalf("checkout: %d %s", w.Code, w.Body.String())
	}
	co := decode(t, w)
	if co["allowed"] != true || co["amount"] != "125.00" || co["currency"] != "INR" {
		t.Fatalf("unexpected checkout: %v", co)
	}
	ref := co["order_ref"].(string)

	join := map[string]any{"pickup": "10.85,76.27", "dropoff": "10.52,76.21", "payment_ref": ref, "payment_signature": "forged"}
	if w := doRequest(e.router, http.MethodPost, "/api/rides/"+id+"/join", join, "passenger"); w.Code != http.StatusPaymentRequired {
		t.Fatalf("forged signature: expected 402, got %d %s", w.Code, w.Body.String())
	}

	join["payment_signature"] = e.gateway.Sign(ref)
	w = doRequest(e.router, http.MethodPost, "/api/rides/"+id+"/join", join, "passenger")
	if w.Code != http.StatusOK {
		t.Fatalf("join: %d %s", w.Code, w.Body.String())
	}

	w = doRequest(e.router, http.MethodPost, "/api/rides/"+id+"/join", join, "passenger")
	if w.Code != http.StatusConflict || decode(t, w)["reason_code"] != "ALREADY_JOINED" {
		t.Fatalf("second join: %d %s", w.Code, w.Body.String())
	}

	w = doRequest(e.router, http.MethodGet, "/api/rides/"+id, nil, "passenger")
	if seats := decode(t, w)["available_seats"].(float64); seats != 2 {
		t.Errorf("expected 2 seats left, got %v", seats)
	}
}

func TestEligibility_ReasonCodes(t *testing.T) {
	e := buildTestRouter(t)
	id := e.offerRide(t, 2, 0)

	w := doRequest(e.router, http.MethodPost, "/api/rides/"+id+"/eligibility", route, "unverified")
	if got := decode(t, w)["reason_code"]; w.Code != http.StatusOK || got != "USER_NOT_VERIFIED" {
		t.Fatalf("unverified: %d %v", w.Code, got)
	}

	bad := map[string]any{"pickup": "somewhere", "dropoff": "10.52,76.21"}
	w = doRequest(e.router, http.MethodPost, "/api/rides/"+id+"/eligibility", bad, "passenger")
	if got := decode(t, w)["reason_code"]; got != "INVALID_LOCATION" {
		t.Fatalf("bad pickup: %v", got)
	}

	// Free ride: join without payment fills the only seat.
	if w := doRequest(e.router, http.MethodPost, "/api/rides/"+id+"/join", route, "passenger"); w.Code != http.StatusOK {
		t.Fatalf("free join: %d %s", w.Code, w.Body.String())
	}
	w = doRequest(e.router, http.MethodPost, "/api/rides/"+id+"/eligibility", route, "driver2")
	if got := decode(t, w)["reason_code"]; got != "RIDE_FULL" {
		t.Fatalf("full ride: %v", got)
	}
	// Identity is checked before capacity.
	w = doRequest(e.router, http.MethodPost, "/api/rides/"+id+"/eligibility", route, "unverified")
	if got := decode(t, w)["reason_code"]; got != "USER_NOT_VERIFIED" {
		t.Fatalf("unverified on full ride: %v", got)
	}
}

func TestLifecycle_DriverAndAdmin(t *testing.T) {
	e := buildTestRouter(t)
	id := e.offerRide(t, 3, 0)

	if w := doRequest(e.router, http.MethodPost, "/api/rides/"+id+"/start", nil, "driver2"); w.Code != http.StatusForbidden {
		t.Errorf("other driver start: expected 403, got %d", w.Code)
	}
	if w := doRequest(e.router, http.MethodPost, "/api/rides/"+id+"/complete", nil, "driver"); w.Code != http.StatusConflict {
		t.Errorf("complete before start: expected 409, got %d", w.Code)
	}
	if w := doRequest(e.router, http.MethodPost, "/api/rides/"+id+"/start", nil, "driver"); w.Code != http.StatusOK {
		t.Fatalf("start: %d %s", w.Code, w.Body.String())
	}

	w := doRequest(e.router, http.MethodPost, "/api/rides/"+id+"/join", route, "passenger")
	if w.Code != http.StatusConflict || decode(t, w)["reason_code"] != "RIDE_NOT_PENDING" {
		t.Errorf("join started ride: %d %s", w.Code, w.Body.String())
	}
	resched := map[string]any{"depart_at": "2030-01-01T10:00:00Z"}
	if w := doRequest(e.router, http.MethodPatch, "/api/rides/"+id+"/schedule", resched, "driver"); w.Code != http.StatusConflict {
		t.Errorf("reschedule started ride: expected 409, got %d", w.Code)
	}
	if w := doRequest(e.router, http.MethodPost, "/api/rides/"+id+"/complete", nil, "driver"); w.Code != http.StatusOK {
		t.Errorf("complete: %d %s", w.Code, w.Body.String())
	}

	other := e.offerRide(t, 3, 0)
	if w := doRequest(e.router, http.MethodPost, "/api/rides/"+other+"/block", nil, "driver"); w.Code != http.StatusForbidden {
		t.Errorf("driver block: expected 403, got %d", w.Code)
	}
	if w := doRequest(e.router, http.MethodPost, "/api/rides/"+other+"/block", map[string]any{"reason": "fraud"}, "admin"); w.Code != http.StatusOK {
		t.Errorf("admin block: %d %s", w.Code, w.Body.String())
	}
	if w := doRequest(e.router, http.MethodPost, "/api/rides/"+other+"/cancel", nil, "driver"); w.Code != http.StatusConflict {
		t.Errorf("cancel blocked ride: expected 409, got %d", w.Code)
	}
}

func TestLeaveAndNearby(t *testing.T) {
	e := buildTestRouter(t)
	id := e.offerRide(t, 2, 0)

	w := doRequest(e.router, http.MethodGet, "/api/rides/nearby?at=10.85,76.27", nil, "passenger")
	if w.Code != http.StatusOK || len(decode(t, w)["rides"].([]any)) != 1 {
		t.Fatalf("nearby before join: %d %s", w.Code, w.Body.String())
	}

	if w := doRequest(e.router, http.MethodPost, "/api/rides/"+id+"/join", route, "passenger"); w.Code != http.StatusOK {
		t.Fatalf("join: %d %s", w.Code, w.Body.String())
	}
	w = doRequest(e.router, http.MethodGet, "/api/rides/nearby?at=10.85,76.27", nil, "passenger")
	if n := len(decode(t, w)["rides"].([]any)); n != 0 {
		t.Fatalf("full ride should not be listed, got %d", n)
	}

	if w := doRequest(e.router, http.MethodPost, "/api/rides/"+id+"/leave", nil, "passenger"); w.Code != http.StatusNoContent {
		t.Fatalf("leave: %d %s", w.Code, w.Body.String())
	}
	if w := doRequest(e.router, http.MethodPost, "/api/rides/"+id+"/leave", nil, "passenger"); w.Code != http.StatusConflict {
		t.Errorf("second leave: expected 409, got %d", w.Code)
	}
	w = doRequest(e.router, http.MethodGet, "/api/rides/nearby?at=10.85,76.27&radius_km=1", nil, "passenger")
	if n := len(decode(t, w)["rides"].([]any)); n != 1 {
		t.Errorf("ride should be listed again after leave, got %d", n)
	}

	if w := doRequest(e.router, http.MethodGet, "/api/rides/nearby?at=north", nil, "passenger"); w.Code != http.StatusBadRequest {
		t.Errorf("bad at: expected 400, got %d", w.Code)
	}
}

func TestGet_Errors(t *testing.T) {
	e := buildTestRouter(t)
	if w := doRequest(e.router, http.MethodGet, "/api/rides/xyz", nil, "passenger"); w.Code != http.StatusBadRequest {
		t.Errorf("bad id: expected 400, got %d", w.Code)
	}
	if w := doRequest(e.router, http.MethodGet, "/api/rides/3f0c1d2e-4b5a-4c6d-8e7f-9a0b1c2d3e4f", nil, "passenger"); w.Code != http.StatusNotFound {
		t.Errorf("missing ride: expected 404, got %d", w.Code)
	}
}
