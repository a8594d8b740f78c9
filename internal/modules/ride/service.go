// README: Ride service implements creation, joins and status transitions under a per-ride lock.
package ride

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ridepool/internal/geo"
	"ridepool/internal/lock"
	"ridepool/internal/modules/pricing"
	"ridepool/internal/modules/vehicle"
	"ridepool/internal/observability"
	"ridepool/internal/types"
)

var (
	ErrNotFound           = errors.New("ride not found")
	ErrConflict           = errors.New("ride state conflict")
	ErrBadRequest         = errors.New("bad request")
	ErrForbidden          = errors.New("actor may not change this ride")
	ErrPaymentNotVerified = errors.New("payment not verified")
)

// Locker serializes mutations of one ride across request handlers.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// VehicleSource returns a vehicle after checking it belongs to driverID.
type VehicleSource interface {
	Owned(ctx context.Context, vehicleID, driverID types.ID) (*vehicle.Vehicle, error)
}

type RouteEstimator interface {
	DistanceKm(ctx context.Context, origin, destination types.Point) (float64, error)
}

type PaymentGateway interface {
	CreateOrder(ctx context.Context, order types.PaymentOrder) (string, error)
	// VerifyPayment succeeds only when orderRef was opened for exactly want,
	// has been paid and was not used before. A successful call consumes it.
	VerifyPayment(ctx context.Context, orderRef, signature string, want types.PaymentOrder) error
}

type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Index tracks pending rides with free seats for nearby search.
type Index interface {
	Add(ctx context.Context, id types.ID, origin types.Point) error
	Remove(ctx context.Context, id types.ID) error
}

type Deps struct {
	Locker    Locker
	Vehicles  VehicleSource
	Routes    RouteEstimator
	Payments  PaymentGateway
	Geocoder  Geocoder
	Publisher Publisher
	Index     Index
	Logger    *slog.Logger
	Currency  string
	Now       func() time.Time
}

type Service struct {
	store     Repository
	locker    Locker
	vehicles  VehicleSource
	routes    RouteEstimator
	payments  PaymentGateway
	geocoder  Geocoder
	publisher Publisher
	index     Index
	log       *slog.Logger
	currency  string
	now       func() time.Time
}

func NewService(store Repository, deps Deps) *Service {
	s := &Service{
		store:     store,
		locker:    deps.Locker,
		vehicles:  deps.Vehicles,
		routes:    deps.Routes,
		payments:  deps.Payments,
		geocoder:  deps.Geocoder,
		publisher: deps.Publisher,
		index:     deps.Index,
		log:       deps.Logger,
		currency:  deps.Currency,
		now:       deps.Now,
	}
	if s.locker == nil {
		s.locker = lock.NewLocal()
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.currency == "" {
		s.currency = DefaultCurrency
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

type CreateCommand struct {
	DriverID    types.ID
	VehicleID   types.ID
	Origin      Location
	Destination Location
	DepartAt    time.Time
	// DistanceKm overrides the routed distance when set.
	DistanceKm  *float64
	FuelPrice   float64
	TotalPeople int
}

type CheckoutCommand struct {
	RideID       types.ID
	PassengerID  types.ID
	Verification VerificationStatus
	Pickup       string
	Dropoff      string
}

type CheckoutResult struct {
	Eligibility EligibilityResult
	OrderRef    string
	Amount      types.Money
}

type JoinCommand struct {
	RideID           types.ID
	PassengerID      types.ID
	Verification     VerificationStatus
	Pickup           string
	Dropoff          string
	PaymentRef       string
	PaymentSignature string
}

type LeaveCommand struct {
	RideID      types.ID
	PassengerID types.ID
}

type RescheduleCommand struct {
	RideID   types.ID
	DriverID types.ID
	DepartAt time.Time
}

type StartCommand struct {
	RideID   types.ID
	DriverID types.ID
}

type CompleteCommand struct {
	RideID   types.ID
	DriverID types.ID
}

type CancelCommand struct {
	RideID   types.ID
	DriverID types.ID
	Reason   string
}

type BlockCommand struct {
	RideID  types.ID
	AdminID types.ID
	Reason  string
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Ride, error) {
	if cmd.DriverID == "" || cmd.VehicleID == "" || cmd.TotalPeople < 1 {
		return nil, ErrBadRequest
	}
	if err := cmd.Origin.Validate(); err != nil {
		return nil, fmt.Errorf("%w: origin: %v", ErrBadRequest, err)
	}
	if err := cmd.Destination.Validate(); err != nil {
		return nil, fmt.Errorf("%w: destination: %v", ErrBadRequest, err)
	}
	if s.vehicles == nil {
		return nil, errors.New("ride: no vehicle source configured")
	}
	v, err := s.vehicles.Owned(ctx, cmd.VehicleID, cmd.DriverID)
	if err != nil {
		return nil, err
	}
	if cmd.TotalPeople > v.Seats {
		return nil, fmt.Errorf("%w: %d people do not fit in a %d-seat vehicle", ErrBadRequest, cmd.TotalPeople, v.Seats)
	}

	distance := s.routeDistance(ctx, cmd)
	fare, err := pricing.ComputeFare(distance, v.Mileage, cmd.FuelPrice, cmd.TotalPeople-1)
	if err != nil {
		return nil, err
	}

	now := s.now()
	r := &Ride{
		ID:            types.NewID(),
		DriverID:      cmd.DriverID,
		VehicleID:     cmd.VehicleID,
		Origin:        cmd.Origin,
		Destination:   cmd.Destination,
		DepartAt:      cmd.DepartAt,
		DistanceKm:    fare.DistanceKm,
		FuelPrice:     cmd.FuelPrice,
		TotalPeople:   cmd.TotalPeople,
		Status:        StatusPending,
		TotalFuelCost: fare.TotalFuelCost,
		CostPerPerson: fare.CostPerPerson,
		Currency:      s.currency,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, err
	}
	observability.RidesCreated.Inc()
	s.record(ctx, r, EventCreated, StatusNone, StatusPending, "driver", &cmd.DriverID)
	s.syncIndex(ctx, r)
	s.log.Info("ride created", "ride_id", r.ID, "driver_id", r.DriverID,
		"distance_km", r.DistanceKm, "cost_per_person", r.CostPerPerson, "total_people", r.TotalPeople)
	return r, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Ride, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.reportOverbooked(r)
	return r, nil
}

// CheckEligibility evaluates a join without changing anything.
func (s *Service) CheckEligibility(ctx context.Context, cmd CheckoutCommand) (EligibilityResult, error) {
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return EligibilityResult{}, err
	}
	s.reportOverbooked(r)
	res := EvaluateJoin(r, cmd.PassengerID, cmd.Verification, cmd.Pickup, cmd.Dropoff)
	observability.JoinDecisions.WithLabelValues(string(res.Reason)).Inc()
	return res, nil
}

// Checkout evaluates a join and, when allowed, opens a payment order for the
// passenger's share. Free rides get no order.
func (s *Service) Checkout(ctx context.Context, cmd CheckoutCommand) (CheckoutResult, error) {
	if cmd.RideID == "" || cmd.PassengerID == "" {
		return CheckoutResult{}, ErrBadRequest
	}
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return CheckoutResult{}, err
	}
	res := EvaluateJoin(r, cmd.PassengerID, cmd.Verification, cmd.Pickup, cmd.Dropoff)
	out := CheckoutResult{Eligibility: res, Amount: s.share(r)}
	if !res.Allowed || out.Amount.Amount == 0 {
		return out, nil
	}
	if s.payments == nil {
		return out, fmt.Errorf("%w: no payment gateway", ErrPaymentNotVerified)
	}
	ref, err := s.payments.CreateOrder(ctx, types.PaymentOrder{
		RideID:  r.ID,
		PayerID: cmd.PassengerID,
		Amount:  out.Amount,
	})
	if err != nil {
		return out, fmt.Errorf("create payment order: %w", err)
	}
	out.OrderRef = ref
	return out, nil
}

// Join re-evaluates eligibility under the ride lock, verifies the payment and
// seats the passenger. A denial is returned as a result, not an error.
func (s *Service) Join(ctx context.Context, cmd JoinCommand) (EligibilityResult, error) {
	if cmd.RideID == "" || cmd.PassengerID == "" {
		return EligibilityResult{}, ErrBadRequest
	}
	unlock, err := s.locker.Lock(ctx, lockKey(cmd.RideID))
	if err != nil {
		return EligibilityResult{}, err
	}
	defer unlock()

	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return EligibilityResult{}, err
	}
	s.reportOverbooked(r)

	res, pickup, dropoff := evaluateJoin(r, cmd.PassengerID, cmd.Verification, cmd.Pickup, cmd.Dropoff)
	observability.JoinDecisions.WithLabelValues(string(res.Reason)).Inc()
	if !res.Allowed {
		return res, nil
	}
	paid, err := s.verifyPayment(ctx, r, cmd)
	if err != nil {
		return res, err
	}
	if err := s.seat(ctx, r, cmd.PassengerID, pickup, dropoff); err != nil {
		if paid {
			s.log.Error("payment consumed but seat not saved", "ride_id", r.ID,
				"passenger_id", cmd.PassengerID, "order_ref", cmd.PaymentRef, "error", err)
		}
		return res, err
	}
	s.record(ctx, r, EventJoined, r.Status, r.Status, "passenger", &cmd.PassengerID)
	s.syncIndex(ctx, r)
	return res, nil
}

// Leave removes a passenger from a pending ride. It is not a ride-level
// cancellation.
func (s *Service) Leave(ctx context.Context, cmd LeaveCommand) error {
	if cmd.RideID == "" || cmd.PassengerID == "" {
		return ErrBadRequest
	}
	return s.mutate(ctx, cmd.RideID, func(r *Ride) (EventKind, string, *types.ID, error) {
		if !Editable(r) {
			return "", "", nil, ErrNotPending
		}
		if err := RemovePassenger(r, cmd.PassengerID); err != nil {
			return "", "", nil, err
		}
		r.UpdatedAt = s.now()
		return EventLeft, "passenger", &cmd.PassengerID, nil
	})
}

func (s *Service) Reschedule(ctx context.Context, cmd RescheduleCommand) error {
	if cmd.RideID == "" || cmd.DepartAt.IsZero() {
		return ErrBadRequest
	}
	return s.mutate(ctx, cmd.RideID, func(r *Ride) (EventKind, string, *types.ID, error) {
		if r.DriverID != cmd.DriverID {
			return "", "", nil, ErrForbidden
		}
		if !Editable(r) {
			return "", "", nil, ErrNotPending
		}
		r.DepartAt = cmd.DepartAt
		r.UpdatedAt = s.now()
		return EventRescheduled, "driver", &cmd.DriverID, nil
	})
}

func (s *Service) Start(ctx context.Context, cmd StartCommand) error {
	return s.transition(ctx, cmd.RideID, StatusStarted, "driver", cmd.DriverID, "")
}

func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) error {
	return s.transition(ctx, cmd.RideID, StatusCompleted, "driver", cmd.DriverID, "")
}

func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) error {
	return s.transition(ctx, cmd.RideID, StatusCancelled, "driver", cmd.DriverID, cmd.Reason)
}

func (s *Service) Block(ctx context.Context, cmd BlockCommand) error {
	return s.transition(ctx, cmd.RideID, StatusBlocked, "admin", cmd.AdminID, cmd.Reason)
}

func (s *Service) transition(ctx context.Context, id types.ID, to Status, actorType string, actorID types.ID, reason string) error {
	if id == "" || actorID == "" {
		return ErrBadRequest
	}
	return s.mutate(ctx, id, func(r *Ride) (EventKind, string, *types.ID, error) {
		if actorType == "driver" && r.DriverID != actorID {
			return "", "", nil, ErrForbidden
		}
		if err := Transition(r, to, s.now()); err != nil {
			return "", "", nil, err
		}
		if reason != "" {
			r.CancelReason = &reason
		}
		observability.RideTransitions.WithLabelValues(string(to)).Inc()
		return EventStatus, actorType, &actorID, nil
	})
}

// mutate runs fn on a fresh copy of the ride while holding its lock and saves
// the result. Nothing is saved when fn fails.
func (s *Service) mutate(ctx context.Context, id types.ID, fn func(r *Ride) (EventKind, string, *types.ID, error)) error {
	unlock, err := s.locker.Lock(ctx, lockKey(id))
	if err != nil {
		return err
	}
	defer unlock()

	r, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	from := r.Status
	kind, actorType, actorID, err := fn(r)
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, r); err != nil {
		return err
	}
	s.record(ctx, r, kind, from, r.Status, actorType, actorID)
	s.syncIndex(ctx, r)
	return nil
}

// verifyPayment checks the join's order against this ride, this passenger and
// the current share. paid reports whether an order was consumed.
func (s *Service) verifyPayment(ctx context.Context, r *Ride, cmd JoinCommand) (paid bool, err error) {
	share := s.share(r)
	if share.Amount == 0 {
		return false, nil
	}
	if s.payments == nil || cmd.PaymentRef == "" {
		return false, ErrPaymentNotVerified
	}
	want := types.PaymentOrder{RideID: r.ID, PayerID: cmd.PassengerID, Amount: share}
	if err := s.payments.VerifyPayment(ctx, cmd.PaymentRef, cmd.PaymentSignature, want); err != nil {
		return false, fmt.Errorf("%w: %v", ErrPaymentNotVerified, err)
	}
	return true, nil
}

func (s *Service) seat(ctx context.Context, r *Ride, passengerID types.ID, pickup, dropoff Location) error {
	if err := AddPassenger(r, passengerID, pickup, dropoff); err != nil {
		return err
	}
	r.UpdatedAt = s.now()
	return s.store.Save(ctx, r)
}

func (s *Service) share(r *Ride) types.Money {
	return types.Money{Amount: pricing.MinorUnits(r.CostPerPerson), Currency: r.Currency}
}

func (s *Service) routeDistance(ctx context.Context, cmd CreateCommand) float64 {
	if cmd.DistanceKm != nil {
		return *cmd.DistanceKm
	}
	if s.routes != nil {
		d, err := s.routes.DistanceKm(ctx, cmd.Origin.Point(), cmd.Destination.Point())
		if err == nil {
			return d
		}
		s.log.Warn("route distance unavailable, using straight line", "error", err)
	}
	return geo.HaversineKm(cmd.Origin.Point(), cmd.Destination.Point())
}

func (s *Service) record(ctx context.Context, r *Ride, kind EventKind, from, to Status, actorType string, actorID *types.ID) {
	e := Event{
		RideID:     r.ID,
		Kind:       kind,
		FromStatus: from,
		ToStatus:   to,
		ActorType:  actorType,
		ActorID:    actorID,
		CreatedAt:  s.now(),
	}
	if err := s.store.AppendEvent(ctx, &e); err != nil {
		s.log.Warn("append ride event", "ride_id", r.ID, "kind", kind, "error", err)
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, e); err != nil {
			s.log.Warn("publish ride event", "ride_id", r.ID, "kind", kind, "error", err)
		}
	}
}

func (s *Service) syncIndex(ctx context.Context, r *Ride) {
	if s.index == nil {
		return
	}
	var err error
	if AcceptsJoins(r) && !IsFull(r) {
		err = s.index.Add(ctx, r.ID, r.Origin.Point())
	} else {
		err = s.index.Remove(ctx, r.ID)
	}
	if err != nil {
		s.log.Warn("sync ride index", "ride_id", r.ID, "error", err)
	}
}

func (s *Service) reportOverbooked(r *Ride) {
	if n := Overbooked(r); n > 0 {
		observability.OverbookedRides.Inc()
		s.log.Warn("ride roster over capacity", "ride_id", r.ID,
			"total_people", r.TotalPeople, "passengers", len(r.Passengers), "over", n)
	}
}

func lockKey(id types.ID) string {
	return "ride:" + string(id)
}
