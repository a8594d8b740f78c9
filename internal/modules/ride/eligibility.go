// README: Join eligibility evaluation and reason codes.
package ride

import "ridepool/internal/types"

type ReasonCode string

const (
	ReasonOK             ReasonCode = "OK"
	ReasonRideNotPending ReasonCode = "RIDE_NOT_PENDING"
	ReasonRideFull       ReasonCode = "RIDE_FULL"
	ReasonNotVerified    ReasonCode = "USER_NOT_VERIFIED"
	ReasonAlreadyJoined  ReasonCode = "ALREADY_JOINED"
	ReasonInvalidLoc     ReasonCode = "INVALID_LOCATION"
)

// VerificationStatus is supplied by the identity provider and only compared
// against VerificationVerified.
type VerificationStatus string

const VerificationVerified VerificationStatus = "Verified"

type EligibilityResult struct {
	Allowed bool       `json:"allowed"`
	Reason  ReasonCode `json:"reason_code"`
}

func allow() EligibilityResult { return EligibilityResult{Allowed: true, Reason: ReasonOK} }

func deny(reason ReasonCode) EligibilityResult {
	return EligibilityResult{Allowed: false, Reason: reason}
}

// EvaluateJoin decides whether passengerID may join r. Identity and ride
// status are checked before seat availability, so an unverified user on a
// full ride is told USER_NOT_VERIFIED rather than RIDE_FULL.
func EvaluateJoin(r *Ride, passengerID types.ID, verification VerificationStatus, pickup, dropoff string) EligibilityResult {
	res, _, _ := evaluateJoin(r, passengerID, verification, pickup, dropoff)
	return res
}

func evaluateJoin(r *Ride, passengerID types.ID, verification VerificationStatus, pickup, dropoff string) (EligibilityResult, Location, Location) {
	if verification != VerificationVerified {
		return deny(ReasonNotVerified), Location{}, Location{}
	}
	if !AcceptsJoins(r) {
		return deny(ReasonRideNotPending), Location{}, Location{}
	}
	from, err := ParseLocation(pickup)
	if err != nil {
		return deny(ReasonInvalidLoc), Location{}, Location{}
	}
	to, err := ParseLocation(dropoff)
	if err != nil {
		return deny(ReasonInvalidLoc), Location{}, Location{}
	}
	// The driver already holds a seat on their own ride.
	if passengerID == r.DriverID || HasPassenger(r, passengerID) {
		return deny(ReasonAlreadyJoined), Location{}, Location{}
	}
	if !CanAddPassenger(r, passengerID) {
		return deny(ReasonRideFull), Location{}, Location{}
	}
	return allow(), from, to
}
