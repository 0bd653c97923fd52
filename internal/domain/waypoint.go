package domain

import "errors"

// TargetKind discriminates the two shapes a route target can take.
type TargetKind int

const (
	TargetClient TargetKind = iota + 1
	TargetCustomAddress
)

// Target identifies the mandatory destination of a route-construction
// request: either a reference to an existing client or a free-form address.
// Exactly one shape is populated; Kind tells which.
type Target struct {
	Kind     TargetKind
	ClientID int64
	Address  string
	Position Coordinates
}

// ClientTarget builds a target referencing an existing client row.
func ClientTarget(clientID int64) Target {
	return Target{Kind: TargetClient, ClientID: clientID}
}

// CustomAddressTarget builds a target for an arbitrary address. Position may
// be zero, in which case the address is geocoded during construction.
func CustomAddressTarget(address string, pos Coordinates) Target {
	return Target{Kind: TargetCustomAddress, Address: address, Position: pos}
}

func (t Target) Validate() error {
	switch t.Kind {
	case TargetClient:
		if t.ClientID <= 0 {
			return errors.New("target: client id must be positive")
		}
	case TargetCustomAddress:
		if t.Address == "" {
			return errors.New("target: address must be non-empty")
		}
	default:
		return errors.New("target: kind must be client or custom address")
	}
	return nil
}

// Waypoint is a point the route must pass through, mandatory or prunable.
// Waypoints are built fresh per route-construction request from Client rows
// plus the user-supplied target, and discarded once the route is persisted.
type Waypoint struct {
	ClientID    int64 // 0 when not backed by a client row
	Name        string
	Address     string
	Position    Coordinates
	IsMandatory bool
	OpeningTime string
	ClosingTime string
}
