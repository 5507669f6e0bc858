package domain

// Direction is the way a player's avatar is facing.
type Direction string

const (
	DirectionFront Direction = "front"
	DirectionBack  Direction = "back"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// UserLocation is a player's live position. It is replaced wholesale on
// every movement update, never merged.
type UserLocation struct {
	X        float64   `json:"x"`
	Y        float64   `json:"y"`
	Rotation Direction `json:"rotation"`
	Moving   bool      `json:"moving"`
}

// Player is a connected user's identity within one town. A Player exists
// exactly as long as a session referencing it exists.
type Player struct {
	ID       PlayerID     `json:"_id"`
	UserName string       `json:"_userName"`
	Location UserLocation `json:"location"`
	CanPlace bool         `json:"canPlace"`
}

// UpdateLocation overwrites the player's location.
func (p *Player) UpdateLocation(location UserLocation) {
	p.Location = location
}

// PlayerPermissionSpecification names one player's desired placement flag
// in a bulk permission update.
type PlayerPermissionSpecification struct {
	PlayerID PlayerID `json:"playerID"`
	CanPlace bool     `json:"canPlace"`
}
