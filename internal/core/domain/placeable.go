package domain

// PlaceableLocation is a discrete grid cell. It is the unique key for a
// placeable within a town.
type PlaceableLocation struct {
	XIndex int `json:"xIndex"`
	YIndex int `json:"yIndex"`
}

// Equals reports whether two cells are the same.
func (l PlaceableLocation) Equals(other PlaceableLocation) bool {
	return l.XIndex == other.XIndex && l.YIndex == other.YIndex
}

// Placeable is an interactive object instance occupying one grid cell.
type Placeable struct {
	PlaceableID string            `json:"placeableID"`
	Name        string            `json:"name"`
	Location    PlaceableLocation `json:"location"`
	Information map[string]string `json:"objectInformation,omitempty"`
}

// PlaceableInfo is the total answer to "what is at this cell": the sentinel
// values below are returned for an empty cell, never a nil.
type PlaceableInfo struct {
	TownID      TownID            `json:"coveyTownID"`
	PlaceableID string            `json:"placeableID"`
	Name        string            `json:"placeableName"`
	Location    PlaceableLocation `json:"location"`
	Information map[string]string `json:"objectInformation,omitempty"`
}

// Reserved values representing an unoccupied cell.
const (
	EmptyPlaceableID   = "empty"
	EmptyPlaceableName = "empty space"
)

// allowedPlaceables is the process-wide allow-list of placeable type IDs.
// Read-only after init, so it needs no locking.
var allowedPlaceables = map[string]string{
	"speaker":   "speaker",
	"tree":      "tree",
	"tictactoe": "tic tac toe board",
	"flappy":    "flappy bird arcade",
	"banner":    "banner",
	"youtube":   "youtube screen",
}

// IsAllowedPlaceable reports whether the given type ID is on the allow-list.
func IsAllowedPlaceable(placeableID string) bool {
	_, ok := allowedPlaceables[placeableID]
	return ok
}

// PlaceableDisplayName returns the display name for an allowed type ID, or
// the ID itself if it has no registered name.
func PlaceableDisplayName(placeableID string) string {
	if name, ok := allowedPlaceables[placeableID]; ok {
		return name
	}
	return placeableID
}

// NewPlaceable constructs a placeable of the given allowed type at a cell.
func NewPlaceable(placeableID string, location PlaceableLocation, information map[string]string) *Placeable {
	return &Placeable{
		PlaceableID: placeableID,
		Name:        PlaceableDisplayName(placeableID),
		Location:    location,
		Information: information,
	}
}

// EmptyPlaceableInfo is the sentinel info for an unoccupied cell in a town.
func EmptyPlaceableInfo(townID TownID, location PlaceableLocation) PlaceableInfo {
	return PlaceableInfo{
		TownID:      townID,
		PlaceableID: EmptyPlaceableID,
		Name:        EmptyPlaceableName,
		Location:    location,
	}
}
