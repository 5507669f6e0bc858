package ports

import (
	"townhall/internal/core/domain"
)

// TownListener receives every town-local state change, one implementation per
// connected subscriber. Implementations must not block: the controller calls
// these synchronously while holding the town's mutation lock, so a listener
// should only enqueue and return.
type TownListener interface {
	// OnPlayerJoined is called when a player joins the town.
	OnPlayerJoined(player *domain.Player)

	// OnPlayerMoved is called when a player's location changes.
	OnPlayerMoved(player *domain.Player)

	// OnPlayerDisconnected is called when a player leaves the town.
	OnPlayerDisconnected(player *domain.Player)

	// OnTownDestroyed is called when the town is deleted. Subscribers are
	// expected to disconnect afterwards.
	OnTownDestroyed()

	// OnPlaceableAdded is called with the placeable now occupying a cell.
	OnPlaceableAdded(placeable domain.PlaceableInfo)

	// OnPlaceableDeleted is called with what is now at the cell (always the
	// empty-cell sentinel), enabling stateless resynchronization.
	OnPlaceableDeleted(placeable domain.PlaceableInfo)
}
