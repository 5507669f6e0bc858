package ports

import (
	"context"

	"townhall/internal/core/domain"
)

// VideoClient provisions per-participant media tokens from the video
// conferencing collaborator. GetTokenForTown may block and may fail; it is
// the only suspension point in the join path.
type VideoClient interface {
	GetTokenForTown(ctx context.Context, townID domain.TownID, playerID domain.PlayerID) (string, error)
}

// Town is the per-town controller surface used by the transport layers.
type Town interface {
	ID() domain.TownID
	FriendlyName() string
	IsPubliclyListed() bool
	UpdatePassword() string
	Capacity() int
	Occupancy() int
	// Players returns value snapshots; the live Player records never leave
	// the controller's lock.
	Players() []domain.Player
	Placeables() []*domain.Placeable

	// AddPlayer registers a new player and session, provisioning a media
	// token first; on token failure nothing is registered.
	AddPlayer(ctx context.Context, userName string) (*domain.PlayerSession, error)

	// DestroySession removes the session's player; calling it again for the
	// same session is a no-op and does not re-notify listeners.
	DestroySession(session *domain.PlayerSession)

	UpdatePlayerLocation(player *domain.Player, location domain.UserLocation)
	SessionByToken(token domain.SessionToken) (*domain.PlayerSession, bool)

	AddTownListener(listener TownListener)
	RemoveTownListener(listener TownListener)

	GetPlaceableAt(location domain.PlaceableLocation) domain.PlaceableInfo
}

// TownsService is the process-wide town directory and authorization gate.
type TownsService interface {
	CreateTown(friendlyName string, isPubliclyListed bool) Town
	ControllerForTown(townID domain.TownID) (Town, bool)
	ListTowns() []domain.TownSummary
	UpdateTown(townID domain.TownID, password string, friendlyName *string, isPubliclyListed *bool) bool
	DeleteTown(townID domain.TownID, password string) bool

	AddPlaceable(townID domain.TownID, password string, playerID domain.PlayerID, placeableID string, location domain.PlaceableLocation, information map[string]string) error
	DeletePlaceable(townID domain.TownID, password string, playerID domain.PlayerID, location domain.PlaceableLocation) error
	GetPlaceable(townID domain.TownID, location domain.PlaceableLocation) (domain.PlaceableInfo, error)

	UpdatePlayerPermissions(townID domain.TownID, password string, specs []domain.PlayerPermissionSpecification) ([]domain.PlayerID, error)
	GetPlayersPermission(townID domain.TownID, playerID domain.PlayerID) (bool, error)
}
