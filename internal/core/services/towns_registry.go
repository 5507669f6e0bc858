package services

import (
	"sync"

	"townhall/internal/core/domain"
	"townhall/internal/core/ports"

	"go.uber.org/zap"
)

// TownsRegistry is the process-wide directory of town controllers and the
// cross-town authorization gate. It is the only component allowed to create,
// rename, relist or delete a town. Construct one per process and pass it to
// whatever owns request routing.
type TownsRegistry struct {
	video           ports.VideoClient
	masterPassword  string
	defaultCanPlace bool
	logger          *zap.SugaredLogger

	mu    sync.RWMutex
	towns map[domain.TownID]*TownController
}

// RegistryOptions carries process-wide town policy from configuration.
type RegistryOptions struct {
	// MasterPassword, when non-empty, satisfies every town's password check.
	MasterPassword string
	// DefaultCanPlace grants the placement flag to every new player at join.
	DefaultCanPlace bool
}

func NewTownsRegistry(video ports.VideoClient, opts RegistryOptions, logger *zap.SugaredLogger) *TownsRegistry {
	return &TownsRegistry{
		video:           video,
		masterPassword:  opts.MasterPassword,
		defaultCanPlace: opts.DefaultCanPlace,
		logger:          logger,
		towns:           make(map[domain.TownID]*TownController),
	}
}

// passwordMatches reports whether the provided password is the town's update
// password or the process-wide master password.
func (r *TownsRegistry) passwordMatches(provided, expected string) bool {
	if provided == expected {
		return true
	}
	return r.masterPassword != "" && provided == r.masterPassword
}

// authorized is the single dual-auth predicate applied by every placeable
// call site: a valid password or a requesting player holding the placement
// flag each suffice on their own.
func (r *TownsRegistry) authorized(tc *TownController, password string, playerID domain.PlayerID) bool {
	if r.passwordMatches(password, tc.UpdatePassword()) {
		return true
	}
	if playerID == "" {
		return false
	}
	canPlace, err := tc.GetPlayersPermission(playerID)
	return err == nil && canPlace
}

// CreateTown always succeeds: a fresh town ID and update password are
// generated for every call. Friendly names are not unique keys.
func (r *TownsRegistry) CreateTown(friendlyName string, isPubliclyListed bool) ports.Town {
	tc := NewTownController(friendlyName, isPubliclyListed, r.defaultCanPlace, r.video, r.logger)

	r.mu.Lock()
	r.towns[tc.ID()] = tc
	r.mu.Unlock()

	r.logger.Infow("town created",
		"town_id", tc.ID(),
		"friendly_name", friendlyName,
		"publicly_listed", isPubliclyListed,
	)
	return tc
}

func (r *TownsRegistry) controller(townID domain.TownID) (*TownController, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tc, ok := r.towns[townID]
	return tc, ok
}

// ControllerForTown resolves a town ID to its controller.
func (r *TownsRegistry) ControllerForTown(townID domain.TownID) (ports.Town, bool) {
	tc, ok := r.controller(townID)
	if !ok {
		return nil, false
	}
	return tc, true
}

// ListTowns returns summaries of publicly listed towns only.
func (r *TownsRegistry) ListTowns() []domain.TownSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := make([]domain.TownSummary, 0, len(r.towns))
	for _, tc := range r.towns {
		if !tc.IsPubliclyListed() {
			continue
		}
		summaries = append(summaries, domain.TownSummary{
			TownID:           tc.ID(),
			FriendlyName:     tc.FriendlyName(),
			CurrentOccupancy: tc.Occupancy(),
			MaximumOccupancy: tc.Capacity(),
		})
	}
	return summaries
}

// UpdateTown renames and/or relists a town. The whole update fails with no
// mutation when the town is unknown, the password is wrong, or an empty new
// name is supplied, even if the visibility change alone was valid.
func (r *TownsRegistry) UpdateTown(townID domain.TownID, password string, friendlyName *string, isPubliclyListed *bool) bool {
	tc, ok := r.controller(townID)
	if !ok || !r.passwordMatches(password, tc.UpdatePassword()) {
		return false
	}
	if friendlyName != nil && *friendlyName == "" {
		return false
	}
	if friendlyName != nil {
		tc.SetFriendlyName(*friendlyName)
	}
	if isPubliclyListed != nil {
		tc.SetPubliclyListed(*isPubliclyListed)
	}
	return true
}

// DeleteTown removes the town from the directory and notifies every listener
// of the destruction; the transport layer then severs those connections.
func (r *TownsRegistry) DeleteTown(townID domain.TownID, password string) bool {
	r.mu.Lock()
	tc, ok := r.towns[townID]
	if !ok || !r.passwordMatches(password, tc.UpdatePassword()) {
		r.mu.Unlock()
		return false
	}
	delete(r.towns, townID)
	r.mu.Unlock()

	tc.DisconnectAllPlayers()
	r.logger.Infow("town deleted", "town_id", townID)
	return true
}

// AddPlaceable applies the dual-auth gate and delegates to the controller.
func (r *TownsRegistry) AddPlaceable(townID domain.TownID, password string, playerID domain.PlayerID, placeableID string, location domain.PlaceableLocation, information map[string]string) error {
	tc, ok := r.controller(townID)
	if !ok {
		return domain.ErrUnknownTown
	}
	if !r.authorized(tc, password, playerID) {
		return domain.ErrNotAuthorized
	}
	return tc.AddPlaceable(placeableID, location, information)
}

// DeletePlaceable applies the dual-auth gate and delegates to the controller.
func (r *TownsRegistry) DeletePlaceable(townID domain.TownID, password string, playerID domain.PlayerID, location domain.PlaceableLocation) error {
	tc, ok := r.controller(townID)
	if !ok {
		return domain.ErrUnknownTown
	}
	if !r.authorized(tc, password, playerID) {
		return domain.ErrNotAuthorized
	}
	return tc.DeletePlaceable(location)
}

// GetPlaceable answers what occupies a cell; it requires no authentication.
func (r *TownsRegistry) GetPlaceable(townID domain.TownID, location domain.PlaceableLocation) (domain.PlaceableInfo, error) {
	tc, ok := r.controller(townID)
	if !ok {
		return domain.PlaceableInfo{}, domain.ErrUnknownTown
	}
	return tc.GetPlaceableAt(location), nil
}

// UpdatePlayerPermissions is password-only: the placement flag does not
// delegate the right to change other players' flags.
func (r *TownsRegistry) UpdatePlayerPermissions(townID domain.TownID, password string, specs []domain.PlayerPermissionSpecification) ([]domain.PlayerID, error) {
	tc, ok := r.controller(townID)
	if !ok {
		return nil, domain.ErrUnknownTown
	}
	if !r.passwordMatches(password, tc.UpdatePassword()) {
		return nil, domain.ErrNotAuthorized
	}
	if badIDs := tc.UpdatePlayerPermissions(specs); len(badIDs) > 0 {
		return badIDs, domain.ErrInvalidInput
	}
	return nil, nil
}

// GetPlayersPermission returns a player's placement flag.
func (r *TownsRegistry) GetPlayersPermission(townID domain.TownID, playerID domain.PlayerID) (bool, error) {
	tc, ok := r.controller(townID)
	if !ok {
		return false, domain.ErrUnknownTown
	}
	return tc.GetPlayersPermission(playerID)
}
