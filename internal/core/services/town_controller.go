package services

import (
	"context"
	"fmt"
	"sync"

	"townhall/internal/core/domain"
	"townhall/internal/core/ports"
	"townhall/pkg/utils"

	"go.uber.org/zap"
)

// TownController implements the logic for one town: joining, moving,
// leaving, placeable management and listener fan-out. All mutations on a
// town are serialized by its mutex, so check-then-act sequences (cell
// occupancy check + insert, permission batch validation + apply) are atomic
// from every caller's point of view. Different towns share no mutable state.
type TownController struct {
	id             domain.TownID
	updatePassword string
	capacity       int

	video  ports.VideoClient
	logger *zap.SugaredLogger

	mu               sync.Mutex
	friendlyName     string
	isPubliclyListed bool
	defaultCanPlace  bool
	players          []*domain.Player
	sessions         []*domain.PlayerSession
	placeables       []*domain.Placeable
	listeners        []ports.TownListener
}

// NewTownController creates the controller for a freshly created town,
// generating its ID and update password.
func NewTownController(friendlyName string, isPubliclyListed bool, defaultCanPlace bool, video ports.VideoClient, logger *zap.SugaredLogger) *TownController {
	return &TownController{
		id:               domain.TownID(utils.GenerateTownID()),
		updatePassword:   utils.GenerateTownPassword(),
		capacity:         domain.DefaultTownCapacity,
		friendlyName:     friendlyName,
		isPubliclyListed: isPubliclyListed,
		defaultCanPlace:  defaultCanPlace,
		video:            video,
		logger:           logger,
	}
}

func (c *TownController) ID() domain.TownID      { return c.id }
func (c *TownController) UpdatePassword() string { return c.updatePassword }
func (c *TownController) Capacity() int          { return c.capacity }

func (c *TownController) FriendlyName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.friendlyName
}

func (c *TownController) SetFriendlyName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.friendlyName = name
}

func (c *TownController) IsPubliclyListed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isPubliclyListed
}

func (c *TownController) SetPubliclyListed(public bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isPubliclyListed = public
}

// Occupancy is the number of live subscriptions to this town.
func (c *TownController) Occupancy() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners)
}

// Players snapshots the current players as value copies taken under the town
// lock. Callers may read or marshal the result while players keep moving.
func (c *TownController) Players() []domain.Player {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Player, len(c.players))
	for i, p := range c.players {
		out[i] = *p
	}
	return out
}

func (c *TownController) Placeables() []*domain.Placeable {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*domain.Placeable, len(c.placeables))
	copy(out, c.placeables)
	return out
}

// AddPlayer provisions media credentials for a new player and registers the
// player and a new session. The token call happens before the town lock is
// taken; if it fails the join fails atomically and no state is visible to
// listeners.
func (c *TownController) AddPlayer(ctx context.Context, userName string) (*domain.PlayerSession, error) {
	player := &domain.Player{
		ID:       domain.PlayerID(utils.GeneratePlayerID()),
		UserName: userName,
		CanPlace: c.defaultCanPlace,
		Location: domain.UserLocation{Rotation: domain.DirectionFront},
	}

	videoToken, err := c.video.GetTokenForTown(ctx, c.id, player.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to provision media token: %w", err)
	}
	if videoToken == "" {
		return nil, fmt.Errorf("media provider returned an empty token")
	}

	session := &domain.PlayerSession{
		Token:      domain.SessionToken(utils.GenerateSessionToken()),
		Player:     player,
		VideoToken: videoToken,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.players = append(c.players, player)
	c.sessions = append(c.sessions, session)
	for _, listener := range c.listeners {
		listener.OnPlayerJoined(player)
	}

	c.logger.Infow("player joined town",
		"town_id", c.id,
		"player_id", player.ID,
		"user_name", userName,
	)

	return session, nil
}

// DestroySession removes the session's player and notifies listeners of the
// disconnect. A session that was already destroyed is a no-op: listeners are
// notified at most once per logical disconnect.
func (c *TownController) DestroySession(session *domain.PlayerSession) {
	c.mu.Lock()
	defer c.mu.Unlock()

	found := false
	remaining := c.sessions[:0]
	for _, s := range c.sessions {
		if s.Token == session.Token {
			found = true
			continue
		}
		remaining = append(remaining, s)
	}
	if !found {
		return
	}
	c.sessions = remaining

	players := c.players[:0]
	for _, p := range c.players {
		if p.ID == session.Player.ID {
			continue
		}
		players = append(players, p)
	}
	c.players = players

	for _, listener := range c.listeners {
		listener.OnPlayerDisconnected(session.Player)
	}

	c.logger.Infow("player disconnected", "town_id", c.id, "player_id", session.Player.ID)
}

// UpdatePlayerLocation replaces the player's location wholesale and notifies
// listeners. The controller is a relay: it does not validate physical
// plausibility, bounds and collision are a client concern.
func (c *TownController) UpdatePlayerLocation(player *domain.Player, location domain.UserLocation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	player.UpdateLocation(location)
	for _, listener := range c.listeners {
		listener.OnPlayerMoved(player)
	}
}

// SessionByToken returns the live session for a token, if any.
func (c *TownController) SessionByToken(token domain.SessionToken) (*domain.PlayerSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.sessions {
		if s.Token == token {
			return s, true
		}
	}
	return nil, false
}

// AddTownListener subscribes a listener to this town's events. Callers must
// unsubscribe with RemoveTownListener when done.
func (c *TownController) AddTownListener(listener ports.TownListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, listener)
}

// RemoveTownListener unsubscribes a listener. Removal takes effect before the
// next notification round; a listener never registered is a no-op.
func (c *TownController) RemoveTownListener(listener ports.TownListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	remaining := c.listeners[:0]
	for _, l := range c.listeners {
		if l == listener {
			continue
		}
		remaining = append(remaining, l)
	}
	c.listeners = remaining
}

// DisconnectAllPlayers notifies every listener that the town is being
// destroyed. The transport layer is expected to sever those connections.
func (c *TownController) DisconnectAllPlayers() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, listener := range c.listeners {
		listener.OnTownDestroyed()
	}
}

func (c *TownController) findPlaceableLocked(location domain.PlaceableLocation) *domain.Placeable {
	for _, p := range c.placeables {
		if p.Location.Equals(location) {
			return p
		}
	}
	return nil
}

func (c *TownController) placeableInfoLocked(p *domain.Placeable) domain.PlaceableInfo {
	return domain.PlaceableInfo{
		TownID:      c.id,
		PlaceableID: p.PlaceableID,
		Name:        p.Name,
		Location:    p.Location,
		Information: p.Information,
	}
}

// AddPlaceable creates a placeable of an allowed type at an unoccupied cell.
// The first successful writer to a cell wins; a losing concurrent writer gets
// ErrCellOccupied and must not retry automatically.
func (c *TownController) AddPlaceable(placeableID string, location domain.PlaceableLocation, information map[string]string) error {
	if !domain.IsAllowedPlaceable(placeableID) {
		return domain.ErrUnknownPlaceableType
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.findPlaceableLocked(location) != nil {
		return domain.ErrCellOccupied
	}

	placeable := domain.NewPlaceable(placeableID, location, information)
	c.placeables = append(c.placeables, placeable)

	info := c.placeableInfoLocked(placeable)
	for _, listener := range c.listeners {
		listener.OnPlaceableAdded(info)
	}

	c.logger.Infow("placeable added",
		"town_id", c.id,
		"placeable_id", placeableID,
		"x", location.XIndex,
		"y", location.YIndex,
	)
	return nil
}

// DeletePlaceable removes the placeable at a cell. Listeners are notified
// with what is there now, the empty-cell sentinel.
func (c *TownController) DeletePlaceable(location domain.PlaceableLocation) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.findPlaceableLocked(location) == nil {
		return domain.ErrNothingToDelete
	}

	remaining := c.placeables[:0]
	for _, p := range c.placeables {
		if p.Location.Equals(location) {
			continue
		}
		remaining = append(remaining, p)
	}
	c.placeables = remaining

	sentinel := domain.EmptyPlaceableInfo(c.id, location)
	for _, listener := range c.listeners {
		listener.OnPlaceableDeleted(sentinel)
	}

	c.logger.Infow("placeable deleted", "town_id", c.id, "x", location.XIndex, "y", location.YIndex)
	return nil
}

// GetPlaceableAt is total: an unoccupied cell answers with the sentinel.
func (c *TownController) GetPlaceableAt(location domain.PlaceableLocation) domain.PlaceableInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	placeable := c.findPlaceableLocked(location)
	if placeable == nil {
		return domain.EmptyPlaceableInfo(c.id, location)
	}
	return c.placeableInfoLocked(placeable)
}

// UpdatePlayerPermissions bulk-sets placement flags. The batch is validated
// first: duplicate IDs and IDs naming no current player are collected and
// returned, and when any are present no flag changes (all-or-nothing).
func (c *TownController) UpdatePlayerPermissions(specs []domain.PlayerPermissionSpecification) []domain.PlayerID {
	c.mu.Lock()
	defer c.mu.Unlock()

	byID := make(map[domain.PlayerID]*domain.Player, len(c.players))
	for _, p := range c.players {
		byID[p.ID] = p
	}

	seen := make(map[domain.PlayerID]bool, len(specs))
	var badIDs []domain.PlayerID
	for _, spec := range specs {
		if seen[spec.PlayerID] {
			badIDs = append(badIDs, spec.PlayerID)
			continue
		}
		seen[spec.PlayerID] = true
		if _, ok := byID[spec.PlayerID]; !ok {
			badIDs = append(badIDs, spec.PlayerID)
		}
	}
	if len(badIDs) > 0 {
		return badIDs
	}

	for _, spec := range specs {
		byID[spec.PlayerID].CanPlace = spec.CanPlace
	}
	return nil
}

// GetPlayersPermission returns a player's placement flag.
func (c *TownController) GetPlayersPermission(playerID domain.PlayerID) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.players {
		if p.ID == playerID {
			return p.CanPlace, nil
		}
	}
	return false, domain.ErrUnknownPlayer
}
