package http

import (
	"net/http"
	"strconv"
	"time"

	"townhall/internal/core/domain"
	"townhall/internal/core/ports"
	"townhall/internal/infrastructure/monitoring"
	apperrors "townhall/pkg/errors"
	"townhall/pkg/validation"

	"github.com/gin-gonic/gin"
)

// ResponseEnvelope is the uniform REST response shape. Message is set only on
// failure, Response only on success.
type ResponseEnvelope struct {
	IsOK     bool        `json:"isOK"`
	Message  string      `json:"message,omitempty"`
	Response interface{} `json:"response,omitempty"`
}

type TownHandler struct {
	towns   ports.TownsService
	metrics *monitoring.PrometheusCollector
}

func NewTownHandler(towns ports.TownsService) *TownHandler {
	return &TownHandler{towns: towns}
}

// SetMetricsCollector attaches an optional metrics collector.
func (h *TownHandler) SetMetricsCollector(metrics *monitoring.PrometheusCollector) {
	h.metrics = metrics
}

func (h *TownHandler) recordPlaceableCount(townID domain.TownID) {
	if h.metrics == nil {
		return
	}
	if town, ok := h.towns.ControllerForTown(townID); ok {
		h.metrics.RecordPlaceableCount(townID, len(town.Placeables()))
	}
}

func (h *TownHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/sessions", h.JoinTown)

		api.GET("/towns", h.ListTowns)
		api.POST("/towns", h.CreateTown)
		api.PATCH("/towns/:townID", h.UpdateTown)
		api.DELETE("/towns/:townID/:townPassword", h.DeleteTown)

		api.POST("/placeables/:townID", h.AddPlaceable)
		api.DELETE("/placeables/:townID", h.DeletePlaceable)
		api.GET("/placeables/:townID", h.GetPlaceable)

		api.POST("/towns/:townID/permissions", h.UpdatePlayerPermissions)
		api.GET("/towns/:townID/permissions/:playerID", h.GetPlayersPermission)
	}
}

func respondOK(c *gin.Context, response interface{}) {
	c.JSON(http.StatusOK, ResponseEnvelope{IsOK: true, Response: response})
}

func respondError(c *gin.Context, err error) {
	appErr := apperrors.FromDomainError(err)
	c.JSON(appErr.HTTPStatus, ResponseEnvelope{IsOK: false, Message: appErr.Message})
}

func respondFailure(c *gin.Context, status int, message string) {
	c.JSON(status, ResponseEnvelope{IsOK: false, Message: message})
}

type joinRequest struct {
	UserName string `json:"userName"`
	TownID   string `json:"coveyTownID"`
}

type joinResponse struct {
	PlayerID          domain.PlayerID        `json:"coveyUserID"`
	SessionToken      domain.SessionToken    `json:"coveySessionToken"`
	VideoToken        string                 `json:"providerVideoToken"`
	CurrentPlayers    []domain.Player        `json:"currentPlayers"`
	CurrentPlaceables []domain.PlaceableInfo `json:"currentPlaceables"`
	FriendlyName      string                 `json:"friendlyName"`
	IsPubliclyListed  bool                   `json:"isPubliclyListed"`
}

// JoinTown creates a player session in a town. The media token is provisioned
// before any town state changes, so a token failure leaves the town untouched.
func (h *TownHandler) JoinTown(c *gin.Context) {
	var req joinRequest
	if err := c.BindJSON(&req); err != nil {
		respondFailure(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := validation.ValidateUserName(req.UserName); err != nil {
		respondFailure(c, http.StatusBadRequest, err.Error())
		return
	}

	town, ok := h.towns.ControllerForTown(domain.TownID(req.TownID))
	if !ok {
		if h.metrics != nil {
			h.metrics.RecordJoinFailure()
		}
		respondError(c, domain.ErrUnknownTown)
		return
	}

	start := time.Now()
	session, err := town.AddPlayer(c.Request.Context(), req.UserName)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordJoinFailure()
		}
		respondError(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordJoin(time.Since(start))
	}

	placeables := town.Placeables()
	infos := make([]domain.PlaceableInfo, 0, len(placeables))
	for _, p := range placeables {
		infos = append(infos, domain.PlaceableInfo{
			TownID:      town.ID(),
			PlaceableID: p.PlaceableID,
			Name:        p.Name,
			Location:    p.Location,
			Information: p.Information,
		})
	}

	respondOK(c, joinResponse{
		PlayerID:          session.Player.ID,
		SessionToken:      session.Token,
		VideoToken:        session.VideoToken,
		CurrentPlayers:    town.Players(),
		CurrentPlaceables: infos,
		FriendlyName:      town.FriendlyName(),
		IsPubliclyListed:  town.IsPubliclyListed(),
	})
}

func (h *TownHandler) ListTowns(c *gin.Context) {
	respondOK(c, gin.H{"towns": h.towns.ListTowns()})
}

type createTownRequest struct {
	FriendlyName     string `json:"friendlyName"`
	IsPubliclyListed bool   `json:"isPubliclyListed"`
}

func (h *TownHandler) CreateTown(c *gin.Context) {
	var req createTownRequest
	if err := c.BindJSON(&req); err != nil {
		respondFailure(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := validation.ValidateFriendlyName(req.FriendlyName); err != nil {
		respondFailure(c, http.StatusBadRequest, err.Error())
		return
	}

	town := h.towns.CreateTown(req.FriendlyName, req.IsPubliclyListed)
	if h.metrics != nil {
		h.metrics.RecordTownCreated(town.ID())
	}

	respondOK(c, gin.H{
		"coveyTownID":       town.ID(),
		"coveyTownPassword": town.UpdatePassword(),
	})
}

type updateTownRequest struct {
	Password         string  `json:"coveyTownPassword"`
	FriendlyName     *string `json:"friendlyName"`
	IsPubliclyListed *bool   `json:"isPubliclyListed"`
}

func (h *TownHandler) UpdateTown(c *gin.Context) {
	townID := domain.TownID(c.Param("townID"))

	var req updateTownRequest
	if err := c.BindJSON(&req); err != nil {
		respondFailure(c, http.StatusBadRequest, err.Error())
		return
	}

	if !h.towns.UpdateTown(townID, req.Password, req.FriendlyName, req.IsPubliclyListed) {
		respondFailure(c, http.StatusUnauthorized, "Invalid password or update values specified. Please double check your town update password.")
		return
	}

	respondOK(c, nil)
}

func (h *TownHandler) DeleteTown(c *gin.Context) {
	townID := domain.TownID(c.Param("townID"))
	password := c.Param("townPassword")

	if !h.towns.DeleteTown(townID, password) {
		respondFailure(c, http.StatusUnauthorized, "Invalid password. Please double check your town update password.")
		return
	}
	if h.metrics != nil {
		h.metrics.RecordTownDestroyed(townID)
	}

	respondOK(c, nil)
}

type addPlaceableRequest struct {
	Password    string                   `json:"coveyTownPassword"`
	PlayerID    string                   `json:"playerID"`
	PlaceableID string                   `json:"placeableID"`
	Location    domain.PlaceableLocation `json:"location"`
	Information map[string]string        `json:"objectInformation"`
}

// AddPlaceable places an object at a cell. The caller authorizes with either
// the town password or a player whose placement permission is set.
func (h *TownHandler) AddPlaceable(c *gin.Context) {
	townID := domain.TownID(c.Param("townID"))

	var req addPlaceableRequest
	if err := c.BindJSON(&req); err != nil {
		respondFailure(c, http.StatusBadRequest, err.Error())
		return
	}

	err := h.towns.AddPlaceable(townID, req.Password, domain.PlayerID(req.PlayerID), req.PlaceableID, req.Location, req.Information)
	if err != nil {
		respondError(c, err)
		return
	}
	h.recordPlaceableCount(townID)

	placeable, err := h.towns.GetPlaceable(townID, req.Location)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, placeable)
}

type deletePlaceableRequest struct {
	Password string                   `json:"coveyTownPassword"`
	PlayerID string                   `json:"playerID"`
	Location domain.PlaceableLocation `json:"location"`
}

func (h *TownHandler) DeletePlaceable(c *gin.Context) {
	townID := domain.TownID(c.Param("townID"))

	var req deletePlaceableRequest
	if err := c.BindJSON(&req); err != nil {
		respondFailure(c, http.StatusBadRequest, err.Error())
		return
	}

	err := h.towns.DeletePlaceable(townID, req.Password, domain.PlayerID(req.PlayerID), req.Location)
	if err != nil {
		respondError(c, err)
		return
	}
	h.recordPlaceableCount(townID)

	placeable, err := h.towns.GetPlaceable(townID, req.Location)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, placeable)
}

// GetPlaceable answers "what is at this cell" totally: an unoccupied cell
// yields the empty-cell sentinel, not an error.
func (h *TownHandler) GetPlaceable(c *gin.Context) {
	townID := domain.TownID(c.Param("townID"))

	xIndex, errX := strconv.Atoi(c.Query("xIndex"))
	yIndex, errY := strconv.Atoi(c.Query("yIndex"))
	if errX != nil || errY != nil {
		respondFailure(c, http.StatusBadRequest, "xIndex and yIndex query parameters must be integers")
		return
	}

	placeable, err := h.towns.GetPlaceable(townID, domain.PlaceableLocation{XIndex: xIndex, YIndex: yIndex})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, placeable)
}

type updatePermissionsRequest struct {
	Password string                                 `json:"coveyTownPassword"`
	Updates  []domain.PlayerPermissionSpecification `json:"updates"`
}

// UpdatePlayerPermissions applies a batch of permission changes atomically.
// If any referenced player is unknown or duplicated, no changes are applied
// and the offending IDs are returned.
func (h *TownHandler) UpdatePlayerPermissions(c *gin.Context) {
	townID := domain.TownID(c.Param("townID"))

	var req updatePermissionsRequest
	if err := c.BindJSON(&req); err != nil {
		respondFailure(c, http.StatusBadRequest, err.Error())
		return
	}

	badIDs, err := h.towns.UpdatePlayerPermissions(townID, req.Password, req.Updates)
	if err != nil {
		if len(badIDs) > 0 {
			appErr := apperrors.FromDomainError(err)
			c.JSON(appErr.HTTPStatus, ResponseEnvelope{
				IsOK:     false,
				Message:  appErr.Message,
				Response: gin.H{"rejectedPlayerIDs": badIDs},
			})
			return
		}
		respondError(c, err)
		return
	}

	respondOK(c, nil)
}

func (h *TownHandler) GetPlayersPermission(c *gin.Context) {
	townID := domain.TownID(c.Param("townID"))
	playerID := domain.PlayerID(c.Param("playerID"))

	canPlace, err := h.towns.GetPlayersPermission(townID, playerID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{"canPlace": canPlace})
}
