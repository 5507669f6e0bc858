package domain

type TownID string
type PlayerID string
type SessionToken string

// TownSummary is the public listing entry for a town.
type TownSummary struct {
	TownID           TownID `json:"coveyTownID"`
	FriendlyName     string `json:"friendlyName"`
	CurrentOccupancy int    `json:"currentOccupancy"`
	MaximumOccupancy int    `json:"maximumOccupancy"`
}

// DefaultTownCapacity is the fixed occupancy limit for every town.
const DefaultTownCapacity = 50
