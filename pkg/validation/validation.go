package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// TownIDRegex validates town ID format
	TownIDRegex = regexp.MustCompile(`^[0-9A-F]{8}$`)

	// PlayerIDRegex validates player ID format (UUID)
	PlayerIDRegex = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`)
)

// ValidateFriendlyName validates a town's display name
func ValidateFriendlyName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("friendly name is required")
	}
	if len(name) > 100 {
		return fmt.Errorf("friendly name is too long (max 100 characters)")
	}
	return nil
}

// ValidateUserName validates a joining player's display name
func ValidateUserName(userName string) error {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return fmt.Errorf("user name is required")
	}
	if len(userName) > 50 {
		return fmt.Errorf("user name is too long (max 50 characters)")
	}
	return nil
}

// ValidateTownID validates a town ID
func ValidateTownID(townID string) error {
	if townID == "" {
		return fmt.Errorf("town ID is required")
	}
	if !TownIDRegex.MatchString(townID) {
		return fmt.Errorf("invalid town ID format")
	}
	return nil
}

// ValidatePlaceableID validates a placeable type ID's shape; membership in
// the allow-list is checked by the controller.
func ValidatePlaceableID(placeableID string) error {
	if placeableID == "" {
		return fmt.Errorf("placeable ID is required")
	}
	if len(placeableID) > 50 {
		return fmt.Errorf("placeable ID is too long (max 50 characters)")
	}
	return nil
}
