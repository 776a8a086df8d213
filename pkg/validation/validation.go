package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// RoomIDRegex validates room id format
	RoomIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// ViewerIDRegex validates viewer id format
	ViewerIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// ValidateRoomID validates room id format at the edge, before any command
// reaches a handler.
func ValidateRoomID(id string) error {
	if id == "" {
		return fmt.Errorf("room id is required")
	}
	if len(id) > 100 {
		return fmt.Errorf("room id is too long (max 100 characters)")
	}
	if !RoomIDRegex.MatchString(id) {
		return fmt.Errorf("room id contains invalid characters (only letters, numbers, _, - allowed)")
	}
	return nil
}

// ValidateViewerID validates viewer id format.
func ValidateViewerID(id string) error {
	if id == "" {
		return fmt.Errorf("viewer id is required")
	}
	if len(id) > 100 {
		return fmt.Errorf("viewer id is too long (max 100 characters)")
	}
	if !ViewerIDRegex.MatchString(id) {
		return fmt.Errorf("viewer id contains invalid characters (only letters, numbers, _, - allowed)")
	}
	return nil
}

// ValidateUsername validates a display name.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if len(username) > 50 {
		return fmt.Errorf("username is too long (max 50 characters)")
	}
	return nil
}
