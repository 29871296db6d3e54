package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidLocation is returned when an invalid location value is provided
var ErrInvalidLocation = errors.New("invalid location value")

// Location represents an immutable warehouse location value object.
// Format: ZONE-AISLE-RACK-LEVEL (e.g., "A-01-R05-L02")
type Location struct {
	locationID string
	zone       string
	aisle      int
	rack       int
	level      int
}

// locationPattern validates location format: ZONE-AISLE-RACK-LEVEL
var locationPattern = regexp.MustCompile(`^([A-Z]{1,2})-(\d{2})-R(\d{2})-L(\d{2})$`)

// NewLocation creates a new Location value object with validation
func NewLocation(locationID string) (Location, error) {
	if locationID == "" {
		return Location{}, ErrInvalidLocation
	}

	matches := locationPattern.FindStringSubmatch(locationID)
	if matches == nil {
		return Location{}, fmt.Errorf("%w: invalid format, expected ZONE-AISLE-RACK-LEVEL", ErrInvalidLocation)
	}

	zone := matches[1]
	aisle, _ := strconv.Atoi(matches[2])
	rack, _ := strconv.Atoi(matches[3])
	level, _ := strconv.Atoi(matches[4])

	if rack < 1 || rack > 99 {
		return Location{}, fmt.Errorf("%w: rack must be between 01 and 99", ErrInvalidLocation)
	}
	if level < 1 || level > 99 {
		return Location{}, fmt.Errorf("%w: level must be between 01 and 99", ErrInvalidLocation)
	}

	return Location{
		locationID: locationID,
		zone:       zone,
		aisle:      aisle,
		rack:       rack,
		level:      level,
	}, nil
}

// ParseLocationOrSimple attempts to parse a full location, or creates a
// simple one carrying just the identifier. Non-standard location codes keep
// working; they sort after structured codes within their zone.
func ParseLocationOrSimple(locationID string) Location {
	loc, err := NewLocation(locationID)
	if err != nil {
		return Location{
			locationID: locationID,
			zone:       extractZonePrefix(locationID),
		}
	}
	return loc
}

// LocationID returns the full location identifier
func (l Location) LocationID() string {
	return l.locationID
}

// Zone returns the zone component
func (l Location) Zone() string {
	return l.zone
}

// Aisle returns the aisle number (0 for non-standard codes)
func (l Location) Aisle() int {
	return l.aisle
}

// Rack returns the rack number
func (l Location) Rack() int {
	return l.rack
}

// Level returns the level number
func (l Location) Level() int {
	return l.level
}

// String returns the string representation of the location
func (l Location) String() string {
	return l.locationID
}

// Equals checks if two locations are equal
func (l Location) Equals(other Location) bool {
	return l.locationID == other.locationID
}

// IsGroundLevel returns true if this location is on ground level (level 01)
func (l Location) IsGroundLevel() bool {
	return l.level == 1
}

// GoldenZoneFit scores how well the location suits a high-turnover SKU.
// Picker-height levels close to the aisle entrance score highest; the value
// is in [0,1].
func (l Location) GoldenZoneFit() float64 {
	if l.aisle == 0 && l.rack == 0 {
		// Non-standard code: no structural information, neutral fit.
		return 0.5
	}

	fit := 1.0

	// Levels 1-2 are reachable without equipment; each level above costs.
	if l.level > 2 {
		fit -= 0.15 * float64(l.level-2)
	}

	// Racks deeper in the aisle cost walk time.
	fit -= 0.02 * float64(l.rack-1)

	if fit < 0 {
		fit = 0
	}
	return fit
}

// TraversalKey returns the serpentine walk-order key for pick-path
// sequencing: zone, then aisle ascending, with rack direction alternating
// per aisle so the picker snakes through without backtracking, then level.
func (l Location) TraversalKey() (string, int, int, int) {
	rack := l.rack
	if l.aisle%2 == 1 {
		rack = 100 - l.rack
	}
	return l.zone, l.aisle, rack, l.level
}

// LessByTraversal reports whether l comes before other on the serpentine
// walk. Ties fall back to lexical location code for determinism.
func (l Location) LessByTraversal(other Location) bool {
	lz, la, lr, ll := l.TraversalKey()
	oz, oa, or, ol := other.TraversalKey()

	if lz != oz {
		return lz < oz
	}
	if la != oa {
		return la < oa
	}
	if lr != or {
		return lr < or
	}
	if ll != ol {
		return ll < ol
	}
	return l.locationID < other.locationID
}

// MarshalText implements encoding.TextMarshaler for JSON/BSON serialization
func (l Location) MarshalText() ([]byte, error) {
	return []byte(l.locationID), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for JSON/BSON deserialization
func (l *Location) UnmarshalText(text []byte) error {
	*l = ParseLocationOrSimple(string(text))
	return nil
}

// extractZonePrefix extracts the first uppercase letter(s) as zone
func extractZonePrefix(s string) string {
	parts := strings.Split(s, "-")
	if len(parts) > 0 && len(parts[0]) > 0 {
		return strings.ToUpper(string(parts[0][0]))
	}
	return ""
}
