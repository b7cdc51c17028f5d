package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SearchRadiusDegrees is the half-width of the bounding box used by location search.
// It is a flat window in degrees, not a geodesic distance.
const SearchRadiusDegrees = 1.0

// ErrInvalidCoordinate is returned when a "lat,lon" string cannot be parsed
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate is a latitude/longitude pair in degrees
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ParseCoordinate parses a single "lat,lon" segment.
// Both components must be finite numbers; anything else is ErrInvalidCoordinate.
func ParseCoordinate(input string) (Coordinate, error) {
	parts := strings.SplitN(input, ",", 2)
	if len(parts) != 2 {
		return Coordinate{}, fmt.Errorf("%w: expected \"lat,lon\", got %q", ErrInvalidCoordinate, input)
	}

	lat, err := ParseDegrees(parts[0])
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: latitude %q", ErrInvalidCoordinate, parts[0])
	}
	lon, err := ParseDegrees(parts[1])
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: longitude %q", ErrInvalidCoordinate, parts[1])
	}

	return Coordinate{Latitude: lat, Longitude: lon}, nil
}

// ParseDegrees parses one finite decimal degree value
func ParseDegrees(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %s", s)
	}
	return v, nil
}

// String formats the coordinate as "lat,lon"
func (c Coordinate) String() string {
	return strconv.FormatFloat(c.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}

// BoundingBox is an axis-aligned latitude/longitude window. Both edges are inclusive.
type BoundingBox struct {
	MinLatitude  float64
	MaxLatitude  float64
	MinLongitude float64
	MaxLongitude float64
}

// boxEpsilon widens every edge so a point exactly radius degrees away in
// decimal still matches after binary rounding of center +/- radius.
const boxEpsilon = 1e-9

// BoxAround returns the window of +/- radius degrees centered on c
func BoxAround(c Coordinate, radius float64) BoundingBox {
	r := radius + boxEpsilon
	return BoundingBox{
		MinLatitude:  c.Latitude - r,
		MaxLatitude:  c.Latitude + r,
		MinLongitude: c.Longitude - r,
		MaxLongitude: c.Longitude + r,
	}
}

// Contains reports whether the point lies inside the box, edges included
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLatitude && lat <= b.MaxLatitude &&
		lon >= b.MinLongitude && lon <= b.MaxLongitude
}
