package rooms

import (
	"errors"
	"strings"
)

// AppType identifies the application surface a connection or notification
// belongs to. It partitions the entire addressing space: every room, connection
// and target carries exactly one AppType.
type AppType string

const (
	AppCustomer AppType = "customer"
	AppDriver   AppType = "driver"
)

// ErrInvalidAppType is returned when a value is not a recognized surface.
var ErrInvalidAppType = errors.New("rooms: invalid app type")

// ParseAppType converts a wire value ("CUSTOMER", "driver", ...) into an
// AppType. Matching is case-insensitive.
func ParseAppType(s string) (AppType, error) {
	switch AppType(strings.ToLower(strings.TrimSpace(s))) {
	case AppCustomer:
		return AppCustomer, nil
	case AppDriver:
		return AppDriver, nil
	default:
		return "", ErrInvalidAppType
	}
}

// Valid reports whether the AppType is one of the recognized surfaces.
func (a AppType) Valid() bool {
	return a == AppCustomer || a == AppDriver
}

// String returns the lowercase surface name used as the room prefix.
func (a AppType) String() string {
	return string(a)
}

// Upper returns the canonical uppercase wire form ("CUSTOMER", "DRIVER").
func (a AppType) Upper() string {
	return strings.ToUpper(string(a))
}

// AppTypes returns both surfaces in a stable order. System-wide operations fan
// out into one independent operation per entry.
func AppTypes() []AppType {
	return []AppType{AppCustomer, AppDriver}
}
