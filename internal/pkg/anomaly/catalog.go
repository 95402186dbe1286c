package anomaly

import (
	"errors"
	"fmt"
)

var (
	//ErrDuplicateSensor is returned when more than one profile is bound to a sensor
	ErrDuplicateSensor = errors.New("sensor already has an anomaly profile")
	//ErrUnknownCategory is returned when a catalog spec names a category that does not exist
	ErrUnknownCategory = errors.New("unknown anomaly category")
	//ErrInvalidProfile is returned for profiles that are missing parameters or would leave a
	//reading unchanged
	ErrInvalidProfile = errors.New("invalid anomaly profile")
)

//Entry binds a profile to a sensor identifier
type Entry struct {
	SensorID string
	Profile  Profile
}

//Catalog maps sensor identifiers to the single profile injected into their real-time series.
//It is built once per run and never changes afterwards.
type Catalog struct {
	profiles map[string]Profile
	order    []string
}

//NewCatalog builds a catalog, refusing nil profiles and sensors bound twice
func NewCatalog(entries ...Entry) (*Catalog, error) {
	c := &Catalog{profiles: make(map[string]Profile, len(entries))}

	for _, e := range entries {
		if e.SensorID == "" {
			return nil, errors.New("anomaly entry without sensor id")
		}
		if e.Profile == nil {
			return nil, fmt.Errorf("anomaly entry for %s has no profile", e.SensorID)
		}
		if _, exists := c.profiles[e.SensorID]; exists {
			return nil, fmt.Errorf("%s: %w", e.SensorID, ErrDuplicateSensor)
		}
		c.profiles[e.SensorID] = e.Profile
		c.order = append(c.order, e.SensorID)
	}

	return c, nil
}

//Lookup returns the profile bound to sensorID. A nil catalog binds nothing.
func (c *Catalog) Lookup(sensorID string) (Profile, bool) {
	if c == nil {
		return nil, false
	}
	p, ok := c.profiles[sensorID]
	return p, ok
}

//SensorIDs lists the bound sensors in the order they were added
func (c *Catalog) SensorIDs() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, len(c.order))
	copy(ids, c.order)
	return ids
}

//Len returns the number of bound sensors
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}
