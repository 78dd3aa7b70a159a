// Package conditions decides whether motion may be reported at a given
// moment.
package conditions

import (
	"errors"
	"time"

	"github.com/cjsmocjsmo/streamserverclient/src/models"
)

var ErrOutsideTimeWindow = errors.New("time interval not valid")

func Validate(now time.Time, config *models.Config) (valid bool, err error) {
	valid = true
	if !IsWithinTimeInterval(now, config) {
		valid = false
		err = ErrOutsideTimeWindow
	}
	return
}

// Gate returns a function the detector of camera calls before reporting
// motion. The time window is checked first, the condition uri only inside
// of it.
func Gate(config *models.Config, camera *models.CameraConfig) func(time.Time) bool {
	loc := Location(config.Timezone)
	uri := NewURICondition(config, camera)
	return func(now time.Time) bool {
		if valid, _ := Validate(now.In(loc), config); !valid {
			return false
		}
		return uri.Valid(now)
	}
}

// Location loads the configured timezone, local time when it is unknown.
func Location(timezone string) *time.Location {
	if timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
