package conditions

import (
	"time"

	"github.com/cjsmocjsmo/streamserverclient/src/log"
	"github.com/cjsmocjsmo/streamserverclient/src/models"
)

// IsWithinTimeInterval checks now against the timetable of its weekday.
// Without timetable, or with time set to "false", motion is always allowed.
func IsWithinTimeInterval(now time.Time, config *models.Config) (enabled bool) {
	enabled = true
	if config.Time == "false" || config.Time == "" {
		return
	}
	if len(config.Timetable) <= int(now.Weekday()) {
		return
	}
	timeInterval := config.Timetable[int(now.Weekday())]
	if timeInterval == nil {
		return
	}
	currentTimeInSeconds := now.Hour()*60*60 + now.Minute()*60 + now.Second()
	if (currentTimeInSeconds >= timeInterval.Start1 && currentTimeInSeconds <= timeInterval.End1) ||
		(currentTimeInSeconds >= timeInterval.Start2 && currentTimeInSeconds <= timeInterval.End2) {
		log.Log.Debug("conditions.timewindow.IsWithinTimeInterval(): time interval valid, reporting motion.")
	} else {
		log.Log.Debug("conditions.timewindow.IsWithinTimeInterval(): time interval not valid, ignoring motion.")
		enabled = false
	}
	return
}
