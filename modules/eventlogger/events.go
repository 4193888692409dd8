package eventlogger

import (
	"strings"

	"github.com/GoCodeAlone/folio"
)

const (
	levelDebug = "debug"
	levelInfo  = "info"
	levelWarn  = "warn"
	levelError = "error"
)

var levels = map[string]int{
	levelDebug: 0,
	levelInfo:  1,
	levelWarn:  2,
	levelError: 3,
}

// infoSuffixes mark state changes worth seeing at the default level.
var infoSuffixes = []string{
	".started",
	".stopped",
	".succeeded",
	".created",
	".updated",
	".deleted",
	".seeded",
	".reloaded",
}

// eventLevel maps an event type to the level it is logged at.
func eventLevel(eventType string, infoTypes []string) string {
	switch {
	case eventType == folio.EventTypeApplicationFailed:
		return levelError
	case strings.HasSuffix(eventType, ".failed"), strings.HasSuffix(eventType, ".error"):
		return levelWarn
	}
	for _, t := range infoTypes {
		if t == eventType {
			return levelInfo
		}
	}
	for _, suffix := range infoSuffixes {
		if strings.HasSuffix(eventType, suffix) {
			return levelInfo
		}
	}
	return levelDebug
}

func shouldLogLevel(eventLevel, minLevel string) bool {
	event, ok1 := levels[eventLevel]
	minimum, ok2 := levels[minLevel]
	if !ok1 || !ok2 {
		return true
	}
	return event >= minimum
}
