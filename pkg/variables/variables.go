package variables

import (
	"log"
	"os"
	"strconv"
	"time"
)

const (
	HTTP_PORT_DEFAULT = "8080"
	HTTP_PORT_NAME    = "HTTP_PORT"

	ROOM_CAPACITY_DEFAULT = "50"
	ROOM_CAPACITY_NAME    = "ROOM_CAPACITY"

	// How long an empty room survives before deletion. Zero deletes it
	// the moment the last participant leaves.
	EMPTY_ROOM_GRACE_DEFAULT = "0s"
	EMPTY_ROOM_GRACE_NAME    = "EMPTY_ROOM_GRACE"

	ROOM_REAP_INTERVAL_DEFAULT = "30m"
	ROOM_REAP_INTERVAL_NAME    = "ROOM_REAP_INTERVAL"

	ROOM_IDLE_THRESHOLD_DEFAULT = "2h"
	ROOM_IDLE_THRESHOLD_NAME    = "ROOM_IDLE_THRESHOLD"

	CHAT_HISTORY_LIMIT_DEFAULT = "50"
	CHAT_HISTORY_LIMIT_NAME    = "CHAT_HISTORY_LIMIT"

	CHAT_MAX_LENGTH_DEFAULT = "1000"
	CHAT_MAX_LENGTH_NAME    = "CHAT_MAX_LENGTH"
)

func Env(variableName, defaultValue string) string {
	if variable := os.Getenv(variableName); variable != "" {
		log.Printf("[%s]: %s", variableName, variable)
		return variable
	}
	return defaultValue
}

func ParseInt(value string) (int, error) {
	return strconv.Atoi(value)
}

func ParseDuration(value string) (time.Duration, error) {
	return time.ParseDuration(value)
}

func EnvInt(variableName, defaultValue string) int {
	value, err := ParseInt(Env(variableName, defaultValue))
	if err != nil {
		log.Panicf("[%s]: %s", variableName, err)
	}
	return value
}

func EnvDuration(variableName, defaultValue string) time.Duration {
	value, err := ParseDuration(Env(variableName, defaultValue))
	if err != nil {
		log.Panicf("[%s]: %s", variableName, err)
	}
	return value
}
