package services

import "time"

// nowRFC3339 returns the current UTC time in the RFC3339 form used for all
// persisted timestamps.
func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
