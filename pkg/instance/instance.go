package instance

import (
	"os"

	"github.com/angelmondragon/solarpo-backend/pkg/env"
)

// GetID identifies this process in logs. SOLARPO_INSTANCE_ID wins, then the
// platform dyno name, then the host name.
func GetID(service string) string {
	if id := env.First("SOLARPO_INSTANCE_ID", "DYNO"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return service + "@" + host
	}
	return service + "-0"
}
