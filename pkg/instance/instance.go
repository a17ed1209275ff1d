package instance

import (
	"os"

	"github.com/angelmondragon/storefront-cart/pkg/env"
)

// GetID identifies this worker replica in logs. It prefers
// STOREFRONT_WORKER_ID, then HOSTNAME, then the OS hostname.
func GetID() string {
	if id, ok := env.First("STOREFRONT_WORKER_ID", "HOSTNAME"); ok {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
