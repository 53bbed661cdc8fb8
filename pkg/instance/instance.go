// Package instance names the running process for logs and lock ownership.
package instance

import (
	"os"

	"github.com/angelmondragon/shoppingcart/pkg/env"
)

// ID prefers SHOPPINGCART_INSTANCE_ID, then the platform DYNO name, then the
// hostname, and finally "local".
func ID() string {
	if id := env.First("SHOPPINGCART_INSTANCE_ID", "DYNO"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
