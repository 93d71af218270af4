// Package auth provides a high-level API for persisting and retrieving credentials from the system keyring.
package auth

import (
	"github.com/spf13/viper"
	"github.com/stashsurf-cli/stashsurf/key"
	"github.com/zalando/go-keyring"
)

const (
	service = "stashsurf-cli"
	user    = "stash-api-key"
)

// SetAPIKey persists the media server API key to the system keyring.
func SetAPIKey(apiKey string) error {
	return keyring.Set(service, user, apiKey)
}

// APIKey resolves the media server API key.
// The system keyring takes precedence when enabled; the config value is the fallback.
func APIKey() string {
	if viper.GetBool(key.ServerUseKeyring) {
		if k, err := keyring.Get(service, user); err == nil && k != "" {
			return k
		}
	}
	return viper.GetString(key.ServerAPIKey)
}

// DeleteAPIKey removes the media server API key from the system keyring.
func DeleteAPIKey() error {
	return keyring.Delete(service, user)
}
