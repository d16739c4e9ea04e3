package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	keychainService = "toolrack"
	tokenAccount    = "api_token"
)

// Keychain abstracts the platform secret store. macOS uses Keychain via
// the security CLI; other platforms use a secrets file next to the data
// directory.
type Keychain interface {
	Get(service, account string) (string, error)
	Set(service, account, value string) error
}

type platformKeychain struct{}

// NewKeychain returns the platform secret store.
func NewKeychain() Keychain {
	return platformKeychain{}
}

func (platformKeychain) Get(service, account string) (string, error) {
	out, err := keychainGet(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (platformKeychain) Set(service, account, value string) error {
	return keychainSet(service, account, value)
}

// GetAPIToken returns the bearer token shared by server and CLI client,
// generating and storing a fresh one on first use.
func GetAPIToken(kc Keychain) (string, error) {
	if token, err := kc.Get(keychainService, tokenAccount); err == nil && token != "" {
		return token, nil
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	token := hex.EncodeToString(raw)
	if err := kc.Set(keychainService, tokenAccount, token); err != nil {
		return "", fmt.Errorf("storing token: %w", err)
	}
	return token, nil
}
