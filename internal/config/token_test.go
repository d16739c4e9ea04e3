package config

import (
	"errors"
	"testing"
)

// fakeKeychain is a test double for the Keychain interface.
type fakeKeychain struct {
	values map[string]string
	getErr error
}

func newFakeKeychain() *fakeKeychain {
	return &fakeKeychain{values: make(map[string]string)}
}

func (f *fakeKeychain) Get(service, account string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	return f.values[service+"/"+account], nil
}

func (f *fakeKeychain) Set(service, account, value string) error {
	f.values[service+"/"+account] = value
	return nil
}

func TestGetAPITokenGeneratesOnce(t *testing.T) {
	kc := newFakeKeychain()

	first, err := GetAPIToken(kc)
	if err != nil {
		t.Fatalf("GetAPIToken: %v", err)
	}
	if len(first) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(first))
	}

	second, err := GetAPIToken(kc)
	if err != nil {
		t.Fatalf("GetAPIToken: %v", err)
	}
	if first != second {
		t.Error("second call generated a new token instead of reusing the stored one")
	}
}

func TestGetAPITokenRegeneratesAfterGetError(t *testing.T) {
	kc := newFakeKeychain()
	kc.getErr = errors.New("keychain locked")

	token, err := GetAPIToken(kc)
	if err != nil {
		t.Fatalf("GetAPIToken: %v", err)
	}
	if token == "" {
		t.Error("no token generated when the stored one is unreadable")
	}
}

func TestGetAPITokenUsesExisting(t *testing.T) {
	kc := newFakeKeychain()
	kc.values["toolrack/api_token"] = "preset-token"

	token, err := GetAPIToken(kc)
	if err != nil {
		t.Fatalf("GetAPIToken: %v", err)
	}
	if token != "preset-token" {
		t.Errorf("token = %q, want preset-token", token)
	}
}
