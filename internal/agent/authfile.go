package agent

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DeviceAuth is the device credential persisted between agent restarts.
type DeviceAuth struct {
	ClientID    string  `json:"client_id"`
	DeviceCode  string  `json:"device_code"`
	AccessToken *string `json:"access_token"`
}

// ReadDeviceAuth loads the credential file at path.
func ReadDeviceAuth(path string) (DeviceAuth, error) {
	var auth DeviceAuth
	data, err := os.ReadFile(path)
	if err != nil {
		return auth, err
	}
	if err := json.Unmarshal(data, &auth); err != nil {
		return auth, fmt.Errorf("parse %s: %w", path, err)
	}
	return auth, nil
}

// writeDeviceAuth replaces the credential file atomically. The file holds a
// bearer token, so it is only readable by its owner.
func writeDeviceAuth(path string, auth DeviceAuth) error {
	data, err := json.MarshalIndent(auth, "", "  ")
	if err != nil {
		return fmt.Errorf("encode device auth: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".device-auth-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write device auth: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod device auth: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close device auth: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
