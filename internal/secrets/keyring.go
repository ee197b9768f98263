// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Saucier Contributors

package secrets

import (
	"errors"

	saucierr "github.com/saucier-dev/saucier/pkg/errors"
	"github.com/zalando/go-keyring"
)

// KeyringStore implements Store using the OS keyring via zalando/go-keyring.
// On macOS it uses Keychain, on Linux secret-service (D-Bus), and on Windows
// the Credential Manager.
type KeyringStore struct{}

// NewKeyringStore returns a KeyringStore.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

func (s *KeyringStore) Store(service, key, value string) error {
	if service == "" {
		return saucierr.New(saucierr.CodeSecretInvalidInput, "secret store: service must not be empty")
	}
	if key == "" {
		return saucierr.New(saucierr.CodeSecretInvalidInput, "secret store: key must not be empty")
	}

	if err := keyring.Set(service, key, value); err != nil {
		return saucierr.Wrapf(err, saucierr.CodeSecretStoreFailure, "storing secret %s/%s", service, key)
	}
	return nil
}

func (s *KeyringStore) Retrieve(service, key string) (string, error) {
	if service == "" {
		return "", saucierr.New(saucierr.CodeSecretInvalidInput, "secret retrieve: service must not be empty")
	}
	if key == "" {
		return "", saucierr.New(saucierr.CodeSecretInvalidInput, "secret retrieve: key must not be empty")
	}

	val, err := keyring.Get(service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", saucierr.Errorf(saucierr.CodeSecretNotFound, "secret %s/%s not found", service, key)
		}
		return "", saucierr.Wrapf(err, saucierr.CodeSecretStoreFailure, "retrieving secret %s/%s", service, key)
	}
	return val, nil
}

func (s *KeyringStore) Delete(service, key string) error {
	if service == "" {
		return saucierr.New(saucierr.CodeSecretInvalidInput, "secret delete: service must not be empty")
	}
	if key == "" {
		return saucierr.New(saucierr.CodeSecretInvalidInput, "secret delete: key must not be empty")
	}

	if err := keyring.Delete(service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return saucierr.Errorf(saucierr.CodeSecretNotFound, "secret %s/%s not found", service, key)
		}
		return saucierr.Wrapf(err, saucierr.CodeSecretDeleteFailure, "deleting secret %s/%s", service, key)
	}
	return nil
}
