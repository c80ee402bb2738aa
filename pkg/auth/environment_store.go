package auth

import (
	"os"
	"time"
)

// TokenEnv names the variable the environment store reads
const TokenEnv = "TWSCRAPER_BEARER_TOKEN"

// EnvironmentStore is a read-only store backed by TWSCRAPER_BEARER_TOKEN.
// It holds at most one account, named default.
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (e *EnvironmentStore) Store(*Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment token under the requested name
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	token := os.Getenv(TokenEnv)
	if token == "" {
		return nil, ErrCredentialsNotFound
	}
	if name == "" {
		name = DefaultAccountName
	}
	if name != DefaultAccountName {
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		Name:         name,
		BearerToken:  token,
		LastModified: time.Now(),
	}, nil
}

func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

func (e *EnvironmentStore) Delete(string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(name string) bool {
	_, err := e.Retrieve(name)
	return err == nil
}
