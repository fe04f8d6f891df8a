package auth

import (
	"os"
	"strings"
	"time"
)

// EnvironmentStore reads credentials from environment variables.
// It is read-only: Store and Delete are not supported.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// envVarForService maps a service name to its conventional API key variable
func envVarForService(service string) string {
	switch service {
	case "groq":
		return "GROQ_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	default:
		return strings.ToUpper(service) + "_API_KEY"
	}
}

// Store is not supported for environment variables
func (s *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

// Retrieve gets a credential from environment variables
func (s *EnvironmentStore) Retrieve(service string) (*Credential, error) {
	key := os.Getenv(envVarForService(service))
	if key == "" {
		return nil, ErrCredentialsNotFound
	}

	return &Credential{
		Service:      service,
		APIKey:       key,
		LastModified: time.Now(),
	}, nil
}

// Delete is not supported for environment variables
func (s *EnvironmentStore) Delete(service string) error {
	return ErrStoreUnavailable
}

// Exists checks if the credential variable is set
func (s *EnvironmentStore) Exists(service string) bool {
	return os.Getenv(envVarForService(service)) != ""
}
