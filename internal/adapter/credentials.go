package adapter

import (
	"os"

	"github.com/arguspanoptes/argus-server/internal/domain"
	domainerrors "github.com/arguspanoptes/argus-server/internal/errors"
)

// credentials resolves the API key pair for an authenticated adapter. The
// config names environment variables; only the names ever appear in error
// messages.
func credentials(cfg domain.AdapterConfig) (key, secret string, err error) {
	if cfg.ClientKeyEnvVar == "" || cfg.ClientSecretEnvVar == "" {
		return "", "", domainerrors.Auth("adapter config names no credential variables")
	}
	key = os.Getenv(cfg.ClientKeyEnvVar)
	if key == "" {
		return "", "", domainerrors.Auth("credential variable " + cfg.ClientKeyEnvVar + " is not set")
	}
	secret = os.Getenv(cfg.ClientSecretEnvVar)
	if secret == "" {
		return "", "", domainerrors.Auth("credential variable " + cfg.ClientSecretEnvVar + " is not set")
	}
	return key, secret, nil
}
