package hipaa

import (
	"encoding/hex"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/medicinia/medicinia/internal/platform/kv"
)

// ProtectStore wraps store so every value is encrypted at rest.
//
// If key is empty, encryption is disabled and store is returned unchanged
// with a warning. Otherwise key must be a 64-character hex string encoding a
// 32-byte AES-256 key; an invalid key is an error so the engine refuses to
// start with a misconfigured key.
func ProtectStore(store kv.Store, key string, logger zerolog.Logger) (kv.Store, error) {
	if key == "" {
		logger.Warn().Msg("PHI encryption disabled: PHI_ENCRYPTION_KEY is not set")
		return store, nil
	}

	keyBytes, err := hex.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("PHI_ENCRYPTION_KEY is not valid hex: %w", err)
	}
	if len(keyBytes) != 32 {
		return nil, fmt.Errorf("PHI_ENCRYPTION_KEY must be 32 bytes (64 hex chars), got %d bytes", len(keyBytes))
	}

	enc, err := NewPHIEncryptor(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("create PHI encryptor: %w", err)
	}

	logger.Info().Msg("PHI encryption at rest enabled")
	return kv.NewEncryptedStore(store, enc), nil
}
