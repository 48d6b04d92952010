package auth

import (
	"crypto/rand"
	"fmt"
	"os"
)

// keySize is the length of the generated HMAC signing key.
const keySize = 32

// LoadOrCreateKey reads the signing key from path, generating and
// persisting a fresh random one on first start if the file doesn't exist
// yet (spec.md §6: "restarting without the key invalidates all
// outstanding tokens" implies the key itself must survive a restart).
// Grounded on gameserver.generateBlowfishKey's rand.Read-then-use shape,
// extended with the load-if-present half NewSigner's doc comment assigns
// to the caller.
func LoadOrCreateKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) == 0 {
			return nil, fmt.Errorf("auth: key file %q is empty", path)
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading signing key %q: %w", path, err)
	}

	key = make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating signing key: %w", err)
	}
	if err := os.WriteFile(path, key, 0o600); err != nil {
		return nil, fmt.Errorf("persisting signing key %q: %w", path, err)
	}
	return key, nil
}
