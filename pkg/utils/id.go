package utils

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const townIDAlphabet = "1234567890ABCDEF"
const townIDLength = 8

// GenerateTownID generates a short, human-friendly town ID.
func GenerateTownID() string {
	b := make([]byte, townIDLength)
	rand.Read(b)
	for i := range b {
		b[i] = townIDAlphabet[int(b[i])%len(townIDAlphabet)]
	}
	return string(b)
}

// GenerateTownPassword generates an unguessable town update password.
func GenerateTownPassword() string {
	b := make([]byte, 18)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// GeneratePlayerID generates a unique player ID.
func GeneratePlayerID() string {
	return uuid.NewString()
}

// GenerateSessionToken generates an unguessable session token.
func GenerateSessionToken() string {
	return uuid.NewString()
}

// GenerateRequestID generates a unique request ID.
func GenerateRequestID() string {
	timestamp := time.Now().UnixNano()
	b := make([]byte, 4)
	rand.Read(b)
	return fmt.Sprintf("req_%d_%s", timestamp, hex.EncodeToString(b))
}
