package backend

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/charmbracelet/log"
)

// GenerateSecret returns a random webhook secret.
func GenerateSecret() string {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		log.Error("unable to generate webhook secret")
		return ""
	}

	return "vcg_" + hex.EncodeToString(buf)
}
