package redisctl

import (
	"crypto/sha256"
	"encoding/hex"
)

const ContainerNamePrefix = "docent-redis-"

// GenerateContainerName derives a container name unique to a home
// directory, so parallel installations do not fight over one container.
func GenerateContainerName(homePath string) string {
	sum := sha256.Sum256([]byte(homePath))
	return ContainerNamePrefix + hex.EncodeToString(sum[:])[:8]
}
