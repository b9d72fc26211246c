// Package fingerprint derives deterministic cache keys from extraction
// requests. Two requests yield the same fingerprint exactly when every
// response-determining input matches; sampling temperature is deliberately
// outside the key so cached answers survive temperature tuning.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/docentlabs/docent/internal/providers"
)

// Fingerprint is a lowercase hex SHA-256 digest.
type Fingerprint string

func (f Fingerprint) String() string { return string(f) }

// separator joins the canonical parts. It cannot appear inside a hex digest
// or JSON-escaped content, so part boundaries are unambiguous.
const separator = "||"

// Compute derives the fingerprint for a request. File parts contribute
// their content digest, never their path, so renamed or relocated files
// still hit the cache.
func Compute(req *providers.Request) (Fingerprint, error) {
	content, err := canonicalContent(req)
	if err != nil {
		return "", err
	}

	schemaKey := "none"
	if req.Schema != nil {
		schemaKey = req.Schema.Key
	}

	parts := []string{
		req.Provider,
		req.Model,
		req.System,
		content,
		strconv.Itoa(req.MaxTokens),
		schemaKey,
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, separator)))
	return Fingerprint(hex.EncodeToString(sum[:])), nil
}

// canonicalContent serializes the content parts as a JSON array of
// {kind, value} pairs. JSON encoding escapes any separator bytes inside
// part text, keeping the overall key injective.
func canonicalContent(req *providers.Request) (string, error) {
	type canonicalPart struct {
		Kind  string `json:"kind"`
		Value string `json:"value"`
	}
	parts := make([]canonicalPart, 0, len(req.Content))
	for _, p := range req.Content {
		parts = append(parts, canonicalPart{Kind: p.Kind(), Value: p.Canonical()})
	}
	encoded, err := json.Marshal(parts)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize content: %w", err)
	}
	return string(encoded), nil
}
