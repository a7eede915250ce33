package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainChart = "ledstory/chart/v1"
	DomainStory = "ledstory/story/v1"
	DomainTrace = "ledstory/trace/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ArtifactID computes the content-addressed ID of a compiled chart spec.
// Two runs over the same inputs produce the same ID.
func ArtifactID(spec any) (string, error) {
	canonical, err := MarshalCanonical(spec)
	if err != nil {
		return "", fmt.Errorf("ArtifactID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainChart, canonical), nil
}

// StoryHash computes the content-addressed ID of a compiled story definition.
func StoryHash(story *Story) (string, error) {
	canonical, err := MarshalCanonical(story)
	if err != nil {
		return "", fmt.Errorf("StoryHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainStory, canonical), nil
}

// TraceHash computes the ID of an interaction trace snapshot.
func TraceHash(trace any) (string, error) {
	canonical, err := MarshalCanonical(trace)
	if err != nil {
		return "", fmt.Errorf("TraceHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTrace, canonical), nil
}

// MustArtifactID is like ArtifactID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustArtifactID(spec any) string {
	id, err := ArtifactID(spec)
	if err != nil {
		panic(err)
	}
	return id
}
