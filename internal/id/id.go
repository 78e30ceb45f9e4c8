// Package id generates the server-assigned identifiers used for users, notes and tags.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for each entity kind. A prefix makes an ID self-describing in
// logs ("note-V1StGXR8_Z5jdHi6B-myT").
const (
	PrefixUser  = "user"
	PrefixNote  = "note"
	PrefixTag   = "tag"
	PrefixToken = "token"
)

// Generate returns prefix + "-" + a 21 character URL-safe NanoID.
func Generate(prefix string) (string, error) {
	nid, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + nid, nil
}

// MustGenerate is like Generate but panics when the system has no entropy.
func MustGenerate(prefix string) string {
	v, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return v
}
