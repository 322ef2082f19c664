// Package cache stores model answers so repeated benchmark runs over the
// same dataset do not pay for identical model calls twice.
//
// # Backends
//
//   - [FileCache]: JSON files under a local directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for runs across machines
//   - [NewNullCache]: caching disabled
//
// # Keys
//
// A [Keyer] derives keys from everything that determines an answer: the
// provider, the model, the exact prompt text and a hash of the image bytes.
// [ScopedKeyer] prefixes keys to separate experiments sharing one backend.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Cache is a byte store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// TTLAnswer is the default lifetime of a cached model answer.
const TTLAnswer = 30 * 24 * time.Hour

// AnswerKeyOpts holds the inputs that determine a model answer.
type AnswerKeyOpts struct {
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	ImageHash string `json:"image_hash"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	// AnswerKey returns the key for a model answer to prompt.
	AnswerKey(prompt string, opts AnswerKeyOpts) string
}

// DefaultKeyer hashes key inputs with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// AnswerKey implements Keyer. The provider and model stay readable so keys
// can be listed per model.
func (DefaultKeyer) AnswerKey(prompt string, opts AnswerKeyOpts) string {
	return hashKey("answer:"+opts.Provider+":"+opts.Model, prompt, opts)
}

// Hash returns the hex SHA-256 of data. Image bytes go through it before
// they become part of a key.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey returns prefix + ":" + the hash of the JSON encoding of parts.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}

// NewNullCache returns a cache that stores nothing. Used for --no-cache.
func NewNullCache() Cache { return nullCache{} }

type nullCache struct{}

func (nullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (nullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (nullCache) Delete(context.Context, string) error                     { return nil }
func (nullCache) Close() error                                             { return nil }
