package redis

import (
	"crypto/sha256"
	"encoding/hex"
)

const (
	// KeyPrefixThumbnail prefixes resolved preview URLs, keyed by source URL hash.
	KeyPrefixThumbnail = "marks:thumb:"
	// KeyPrefixCollection prefixes per-owner collection snapshots.
	KeyPrefixCollection = "marks:collection:"
)

// ThumbnailKey hashes the source URL so arbitrary URLs make safe, bounded keys.
func ThumbnailKey(sourceURL string) string {
	sum := sha256.Sum256([]byte(sourceURL))
	return KeyPrefixThumbnail + hex.EncodeToString(sum[:])
}

// CollectionKey returns the snapshot key of an owner.
func CollectionKey(owner string) string {
	return KeyPrefixCollection + owner
}
