package cache

import "strings"

const (
	GlobalKeyPrefix = "notesnap"
)

// GenerateCacheKey generates a cache key for a given service, object type, and identifier.
// If paramsKey are provided, they are joined by "_" and appended to the cache key.
func GenerateCacheKey(serviceName, objectType, identifier string, paramsKey ...string) string {
	baseKey := strings.Join([]string{GlobalKeyPrefix, serviceName, objectType, identifier}, ":")
	if len(paramsKey) > 0 {
		return strings.Join([]string{baseKey, strings.Join(paramsKey, "_")}, ":")
	}
	return baseKey
}

// TagListKey holds the JSON tag list of one owner.
func TagListKey(ownerID string) string {
	return GenerateCacheKey("note", "tags", ownerID)
}

// AnswerCheckKey holds a cached verdict for a digest of the checked inputs.
func AnswerCheckKey(digest string) string {
	return GenerateCacheKey("quiz", "check", digest)
}

// RevokedTokenKey marks a token id as logged out until the token expires.
func RevokedTokenKey(tokenID string) string {
	return GenerateCacheKey("auth", "revoked", tokenID)
}
