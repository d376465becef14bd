package analytics

import (
	"fmt"
	"strings"
)

// forbiddenKeys is the deny-list of key fragments that indicate a subject
// identifier or a protected health value. Matching is case-insensitive
// substring matching, so "user_id", "UserID", and "reporterUserId" are all
// caught by "userid".
var forbiddenKeys = []string{
	"userid",
	"personid",
	"email",
	"name",
	"givenname",
	"familyname",
	"glucose",
	"bloodsugar",
	"medication",
	"diagnosis",
}

// ValidatePrivacy walks metadata recursively and returns the paths of all
// keys that match the deny-list, for example "metadata.userId" style paths
// relative to the map root ("userId", "context.userId"). An empty result
// means the metadata is safe to store.
func ValidatePrivacy(metadata map[string]any) []string {
	var violations []string
	walkMetadata(metadata, "", &violations)
	return violations
}

func walkMetadata(value any, prefix string, violations *[]string) {
	switch v := value.(type) {
	case map[string]any:
		for key, nested := range v {
			path := key
			if prefix != "" {
				path = prefix + "." + key
			}
			if keyForbidden(key) {
				*violations = append(*violations, path)
			}
			walkMetadata(nested, path, violations)
		}
	case []any:
		for i, item := range v {
			walkMetadata(item, fmt.Sprintf("%s.%d", prefix, i), violations)
		}
	}
}

func keyForbidden(key string) bool {
	lower := strings.ToLower(key)
	for _, forbidden := range forbiddenKeys {
		if strings.Contains(lower, forbidden) {
			return true
		}
	}
	return false
}
