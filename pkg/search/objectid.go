package search

import "regexp"

// Backend object ids are 24 hex characters. A query shaped like one is
// routed straight to the object lookup and never to the fuzzy index.
var objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// IsObjectID reports whether s is a syntactically valid object id.
func IsObjectID(s string) bool {
	return objectIDPattern.MatchString(s)
}
