package route

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// ShortHash returns a short, stable, identifier-safe digest of s.
// It is a change-insensitive label, not a content address.
func ShortHash(s string) string {
	return strconv.FormatUint(uint64(uint32(xxhash.Sum64String(s))), 36)
}
