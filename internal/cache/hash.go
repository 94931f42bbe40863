package cache

import (
	"os"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// FormatVersion tags every hash. Changing it invalidates all records.
const FormatVersion = "kosmo-cache/1"

// HashFile hashes the content of file together with the format version and
// extra context. A missing, unreadable or empty file hashes to 0.
func HashFile(file string, extra map[string]string) uint64 {
	content, err := os.ReadFile(file)
	if err != nil || len(content) == 0 {
		return 0
	}
	return HashContent(content, extra)
}

// HashContent hashes content the way HashFile does.
func HashContent(content []byte, extra map[string]string) uint64 {
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	d := xxhash.New()
	_, _ = d.WriteString(FormatVersion)
	_, _ = d.Write([]byte{0})
	for _, k := range keys {
		_, _ = d.WriteString(k)
		_, _ = d.Write([]byte{'='})
		_, _ = d.WriteString(extra[k])
		_, _ = d.Write([]byte{0})
	}
	_, _ = d.Write(content)
	return d.Sum64()
}
