package utils

import (
	"fmt"
	"path"
	"strings"
)

// ArchiveEntryName returns a zip entry name unique within taken,
// suffixing duplicates with " (n)" before the extension. The map tracks
// names already handed out and must be reused across one archive.
func ArchiveEntryName(taken map[string]int, name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || name == "." || name == "/" {
		name = "file"
	}
	if taken[name] == 0 {
		taken[name] = 1
		return name
	}

	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := taken[name]; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, n, ext)
		if taken[candidate] == 0 {
			taken[name] = n + 1
			taken[candidate] = 1
			return candidate
		}
	}
}
