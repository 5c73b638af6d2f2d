package util

import (
	"path"
	"regexp"
	"strings"
)

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// CleanItemName normalises a client or archive supplied file name into a
// batch key: forward slashes, no control characters, no leading slashes and
// no parent directory components. It returns "" when nothing is left.
func CleanItemName(name string) string {
	name = controlChars.ReplaceAllString(name, "")
	name = strings.ReplaceAll(name, "\\", "/")
	// A drive letter is meaningless once the file left the client.
	if len(name) >= 2 && name[1] == ':' {
		name = name[2:]
	}

	parts := strings.Split(path.Clean("/"+name), "/")
	kept := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || p == "." || p == ".." {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, "/")
}
