package pathutil

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Rotation suffix conventions recognized by RotatedSiblings. The patterns
// are anchored to the original basename so unrelated files that merely
// share a prefix are not picked up.
var rotationSuffixes = []*regexp.Regexp{
	regexp.MustCompile(`^\.\d+(?:\.(?:gz|bz2|zip))?$`),  // app.log.1, app.log.2.gz
	regexp.MustCompile(`^\.(?:gz|bz2|zip)$`),            // app.log.gz
	regexp.MustCompile(`^-\d{8}(?:\.(?:gz|bz2|zip))?$`), // app.log-20250101
}

// RotatedSiblings returns files in path's directory that look like rotated
// copies of path: numeric suffixes, compressed-archive suffixes, and
// date-suffixed names. The original file itself is never included. A path
// containing glob metacharacters yields nothing, since "sibling of a
// wildcard" is undefined.
func RotatedSiblings(path string) []string {
	if strings.ContainsAny(path, "*?") {
		return nil
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var siblings []string
	for _, entry := range entries {
		name := entry.Name()
		if name == base || !strings.HasPrefix(name, base) {
			continue
		}
		suffix := name[len(base):]
		for _, re := range rotationSuffixes {
			if re.MatchString(suffix) {
				siblings = append(siblings, filepath.Join(dir, name))
				break
			}
		}
	}
	return siblings
}

// RotationSuffix returns the part of a rotated sibling's basename that
// follows the original basename, e.g. ".1" or "-20250101.gz". Used to
// derive stable names for rotated entries.
func RotationSuffix(original, sibling string) string {
	base := filepath.Base(original)
	sibBase := filepath.Base(sibling)
	if strings.HasPrefix(sibBase, base) {
		return sibBase[len(base):]
	}
	return sibBase
}
