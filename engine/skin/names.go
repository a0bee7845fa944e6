package skin

import "strings"

const (
	// PathSeparator splits the segments of a hierarchical node path.
	PathSeparator = "|"
	// NamespaceSeparator splits a namespace prefix from a segment's base name.
	NamespaceSeparator = ":"
)

// NormalizeName strips the namespace prefix of every segment of a node path,
// keeping segment order and separator count: "rig:Group|rig:Jnt1" becomes "Group|Jnt1".
func NormalizeName(path string) string {
	if !strings.Contains(path, NamespaceSeparator) {
		return path
	}
	segments := strings.Split(path, PathSeparator)
	for i, segment := range segments {
		if idx := strings.LastIndex(segment, NamespaceSeparator); idx >= 0 {
			segments[i] = segment[idx+len(NamespaceSeparator):]
		}
	}
	return strings.Join(segments, PathSeparator)
}

// ShortName returns the normalized leaf segment of a node path.
func ShortName(path string) string {
	normalized := NormalizeName(path)
	if idx := strings.LastIndex(normalized, PathSeparator); idx >= 0 {
		return normalized[idx+len(PathSeparator):]
	}
	return normalized
}
