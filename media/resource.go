package media

import (
	"path/filepath"
	"strings"
)

// Resource is an opaque handle to a playable audio source: a file path or a
// built-in generated sound.
type Resource string

// Tone1900 is the generated 1-second 1900 Hz VOX trigger tone.
const Tone1900 Resource = "builtin:tone-1900hz"

const builtinScheme = "builtin:"

// IsBuiltin reports whether the resource is generated rather than read from disk.
func (r Resource) IsBuiltin() bool {
	return strings.HasPrefix(string(r), builtinScheme)
}

// Name returns a short display name for the resource.
func (r Resource) Name() string {
	s := string(r)
	if r.IsBuiltin() {
		return strings.ReplaceAll(strings.TrimPrefix(s, builtinScheme), "-", "_")
	}
	if s == "" {
		return "audio"
	}
	name := filepath.Base(s)
	if i := strings.LastIndex(name, ":"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "audio"
	}
	return name
}

func (r Resource) String() string {
	return string(r)
}

// Resources converts plain paths into resource handles.
func Resources(paths []string) []Resource {
	out := make([]Resource, len(paths))
	for i, p := range paths {
		out[i] = Resource(p)
	}
	return out
}
