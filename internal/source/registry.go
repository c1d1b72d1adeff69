package source

import (
	"strings"

	"github.com/pkg/errors"
)

// OpenFunc opens a specific source type from the path component of its
// spec string.
type OpenFunc func(path string) (Source, error)

var registry = map[string]OpenFunc{}

// Register makes a source type available under the given tag. Called from
// an init function in the file implementing the source.
func Register(tag string, open OpenFunc) {
	registry[tag] = open
}

// Open resolves a "tag:path" spec string against the registry. The path
// format is up to the registered OpenFunc; a spec with no colon has an
// empty path.
func Open(spec string) (Source, error) {
	tag, path := spec, ""
	if i := strings.IndexByte(spec, ':'); i >= 0 {
		tag, path = spec[:i], spec[i+1:]
	}

	open, ok := registry[tag]
	if !ok {
		return nil, errors.Errorf("source type %q not registered", tag)
	}
	return open(path)
}
