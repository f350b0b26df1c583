package file

import (
	"fmt"
	"path"
	"strings"
)

const (
	pathSeparator = "/"
	maxKeyLength  = 255
	maxNameLength = 150
)

// PathPolicy tunes the validation applied after a key is resolved.
type PathPolicy struct {
	RejectUnsafe bool
}

// ResolvePath turns a user-supplied path and the uploaded filename into the
// canonical storage key and the display name. userScope must come from the
// authenticated identity.
//
//	""                 -> scope/filename, filename
//	"docs/"            -> scope/docs/filename, filename
//	"archive/final.pdf" -> scope/archive/final.pdf, final.pdf
func ResolvePath(userScope, requestedPath, uploadedFilename string) (string, string) {
	switch {
	case requestedPath == "":
		return userScope + pathSeparator + uploadedFilename, uploadedFilename
	case strings.HasSuffix(requestedPath, pathSeparator):
		return userScope + pathSeparator + requestedPath + uploadedFilename, uploadedFilename
	default:
		return userScope + pathSeparator + requestedPath, path.Base(requestedPath)
	}
}

// Resolve applies ResolvePath and then the policy checks.
func (p PathPolicy) Resolve(userScope, requestedPath, uploadedFilename string) (string, string, error) {
	key, name := ResolvePath(userScope, requestedPath, uploadedFilename)
	if !p.RejectUnsafe {
		return key, name, nil
	}

	if userScope == "" || strings.Contains(userScope, pathSeparator) {
		return "", "", fmt.Errorf("%w: bad user scope", ErrInvalidPath)
	}
	if name == "" || name == "." || name == ".." || strings.Contains(name, pathSeparator) {
		return "", "", fmt.Errorf("%w: bad file name %q", ErrInvalidPath, name)
	}
	if len(key) > maxKeyLength || len(name) > maxNameLength {
		return "", "", fmt.Errorf("%w: path too long", ErrInvalidPath)
	}
	if strings.HasPrefix(requestedPath, pathSeparator) {
		return "", "", fmt.Errorf("%w: absolute path %q", ErrInvalidPath, requestedPath)
	}
	if strings.ContainsAny(key, "\\\x00") {
		return "", "", fmt.Errorf("%w: forbidden character", ErrInvalidPath)
	}
	for _, segment := range strings.Split(strings.TrimPrefix(key, userScope+pathSeparator), pathSeparator) {
		switch segment {
		case "", ".", "..":
			return "", "", fmt.Errorf("%w: segment %q in %q", ErrInvalidPath, segment, key)
		}
	}
	return key, name, nil
}
