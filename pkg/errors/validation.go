package errors

import (
	"strings"
	"unicode"
)

// ValidateAttrName validates an attribute name declared by a plugin or given
// on the command line.
//
// Attribute names appear inside generator commands ("#10;age_rand_3") and CSV
// headers, so the rules keep both grammars unambiguous:
//   - No empty names
//   - No control characters or whitespace
//   - No '_' (clause separator), ';' (command separator) or ',' (CSV separator)
//   - Maximum length of 128 characters
func ValidateAttrName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "attribute name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "attribute name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "attribute name %q contains whitespace or control characters", name)
		}
	}

	if i := strings.IndexAny(name, "_;,"); i >= 0 {
		return New(ErrCodeInvalidInput, "attribute name %q contains reserved character %q", name, name[i])
	}

	return nil
}

// ValidatePluginID validates a plugin identifier. Ids are lower-case letters,
// digits and dashes, starting with a letter.
func ValidatePluginID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "plugin id cannot be empty")
	}

	for i, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case (r >= '0' && r <= '9') || r == '-':
			if i == 0 {
				return New(ErrCodeInvalidInput, "plugin id %q must start with a letter", id)
			}
		default:
			return New(ErrCodeInvalidInput, "plugin id %q may only contain a-z, 0-9 and '-'", id)
		}
	}

	return nil
}

// ValidateOutputPath validates a path the simulator is asked to write to.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}
