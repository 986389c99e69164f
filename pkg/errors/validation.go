package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidatePackageName validates a package name for safety and correctness.
// It rejects names that could be used for path traversal when the name is
// turned into a work directory:
//   - No empty names
//   - No control characters
//   - No path traversal sequences (.., //, etc.)
//   - Maximum length of 214 characters (npm's limit)
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}

	if len(name) > 214 {
		return New(ErrCodeInvalidPackage, "package name too long (max 214 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPackage, "package name contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "//", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// npmPackageNameRegex matches valid npm package names.
var npmPackageNameRegex = regexp.MustCompile(`^(@[a-z0-9-~][a-z0-9-._~]*/)?[a-z0-9-~][a-z0-9-._~]*$`)

// ValidateNpmPackageName validates an npm package name.
func ValidateNpmPackageName(name string) error {
	if err := ValidatePackageName(name); err != nil {
		return err
	}

	if strings.ToLower(name) != name {
		return New(ErrCodeInvalidPackage, "npm package names must be lowercase: %q", name)
	}

	if !npmPackageNameRegex.MatchString(name) {
		return New(ErrCodeInvalidPackage, "invalid npm package name: %q", name)
	}

	return nil
}

// scopeNameRegex matches an npm scope without its leading "@".
var scopeNameRegex = regexp.MustCompile(`^[a-z0-9-~][a-z0-9-._~]*$`)

// ValidateScopeName validates a target scope given without the "@" delimiter.
func ValidateScopeName(scope string) error {
	if scope == "" {
		return New(ErrCodeInvalidInput, "scope name cannot be empty")
	}
	if strings.Contains(scope, "@") {
		return New(ErrCodeInvalidInput, "do not include @ in the scope name: %q", scope)
	}
	if !scopeNameRegex.MatchString(scope) {
		return New(ErrCodeInvalidInput, "invalid scope name: %q", scope)
	}
	return nil
}
