package util

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"path"
	"strings"

	"github.com/google/uuid"
)

var errInvalidFileName = errors.New("invalid file name")

// SanitizeFileName removes path separators and rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errInvalidFileName
	}
	s := strings.TrimSpace(name)
	s = strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(s)
	if s == "" {
		return "", errInvalidFileName
	}
	return s, nil
}

// OwnerPrefix is the storage namespace for one user's objects. User ids never
// appear in object keys.
func OwnerPrefix(owner string) string {
	sum := sha256.Sum256([]byte(owner))
	return hex.EncodeToString(sum[:])
}

// UniqueObjectKey builds a storage key under the owner's namespace. Every
// call yields a new key, so an upload never overwrites another object.
func UniqueObjectKey(owner, fileName string) (string, error) {
	clean, err := SanitizeFileName(fileName)
	if err != nil {
		return "", err
	}
	return path.Join(OwnerPrefix(owner), uuid.NewString()+"_"+clean), nil
}
