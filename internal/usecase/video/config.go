package video

import (
	"sort"
	"strings"
)

const MaxFileSize = 500 * 1024 * 1024 // 500 MiB

var allowedExtensions = map[string]bool{
	".mp4": true,
	".mov": true,
	".avi": true,
	".mkv": true,
}

var allowedMimeTypes = map[string]bool{
	"video/mp4":        true,
	"video/quicktime":  true,
	"video/x-msvideo":  true,
	"video/x-matroska": true,
}

func IsExtensionAllowed(ext string) bool {
	return allowedExtensions[strings.ToLower(ext)]
}

func IsMimeTypeAllowed(mimeType string) bool {
	return allowedMimeTypes[mimeType]
}

// AllowedExtensionList returns the allow-list in stable order, for error messages.
func AllowedExtensionList() string {
	exts := make([]string, 0, len(allowedExtensions))
	for e := range allowedExtensions {
		exts = append(exts, e)
	}
	sort.Strings(exts)
	return strings.Join(exts, ", ")
}
