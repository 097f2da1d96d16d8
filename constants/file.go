package constants

import (
	"path/filepath"
	"strings"
)

// MediaKind is the extraction route chosen for an upload.
type MediaKind string

const (
	PDF         MediaKind = "PDF"
	IMAGE       MediaKind = "IMAGE"
	Unsupported MediaKind = ""
)

// AllowedExtensions holds the file extensions picked up by directory scans and watchers.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"heic": {},
	"heif": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// IsAllowedPath reports whether path carries one of AllowedExtensions.
func IsAllowedPath(path string) bool {
	_, ok := AllowedExtensions[NormalizeExt(filepath.Ext(path))]
	return ok
}

// MapMediaType routes a declared media type and filename to an extraction kind.
// PDF wins over image when both could apply.
func MapMediaType(mediaType, filename string) MediaKind {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if strings.Contains(mt, "pdf") || strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return PDF
	}
	for _, marker := range []string{"image", "jpeg", "jpg", "png"} {
		if strings.Contains(mt, marker) {
			return IMAGE
		}
	}
	return Unsupported
}
