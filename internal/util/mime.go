package util

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// ContentTypeFor picks the MIME type for an upload. The file extension wins
// when it is a known type (content sniffing cannot identify TIFF at all),
// with sniffing as the fallback.
func ContentTypeFor(path string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(path))
	// The microscopes write TIFF; mime.TypeByExtension only knows it when
	// the host has a mime.types file.
	if ext == ".tif" || ext == ".tiff" {
		return "image/tiff"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}

// IsImageMIME checks if the MIME type is a supported image format
func IsImageMIME(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/jpg", "image/png", "image/webp", "image/gif", "image/tiff", "image/heif", "image/avif":
		return true
	default:
		return false
	}
}
