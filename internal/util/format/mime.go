package format

import (
	"mime"
	"path/filepath"
	"strings"
)

// Category is a coarse file kind derived from a MIME type, used to pick an icon.
type Category string

const (
	CategoryImage        Category = "image"
	CategoryVideo        Category = "movie"
	CategoryAudio        Category = "audio_file"
	CategoryPDF          Category = "picture_as_pdf"
	CategorySpreadsheet  Category = "table_chart"
	CategoryPresentation Category = "slideshow"
	CategoryDocument     Category = "description"
	CategoryArchive      Category = "folder_zip"
	CategoryGeneric      Category = "insert_drive_file"
)

// FileCategory maps a MIME type to a Category. Matching is by substring, in a
// fixed order, so "application/vnd.ms-excel" is a spreadsheet and
// "application/x-tar" an archive. An empty type is a document.
func FileCategory(mimeType string) Category {
	if mimeType == "" {
		return CategoryDocument
	}
	m := strings.ToLower(mimeType)
	switch {
	case strings.HasPrefix(m, "image/"):
		return CategoryImage
	case strings.HasPrefix(m, "video/"):
		return CategoryVideo
	case strings.HasPrefix(m, "audio/"):
		return CategoryAudio
	case strings.Contains(m, "pdf"):
		return CategoryPDF
	case strings.Contains(m, "spreadsheet"), strings.Contains(m, "excel"):
		return CategorySpreadsheet
	case strings.Contains(m, "presentation"), strings.Contains(m, "powerpoint"):
		return CategoryPresentation
	case strings.Contains(m, "document"), strings.Contains(m, "word"):
		return CategoryDocument
	case strings.Contains(m, "compressed"), strings.Contains(m, "zip"), strings.Contains(m, "tar"):
		return CategoryArchive
	default:
		return CategoryGeneric
	}
}

// Extension returns the lower-cased extension of name without the dot, or ""
// when the name has none.
func Extension(name string) string {
	ext := filepath.Ext(name)
	if ext == "" || ext == name {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsImage reports whether mimeType is an image type.
func IsImage(mimeType string) bool { return strings.HasPrefix(mimeType, "image/") }

// IsVideo reports whether mimeType is a video type.
func IsVideo(mimeType string) bool { return strings.HasPrefix(mimeType, "video/") }

// IsAudio reports whether mimeType is an audio type.
func IsAudio(mimeType string) bool { return strings.HasPrefix(mimeType, "audio/") }

// IsPDF reports whether mimeType is a PDF document.
func IsPDF(mimeType string) bool { return mimeType == "application/pdf" }

// ContentType guesses the MIME type of a local file from its extension,
// falling back to application/octet-stream.
func ContentType(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
