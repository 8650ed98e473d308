// Package intake decides whether an uploaded file may be stored as evidence.
// Checks run on the declared name, the declared media type and the sniffed
// leading bytes; nothing here touches storage.
package intake

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	dErrors "safedesk/pkg/domain-errors"
)

// SniffLength is how many leading bytes Check needs for content detection.
const SniffLength = 3072

// allowed maps each accepted extension to the media type recorded for it.
var allowed = map[string]string{
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
}

// genericTypes are declared types browsers send when they do not know better.
var genericTypes = map[string]bool{
	"":                         true,
	"application/octet-stream": true,
}

// Accepted describes a file that passed intake.
type Accepted struct {
	Extension string
	MediaType string
}

// Check validates an upload. head holds up to SniffLength leading bytes.
func Check(name, declaredType string, size, maxSize int64, head []byte) (*Accepted, error) {
	if size > maxSize {
		return nil, dErrors.New(dErrors.CodePayloadTooLarge, "file exceeds maximum upload size")
	}
	if size == 0 || len(head) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "file is empty")
	}

	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	mediaType, ok := allowed[ext]
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnsupportedMediaType, "file type not allowed")
	}

	declared := normalizeType(declaredType)
	if !genericTypes[declared] && !isAllowedType(declared) {
		return nil, dErrors.New(dErrors.CodeUnsupportedMediaType, "file type not allowed")
	}

	if !contentMatches(mediaType, mimetype.Detect(head)) {
		return nil, dErrors.New(dErrors.CodeUnsupportedMediaType, "file content does not match its type")
	}
	return &Accepted{Extension: ext, MediaType: mediaType}, nil
}

// contentMatches enforces sniffing for the families a classifier or viewer
// will interpret. Office and text formats are not sniffed.
func contentMatches(mediaType string, detected *mimetype.MIME) bool {
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return detected.Is(mediaType)
	case strings.HasPrefix(mediaType, "video/"):
		return strings.HasPrefix(detected.String(), "video/")
	case mediaType == "application/pdf":
		return detected.Is("application/pdf")
	default:
		return true
	}
}

func isAllowedType(t string) bool {
	for _, mt := range allowed {
		if mt == t {
			return true
		}
	}
	return false
}

func normalizeType(t string) string {
	t, _, _ = strings.Cut(t, ";")
	return strings.ToLower(strings.TrimSpace(t))
}
