package validation

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/username/finvision/backend/src/logger"
)

// AllowedClientContentTypes is a map for quick lookup of allowed client-declared MIME types.
var AllowedClientContentTypes = map[string]bool{
	"text/csv":                 true,
	"application/csv":          true,
	"application/vnd.ms-excel": true, // older Excel declares this for CSVs; magic bytes reject real .xls binaries
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true, // .xlsx
	"text/plain":               true, // CSVs are often plain text
	"application/octet-stream": true, // some browsers send this for spreadsheets; magic bytes decide
}

// zipMagic is the OPC zip container signature carried by .xlsx workbooks.
// Legacy OLE-container .xls files are not decodable and fall through to the
// binary-content rejection below.
var zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}

// ValidateClientContentType checks the Content-Type header provided by the client.
func ValidateClientContentType(contentType string) error {
	normalized := strings.ToLower(strings.Split(contentType, ";")[0])
	if !AllowedClientContentTypes[strings.TrimSpace(normalized)] {
		logger.L.Warn("Disallowed client-declared Content-Type", "contentType", contentType)
		return fmt.Errorf("client-declared file type '%s' is not allowed for holdings upload", contentType)
	}
	return nil
}

// isBinaryContent checks if a buffer contains binary control characters (like null bytes)
// which indicate the file is not valid delimited text.
func isBinaryContent(buf []byte) bool {
	if bytes.IndexByte(buf, 0) != -1 {
		return true
	}
	if !utf8.Valid(buf) {
		return true
	}
	return false
}

// ValidateFileContentByMagicBytes inspects the actual file content signature.
// Spreadsheet uploads must carry the zip container signature; delimited text
// uploads must be clean text. The read pointer is reset so the decoder can
// read the full file afterwards.
func ValidateFileContentByMagicBytes(file io.ReadSeeker) (string, error) {
	if file == nil {
		return "", fmt.Errorf("file is nil")
	}

	buffer := make([]byte, 1024)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file for content type checking: %w", err)
	}

	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", seekErr)
	}

	if n == 0 {
		return "", fmt.Errorf("file is empty")
	}

	head := buffer[:n]

	// Spreadsheet containers are binary; accept them by signature.
	if bytes.HasPrefix(head, zipMagic) {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil
	}

	// Everything else must be delimited text.
	if isBinaryContent(head) {
		logger.L.Warn("File rejected: unrecognized binary content in upload")
		return "application/octet-stream", fmt.Errorf("file appears to be binary and is not a recognized spreadsheet format")
	}

	detectedContentType := http.DetectContentType(head)
	detectedContentType = strings.ToLower(strings.Split(detectedContentType, ";")[0])

	allowedDetectedTypes := map[string]bool{
		"text/plain":      true,
		"text/csv":        true,
		"application/csv": true,
	}

	if !allowedDetectedTypes[detectedContentType] {
		logger.L.Warn("Disallowed detected file content type", "detectedContentType", detectedContentType)
		return detectedContentType, fmt.Errorf("detected file content type '%s' is not allowed", detectedContentType)
	}

	logger.L.Debug("File content type validated", "detectedContentType", detectedContentType)
	return detectedContentType, nil
}
