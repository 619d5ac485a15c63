// Package upload turns incoming file payloads into validated bytes:
// multipart and data-URL decoding, type sniffing, photo normalisation and
// PDF preparation.
package upload

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	MaxImageBytes    = 5 << 20
	MaxDocumentBytes = 20 << 20
)

var (
	ErrNoFile          = errors.New("no file in request")
	ErrTooLarge        = errors.New("file exceeds size limit")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// ImageTypes are the photo formats accepted from clients.
var ImageTypes = []string{"image/jpeg", "image/png"}

// DecodeBase64 decodes a plain or data-URL ("data:<mime>;base64,<payload>")
// string and returns the declared MIME type when present.
func DecodeBase64(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, "", ErrNoFile
	}
	var mime string
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			meta := s[len("data:"):i]
			mime, _, _ = strings.Cut(meta, ";")
			s = s[i+1:]
		}
	} else if i := strings.Index(s, ","); i >= 0 {
		s = s[i+1:]
	}
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' {
			return -1
		}
		return r
	}, s)

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	}
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 payload: %w", err)
	}
	return data, mime, nil
}

// Sniff detects the content type of data and checks it against allowed.
func Sniff(data []byte, allowed ...string) (string, error) {
	if len(data) == 0 {
		return "", ErrNoFile
	}
	ct := http.DetectContentType(data)
	ct, _, _ = strings.Cut(ct, ";")
	for _, a := range allowed {
		if ct == a {
			return ct, nil
		}
	}
	return ct, fmt.Errorf("%w: %s", ErrUnsupportedType, ct)
}

// CheckSize returns ErrTooLarge when data exceeds limit.
func CheckSize(data []byte, limit int) error {
	if len(data) > limit {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(data), limit)
	}
	return nil
}
