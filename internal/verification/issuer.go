// Package verification issues the public verification URL of a certificate
// and the QR image that encodes it.
package verification

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

// PathPrefix is the public verification route. The QR payload must resolve to it.
const PathPrefix = "/verificar/"

const (
	qrSize        = 256
	dataURLPrefix = "data:image/png;base64,"
)

var (
	ErrEmptyDocumentID = errors.New("document id is required")
	ErrEmptyBaseURL    = errors.New("base url is required")
	ErrNotPNGDataURL   = errors.New("not a base64 PNG data url")
)

// Token is the verification payload of a document and its QR rendering.
type Token struct {
	Payload   string `json:"payload"`
	QRDataURL string `json:"qrDataUrl"`
}

// URL returns the verification URL for a document. baseURL is used as given.
func URL(documentID, baseURL string) string {
	return baseURL + PathPrefix + documentID
}

// Issue builds the verification token for a document. The same inputs always
// produce the same payload and the same image bytes.
func Issue(documentID, baseURL string) (Token, error) {
	if documentID == "" {
		return Token{}, ErrEmptyDocumentID
	}
	if baseURL == "" {
		return Token{}, ErrEmptyBaseURL
	}

	payload := URL(documentID, baseURL)
	png, err := qrcode.Encode(payload, qrcode.Medium, qrSize)
	if err != nil {
		return Token{}, fmt.Errorf("failed to encode QR: %w", err)
	}

	return Token{
		Payload:   payload,
		QRDataURL: dataURLPrefix + base64.StdEncoding.EncodeToString(png),
	}, nil
}

// DecodeDataURL returns the PNG bytes embedded in a data URL produced by Issue.
func DecodeDataURL(dataURL string) ([]byte, error) {
	if !strings.HasPrefix(dataURL, dataURLPrefix) {
		return nil, ErrNotPNGDataURL
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, dataURLPrefix))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPNGDataURL, err)
	}
	return data, nil
}

// DocumentID extracts the document id from a verification URL, or "" when
// the URL does not point at the verification route.
func DocumentID(payload string) string {
	i := strings.LastIndex(payload, PathPrefix)
	if i < 0 {
		return ""
	}
	id := payload[i+len(PathPrefix):]
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
