package annotation

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	perrors "github.com/matzehuels/pepedot/pkg/errors"
)

// Photo is an image attached to a point. In JSON it is written as a
// data URL so that points.json carries the payload inline.
type Photo struct {
	MIME string
	Data []byte
}

// DataURL returns the photo as "data:<mime>;base64,<payload>".
func (p Photo) DataURL() string {
	mime := p.MIME
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// Ext returns the file extension for the photo's MIME type (without dot).
// Unknown types map to "jpg".
func (p Photo) Ext() string {
	mime := strings.ToLower(p.MIME)
	switch {
	case strings.Contains(mime, "png"):
		return "png"
	case strings.Contains(mime, "webp"):
		return "webp"
	case strings.Contains(mime, "gif"):
		return "gif"
	default:
		return "jpg"
	}
}

// MarshalJSON implements json.Marshaler.
func (p Photo) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.DataURL())
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Photo) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	ph, err := ParseDataURL(s)
	if err != nil {
		return err
	}
	*p = *ph
	return nil
}

// ParseDataURL decodes a base64 data URL. A bare base64 string without the
// "data:" prefix is accepted and assumed to be JPEG.
func ParseDataURL(s string) (*Photo, error) {
	mime := "image/jpeg"
	payload := s
	if strings.HasPrefix(s, "data:") {
		head, body, ok := strings.Cut(s[len("data:"):], ",")
		if !ok {
			return nil, perrors.New(perrors.ErrCodeInvalidInput, "malformed data URL")
		}
		if !strings.HasSuffix(head, ";base64") {
			return nil, perrors.New(perrors.ErrCodeInvalidInput, "data URL is not base64 encoded")
		}
		if m := strings.TrimSuffix(head, ";base64"); m != "" {
			mime = m
		}
		payload = body
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "decode photo payload")
	}
	return &Photo{MIME: mime, Data: data}, nil
}
