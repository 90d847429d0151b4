package biz

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// Attachment is one decoded request payload. Raw keeps the bare base64
// form handed to vision models; Data the decoded bytes for uploads and
// transcription.
type Attachment struct {
	Raw         string
	Data        []byte
	ContentType string
}

// decodeAttachment decodes one chatFilesBase64 element. Clients send
// either bare base64 or a data URL; both forms are accepted. The
// content type comes from the data URL when present, otherwise from
// payload sniffing.
func decodeAttachment(s string) (*Attachment, error) {
	raw := s
	contentType := ""

	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		meta, payload, found := strings.Cut(rest, ",")
		if !found {
			return nil, fmt.Errorf("malformed data url")
		}
		raw = payload
		contentType = strings.TrimSuffix(meta, ";base64")
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode attachment: %w", err)
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return &Attachment{Raw: raw, Data: data, ContentType: contentType}, nil
}

// decodeAttachments decodes every element or fails on the first bad one.
func decodeAttachments(in []string) ([]*Attachment, error) {
	out := make([]*Attachment, 0, len(in))
	for i, s := range in {
		att, err := decodeAttachment(s)
		if err != nil {
			return nil, fmt.Errorf("attachment %d: %w", i, err)
		}
		out = append(out, att)
	}
	return out, nil
}

// extForContentType maps a content type onto the stored object
// extension. Unknown types get no extension.
func extForContentType(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "video/mp4":
		return ".mp4"
	case "text/plain", "text/plain; charset=utf-8":
		return ".txt"
	default:
		return ""
	}
}
