// Package imageextractor pulls generated or uploaded images out of LLM
// request/response bodies: JSON shapes from the major image-generation
// APIs, raw binary bodies identified by magic bytes, and multipart
// uploads. Mirrors internal/extractor's prompt extraction, one media type
// over.
package imageextractor

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strings"
)

// maxPartBytes caps a single multipart part read, matching the proxy's
// overall request-body cap in internal/mitm.
const maxPartBytes = 10 << 20

// Image is a single extracted image, with enough provenance to attribute
// it in the audit log.
type Image struct {
	Data       []byte
	Format     string // MIME type, e.g. "image/png"; empty if undetected.
	SourcePath string // e.g. "data[0].b64_json", "artifacts[1].base64".
	Index      int
}

// detectFormat fills in Format from magic bytes, leaving it empty if the
// data doesn't match a recognized signature.
func (img *Image) detectFormat() {
	if format := DetectFormat(img.Data); format != "" {
		img.Format = format
	}
}

// IsValid reports whether the image's bytes match a recognized format.
func (img *Image) IsValid() bool { return DetectFormat(img.Data) != "" }

// DetectFormat identifies an image's MIME type from its leading bytes.
// Returns "" for unrecognized or too-short data.
func DetectFormat(data []byte) string {
	switch {
	case len(data) >= 3 && bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return "image/jpeg"
	case len(data) >= 8 && bytes.HasPrefix(data, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}):
		return "image/png"
	case len(data) >= 6 && (bytes.HasPrefix(data, []byte("GIF87a")) || bytes.HasPrefix(data, []byte("GIF89a"))):
		return "image/gif"
	case len(data) >= 12 && bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "image/webp"
	case len(data) >= 2 && bytes.HasPrefix(data, []byte("BM")):
		return "image/bmp"
	default:
		return ""
	}
}

// ExtractFromJSON walks a decoded API response body looking for images in
// every provider shape Aegis recognizes, falling back to a recursive
// base64-string scan when none of the named shapes match. Returns nil for
// invalid JSON or a response with no images.
//
// Recognized shapes:
//   - OpenAI / Together AI: data[].b64_json, data[].url (data URI)
//   - Stability AI:         artifacts[].base64
//   - xAI Grok:              images[].image
//   - Replicate:             output[] (array of data URIs)
//   - Leonardo.ai:           generations_by_pk.generated_images[].url, generated_images[].url
//   - Ideogram:              data[].image_url / data[].image / data[].b64
func ExtractFromJSON(body []byte) []Image {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil
	}

	var images []Image
	images = append(images, extractOpenAIShape(doc)...)
	images = append(images, extractStabilityShape(doc)...)
	images = append(images, extractGrokShape(doc)...)
	images = append(images, extractReplicateShape(doc)...)
	images = append(images, extractLeonardoShape(doc)...)

	if len(images) == 0 {
		images = extractIdeogramShape(doc)
	}
	if len(images) == 0 {
		var root any = doc
		images = extractGenericBase64(root)
	}

	for i := range images {
		images[i].detectFormat()
	}
	return images
}

func asArray(doc map[string]any, key string) []any {
	arr, _ := doc[key].([]any)
	return arr
}

func extractOpenAIShape(doc map[string]any) []Image {
	var out []Image
	for i, item := range asArray(doc, "data") {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if b64, ok := obj["b64_json"].(string); ok {
			if data, ok := decodeBase64Image(b64); ok {
				out = append(out, Image{Data: data, SourcePath: fmt.Sprintf("data[%d].b64_json", i), Index: i})
			}
		}
		if url, ok := obj["url"].(string); ok && strings.HasPrefix(url, "data:image/") {
			if data, ok := decodeDataURI(url); ok {
				out = append(out, Image{Data: data, SourcePath: fmt.Sprintf("data[%d].url", i), Index: i})
			}
		}
	}
	return out
}

func extractStabilityShape(doc map[string]any) []Image {
	var out []Image
	for _, item := range asArray(doc, "artifacts") {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if b64, ok := obj["base64"].(string); ok {
			if data, ok := decodeBase64Image(b64); ok {
				out = append(out, Image{Data: data, SourcePath: fmt.Sprintf("artifacts[%d].base64", len(out)), Index: len(out)})
			}
		}
	}
	return out
}

func extractGrokShape(doc map[string]any) []Image {
	var out []Image
	for _, item := range asArray(doc, "images") {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if b64, ok := obj["image"].(string); ok {
			if data, ok := decodeBase64Image(b64); ok {
				out = append(out, Image{Data: data, SourcePath: fmt.Sprintf("images[%d].image", len(out)), Index: len(out)})
			}
		}
	}
	return out
}

func extractReplicateShape(doc map[string]any) []Image {
	var out []Image
	for _, item := range asArray(doc, "output") {
		url, ok := item.(string)
		if !ok || !strings.HasPrefix(url, "data:image/") {
			continue
		}
		if data, ok := decodeDataURI(url); ok {
			out = append(out, Image{Data: data, SourcePath: fmt.Sprintf("output[%d]", len(out)), Index: len(out)})
		}
	}
	return out
}

func extractLeonardoShape(doc map[string]any) []Image {
	var generations []any
	if pk, ok := doc["generations_by_pk"].(map[string]any); ok {
		generations = asArray(pk, "generated_images")
	}
	if generations == nil {
		generations = asArray(doc, "generated_images")
	}

	var out []Image
	for _, item := range generations {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		url, ok := obj["url"].(string)
		if !ok || !strings.HasPrefix(url, "data:image/") {
			continue
		}
		if data, ok := decodeDataURI(url); ok {
			out = append(out, Image{Data: data, SourcePath: fmt.Sprintf("generated_images[%d].url", len(out)), Index: len(out)})
		}
	}
	return out
}

func extractIdeogramShape(doc map[string]any) []Image {
	var out []Image
	for i, item := range asArray(doc, "data") {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		for _, key := range []string{"image_url", "image", "b64"} {
			val, ok := obj[key].(string)
			if !ok {
				continue
			}
			var data []byte
			var ok2 bool
			if strings.HasPrefix(val, "data:image/") {
				data, ok2 = decodeDataURI(val)
			} else if looksLikeBase64(val) {
				data, ok2 = decodeBase64Image(val)
			}
			if ok2 {
				out = append(out, Image{Data: data, SourcePath: fmt.Sprintf("data[%d].%s", i, key), Index: len(out)})
			}
		}
	}
	return out
}

// extractGenericBase64 recursively searches a decoded JSON value for data
// URIs or raw base64 strings that decode into a recognized image format —
// the last-resort path for image-generation APIs Aegis doesn't special-case.
func extractGenericBase64(v any) []Image {
	var out []Image
	walkForBase64(v, "", &out)
	return out
}

func walkForBase64(v any, path string, out *[]Image) {
	switch val := v.(type) {
	case string:
		if strings.HasPrefix(val, "data:image/") {
			if data, ok := decodeDataURI(val); ok {
				*out = append(*out, Image{Data: data, SourcePath: path, Index: len(*out)})
			}
			return
		}
		if looksLikeBase64(val) {
			if data, ok := decodeBase64Image(val); ok && DetectFormat(data) != "" {
				*out = append(*out, Image{Data: data, SourcePath: path, Index: len(*out)})
			}
		}
	case []any:
		for i, item := range val {
			walkForBase64(item, fmt.Sprintf("%s[%d]", path, i), out)
		}
	case map[string]any:
		for key, item := range val {
			childPath := key
			if path != "" {
				childPath = path + "." + key
			}
			walkForBase64(item, childPath, out)
		}
	}
}

// ExtractFromBinary checks whether a non-JSON response body is itself a
// raw image, identified by magic bytes. contentType, if given and an
// image/* MIME type, takes precedence over the sniffed format.
func ExtractFromBinary(body []byte, contentType string) (Image, bool) {
	format := DetectFormat(body)
	if format == "" {
		return Image{}, false
	}
	img := Image{Data: body, SourcePath: "binary_response", Format: format}
	if ct, _, err := mime.ParseMediaType(contentType); err == nil && strings.HasPrefix(ct, "image/") {
		img.Format = ct
	}
	return img, true
}

// ExtractFromMultipart walks a multipart/form-data request body (image
// uploads to vision endpoints) and returns every part whose bytes look
// like an image, keyed by form field name. Uses the standard library's
// multipart reader rather than hand-rolled boundary scanning.
func ExtractFromMultipart(body []byte, boundary string) map[string]Image {
	out := make(map[string]Image)
	reader := multipart.NewReader(bytes.NewReader(body), boundary)
	index := 0
	for {
		part, err := reader.NextPart()
		if err != nil {
			break
		}
		data, err := io.ReadAll(io.LimitReader(part, maxPartBytes))
		part.Close()
		if err != nil {
			continue
		}
		if format := DetectFormat(data); format != "" {
			out[part.FormName()] = Image{
				Data:       data,
				Format:     format,
				SourcePath: fmt.Sprintf("multipart.%s", part.FormName()),
				Index:      index,
			}
			index++
		}
	}
	return out
}

// decodeBase64Image decodes a base64 string, stripping a leading data-URI
// prefix (content up to the first comma) and whitespace if present.
func decodeBase64Image(s string) ([]byte, bool) {
	if comma := strings.IndexByte(s, ','); comma >= 0 {
		s = s[comma+1:]
	}
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\n' || r == '\t' || r == '\r' {
			return -1
		}
		return r
	}, s)
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, false
	}
	return data, true
}

// decodeDataURI decodes a "data:image/...;base64,..." URI.
func decodeDataURI(uri string) ([]byte, bool) {
	if !strings.HasPrefix(uri, "data:") {
		return nil, false
	}
	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return nil, false
	}
	meta := uri[5:comma]
	if !strings.Contains(meta, "base64") {
		return nil, false
	}
	return decodeBase64Image(uri[comma+1:])
}

// looksLikeBase64 reports whether s is long enough and charset-restricted
// enough to plausibly be base64-encoded image data, before paying the cost
// of actually decoding and format-sniffing it.
func looksLikeBase64(s string) bool {
	if len(s) <= 100 {
		return false
	}
	for _, c := range s {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '+' || c == '/' || c == '=') {
			return false
		}
	}
	return true
}
