package imageextractor

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"testing"
)

// redPixelPNG is a valid 1x1 PNG, used across tests the way the original
// extractor's own test suite fixtures a red-pixel PNG.
func redPixelPNG() []byte {
	return []byte{
		0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A,
		0x00, 0x00, 0x00, 0x0D,
		0x49, 0x48, 0x44, 0x52,
		0x00, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x01,
		0x08, 0x02,
		0x00, 0x00, 0x00,
		0x90, 0x77, 0x53, 0xDE,
		0x00, 0x00, 0x00, 0x0C,
		0x49, 0x44, 0x41, 0x54,
		0x08, 0xD7, 0x63, 0xF8, 0xCF, 0xC0, 0x00, 0x00, 0x00, 0x03, 0x00,
		0x01,
		0x00, 0x18, 0xDD, 0x8D,
		0x00, 0x00, 0x00, 0x00,
		0x49, 0x45, 0x4E, 0x44,
		0xAE, 0x42, 0x60, 0x82,
	}
}

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want string
	}{
		{"png", redPixelPNG(), "image/png"},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}, "image/jpeg"},
		{"gif", []byte("GIF89a\x01\x00\x01\x00"), "image/gif"},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBP"), "image/webp"},
		{"bmp", []byte("BM\x00\x00"), "image/bmp"},
		{"unknown", []byte("not an image"), ""},
		{"too short", []byte{0x89}, ""},
	}
	for _, c := range cases {
		if got := DetectFormat(c.data); got != c.want {
			t.Errorf("%s: DetectFormat() = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestExtractFromJSONOpenAIShape(t *testing.T) {
	png := redPixelPNG()
	b64 := base64.StdEncoding.EncodeToString(png)
	body := []byte(fmt.Sprintf(`{"data": [{"b64_json": %q}]}`, b64))

	images := ExtractFromJSON(body)
	if len(images) != 1 {
		t.Fatalf("expected 1 image, got %d", len(images))
	}
	if !bytes.Equal(images[0].Data, png) {
		t.Error("decoded image data does not match source PNG")
	}
	if images[0].SourcePath != "data[0].b64_json" {
		t.Errorf("got source path %q", images[0].SourcePath)
	}
	if images[0].Format != "image/png" {
		t.Errorf("got format %q", images[0].Format)
	}
}

func TestExtractFromJSONStabilityShape(t *testing.T) {
	png := redPixelPNG()
	b64 := base64.StdEncoding.EncodeToString(png)
	body := []byte(fmt.Sprintf(`{"artifacts": [{"base64": %q}]}`, b64))

	images := ExtractFromJSON(body)
	if len(images) != 1 || !bytes.Equal(images[0].Data, png) {
		t.Fatalf("got %+v", images)
	}
}

func TestExtractFromJSONGrokShape(t *testing.T) {
	png := redPixelPNG()
	b64 := base64.StdEncoding.EncodeToString(png)
	body := []byte(fmt.Sprintf(`{"images": [{"image": %q}]}`, b64))

	images := ExtractFromJSON(body)
	if len(images) != 1 || !bytes.Equal(images[0].Data, png) {
		t.Fatalf("got %+v", images)
	}
}

func TestExtractFromJSONReplicateDataURI(t *testing.T) {
	png := redPixelPNG()
	b64 := base64.StdEncoding.EncodeToString(png)
	uri := fmt.Sprintf("data:image/png;base64,%s", b64)
	body := []byte(fmt.Sprintf(`{"output": [%q]}`, uri))

	images := ExtractFromJSON(body)
	if len(images) != 1 || !bytes.Equal(images[0].Data, png) {
		t.Fatalf("got %+v", images)
	}
}

func TestExtractFromJSONMultipleImages(t *testing.T) {
	png := redPixelPNG()
	b64 := base64.StdEncoding.EncodeToString(png)
	body := []byte(fmt.Sprintf(`{"data": [{"b64_json": %q}, {"b64_json": %q}]}`, b64, b64))

	images := ExtractFromJSON(body)
	if len(images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(images))
	}
}

func TestExtractFromJSONInvalidJSON(t *testing.T) {
	if images := ExtractFromJSON([]byte("not json")); images != nil {
		t.Errorf("expected nil for invalid JSON, got %+v", images)
	}
}

func TestExtractFromJSONNoImages(t *testing.T) {
	images := ExtractFromJSON([]byte(`{"message": "Hello, world!"}`))
	if len(images) != 0 {
		t.Errorf("expected no images, got %+v", images)
	}
}

func TestExtractFromJSONGenericFallback(t *testing.T) {
	// Pad the 69-byte PNG so its base64 form exceeds the 100-character
	// minimum the raw-base64 scan requires.
	png := append(redPixelPNG(), make([]byte, 16)...)
	b64 := base64.StdEncoding.EncodeToString(png)
	body := []byte(fmt.Sprintf(`{"weird_field": {"nested": %q}}`, b64))

	images := ExtractFromJSON(body)
	if len(images) != 1 || !bytes.Equal(images[0].Data, png) {
		t.Fatalf("expected the generic fallback to find the image, got %+v", images)
	}
}

func TestExtractFromBinaryValidImage(t *testing.T) {
	png := redPixelPNG()
	img, ok := ExtractFromBinary(png, "")
	if !ok {
		t.Fatal("expected binary PNG to be recognized")
	}
	if img.Format != "image/png" {
		t.Errorf("got format %q", img.Format)
	}
}

func TestExtractFromBinaryContentTypeOverride(t *testing.T) {
	png := redPixelPNG()
	img, ok := ExtractFromBinary(png, "image/webp; charset=binary")
	if !ok || img.Format != "image/webp" {
		t.Fatalf("got %+v, ok=%v", img, ok)
	}
}

func TestExtractFromBinaryNonImage(t *testing.T) {
	if _, ok := ExtractFromBinary([]byte("not an image"), ""); ok {
		t.Error("expected non-image binary data to be rejected")
	}
}

func TestExtractFromMultipart(t *testing.T) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("photo", "pixel.png")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(redPixelPNG()); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteField("caption", "a red pixel"); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	images := ExtractFromMultipart(buf.Bytes(), w.Boundary())
	img, ok := images["photo"]
	if !ok {
		t.Fatalf("expected a 'photo' field image, got %+v", images)
	}
	if img.Format != "image/png" {
		t.Errorf("got format %q", img.Format)
	}
	if _, ok := images["caption"]; ok {
		t.Error("expected the non-image caption field to be skipped")
	}
}

func TestImageIsValid(t *testing.T) {
	img := Image{Data: redPixelPNG()}
	if !img.IsValid() {
		t.Error("expected a valid PNG to report IsValid")
	}
	invalid := Image{Data: []byte("not an image")}
	if invalid.IsValid() {
		t.Error("expected non-image data to report invalid")
	}
}
