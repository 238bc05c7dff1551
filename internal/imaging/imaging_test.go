package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestPrepare_DownscalesAndReencodes(t *testing.T) {
	p, err := Prepare(bytes.NewReader(pngBytes(t, 2000, 1000)), "/home/me/avatar.png", MaxProfileDimension)
	if err != nil {
		t.Fatalf("Prepare returned error: %v", err)
	}
	if p.Width != 512 || p.Height != 256 {
		t.Fatalf("size = %dx%d, want 512x256", p.Width, p.Height)
	}
	if p.Filename != "avatar.jpg" {
		t.Fatalf("Filename = %q, want avatar.jpg", p.Filename)
	}
	cfg, err := jpeg.DecodeConfig(p.Reader())
	if err != nil {
		t.Fatalf("output is not JPEG: %v", err)
	}
	if cfg.Width != 512 {
		t.Fatalf("decoded width = %d, want 512", cfg.Width)
	}
}

func TestPrepare_KeepsSmallImages(t *testing.T) {
	p, err := Prepare(bytes.NewReader(pngBytes(t, 100, 300)), "x.png", MaxProfileDimension)
	if err != nil {
		t.Fatalf("Prepare returned error: %v", err)
	}
	if p.Width != 100 || p.Height != 300 {
		t.Fatalf("size = %dx%d, want 100x300", p.Width, p.Height)
	}
}

func TestPrepare_RejectsUnsupported(t *testing.T) {
	_, err := Prepare(strings.NewReader("GIF89a not really"), "x.gif", MaxProfileDimension)
	if err == nil || !strings.Contains(err.Error(), "unsupported image format") {
		t.Fatalf("Prepare error = %v, want unsupported image format", err)
	}
}

func TestDownscale_TallImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 4000))
	out := downscale(img, 512)
	if out.Bounds().Dx() != 12 || out.Bounds().Dy() != 512 {
		t.Fatalf("size = %v, want 12x512", out.Bounds())
	}
}

func TestJPEGName(t *testing.T) {
	cases := map[string]string{
		"":              "picture.jpg",
		"me.png":        "me.jpg",
		"/tmp/a.b.jpeg": "a.b.jpg",
	}
	for in, want := range cases {
		if got := jpegName(in); got != want {
			t.Fatalf("jpegName(%q) = %q, want %q", in, got, want)
		}
	}
}
