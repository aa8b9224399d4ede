package avatar

import (
	"bytes"
	"image/png"
	"testing"
)

func TestGenerate_ValidPNG(t *testing.T) {
	img, err := Generate('A')
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		t.Fatalf("Generate() did not produce a decodable PNG: %v", err)
	}
	if cfg.Width != Size || cfg.Height != Size {
		t.Errorf("dimensions = %dx%d, want %dx%d", cfg.Width, cfg.Height, Size, Size)
	}
}

// 'a' and 'A' must be the same tile: the letter is uppercased before both the
// color pick and the drawing, so the bytes come out identical.
func TestGenerate_CaseInsensitive(t *testing.T) {
	lower, err := Generate('a')
	if err != nil {
		t.Fatalf("Generate('a') error = %v", err)
	}
	upper, err := Generate('A')
	if err != nil {
		t.Fatalf("Generate('A') error = %v", err)
	}
	if !bytes.Equal(lower, upper) {
		t.Error("Generate('a') and Generate('A') differ")
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	first, err := Generate('Z')
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	second, err := Generate('Z')
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	// Cache-Control on the HTTP side leans on this.
	if !bytes.Equal(first, second) {
		t.Error("Generate() is not deterministic for the same letter")
	}
}

func TestGenerate_DistinctLetters(t *testing.T) {
	a, err := Generate('A')
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	b, err := Generate('B')
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if bytes.Equal(a, b) {
		t.Error("Generate('A') and Generate('B') are identical")
	}
}

func TestForUsername(t *testing.T) {
	fromName, err := ForUsername("alice")
	if err != nil {
		t.Fatalf("ForUsername() error = %v", err)
	}
	fromLetter, err := Generate('A')
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !bytes.Equal(fromName, fromLetter) {
		t.Error("ForUsername(\"alice\") differs from Generate('A')")
	}
}

func TestForUsername_Empty(t *testing.T) {
	// Empty names fall back to the '?' tile instead of erroring — a broken
	// avatar must never take a feed page down.
	img, err := ForUsername("")
	if err != nil {
		t.Fatalf("ForUsername(\"\") error = %v", err)
	}
	if _, err := png.DecodeConfig(bytes.NewReader(img)); err != nil {
		t.Errorf("fallback tile is not a valid PNG: %v", err)
	}
}
