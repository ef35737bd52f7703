package main

import (
	"image/color"
	"testing"
)

func TestResolveFormatPrefersExplicitName(t *testing.T) {
	f := resolveFormat("png", "out.jpg")
	if f == nil {
		t.Fatalf("expected the explicit -ofmt name to resolve to a format")
	}
}

func TestResolveFormatDetectsFromExtension(t *testing.T) {
	f := resolveFormat("", "out.png")
	if f == nil {
		t.Fatalf("expected the output filename's extension to resolve a format")
	}
}

func TestResolveFormatUnknown(t *testing.T) {
	if f := resolveFormat("", "out.unknownext"); f != nil {
		t.Fatalf("expected an unrecognised extension to resolve to nil, got %+v", f)
	}
}

func TestPixelsToImageFlipsRows(t *testing.T) {
	// glReadPixels reports rows bottom-to-top; a 2x2 RGB buffer where the
	// first row (bottom, y=1 in image space) is red and the second row
	// (top, y=0) is blue must land with blue on top in the image.Image.
	pixels := []byte{
		255, 0, 0, 255, 0, 0, // bottom row: red, red
		0, 0, 255, 0, 0, 255, // top row: blue, blue
	}
	img := pixelsToImage(pixels, 2, 2)

	topLeft := color.RGBAModel.Convert(img.At(0, 0)).(color.RGBA)
	if topLeft.R != 0 || topLeft.B != 255 {
		t.Fatalf("expected the image's top row to come from the last pixel row, got %+v", topLeft)
	}
	bottomLeft := color.RGBAModel.Convert(img.At(0, 1)).(color.RGBA)
	if bottomLeft.R != 255 || bottomLeft.B != 0 {
		t.Fatalf("expected the image's bottom row to come from the first pixel row, got %+v", bottomLeft)
	}
}
