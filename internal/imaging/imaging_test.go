package imaging_test

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"pbr-texpacker/internal/imaging"
)

func TestSupported(t *testing.T) {
	for _, p := range []string{"a.png", "B.PNG", "c.jpg", "d.jpeg", "e.tga", "f.bmp"} {
		if !imaging.Supported(p) {
			t.Errorf("%s should be supported", p)
		}
	}
	for _, p := range []string{"a.gif", "b.ktx2", "c.txt", "d"} {
		if imaging.Supported(p) {
			t.Errorf("%s should not be supported", p)
		}
	}
}

func TestLoad_PNGRoundTrip(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			i := src.PixOffset(x, y)
			src.Pix[i] = uint8(x * 60)
			src.Pix[i+1] = uint8(y * 60)
			src.Pix[i+2] = 10
			src.Pix[i+3] = 255
		}
	}

	path := filepath.Join(t.TempDir(), "t.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, src); err != nil {
		t.Fatal(err)
	}
	f.Close()

	got, err := imaging.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := range src.Pix {
		if got.Pix[i] != src.Pix[i] {
			t.Fatalf("pix[%d] = %d, want %d", i, got.Pix[i], src.Pix[i])
		}
	}
}

func TestLoad_GrayReplicatesIntoRGB(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	gray.SetGray(0, 0, color.Gray{Y: 42})
	gray.SetGray(1, 0, color.Gray{Y: 200})
	gray.SetGray(0, 1, color.Gray{Y: 0})
	gray.SetGray(1, 1, color.Gray{Y: 255})

	path := filepath.Join(t.TempDir(), "gray.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, gray); err != nil {
		t.Fatal(err)
	}
	f.Close()

	img, err := imaging.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			i := img.PixOffset(x, y)
			v := gray.GrayAt(x, y).Y
			if img.Pix[i] != v || img.Pix[i+1] != v || img.Pix[i+2] != v || img.Pix[i+3] != 255 {
				t.Fatalf("(%d,%d): got (%d,%d,%d,%d), want gray %d opaque",
					x, y, img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3], v)
			}
		}
	}
}

func TestLoad_CorruptFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(path, []byte("junk"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := imaging.Load(path); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNewConstant(t *testing.T) {
	img := imaging.NewConstant(3, 2, 0.8)
	if img.Rect.Dx() != 3 || img.Rect.Dy() != 2 {
		t.Fatalf("got %v", img.Rect)
	}
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 204 || img.Pix[i+1] != 204 || img.Pix[i+2] != 204 || img.Pix[i+3] != 255 {
			t.Fatalf("got (%d,%d,%d,%d)", img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3])
		}
	}
}

func TestResize_NearestKeepsExactValues(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	vals := []uint8{10, 20, 30, 40}
	for i, v := range vals {
		x, y := i%2, i/2
		p := src.PixOffset(x, y)
		src.Pix[p] = v
		src.Pix[p+3] = 255
	}

	dst := imaging.Resize(src, 4, 4, true)
	if dst.Rect.Dx() != 4 || dst.Rect.Dy() != 4 {
		t.Fatalf("got %v", dst.Rect)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := vals[(y/2)*2+x/2]
			if got := dst.Pix[dst.PixOffset(x, y)]; got != want {
				t.Fatalf("(%d,%d): got %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestResize_SameSizeReturnsInput(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	if imaging.Resize(src, 4, 4, false) != src {
		t.Fatal("same-size resize should be a no-op")
	}
}
