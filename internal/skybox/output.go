package skybox

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/HugoSmits86/nativewebp"
)

// Format is an output image encoding.
type Format string

const (
	PNG  Format = "png"
	WebP Format = "webp"
)

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case PNG, "":
		return png.Encode(w, img)
	case WebP:
		return nativewebp.Encode(w, img, nil)
	default:
		return fmt.Errorf("unknown image format %q", format)
	}
}

// Writer saves baked faces and screenshots to a directory.
type Writer struct {
	outputDir string
	format    Format
}

// NewWriter creates a writer for outputDir. An empty dir writes to the
// working directory.
func NewWriter(outputDir string, format Format) *Writer {
	return &Writer{
		outputDir: outputDir,
		format:    format,
	}
}

// WriteFaces saves every face as <name>.<format> and returns the paths.
func (w *Writer) WriteFaces(faces []Face) ([]string, error) {
	paths := make([]string, 0, len(faces))
	for _, f := range faces {
		path, err := w.Save(f.Name, f.Image)
		if err != nil {
			return paths, fmt.Errorf("writing %s: %w", f.Name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Save encodes img as <name>.<format> in the output directory.
func (w *Writer) Save(name string, img image.Image) (string, error) {
	// Create output directory if needed
	if w.outputDir != "" {
		if err := os.MkdirAll(w.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	filename := fmt.Sprintf("%s.%s", name, w.format)
	if w.outputDir != "" {
		filename = filepath.Join(w.outputDir, filename)
	}

	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := Encode(file, img, w.format); err != nil {
		return "", fmt.Errorf("encoding %s: %w", w.format, err)
	}

	return filename, nil
}

// SaveScreenshot saves a timestamped capture of a frame.
func (w *Writer) SaveScreenshot(img image.Image) (string, error) {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return w.Save("screenshot_"+timestamp, img)
}

// FromGLPixels converts bottom-up RGBA pixels read from OpenGL to an image.
func FromGLPixels(pixels []byte, width, height int) (*image.NRGBA, error) {
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		srcOffset := (height - 1 - y) * rowSize // Flip Y
		dstOffset := y * img.Stride
		copy(img.Pix[dstOffset:dstOffset+rowSize], pixels[srcOffset:srcOffset+rowSize])
	}
	return img, nil
}
