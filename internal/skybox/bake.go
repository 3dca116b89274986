// Package skybox bakes atmosphere colors into panorama and cube map images.
package skybox

import (
	"context"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/Faultbox/midgard-sky/internal/atmosphere"
	"github.com/Faultbox/midgard-sky/internal/workpool"
)

// Layout selects how directions are mapped to images.
type Layout string

const (
	// Equirect is a single 2:1 latitude/longitude panorama.
	Equirect Layout = "equirect"
	// Cubemap is six square faces in OpenGL cube map orientation.
	Cubemap Layout = "cubemap"
)

// Options controls a bake.
type Options struct {
	Layout      Layout
	Size        int     // Face size, or panorama height
	Supersample int     // Render scale before downsampling
	Exposure    float64 // Tonemap exposure
	Workers     int     // <= 0 uses all CPUs
}

// Face is one baked image.
type Face struct {
	Name  string
	Image *image.NRGBA
}

// cubeFaces lists cube map faces in GL_TEXTURE_CUBE_MAP_POSITIVE_X order.
var cubeFaces = []struct {
	name string
	dir  func(u, v float64) atmosphere.Vec3
}{
	{"px", func(u, v float64) atmosphere.Vec3 { return atmosphere.Vec3{X: 1, Y: -v, Z: -u} }},
	{"nx", func(u, v float64) atmosphere.Vec3 { return atmosphere.Vec3{X: -1, Y: -v, Z: u} }},
	{"py", func(u, v float64) atmosphere.Vec3 { return atmosphere.Vec3{X: u, Y: 1, Z: v} }},
	{"ny", func(u, v float64) atmosphere.Vec3 { return atmosphere.Vec3{X: u, Y: -1, Z: -v} }},
	{"pz", func(u, v float64) atmosphere.Vec3 { return atmosphere.Vec3{X: u, Y: -v, Z: 1} }},
	{"nz", func(u, v float64) atmosphere.Vec3 { return atmosphere.Vec3{X: -u, Y: -v, Z: -1} }},
}

// Bake renders the model's current parameters. All faces are rendered from
// one snapshot, so a concurrent update cannot tear the result.
func Bake(ctx context.Context, model *atmosphere.Model, opts Options, log *zap.Logger) ([]Face, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Size < 1 {
		return nil, fmt.Errorf("invalid bake size %d", opts.Size)
	}
	if opts.Supersample < 1 {
		opts.Supersample = 1
	}
	if opts.Exposure <= 0 {
		opts.Exposure = 1
	}

	snap := model.Acquire()
	start := time.Now()

	var faces []Face
	switch opts.Layout {
	case Equirect, "":
		img, err := renderEquirect(ctx, snap, opts)
		if err != nil {
			return nil, err
		}
		faces = append(faces, Face{Name: "sky", Image: img})

	case Cubemap:
		for _, f := range cubeFaces {
			img, err := renderFace(ctx, snap, opts, f.dir)
			if err != nil {
				return nil, fmt.Errorf("face %s: %w", f.name, err)
			}
			faces = append(faces, Face{Name: "sky_" + f.name, Image: img})
		}

	default:
		return nil, fmt.Errorf("unknown layout %q", opts.Layout)
	}

	log.Info("sky baked",
		zap.String("layout", string(opts.Layout)),
		zap.Int("size", opts.Size),
		zap.Int("faces", len(faces)),
		zap.Uint64("version", snap.Version),
		zap.Duration("elapsed", time.Since(start)),
	)
	return faces, nil
}

func renderEquirect(ctx context.Context, snap atmosphere.Snapshot, opts Options) (*image.NRGBA, error) {
	h := opts.Size * opts.Supersample
	w := h * 2
	img := image.NewNRGBA(image.Rect(0, 0, w, h))

	err := workpool.RunErr(ctx, h, opts.Workers, func(y int) error {
		v := (float64(y) + 0.5) / float64(h)
		for x := 0; x < w; x++ {
			u := (float64(x) + 0.5) / float64(w)
			c, err := snap.Evaluate(atmosphere.LatLongDirection(u, v))
			if err != nil {
				return err
			}
			img.SetNRGBA(x, y, Tonemap(c, opts.Exposure))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return downsample(img, opts.Size*2, opts.Size), nil
}

func renderFace(ctx context.Context, snap atmosphere.Snapshot, opts Options, dir func(u, v float64) atmosphere.Vec3) (*image.NRGBA, error) {
	n := opts.Size * opts.Supersample
	img := image.NewNRGBA(image.Rect(0, 0, n, n))

	err := workpool.RunErr(ctx, n, opts.Workers, func(y int) error {
		v := 2*(float64(y)+0.5)/float64(n) - 1
		for x := 0; x < n; x++ {
			u := 2*(float64(x)+0.5)/float64(n) - 1
			c, err := snap.Evaluate(dir(u, v).Normalize())
			if err != nil {
				return err
			}
			img.SetNRGBA(x, y, Tonemap(c, opts.Exposure))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return downsample(img, opts.Size, opts.Size), nil
}

// downsample scales img to w x h with Catmull-Rom filtering.
func downsample(img *image.NRGBA, w, h int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
