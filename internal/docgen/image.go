package docgen

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

const (
	optimizedMaxSize     = 500
	optimizedJpegQuality = 50
)

// OptimizeImage rewrites an uploaded image as a small flat JPEG so the
// resulting zip stays below the mail transport's attachment limit. The
// image is fit inside 500x500, any transparency is flattened onto white,
// and the copy is written next to the original as <name>_final.jpg.
func OptimizeImage(uploadPath string) (string, error) {
	img, err := imaging.Open(uploadPath, imaging.AutoOrientation(true))
	if err != nil {
		return "", err
	}

	img = imaging.Fit(img, optimizedMaxSize, optimizedMaxSize, imaging.Lanczos)

	// PNG uploads may carry an alpha channel; JPEG has none
	background := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), color.White)
	flattened := imaging.Overlay(background, img, image.Pt(0, 0), 1.0)

	optimizedPath := uploadPath + "_final.jpg"
	if err := imaging.Save(flattened, optimizedPath, imaging.JPEGQuality(optimizedJpegQuality)); err != nil {
		return "", err
	}
	return optimizedPath, nil
}
