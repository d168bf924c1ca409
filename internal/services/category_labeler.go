package services

import (
	"context"
	"strings"

	"github.com/anonto42/canvas-social/backend/internal/models"
)

// Labeler describes an image with free-form labels.
type Labeler interface {
	Labels(ctx context.Context, imageRef string) ([]string, error)
}

// artLabels are the label fragments that name an art category.
var artLabels = []string{
	"painting", "drawing", "art", "sculpture", "photography", "abstract",
	"canvas", "illustration", "portrait", "graffiti", "watercolor", "charcoal",
	"collage", "mosaic", "mixed media", "printmaking", "ceramics", "pottery",
	"stained glass", "origami", "embroidery", "woodwork", "metalwork", "crafts",
	"miniature", "diorama", "architectural model", "scale model", "fractal",
	"graphics", "astronomy", "universe", "outer space",
}

// pickArtCategory returns the first label that mentions an art label.
func pickArtCategory(labels []string) (string, bool) {
	for _, label := range labels {
		l := models.NormalizeCategoryTitle(label)
		for _, art := range artLabels {
			if strings.Contains(l, art) {
				return l, true
			}
		}
	}
	return "", false
}
