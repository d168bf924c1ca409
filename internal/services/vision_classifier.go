package services

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"
)

// VisionClassifier rates images with Cloud Vision SafeSearch.
type VisionClassifier struct {
	svc *vision.Service
}

// NewVisionClassifier builds a classifier; opts carry credentials or, in
// tests, an alternate endpoint.
func NewVisionClassifier(ctx context.Context, opts ...option.ClientOption) (*VisionClassifier, error) {
	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vision client: %w", err)
	}
	return &VisionClassifier{svc: svc}, nil
}

func (v *VisionClassifier) Classify(ctx context.Context, imageRef string) (Verdict, error) {
	r, err := v.annotate(ctx, imageRef, "SAFE_SEARCH_DETECTION")
	if err != nil {
		return Verdict{}, err
	}
	if r.SafeSearchAnnotation == nil {
		return Verdict{}, nil
	}
	return Verdict{
		Adult:    parseLikelihood(r.SafeSearchAnnotation.Adult),
		Violence: parseLikelihood(r.SafeSearchAnnotation.Violence),
		Racy:     parseLikelihood(r.SafeSearchAnnotation.Racy),
	}, nil
}

// Labels returns the label descriptions Vision detects, most confident first.
func (v *VisionClassifier) Labels(ctx context.Context, imageRef string) ([]string, error) {
	r, err := v.annotate(ctx, imageRef, "LABEL_DETECTION")
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(r.LabelAnnotations))
	for _, a := range r.LabelAnnotations {
		labels = append(labels, a.Description)
	}
	return labels, nil
}

func (v *VisionClassifier) annotate(ctx context.Context, imageRef, feature string) (*vision.AnnotateImageResponse, error) {
	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{{
			Image:    &vision.Image{Source: &vision.ImageSource{ImageUri: imageRef}},
			Features: []*vision.Feature{{Type: feature}},
		}},
	}
	resp, err := v.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	if len(resp.Responses) == 0 {
		return nil, errors.New("vision returned no annotation")
	}
	r := resp.Responses[0]
	if r.Error != nil {
		return nil, fmt.Errorf("vision: %s", r.Error.Message)
	}
	return r, nil
}

func parseLikelihood(s string) Likelihood {
	switch s {
	case "VERY_UNLIKELY":
		return VeryUnlikely
	case "UNLIKELY":
		return Unlikely
	case "POSSIBLE":
		return Possible
	case "LIKELY":
		return Likely
	case "VERY_LIKELY":
		return VeryLikely
	default:
		return LikelihoodUnknown
	}
}
