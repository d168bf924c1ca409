package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/anonto42/canvas-social/backend/internal/models"
	"github.com/anonto42/canvas-social/backend/internal/repositories"
	"github.com/anonto42/canvas-social/backend/pkg/metrics"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ExplicitContentMessage is returned when an image is rejected.
const ExplicitContentMessage = "The uploaded image contains highly explicit content."

// Likelihood is a classifier confidence bucket.
type Likelihood int

const (
	LikelihoodUnknown Likelihood = iota
	VeryUnlikely
	Unlikely
	Possible
	Likely
	VeryLikely
)

// Verdict is a classifier's opinion about one image.
type Verdict struct {
	Adult    Likelihood
	Violence Likelihood
	Racy     Likelihood
}

// Explicit reports whether any category is very likely.
func (v Verdict) Explicit() bool {
	return v.Adult == VeryLikely || v.Violence == VeryLikely || v.Racy == VeryLikely
}

func (v Verdict) reason() string {
	var parts []string
	if v.Adult == VeryLikely {
		parts = append(parts, "adult")
	}
	if v.Violence == VeryLikely {
		parts = append(parts, "violence")
	}
	if v.Racy == VeryLikely {
		parts = append(parts, "racy")
	}
	return "explicit content: " + strings.Join(parts, ",")
}

// Classifier rates an uploaded image reference. Implementations call an
// external vision service.
type Classifier interface {
	Classify(ctx context.Context, imageRef string) (Verdict, error)
}

// AllowAll is the classifier used when no vision service is configured.
type AllowAll struct{}

func (AllowAll) Classify(context.Context, string) (Verdict, error) {
	return Verdict{}, nil
}

// ModerationService gates post images. A rejected upload counts a violation
// against the author and bans them at the threshold.
type ModerationService struct {
	classifier   Classifier
	users        repositories.UserRepository
	violations   repositories.ViolationRepository
	banThreshold int
	logger       *zap.Logger
}

// NewModerationService builds the gate. violations may be nil when the
// audit ledger is not configured.
func NewModerationService(classifier Classifier, users repositories.UserRepository, violations repositories.ViolationRepository, banThreshold int, logger *zap.Logger) *ModerationService {
	if classifier == nil {
		classifier = AllowAll{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModerationService{
		classifier:   classifier,
		users:        users,
		violations:   violations,
		banThreshold: banThreshold,
		logger:       logger,
	}
}

// Check classifies every image and rejects the first explicit one.
func (m *ModerationService) Check(ctx context.Context, authorID primitive.ObjectID, images []string) error {
	for _, ref := range images {
		verdict, err := m.classifier.Classify(ctx, ref)
		if err != nil {
			return fmt.Errorf("classify image %q: %w", ref, err)
		}
		if !verdict.Explicit() {
			continue
		}

		metrics.ModerationRejections.Inc()
		user, err := m.users.IncrementViolations(ctx, authorID, m.banThreshold)
		if err != nil {
			m.logger.Error("failed to record violation count", zap.String("user", authorID.Hex()), zap.Error(err))
		} else if user.IsBanned {
			m.logger.Warn("user banned after repeated violations",
				zap.String("user", authorID.Hex()), zap.Int("violations", user.Violations))
		}
		if m.violations != nil {
			v := &models.Violation{UserID: authorID.Hex(), Reason: verdict.reason()}
			if err := m.violations.Record(ctx, v); err != nil {
				m.logger.Error("failed to write violation ledger", zap.String("user", authorID.Hex()), zap.Error(err))
			}
		}
		return models.NewValidationError(ExplicitContentMessage)
	}
	return nil
}
