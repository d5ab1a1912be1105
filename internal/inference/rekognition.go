package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/foodlens/internal/common"
	"github.com/Veraticus/foodlens/internal/model"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// DetectLabelsAPI is the slice of the Rekognition client the analyzer uses.
type DetectLabelsAPI interface {
	DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// Labels too broad to be worth logging as a food.
var genericFoodLabels = map[string]bool{
	"food":      true,
	"meal":      true,
	"dish":      true,
	"plate":     true,
	"produce":   true,
	"dinner":    true,
	"lunch":     true,
	"breakfast": true,
}

const foodCategory = "Food and Beverage"

// RekognitionAnalyzer labels photos with AWS Rekognition DetectLabels.
// Rekognition scores are percentages; they are bucketed into tiers so both
// remote providers share one confidence scale.
type RekognitionAnalyzer struct {
	client        DetectLabelsAPI
	logger        *slog.Logger
	rateLimiter   *rateLimiter
	maxLabels     int32
	minConfidence float32
}

// NewRekognitionAnalyzer loads AWS credentials from the default chain.
func NewRekognitionAnalyzer(ctx context.Context, cfg Config, logger *slog.Logger) (*RekognitionAnalyzer, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("%w: AWS region is required for rekognition", common.ErrMissingConfig)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewRekognitionAnalyzerWithClient(rekognition.NewFromConfig(awsCfg), cfg, logger), nil
}

// NewRekognitionAnalyzerWithClient wraps an existing client.
func NewRekognitionAnalyzerWithClient(client DetectLabelsAPI, cfg Config, logger *slog.Logger) *RekognitionAnalyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &RekognitionAnalyzer{
		client:        client,
		logger:        logger,
		rateLimiter:   newRateLimiter(cfg.RateLimit),
		maxLabels:     15,
		minConfidence: 50,
	}
}

// Analyze implements service.RemoteAnalyzer.
func (a *RekognitionAnalyzer) Analyze(ctx context.Context, image []byte) (model.Predictions, error) {
	format, _, err := inspectImage(image)
	if err != nil {
		return nil, err
	}
	if format != "jpeg" && format != "png" {
		return nil, fmt.Errorf("%w: rekognition accepts JPEG or PNG, got %s", common.ErrInvalidImage, format)
	}

	if err := a.rateLimiter.wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrNetwork, err)
	}

	start := time.Now()
	out, err := a.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: image},
		MaxLabels:     aws.Int32(a.maxLabels),
		MinConfidence: aws.Float32(a.minConfidence),
	})
	if err != nil {
		return nil, classifyRekognitionError(err)
	}

	preds := make(model.Predictions, 0, len(out.Labels))
	for _, label := range out.Labels {
		name := strings.TrimSpace(aws.ToString(label.Name))
		if name == "" || genericFoodLabels[strings.ToLower(name)] || !isFoodLabel(label) {
			continue
		}
		tier := tierFromPercent(float64(aws.ToFloat32(label.Confidence)))
		preds = append(preds, model.NewPrediction(name, TierConfidence(tier), model.SourceRemote))
	}
	preds.SortByConfidence()

	a.logger.Debug("Remote analysis finished",
		"provider", ProviderRekognition,
		"labels", len(out.Labels),
		"predictions", len(preds),
		"duration", time.Since(start))
	return preds, nil
}

// isFoodLabel keeps labels in the food category. Labels without categories
// are kept, since older API versions do not report them.
func isFoodLabel(label types.Label) bool {
	if len(label.Categories) == 0 {
		return true
	}
	for _, c := range label.Categories {
		if aws.ToString(c.Name) == foodCategory {
			return true
		}
	}
	return false
}

func classifyRekognitionError(err error) error {
	var (
		invalidFormat *types.InvalidImageFormatException
		tooLarge      *types.ImageTooLargeException
		invalidParam  *types.InvalidParameterException
	)
	switch {
	case errors.As(err, &invalidFormat), errors.As(err, &tooLarge), errors.As(err, &invalidParam):
		return fmt.Errorf("%w: %w", common.ErrInvalidImage, err)
	default:
		return fmt.Errorf("%w: rekognition request failed: %w", common.ErrNetwork, err)
	}
}
