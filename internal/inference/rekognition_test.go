package inference

import (
	"context"
	"errors"
	"testing"

	"github.com/Veraticus/foodlens/internal/common"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDetectLabels struct {
	err    error
	out    *rekognition.DetectLabelsOutput
	inputs []*rekognition.DetectLabelsInput
}

func (f *fakeDetectLabels) DetectLabels(_ context.Context, params *rekognition.DetectLabelsInput, _ ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

func label(name string, confidence float32, categories ...string) types.Label {
	l := types.Label{Name: aws.String(name), Confidence: aws.Float32(confidence)}
	for _, c := range categories {
		l.Categories = append(l.Categories, types.LabelCategory{Name: aws.String(c)})
	}
	return l
}

func TestRekognitionAnalyzer_Analyze(t *testing.T) {
	photo := testPNG(t)

	t.Run("maps labels through tiers", func(t *testing.T) {
		fake := &fakeDetectLabels{out: &rekognition.DetectLabelsOutput{Labels: []types.Label{
			label("Food", 99.8, foodCategory),
			label("Pizza", 97.1, foodCategory),
			label("Table", 95.0, "Home and Indoors"),
			label("Pepperoni", 81.3, foodCategory),
			label("Basil", 60.2),
			label("Meal", 90.0, foodCategory),
		}}}
		a := NewRekognitionAnalyzerWithClient(fake, Config{}, common.DiscardLogger())

		preds, err := a.Analyze(context.Background(), photo)

		require.NoError(t, err)
		assert.Equal(t, []string{"Pizza", "Pepperoni", "Basil"}, preds.Labels())
		assert.InDelta(t, 0.9, preds[0].Confidence, 1e-9)
		assert.InDelta(t, 0.7, preds[1].Confidence, 1e-9)
		assert.InDelta(t, 0.5, preds[2].Confidence, 1e-9)

		require.Len(t, fake.inputs, 1)
		assert.Equal(t, photo, fake.inputs[0].Image.Bytes)
		assert.Equal(t, int32(15), aws.ToInt32(fake.inputs[0].MaxLabels))
	})

	t.Run("rejected image", func(t *testing.T) {
		fake := &fakeDetectLabels{err: &types.InvalidImageFormatException{Message: aws.String("bad format")}}
		a := NewRekognitionAnalyzerWithClient(fake, Config{}, common.DiscardLogger())

		_, err := a.Analyze(context.Background(), photo)

		assert.ErrorIs(t, err, common.ErrInvalidImage)
	})

	t.Run("service failure is a network error", func(t *testing.T) {
		fake := &fakeDetectLabels{err: errors.New("dial tcp: i/o timeout")}
		a := NewRekognitionAnalyzerWithClient(fake, Config{}, common.DiscardLogger())

		_, err := a.Analyze(context.Background(), photo)

		assert.ErrorIs(t, err, common.ErrNetwork)
	})

	t.Run("undecodable bytes are rejected locally", func(t *testing.T) {
		fake := &fakeDetectLabels{}
		a := NewRekognitionAnalyzerWithClient(fake, Config{}, common.DiscardLogger())

		_, err := a.Analyze(context.Background(), []byte("garbage"))

		assert.ErrorIs(t, err, common.ErrInvalidImage)
		assert.Empty(t, fake.inputs)
	})
}

func TestNewRekognitionAnalyzer_RequiresRegion(t *testing.T) {
	_, err := NewRekognitionAnalyzer(context.Background(), Config{}, nil)
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}
