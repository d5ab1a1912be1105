package inference

import (
	"testing"

	"github.com/Veraticus/foodlens/internal/common"
	"github.com/Veraticus/foodlens/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanMarkdownWrapper(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", input: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", input: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "chatter around object", input: "Sure! Here you go: {\"a\":{\"b\":2}} hope that helps", want: `{"a":{"b":2}}`},
		{name: "no object", input: "nothing here", want: "nothing here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanMarkdownWrapper(tt.input))
		})
	}
}

func TestParseLocalPredictions(t *testing.T) {
	t.Run("sorted, clamped and capped", func(t *testing.T) {
		content := `{"predictions":[
			{"label":"rice","confidence":0.2},
			{"label":"curry","confidence":1.4},
			{"label":"  ","confidence":0.9},
			{"label":"naan","confidence":0.5},
			{"label":"dal","confidence":-3}
		]}`

		preds, err := parseLocalPredictions(content, 3)

		require.NoError(t, err)
		assert.Equal(t, []string{"curry", "naan", "rice"}, preds.Labels())
		assert.InDelta(t, 1.0, preds[0].Confidence, 1e-9)
		for _, p := range preds {
			assert.Equal(t, model.SourceLocal, p.Source)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := parseLocalPredictions("I think it is soup", 5)
		assert.ErrorIs(t, err, common.ErrClassificationFailed)
	})

	t.Run("empty list", func(t *testing.T) {
		preds, err := parseLocalPredictions(`{"predictions":[]}`, 5)
		require.NoError(t, err)
		assert.Empty(t, preds)
	})
}

func TestParseFoodList(t *testing.T) {
	content := "```json\n" + `{"foods":[
		{"name":"Grilled salmon","confidence":"high","portion":"1 fillet","grams":180},
		{"name":"Asparagus","confidence":"medium","portion":"6 spears"},
		{"name":"Lemon","confidence":"low"},
		{"name":"Sauce","confidence":"unsure"},
		{"name":"Rice","confidence":0.8},
		{"name":"","confidence":"high"},
		{"name":"Bread","grams":0}
	]}` + "\n```"

	preds, err := parseFoodList(content)

	require.NoError(t, err)
	require.Len(t, preds, 6)

	assert.Equal(t, "Grilled salmon", preds[0].Label)
	assert.InDelta(t, 0.9, preds[0].Confidence, 1e-9)
	require.NotNil(t, preds[0].Portion)
	assert.Equal(t, "1 fillet", preds[0].Portion.Description)
	require.NotNil(t, preds[0].Portion.Grams)
	assert.InDelta(t, 180.0, *preds[0].Portion.Grams, 1e-9)

	assert.InDelta(t, 0.7, preds[1].Confidence, 1e-9)
	assert.Nil(t, preds[1].Portion.Grams)

	assert.InDelta(t, 0.5, preds[2].Confidence, 1e-9)
	assert.Nil(t, preds[2].Portion)

	assert.InDelta(t, 0.6, preds[3].Confidence, 1e-9)
	assert.InDelta(t, 0.7, preds[4].Confidence, 1e-9, "0.8 buckets to medium")

	require.NotNil(t, preds[5].Portion)
	assert.Nil(t, preds[5].Portion.Grams, "zero grams is not an estimate")
	assert.InDelta(t, 0.6, preds[5].Confidence, 1e-9)

	for _, p := range preds {
		assert.Equal(t, model.SourceRemote, p.Source)
	}
}

func TestParseFoodList_Invalid(t *testing.T) {
	_, err := parseFoodList("no json at all")
	assert.ErrorIs(t, err, common.ErrParse)
}
