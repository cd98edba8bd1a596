package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsValidate(t *testing.T) {
	cfg := Load()

	err := cfg.Validate()

	require.NoError(t, err)
	assert.Equal(t, DialectEmbedded, cfg.Store.Dialect)
}

func TestDialectFromURL(t *testing.T) {
	assert.Equal(t, DialectEmbedded, dialectFromURL("embedded://local"))
	assert.Equal(t, DialectEmbedded, dialectFromURL(""))
	assert.Equal(t, DialectServer, dialectFromURL("postgres://localhost/db"))
}

func TestGraph_Validate_RejectsBadWeightSum(t *testing.T) {
	g := Graph{WeightVector: 0.5, WeightTags: 0.5, WeightClassification: 0.5}

	err := g.Validate()

	assert.Error(t, err)
}

func TestGraph_Validate_AcceptsDefaultWeights(t *testing.T) {
	g := Graph{WeightVector: 0.6, WeightTags: 0.25, WeightClassification: 0.15}

	assert.NoError(t, g.Validate())
}

func TestQuality_Validate_RejectsBadWeightSum(t *testing.T) {
	q := Quality{WeightAccuracy: 1, WeightCompleteness: 1}

	assert.Error(t, q.Validate())
}

func TestConfig_Validate_RejectsMissingRequiredFields(t *testing.T) {
	cfg := Config{}

	err := cfg.Validate()

	assert.Error(t, err)
}
