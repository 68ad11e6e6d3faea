package config_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/asynkron/jsengine/internal/config"
)

func TestLoadDecodesKnownFields(t *testing.T) {
	ov, err := config.Load(strings.NewReader(`
executionTimeoutMs: 5000
maxCallDepth: 750
enableAsyncIteratorTrace: true
compatibilityMode: "es2020"
`))
	require.NoError(t, err)
	require.NotNil(t, ov.ExecutionTimeoutMS)
	require.EqualValues(t, 5000, *ov.ExecutionTimeoutMS)
	require.NotNil(t, ov.MaxCallDepth)
	require.Equal(t, 750, *ov.MaxCallDepth)
	require.NotNil(t, ov.EnableAsyncIteratorTrace)
	require.True(t, *ov.EnableAsyncIteratorTrace)
	require.NotNil(t, ov.CompatibilityMode)
	require.Equal(t, "es2020", *ov.CompatibilityMode)
}

func TestLoadPartialDocumentLeavesOtherFieldsNil(t *testing.T) {
	ov, err := config.Load(strings.NewReader(`maxCallDepth: 100`))
	require.NoError(t, err)
	require.NotNil(t, ov.MaxCallDepth)
	require.Nil(t, ov.ExecutionTimeoutMS)
	require.Nil(t, ov.EnableAsyncIteratorTrace)
	require.Nil(t, ov.CompatibilityMode)
}

func TestLoadEmptyDocumentIsZeroOverlay(t *testing.T) {
	ov, err := config.Load(strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, config.Overlay{}, ov)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := config.Load(strings.NewReader("maxCallDepth: [this is not an int"))
	require.Error(t, err)
}
