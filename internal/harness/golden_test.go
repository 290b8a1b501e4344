package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGoldenSingleAlertEnd(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "single-alert-end.yaml"))
	require.NoError(t, err)

	require.NoError(t, RunWithGolden(t, scenario))
}
