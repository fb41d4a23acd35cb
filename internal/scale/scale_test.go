package scale

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lionking1994/moodsart/internal/condition"
	"github.com/lionking1994/moodsart/internal/model"
)

func TestScaleFullIsIdentity(t *testing.T) {
	nominal := Nominal()
	got, err := Scale(nominal, model.ModeFull)
	require.NoError(t, err)
	assert.Equal(t, nominal, got)
	assert.Equal(t, 120, got.SARTTrialsPerBlock)
	assert.Equal(t, 12, got.VeltenStatementsPerPhase)
}

func TestScaleDemoFixedPolicy(t *testing.T) {
	// Demo counts are policy constants, not a ratio of the nominal values.
	nominals := []model.Params{
		Nominal(),
		{Mode: model.ModeFull, SARTTrialsPerBlock: 600, VeltenStatementsPerPhase: 50},
		{Mode: model.ModeFull, SARTTrialsPerBlock: 7, VeltenStatementsPerPhase: 2},
	}
	for _, nominal := range nominals {
		got, err := Scale(nominal, model.ModeDemo)
		require.NoError(t, err)
		assert.Equal(t, 10, got.SARTTrialsPerBlock)
		assert.Equal(t, 3, got.VeltenStatementsPerPhase)
		assert.Equal(t, model.ModeDemo, got.Mode)
	}
}

func TestScaleRejectsNonPositiveNominal(t *testing.T) {
	_, err := Scale(model.Params{Mode: model.ModeFull, SARTTrialsPerBlock: 0, VeltenStatementsPerPhase: 12}, model.ModeFull)
	require.Error(t, err)
}

func TestScaleRejectsUnknownMode(t *testing.T) {
	_, err := Scale(Nominal(), model.Mode("practice"))
	require.Error(t, err)
}

// Regression test for the ordering defect where the operator status line
// reported the unscaled counts because the message was generated before
// scaling was applied. The line must always come from scaled values.
func TestStatusLineReportsScaledValues(t *testing.T) {
	cond, err := condition.Get(1)
	require.NoError(t, err)

	scaled, err := Scale(Nominal(), model.ModeDemo)
	require.NoError(t, err)

	line := StatusLine(scaled, cond)
	assert.Contains(t, line, "sart_trials_per_block=10")
	assert.Contains(t, line, "velten_statements_per_phase=3")
	assert.NotContains(t, line, "sart_trials_per_block=120")
	assert.NotContains(t, line, "velten_statements_per_phase=12")
}

func TestEstimateDurationScalesWithMode(t *testing.T) {
	cond, err := condition.Get(1)
	require.NoError(t, err)

	full, err := Scale(Nominal(), model.ModeFull)
	require.NoError(t, err)
	demo, err := Scale(Nominal(), model.ModeDemo)
	require.NoError(t, err)

	assert.Greater(t, EstimateDuration(full, cond), EstimateDuration(demo, cond))

	line := StatusLine(demo, cond)
	assert.True(t, strings.Contains(line, "est_duration=~"), "line %q missing duration", line)
}
