package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractValuePrefersNumericField(t *testing.T) {
	v := 7.25
	got := extractValue(ParameterReading{Value: &v, DisplayText: "999"})
	require.NotNil(t, got)
	assert.Equal(t, 7.25, *got)
}

func TestExtractValueParsesDisplayTextWithSeparators(t *testing.T) {
	got := extractValue(ParameterReading{DisplayText: "703,880"})
	require.NotNil(t, got)
	assert.Equal(t, 703880.0, *got)
}

func TestExtractValueUnparseableTextYieldsNull(t *testing.T) {
	assert.Nil(t, extractValue(ParameterReading{DisplayText: "--"}))
	assert.Nil(t, extractValue(ParameterReading{}))
}

func TestValidateBatchSkipsNamelessRows(t *testing.T) {
	v := 1.0
	batch := []StationReadings{
		{Name: "  ", Parameters: []ParameterReading{{Name: "pH", Value: &v}}},
		{Name: "Plant-1", Parameters: []ParameterReading{
			{Name: "", Value: &v},
			{Name: "Mực nước", Value: &v},
		}},
		{Name: "Plant-2", Parameters: []ParameterReading{{Name: ""}}},
	}

	clean := validateBatch(SourceExternal, batch)

	// The blank station and the station left with zero parameters are
	// both dropped; Plant-1 survives with only its named parameter.
	require.Len(t, clean, 1)
	assert.Equal(t, "Plant-1", clean[0].Name)
	require.Len(t, clean[0].Parameters, 1)
	assert.Equal(t, "Mực nước", clean[0].Parameters[0].Name)
}

func TestStationIDCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "mqtt_Well_12", StationID(SourceDeviceBus, "Well  12"))
	assert.Equal(t, "ext_Plant_A", StationID(SourceExternal, " Plant A "))
	assert.Equal(t, "scada_GS1", StationID(SourceScada, "GS1"))
}
