package devicebus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestParseTagSimpleDevice(t *testing.T) {
	device, param, ok := ParseTag("G30A_MUCNUOC")
	require.True(t, ok)
	assert.Equal(t, "G30A", device)
	assert.Equal(t, "MUCNUOC", param)
}

func TestParseTagCompoundDevice(t *testing.T) {
	device, param, ok := ParseTag("GS1_NM2_LUULUONG")
	require.True(t, ok)
	assert.Equal(t, "GS1_NM2", device)
	assert.Equal(t, "LUULUONG", param)

	device, param, ok = ParseTag("QT2_NM2_TONGLUULUONG")
	require.True(t, ok)
	assert.Equal(t, "QT2_NM2", device)
	assert.Equal(t, "TONGLUULUONG", param)
}

func TestParseTagNonCompoundKeepsFullSuffix(t *testing.T) {
	// GTACVAN is not a compound prefix, so everything after the first
	// underscore is the parameter type.
	device, param, ok := ParseTag("GTACVAN_TONG_LUULUONG")
	require.True(t, ok)
	assert.Equal(t, "GTACVAN", device)
	assert.Equal(t, "TONG_LUULUONG", param)
}

func TestParseTagRejectsBareDevice(t *testing.T) {
	_, _, ok := ParseTag("G30A")
	assert.False(t, ok)
	_, _, ok = ParseTag("")
	assert.False(t, ok)
}

func TestDecodeRejectsNonDataFrames(t *testing.T) {
	_, ok := Decode([]byte("telemetry"))
	assert.False(t, ok)
	_, ok = Decode([]byte(`{"status":"ok"}`))
	assert.False(t, ok)
	_, ok = Decode([]byte("not json at all"))
	assert.False(t, ok)
}

func TestDecodeDataFrame(t *testing.T) {
	msg, ok := Decode([]byte(`{"ts":"2025-03-01T10:00:00Z","d":[{"tag":"G30A_MUCNUOC","value":5.2}]}`))
	require.True(t, ok)
	assert.Equal(t, "2025-03-01T10:00:00Z", msg.Timestamp)
	require.Len(t, msg.Data, 1)
	assert.Equal(t, 5.2, *msg.Data[0].Value)
}

func TestAccumulatorMergesPartialFrames(t *testing.T) {
	a := NewAccumulator(map[string]Coordinate{"G30A": {Lat: 10.95, Lng: 106.82}})

	// Two frames each carrying one parameter for the same device.
	a.Apply(Message{Timestamp: "2025-03-01T10:00:00Z", Data: []TagValue{
		{Tag: "G30A_MUCNUOC", Value: f(5.2)},
	}})
	a.Apply(Message{Timestamp: "2025-03-01T10:05:00Z", Data: []TagValue{
		{Tag: "G30A_LUULUONG", Value: f(120)},
	}})

	batch := a.Batch()
	require.Len(t, batch, 1)
	st := batch[0]
	assert.Equal(t, "GIẾNG SỐ 30A", st.Name)
	assert.Equal(t, "G30A", st.DeviceName)
	assert.Equal(t, "2025-03-01T10:05:00Z", st.UpdateTime)
	require.NotNil(t, st.Lat)
	assert.Equal(t, 10.95, *st.Lat)
	require.Len(t, st.Parameters, 2)
	// Alphabetical by type code: LUULUONG then MUCNUOC.
	assert.Equal(t, "Lưu lượng", st.Parameters[0].Name)
	assert.Equal(t, "m³/h", st.Parameters[0].Unit)
	assert.Equal(t, "Mực nước", st.Parameters[1].Name)
}

func TestAccumulatorNewerValueReplacesOlder(t *testing.T) {
	a := NewAccumulator(nil)

	a.Apply(Message{Timestamp: "t1", Data: []TagValue{{Tag: "G15_NHIETDO", Value: f(26.1)}}})
	a.Apply(Message{Timestamp: "t2", Data: []TagValue{{Tag: "G15_NHIETDO", Value: f(26.4)}}})

	batch := a.Batch()
	require.Len(t, batch, 1)
	require.Len(t, batch[0].Parameters, 1)
	assert.Equal(t, 26.4, *batch[0].Parameters[0].Value)
	assert.Nil(t, batch[0].Lat)
}

func TestAccumulatorSkipsValuelessAndBadTags(t *testing.T) {
	a := NewAccumulator(nil)

	applied := a.Apply(Message{Timestamp: "t1", Data: []TagValue{
		{Tag: "G15_MUCNUOC", Value: nil},
		{Tag: "NOPARAM", Value: f(1)},
		{Tag: "G18_MUCNUOC", Value: f(3.3)},
	}})

	assert.Equal(t, 1, applied)
	assert.Equal(t, 1, a.DeviceCount())
}

func TestParseCoordinates(t *testing.T) {
	coords, err := ParseCoordinates("G30A=9.176,105.150; GS1_NM2 = 9.181 , 105.152 ;")
	require.NoError(t, err)
	require.Len(t, coords, 2)
	assert.Equal(t, Coordinate{Lat: 9.176, Lng: 105.150}, coords["G30A"])
	assert.Equal(t, Coordinate{Lat: 9.181, Lng: 105.152}, coords["GS1_NM2"])
}

func TestParseCoordinatesEmptyInput(t *testing.T) {
	coords, err := ParseCoordinates("")
	require.NoError(t, err)
	assert.Empty(t, coords)
}

func TestParseCoordinatesRejectsMalformedEntries(t *testing.T) {
	_, err := ParseCoordinates("G30A")
	assert.Error(t, err)
	_, err = ParseCoordinates("G30A=9.176")
	assert.Error(t, err)
	_, err = ParseCoordinates("G30A=north,east")
	assert.Error(t, err)
}

func TestParsedCoordinatesReachTheBatch(t *testing.T) {
	coords, err := ParseCoordinates("G18=9.20,105.11")
	require.NoError(t, err)

	a := NewAccumulator(coords)
	a.Apply(Message{Timestamp: "t1", Data: []TagValue{{Tag: "G18_MUCNUOC", Value: f(3.3)}}})

	batch := a.Batch()
	require.Len(t, batch, 1)
	require.NotNil(t, batch[0].Lat)
	assert.Equal(t, 9.20, *batch[0].Lat)
	assert.Equal(t, 105.11, *batch[0].Lng)
}

func TestUnknownDeviceKeepsRawCode(t *testing.T) {
	a := NewAccumulator(nil)
	a.Apply(Message{Timestamp: "t1", Data: []TagValue{{Tag: "G99_MUCNUOC", Value: f(1)}}})

	batch := a.Batch()
	require.Len(t, batch, 1)
	assert.Equal(t, "G99", batch[0].Name)
}
