package devicebus

// deviceNames maps device codes to station display names. A device
// missing here keeps its raw code as the station name, so new field
// hardware surfaces immediately instead of being dropped.
var deviceNames = map[string]string{
	"G15":       "GIẾNG SỐ 15",
	"G18":       "GIẾNG SỐ 18",
	"G29A":      "GIẾNG SỐ 29A",
	"G30A":      "GIẾNG SỐ 30A",
	"G31B":      "GIẾNG SỐ 31B",
	"GS1_NM2":   "NHÀ MÁY SỐ 1 - GIẾNG SỐ 2",
	"GS2_NM1":   "NHÀ MÁY SỐ 2 - GIẾNG SỐ 1",
	"GTACVAN":   "GIẾNG TẮC VẠN",
	"QT1_NM2":   "QT1-NM2 (Quan trắc NM2)",
	"QT2":       "QT2 (182/GP-BTNMT)",
	"QT2_NM2":   "QT2-NM2 (Quan trắc NM2)",
	"QT2M":      "QT2 (182/GP-BTNMT)",
	"QT4":       "QT4 (Quan trắc)",
	"QT5":       "QT5 (Quan trắc)",
	"LUULUONG1": "TRẠM ĐO LƯU LƯỢNG 1",
}

// parameterNames maps parameter type codes to display names. Unknown
// types keep their raw code.
var parameterNames = map[string]string{
	"LUULUONG":     "Lưu lượng",
	"MUCNUOC":      "Mực nước",
	"NHIETDO":      "Nhiệt độ nước",
	"TONGLUULUONG": "Tổng lưu lượng",
}

var parameterUnits = map[string]string{
	"LUULUONG":     "m³/h",
	"MUCNUOC":      "m",
	"NHIETDO":      "°C",
	"TONGLUULUONG": "m³",
}

// StationName resolves a device code to its display name.
func StationName(device string) string {
	if name, ok := deviceNames[device]; ok {
		return name
	}
	return device
}

// ParameterName resolves a parameter type code to its display name.
func ParameterName(parameterType string) string {
	if name, ok := parameterNames[parameterType]; ok {
		return name
	}
	return parameterType
}

// ParameterUnit resolves a parameter type code to its unit, empty for
// unknown types.
func ParameterUnit(parameterType string) string {
	return parameterUnits[parameterType]
}
