package scada

import "sort"

// Channel ties a portal channel number to the station and parameter
// it measures. Channels absent from this table are logged and skipped
// at grouping time.
type Channel struct {
	Station   string
	Parameter string
	Unit      string
}

var channelMap = map[int]Channel{
	// GIẾNG SỐ 5 NM1
	2907: {Station: "GIẾNG SỐ 5 NM1", Parameter: "Mực nước", Unit: "m"},
	2909: {Station: "GIẾNG SỐ 5 NM1", Parameter: "Lưu lượng", Unit: "m³/h"},
	2910: {Station: "GIẾNG SỐ 5 NM1", Parameter: "Tổng lưu lượng", Unit: "m³"},
	2928: {Station: "GIẾNG SỐ 5 NM1", Parameter: "Amoni", Unit: "mg/L"},
	2929: {Station: "GIẾNG SỐ 5 NM1", Parameter: "Nitrat", Unit: "mg/L"},
	2930: {Station: "GIẾNG SỐ 5 NM1", Parameter: "pH"},
	2931: {Station: "GIẾNG SỐ 5 NM1", Parameter: "TDS", Unit: "mg/L"},

	// GIẾNG SỐ 4 NM2
	2902: {Station: "GIẾNG SỐ 4 NM2", Parameter: "Mực nước", Unit: "m"},
	2904: {Station: "GIẾNG SỐ 4 NM2", Parameter: "Lưu lượng", Unit: "m³/h"},
	2905: {Station: "GIẾNG SỐ 4 NM2", Parameter: "Tổng lưu lượng", Unit: "m³"},
	2932: {Station: "GIẾNG SỐ 4 NM2", Parameter: "Amoni", Unit: "mg/L"},
	2933: {Station: "GIẾNG SỐ 4 NM2", Parameter: "Nitrat", Unit: "mg/L"},
	2934: {Station: "GIẾNG SỐ 4 NM2", Parameter: "pH"},
	2935: {Station: "GIẾNG SỐ 4 NM2", Parameter: "TDS", Unit: "mg/L"},

	// GIẾNG SỐ 4 NM1
	2912: {Station: "GIẾNG SỐ 4 NM1", Parameter: "Mực nước", Unit: "m"},
	2914: {Station: "GIẾNG SỐ 4 NM1", Parameter: "Lưu lượng", Unit: "m³/h"},
	2915: {Station: "GIẾNG SỐ 4 NM1", Parameter: "Tổng lưu lượng", Unit: "m³"},

	// TRẠM BƠM SỐ 1
	2917: {Station: "TRẠM BƠM SỐ 1", Parameter: "Mực nước", Unit: "m"},
	2919: {Station: "TRẠM BƠM SỐ 1", Parameter: "Lưu lượng", Unit: "m³/h"},
	2920: {Station: "TRẠM BƠM SỐ 1", Parameter: "Tổng lưu lượng", Unit: "m³"},

	// TRẠM BƠM SỐ 24 (QT24)
	2922: {Station: "TRẠM BƠM SỐ 24 (QT24)", Parameter: "Amoni", Unit: "mg/L"},
	2923: {Station: "TRẠM BƠM SỐ 24 (QT24)", Parameter: "Nitrat", Unit: "mg/L"},
	2925: {Station: "TRẠM BƠM SỐ 24 (QT24)", Parameter: "Mực nước", Unit: "m"},
	2926: {Station: "TRẠM BƠM SỐ 24 (QT24)", Parameter: "pH"},
	2927: {Station: "TRẠM BƠM SỐ 24 (QT24)", Parameter: "TDS", Unit: "mg/L"},
}

// ChannelNumbers returns every mapped channel number in ascending
// order, the list sent to the channel-based API endpoint.
func ChannelNumbers() []int {
	nums := make([]int, 0, len(channelMap))
	for n := range channelMap {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// LookupChannel resolves a channel number against the mapping table.
func LookupChannel(num int) (Channel, bool) {
	c, ok := channelMap[num]
	return c, ok
}
