package model

import "strings"

// Status là trạng thái chơi của một game
type Status string

const (
	StatusPlaying    Status = "Playing"
	StatusCompleted  Status = "Completed"
	StatusOnHold     Status = "On Hold"
	StatusDropped    Status = "Dropped"
	StatusPlanToPlay Status = "Plan to Play"

	DefaultStatus = StatusPlanToPlay
)

// Statuses lists the canonical statuses in display order.
var Statuses = []Status{
	StatusPlaying,
	StatusCompleted,
	StatusOnHold,
	StatusDropped,
	StatusPlanToPlay,
}

// legacyStatuses maps the older six-value enumeration onto the canonical one.
var legacyStatuses = map[string]Status{
	"wishlist":   StatusPlanToPlay,
	"in library": StatusPlanToPlay,
	"paused":     StatusOnHold,
}

// legacyStatusNames là các giá trị cũ có thể còn nằm trong document đã lưu
var legacyStatusNames = map[Status][]string{
	StatusPlanToPlay: {"Wishlist", "In Library"},
	StatusOnHold:     {"Paused"},
}

// StatusAliases returns s followed by every stored legacy value that reads back as s.
func StatusAliases(s Status) []string {
	return append([]string{string(s)}, legacyStatusNames[s]...)
}

// NormalizeStatus maps legacy and differently-cased values to a canonical
// status. Unrecognised input is returned unchanged so validation can reject it.
func NormalizeStatus(s string) Status {
	key := strings.ToLower(strings.TrimSpace(s))
	if mapped, ok := legacyStatuses[key]; ok {
		return mapped
	}
	for _, st := range Statuses {
		if strings.ToLower(string(st)) == key {
			return st
		}
	}
	return Status(s)
}

func (s Status) IsValid() bool {
	for _, st := range Statuses {
		if st == s {
			return true
		}
	}
	return false
}

// Platform là nền tảng chính mà user chơi game
type Platform string

const (
	PlatformPC             Platform = "PC"
	PlatformPS5            Platform = "PlayStation 5"
	PlatformPS4            Platform = "PlayStation 4"
	PlatformXboxSeries     Platform = "Xbox Series X/S"
	PlatformXboxOne        Platform = "Xbox One"
	PlatformNintendoSwitch Platform = "Nintendo Switch"
	PlatformMacOS          Platform = "MacOS"
	PlatformLinux          Platform = "Linux"
	PlatformIOS            Platform = "iOS"
	PlatformAndroid        Platform = "Android"
	PlatformOther          Platform = "Other"
)

var Platforms = []Platform{
	PlatformPC,
	PlatformPS5,
	PlatformPS4,
	PlatformXboxSeries,
	PlatformXboxOne,
	PlatformNintendoSwitch,
	PlatformMacOS,
	PlatformLinux,
	PlatformIOS,
	PlatformAndroid,
	PlatformOther,
}

func (p Platform) IsValid() bool {
	for _, pl := range Platforms {
		if pl == p {
			return true
		}
	}
	return false
}

// statusValues / platformValues are the element lists for validation.In
func statusValues() []interface{} {
	out := make([]interface{}, len(Statuses))
	for i, s := range Statuses {
		out[i] = string(s)
	}
	return out
}

func platformValues() []interface{} {
	out := make([]interface{}, len(Platforms))
	for i, p := range Platforms {
		out[i] = string(p)
	}
	return out
}
