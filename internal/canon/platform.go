package canon

import (
	"encoding/json"
	"sort"
	"strings"
)

// OSSupport is the fixed-shape platform triple stored on every listing.
type OSSupport struct {
	Windows bool `json:"windows"`
	Mac     bool `json:"mac"`
	Linux   bool `json:"linux"`
}

// Any reports whether at least one platform is supported.
func (o OSSupport) Any() bool {
	return o.Windows || o.Mac || o.Linux
}

// String renders the supported platforms as "windows,mac" style text.
func (o OSSupport) String() string {
	parts := make([]string, 0, 3)
	if o.Windows {
		parts = append(parts, "windows")
	}
	if o.Mac {
		parts = append(parts, "mac")
	}
	if o.Linux {
		parts = append(parts, "linux")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}

// OS maps a raw platform object such as {"Windows": true, "mac": 1} onto an
// OSSupport. Keys match case-insensitively; when several keys fold to the same
// platform the first in sorted key order wins. Missing or falsy values are false.
func OS(raw map[string]any) OSSupport {
	var out OSSupport
	if len(raw) == 0 {
		return out
	}
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	seen := make(map[string]bool, 3)
	for _, key := range keys {
		platform := strings.ToLower(strings.TrimSpace(key))
		if seen[platform] {
			continue
		}
		var target *bool
		switch platform {
		case "windows":
			target = &out.Windows
		case "mac":
			target = &out.Mac
		case "linux":
			target = &out.Linux
		default:
			continue
		}
		seen[platform] = true
		*target = truthy(raw[key])
	}
	return out
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		trimmed := strings.ToLower(strings.TrimSpace(v))
		return trimmed != "" && trimmed != "false" && trimmed != "0"
	case float64:
		return v != 0
	case float32:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0
	default:
		return true
	}
}
