package mp3

import "fmt"

// LAME preset codes stored in the tag's 11-bit preset field.
const (
	presetV9      = 410
	presetV0      = 500
	presetR3mix   = 1000
	presetMedFast = 1007
)

// legacyPresets lists the named presets LAME 3.90 to 3.97 shipped, by code.
var legacyPresets = map[int]struct{ name, legacy string }{
	1000: {"--r3mix", "--r3mix"},
	1001: {"-V2", "-aps"},
	1002: {"-V0", "-ape"},
	1003: {"-b 320", "-api"},
	1004: {"-V2n", "-apfs"},
	1005: {"-V0n", "-apfe"},
	1006: {"-V4", "-apm"},
	1007: {"-V4n", "-apfm"},
}

// legacyNames maps modern preset switches to their --alt-preset short names.
var legacyNames = map[string]string{
	"-V0":    "-ape",
	"-V0n":   "-apfe",
	"-V2":    "-aps",
	"-V2n":   "-apfs",
	"-V4":    "-apm",
	"-V4n":   "-apfm",
	"-b 320": "-api",
}

// newVBR reports whether the method is one of the --vbr-new family, which
// older presets marked with an "n" (fast) suffix.
func newVBR(method int) bool {
	return method == MethodVBRMTRH || method == MethodVBRMT
}

// PresetName decodes a LAME preset code. With legacy set it returns the
// historical --alt-preset name where one exists. It returns "" for codes
// with no known meaning.
func PresetName(preset, method int, legacy bool) string {
	var name string
	switch {
	case preset == 320:
		name = "-b 320"
	case preset >= 8 && preset < 320:
		switch method {
		case MethodABR, MethodABR2Pass:
			name = fmt.Sprintf("--abr %d", preset)
		case MethodCBR, MethodCBR2Pass:
			name = fmt.Sprintf("-b %d", preset)
		default:
			return ""
		}
	case preset >= presetV9 && preset <= presetV0 && preset%10 == 0:
		name = fmt.Sprintf("-V%d", (presetV0-preset)/10)
		if newVBR(method) {
			name += "n"
		}
	case preset >= presetR3mix && preset <= presetMedFast:
		p := legacyPresets[preset]
		if legacy {
			return p.legacy
		}
		return p.name
	default:
		return ""
	}

	if legacy {
		if old, ok := legacyNames[name]; ok {
			return old
		}
	}
	return name
}

// heuristic matches LAME builds that predate preset codes by the settings
// the --alt-preset switches are known to produce.
type heuristic struct {
	minMinor, maxMinor int // within LAME 3.x
	method             int
	lowpass            int // Hz
	ath                int
	name               string
}

var heuristics = []heuristic{
	{90, 92, MethodVBRRH, 19000, 4, "-V2"},
	{90, 92, MethodVBRRH, 19500, 4, "-V0"},
	{90, 92, MethodVBRMTRH, 19000, 4, "-V2n"},
	{90, 92, MethodVBRMTRH, 19500, 4, "-V0n"},
	{93, 96, MethodVBRRH, 19000, 4, "-V2"},
	{93, 96, MethodVBRRH, 19500, 2, "-V0"},
	{93, 96, MethodVBRRH, 18000, 4, "-V4"},
	{93, 96, MethodVBRMTRH, 19000, 4, "-V2n"},
	{93, 96, MethodVBRMTRH, 19500, 2, "-V0n"},
	{93, 96, MethodVBRMTRH, 18000, 4, "-V4n"},
}

// Profile returns the encoder profile under both naming schemes.
func (t *LAMETag) Profile() (name, legacy string) {
	if t.Preset != 0 {
		return PresetName(t.Preset, t.Method, false), PresetName(t.Preset, t.Method, true)
	}

	// CBR 320 is --alt-preset insane in every version.
	if (t.Method == MethodCBR || t.Method == MethodCBR2Pass) && t.ABRBitrate >= 255 {
		return PresetName(320, t.Method, false), PresetName(320, t.Method, true)
	}

	if t.Major != 3 || !t.atLeast(3, 90) || t.atLeast(3, 97) {
		return "", ""
	}
	for _, h := range heuristics {
		if t.Minor < h.minMinor || t.Minor > h.maxMinor {
			continue
		}
		if t.Method == h.method && t.Lowpass == h.lowpass && t.ATH == h.ath {
			legacy := h.name
			if old, ok := legacyNames[h.name]; ok {
				legacy = old
			}
			return h.name, legacy
		}
	}
	return "", ""
}
