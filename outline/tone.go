package outline

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

type ToneMode string

const (
	// ToneDefault leaves the tone to the backend unless the caller opts in to
	// sending DefaultTone explicitly.
	ToneDefault ToneMode = "default"
	ToneCustom  ToneMode = "custom"
	TonePreset  ToneMode = "preset"
)

const DefaultTone = "professional"

var PresetTones = mapset.NewSet("professional", "casual", "academic", "persuasive", "inspirational")

// ToneSelection is the user's tone choice.
type ToneSelection struct {
	Mode   ToneMode `json:"mode"`
	Preset string   `json:"preset,omitempty"`
	Custom string   `json:"custom,omitempty"`
}

// Valid reports whether the selection can be sent. A custom tone needs text
// and a preset must be one of PresetTones.
func (t ToneSelection) Valid() bool {
	switch t.Mode {
	case "", ToneDefault:
		return true
	case TonePreset:
		return PresetTones.Contains(t.Preset)
	case ToneCustom:
		return strings.TrimSpace(t.Custom) != ""
	}
	return false
}

// Wire returns the tone to put on the request, or nil to omit it.
// sendDefault controls whether the default mode is sent as DefaultTone.
func (t ToneSelection) Wire(sendDefault bool) *string {
	var tone string
	switch t.Mode {
	case TonePreset:
		tone = t.Preset
	case ToneCustom:
		tone = strings.TrimSpace(t.Custom)
	default:
		if !sendDefault {
			return nil
		}
		tone = DefaultTone
	}
	if tone == "" {
		return nil
	}
	return &tone
}
