package settings

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/fieldview/fieldview/internal/model"
	"github.com/fieldview/fieldview/internal/util"
)

// ChangedFunc is invoked when the external settings UI edits a channel's
// configuration, after the provider has absorbed the new value.
type ChangedFunc func(channel string, local Partial)

// Provider reads the global display defaults and per-channel overrides from
// the viper configuration tree:
//
//	display.mode, display.axisScale, ... (global layer)
//	display.channels.<name>.mode, ...    (per-channel layer)
type Provider struct {
	onChanged ChangedFunc
}

// NewProvider creates a provider over the process-wide viper config.
func NewProvider() *Provider {
	return &Provider{}
}

// SetOnChanged registers the callback fired by OnSettingsChanged.
func (p *Provider) SetOnChanged(fn ChangedFunc) {
	p.onChanged = fn
}

// GlobalDefaults returns the global configuration layer.
func (p *Provider) GlobalDefaults() Partial {
	part, err := partialAt("display")
	if err != nil {
		// Malformed global config falls through to built-in defaults.
		return Partial{}
	}
	return part
}

// Override returns the per-channel configuration layer.
func (p *Provider) Override(channel string) Partial {
	part, err := partialAt("display.channels." + channel)
	if err != nil {
		return Partial{}
	}
	return part
}

// OnSettingsChanged is the entry point invoked by the external settings UI.
// The value is stored under the channel's override subtree and the change is
// forwarded to the registered callback.
func (p *Provider) OnSettingsChanged(channel, path string, value any) error {
	key := "display.channels." + channel + "." + path
	viper.Set(key, value)
	local, err := partialAt("display.channels." + channel)
	if err != nil {
		return fmt.Errorf("settings change for channel %s: %w", channel, err)
	}
	if p.onChanged != nil {
		p.onChanged(channel, local)
	}
	return nil
}

func partialAt(prefix string) (Partial, error) {
	var p Partial

	if viper.IsSet(prefix + ".mode") {
		m, err := ParseMode(viper.GetString(prefix + ".mode"))
		if err != nil {
			return Partial{}, err
		}
		p.Mode = &m
	}
	if viper.IsSet(prefix + ".axisScale") {
		v := viper.GetFloat64(prefix + ".axisScale")
		p.AxisScale = &v
	}
	if viper.IsSet(prefix + ".arrowScale") {
		v := viper.GetFloat64(prefix + ".arrowScale")
		p.ArrowScale = &v
	}
	if viper.IsSet(prefix + ".lineWidth") {
		v := viper.GetFloat64(prefix + ".lineWidth")
		p.LineWidth = &v
	}
	if viper.IsSet(prefix + ".gradientStart") {
		c, err := parseColorValue(viper.Get(prefix + ".gradientStart"))
		if err != nil {
			return Partial{}, err
		}
		p.GradientStart = &c
	}
	if viper.IsSet(prefix + ".gradientEnd") {
		c, err := parseColorValue(viper.Get(prefix + ".gradientEnd"))
		if err != nil {
			return Partial{}, err
		}
		p.GradientEnd = &c
	}
	if viper.IsSet(prefix + ".visible") {
		v := viper.GetBool(prefix + ".visible")
		p.Visible = &v
	}
	if viper.IsSet(prefix + ".showTrolley") {
		v := viper.GetBool(prefix + ".showTrolley")
		p.ShowTrolley = &v
	}
	return p, nil
}

func parseColorValue(v any) (model.Color, error) {
	s, ok := v.(string)
	if !ok {
		return model.Color{}, fmt.Errorf("color value %v is not a hex string", v)
	}
	return util.ParseHexColor(s)
}
