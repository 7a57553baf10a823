package display

import "fmt"

// ColorMode selects how the rasterizer writes colours to the terminal.
type ColorMode string

const (
	ColorTrue ColorMode = "truecolor"
	ColorMono ColorMode = "mono"
)

// Config is the user's display choice, restored from a Store or picked in
// the Dialog.
type Config struct {
	ColorMode ColorMode `yaml:"color_mode"`
	Mouse     bool      `yaml:"mouse"`
}

func (c Config) Validate() error {
	switch c.ColorMode {
	case ColorTrue, ColorMono:
		return nil
	default:
		return fmt.Errorf("unknown color mode %q", c.ColorMode)
	}
}

func (c Config) String() string {
	mouse := "off"
	if c.Mouse {
		mouse = "on"
	}
	return fmt.Sprintf("%s, mouse %s", c.ColorMode, mouse)
}

// Choices are the configurations offered by the interactive dialog.
var Choices = []Config{
	{ColorMode: ColorTrue, Mouse: true},
	{ColorMode: ColorTrue, Mouse: false},
	{ColorMode: ColorMono, Mouse: false},
}
