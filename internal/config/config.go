// Package config loads the static appliance configuration. Runtime-tunable
// values (brightness etc.) live in the settings store instead.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Panel struct {
	W        int `yaml:"w"`
	H        int `yaml:"h"`
	Segments int `yaml:"segments"`
}

type Serial struct {
	Port        string `yaml:"port"`     // fallback when discovery finds nothing
	Baud        int    `yaml:"baud"`     // e.g. 2000000
	ReadyToken  string `yaml:"ready_token"`
	ReadyWaitMs int    `yaml:"ready_wait_ms"`
}

type SPI struct {
	Port string `yaml:"port,omitempty"` // e.g. SPI1.0; empty picks the first
}

type Web struct {
	Addr string `yaml:"addr"`
}

type LED struct {
	FPS         int `yaml:"fps"`
	CycleHoldMs int `yaml:"cycle_hold_ms"`
}

type Mirror struct {
	FPS int `yaml:"fps"`
}

type HMI struct {
	Enabled bool              `yaml:"enabled"`
	I2CBus  string            `yaml:"i2c_bus"`
	Buttons map[string]string `yaml:"buttons,omitempty"` // e.g. up: GPIO17
}

type Config struct {
	Driver   string `yaml:"driver"` // "serial" | "spi" | "none"
	Panel    Panel  `yaml:"panel"`
	Serial   Serial `yaml:"serial"`
	SPI      SPI    `yaml:"spi,omitempty"`
	Web      Web    `yaml:"web"`
	LED      LED    `yaml:"led"`
	Mirror   Mirror `yaml:"mirror"`
	Settings string `yaml:"settings"` // path to settings.json
	HMI      HMI    `yaml:"hmi"`
}

func Default() *Config {
	return &Config{
		Driver:   "serial",
		Panel:    Panel{W: 16, H: 16, Segments: 1},
		Serial:   Serial{Port: "/dev/ttyACM0", Baud: 2_000_000, ReadyToken: "READY", ReadyWaitMs: 1500},
		Web:      Web{Addr: ":8000"},
		LED:      LED{FPS: 20, CycleHoldMs: 1000},
		Mirror:   Mirror{FPS: 20},
		Settings: "settings.json",
		HMI: HMI{
			I2CBus: "1",
			Buttons: map[string]string{
				"up": "GPIO17", "down": "GPIO22", "select": "GPIO23", "back": "GPIO24",
			},
		},
	}
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
