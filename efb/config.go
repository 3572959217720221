// Package efb models the Embedded Function Block of a MachXO2 device: its
// board configuration and the configuration interface that gives access to
// the User Flash Memory.
package efb

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/efbutils/ufmsim/sim"
)

// EFBConfig holds the device-wide settings.
type EFBConfig struct {
	DevDensity   string  `yaml:"dev_density"`
	WbClkFreqMHz float64 `yaml:"efb_wb_clk_freq"`
}

// UFMConfig describes the initial content of the UFM.
type UFMConfig struct {
	InitMem   string `yaml:"init_mem"`
	ZeroMem   bool   `yaml:"zero_mem"`
	StartPage int    `yaml:"start_page"`
	NumPages  int    `yaml:"num_pages"`
}

// Peripheral is the configuration of a timer, SPI or I2C block. The model
// does not implement any of them.
type Peripheral struct {
	Settings map[string]any `yaml:",inline"`
}

// Config is the board configuration. A nil section is disabled.
type Config struct {
	EFB  *EFBConfig  `yaml:"efb_config"`
	UFM  *UFMConfig  `yaml:"ufm_config"`
	TC   *Peripheral `yaml:"tc_config"`
	SPI  *Peripheral `yaml:"spi_config"`
	I2C1 *Peripheral `yaml:"i2c1_config"`
	I2C2 *Peripheral `yaml:"i2c2_config"`
}

// LoadConfig reads and validates a YAML board configuration.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("efb: reading config: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig decodes and validates a YAML board configuration.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("efb: decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration before anything is simulated.
func (c *Config) Validate() error {
	if err := c.validateEFB(); err != nil {
		return err
	}

	if err := c.validateUFM(); err != nil {
		return err
	}

	peripherals := []struct {
		name string
		cfg  *Peripheral
	}{
		{"tc_config", c.TC},
		{"spi_config", c.SPI},
		{"i2c1_config", c.I2C1},
		{"i2c2_config", c.I2C2},
	}

	for _, p := range peripherals {
		if p.cfg != nil {
			return fmt.Errorf("efb: %w: %s", ErrUnsupportedPeripheral, p.name)
		}
	}

	return nil
}

func (c *Config) validateEFB() error {
	if c.EFB == nil {
		return fmt.Errorf("efb: %w: efb_config", ErrMissingField)
	}

	if c.EFB.DevDensity == "" {
		return fmt.Errorf("efb: %w: efb_config.dev_density", ErrMissingField)
	}

	if c.EFB.WbClkFreqMHz <= 0 {
		return fmt.Errorf("efb: %w: efb_config.efb_wb_clk_freq", ErrMissingField)
	}

	if _, err := LastUFMPage(c.EFB.DevDensity); err != nil {
		return fmt.Errorf("efb: %w", err)
	}

	return nil
}

func (c *Config) validateUFM() error {
	if c.UFM == nil || c.UFM.ZeroMem {
		return nil
	}

	if c.UFM.InitMem == "" {
		return fmt.Errorf("efb: %w: ufm_config.init_mem", ErrMissingField)
	}

	if c.UFM.NumPages <= 0 {
		return fmt.Errorf("efb: %w: ufm_config.num_pages", ErrMissingField)
	}

	last, _ := LastUFMPage(c.EFB.DevDensity)
	end := c.UFM.StartPage + c.UFM.NumPages - 1
	if c.UFM.StartPage < 0 || end > last {
		return fmt.Errorf("efb: %w: pages %d..%d, device ends at %d",
			ErrUFMWindow, c.UFM.StartPage, end, last)
	}

	return nil
}

// WishboneFreq returns the frequency of the register bus clock.
func (c *Config) WishboneFreq() sim.Freq {
	return sim.Freq(c.EFB.WbClkFreqMHz) * sim.MHz
}

// LastPage returns the last UFM page of the configured device.
func (c *Config) LastPage() int {
	last, _ := LastUFMPage(c.EFB.DevDensity)
	return last
}

// Params returns the parameters of the EFB primitive for this configuration.
func (c *Config) Params() map[string]any {
	params := defaultParams()

	if c.EFB != nil {
		params["p_DEV_DENSITY"] = c.EFB.DevDensity
		params["p_EFB_WB_CLK_FREQ"] = strconv.FormatFloat(
			c.EFB.WbClkFreqMHz, 'f', -1, 64)
	}

	if c.UFM != nil {
		startPage := c.UFM.StartPage
		initPages := c.UFM.NumPages
		zeros := "DISABLED"

		if c.UFM.ZeroMem {
			startPage = 0
			initPages = c.LastPage()
			zeros = "ENABLED"
		}

		if c.UFM.InitMem != "" {
			params["p_UFM_INIT_FILE_NAME"] = c.UFM.InitMem
		}
		params["p_UFM_INIT_ALL_ZEROS"] = zeros
		params["p_UFM_INIT_START_PAGE"] = startPage
		params["p_UFM_INIT_PAGES"] = initPages
		params["p_EFB_UFM"] = "ENABLED"
	}

	return params
}

func defaultParams() map[string]any {
	return map[string]any{
		"p_UFM_INIT_FILE_FORMAT": "HEX",
		"p_UFM_INIT_FILE_NAME":   "init.mem",
		"p_UFM_INIT_ALL_ZEROS":   "DISABLED",
		"p_UFM_INIT_START_PAGE":  2042,
		"p_UFM_INIT_PAGES":       4,
		"p_DEV_DENSITY":          "7000L",

		"p_EFB_UFM":             "DISABLED",
		"p_TC_ICAPTURE":         "DISABLED",
		"p_TC_OVERFLOW":         "DISABLED",
		"p_TC_ICR_INT":          "OFF",
		"p_TC_OCR_INT":          "OFF",
		"p_TC_OV_INT":           "OFF",
		"p_TC_TOP_SEL":          "OFF",
		"p_TC_RESETN":           "ENABLED",
		"p_TC_OC_MODE":          "TOGGLE",
		"p_TC_OCR_SET":          32767,
		"p_TC_TOP_SET":          65535,
		"p_GSR":                 "ENABLED",
		"p_TC_CCLK_SEL":         1,
		"p_TC_MODE":             "CTCM",
		"p_TC_SCLK_SEL":         "PCLOCK",
		"p_EFB_TC_PORTMODE":     "WB",
		"p_EFB_TC":              "DISABLED",
		"p_SPI_WAKEUP":          "DISABLED",
		"p_SPI_INTR_RXOVR":      "DISABLED",
		"p_SPI_INTR_TXOVR":      "DISABLED",
		"p_SPI_INTR_RXRDY":      "DISABLED",
		"p_SPI_INTR_TXRDY":      "DISABLED",
		"p_SPI_SLAVE_HANDSHAKE": "DISABLED",
		"p_SPI_PHASE_ADJ":       "DISABLED",
		"p_SPI_CLK_INV":         "DISABLED",
		"p_SPI_LSB_FIRST":       "DISABLED",
		"p_SPI_CLK_DIVIDER":     1,
		"p_SPI_MODE":            "MASTER",
		"p_EFB_SPI":             "DISABLED",
		"p_I2C2_WAKEUP":         "DISABLED",
		"p_I2C2_GEN_CALL":       "DISABLED",
		"p_I2C2_CLK_DIVIDER":    1,
		"p_I2C2_BUS_PERF":       "100kHz",
		"p_I2C2_SLAVE_ADDR":     "0b1000010",
		"p_I2C2_ADDRESSING":     "7BIT",
		"p_EFB_I2C2":            "DISABLED",
		"p_I2C1_WAKEUP":         "DISABLED",
		"p_I2C1_GEN_CALL":       "DISABLED",
		"p_I2C1_CLK_DIVIDER":    1,
		"p_I2C1_BUS_PERF":       "100kHz",
		"p_I2C1_SLAVE_ADDR":     "0b1000001",
		"p_I2C1_ADDRESSING":     "7BIT",
		"p_EFB_I2C1":            "DISABLED",
	}
}
