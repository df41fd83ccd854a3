// Package env builds the runtime of the link daemon and tools from flags
// and environment variables.
package env

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robotalks/g4link/pkg/link"
	"github.com/robotalks/g4link/pkg/link/uart"
)

// Config provides common options of daemon and tools.
type Config struct {
	// ID identifies this host in MQTT topics.
	ID string
	// Vendor is the USB manufacturer string of the device.
	Vendor string
	// USBIDs is a comma separated list of VID:PID matched when the
	// manufacturer is unknown, e.g. 1209:0001.
	USBIDs string
	Baud   int

	// MQTTBrokerURL specifies the MQTT broker to use, empty disables MQTT.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
	// HTTPAddr is the listen address of the event stream, empty disables it.
	HTTPAddr string

	// Simulate replaces serial ports with simulated devices when > 0.
	Simulate int

	Cooldown      time.Duration
	SendInterval  time.Duration
	StatsInterval time.Duration
}

var defaultConfig = Config{
	Vendor:        link.DefaultVendor,
	Baud:          uart.DefaultBaud,
	MQTTBrokerURL: "mqtt://localhost:1883/g4/",
	Cooldown:      link.DefaultCooldown,
	SendInterval:  link.DefaultSendInterval,
	StatsInterval: link.DefaultStatsInterval,
}

func init() {
	defaultConfig.ID = MachineID()
	if err := defaultConfig.LoadEnv(os.Getenv); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

// LoadEnv overrides config from environment variables.
func (c *Config) LoadEnv(getenv func(string) string) error {
	if val := getenv("G4_ID"); val != "" {
		c.ID = val
	}
	if val := getenv("G4_VENDOR"); val != "" {
		c.Vendor = val
	}
	if val := getenv("G4_USB_IDS"); val != "" {
		c.USBIDs = val
	}
	if val := getenv("G4_BAUD"); val != "" {
		baud, err := strconv.Atoi(val)
		if err != nil || baud <= 0 {
			return fmt.Errorf("invalid G4_BAUD %q", val)
		}
		c.Baud = baud
	}
	if val, ok := lookup(getenv, "G4_MQTT_URL"); ok {
		c.MQTTBrokerURL = val
	}
	if val := getenv("G4_HTTP_ADDR"); val != "" {
		c.HTTPAddr = val
	}
	return nil
}

// lookup treats "-" as an explicitly empty value.
func lookup(getenv func(string) string, key string) (string, bool) {
	switch val := getenv(key); val {
	case "":
		return "", false
	case "-":
		return "", true
	default:
		return val, true
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.ID, "id", defaultConfig.ID, "Host ID")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty to disable")
}

// SetupDaemonFlags sets command line flags used by the daemon only.
func SetupDaemonFlags() {
	flag.StringVar(&defaultConfig.Vendor, "vendor", defaultConfig.Vendor, "USB manufacturer of the device")
	flag.StringVar(&defaultConfig.USBIDs, "usb-id", defaultConfig.USBIDs, "Comma separated VID:PID matched when the USB manufacturer is unknown")
	flag.IntVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Serial baud rate")
	flag.StringVar(&defaultConfig.HTTPAddr, "http", defaultConfig.HTTPAddr, "Event stream listen address, empty to disable")
	flag.IntVar(&defaultConfig.Simulate, "sim", defaultConfig.Simulate, "Number of simulated devices instead of serial ports")
	flag.DurationVar(&defaultConfig.Cooldown, "cooldown", defaultConfig.Cooldown, "Wait before next discovery")
	flag.DurationVar(&defaultConfig.SendInterval, "send-interval", defaultConfig.SendInterval, "Minimum spacing of commands")
	flag.DurationVar(&defaultConfig.StatsInterval, "stats-interval", defaultConfig.StatsInterval, "Throughput report period")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// USBIDList splits USBIDs.
func (c *Config) USBIDList() []string {
	var ids []string
	for _, id := range strings.Split(c.USBIDs, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
