package uart

import (
	"os"
	"path/filepath"
	"strings"
)

var sysClassTTY = "/sys/class/tty"

// maxManufacturerDepth bounds the walk up from the tty device node:
// ACM ports carry the attribute on the parent, usb-serial adapters on
// the grandparent.
const maxManufacturerDepth = 3

// usbManufacturer reads the manufacturer string of the USB device
// behind a tty from sysfs.
func usbManufacturer(portName string) string {
	dir, err := filepath.EvalSymlinks(filepath.Join(sysClassTTY, filepath.Base(portName), "device"))
	if err != nil {
		return ""
	}
	for i := 0; i < maxManufacturerDepth; i++ {
		if data, err := os.ReadFile(filepath.Join(dir, "manufacturer")); err == nil {
			return strings.TrimSpace(string(data))
		}
		dir = filepath.Dir(dir)
	}
	return ""
}
