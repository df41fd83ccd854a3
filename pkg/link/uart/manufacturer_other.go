//go:build !linux

package uart

// usbManufacturer is unknown off linux, ports are matched by VID:PID.
func usbManufacturer(string) string {
	return ""
}
