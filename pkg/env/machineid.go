package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// MachineID retrieves an ID identifying the machine, derived from the
// system machine id so the raw value is not published.
// It falls back to the hostname.
func MachineID() string {
	id, err := machineid.ProtectedID("g4link")
	if err == nil {
		return id[:16]
	}
	glog.Warningf("machine id unavailable: %v", err)
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "g4"
}
