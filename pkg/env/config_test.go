package env

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/g4link/pkg/bridge/websocket"
	"github.com/robotalks/g4link/pkg/link"
)

func getenv(vals map[string]string) func(string) string {
	return func(key string) string { return vals[key] }
}

func TestLoadEnv(t *testing.T) {
	conf := NewConfig()
	require.NoError(t, conf.LoadEnv(getenv(map[string]string{
		"G4_ID":        "bench",
		"G4_VENDOR":    "Acme",
		"G4_BAUD":      "115200",
		"G4_MQTT_URL":  "-",
		"G4_HTTP_ADDR": ":8080",
		"G4_USB_IDS":   "1209:a0b1, 16c0:05e1,",
	})))
	require.Equal(t, []string{"1209:a0b1", "16c0:05e1"}, conf.USBIDList())
	require.Equal(t, "bench", conf.ID)
	require.Equal(t, "Acme", conf.Vendor)
	require.Equal(t, 115200, conf.Baud)
	require.Empty(t, conf.MQTTBrokerURL)
	require.Equal(t, ":8080", conf.HTTPAddr)

	require.Error(t, NewConfig().LoadEnv(getenv(map[string]string{"G4_BAUD": "fast"})))
}

func TestNewConfigIsCopy(t *testing.T) {
	conf := NewConfig()
	conf.Vendor = "Other"
	require.Equal(t, link.DefaultVendor, Default().Vendor)
}

func TestNewEnv(t *testing.T) {
	conf := NewConfig()
	conf.MQTTBrokerURL = ""
	conf.HTTPAddr = ":0"
	e, err := conf.NewEnv()
	require.NoError(t, err)
	require.Len(t, e.Runnables, 4)
	require.IsType(t, &websocket.Server{}, e.Runnables[3])
	require.Equal(t, link.DefaultVendor, e.Supervisor.Vendor)
	require.Same(t, e.Supervisor.Stats, e.Sampler.Counter)
	require.Empty(t, e.Supervisor.USBIDs)

	conf.MQTTBrokerURL = "mqtt://localhost:1883/g4/"
	conf.ID = "bench"
	e, err = conf.NewEnv()
	require.NoError(t, err)
	require.Len(t, e.Runnables, 5)

	conf.Vendor = ""
	_, err = conf.NewEnv()
	require.Error(t, err)
}

func TestSimulatedSupervisor(t *testing.T) {
	conf := NewConfig()
	conf.Simulate = 2
	conf.Vendor = "Acme"
	s := conf.NewSupervisor(nil)
	ports, err := s.Enumerator.Ports()
	require.NoError(t, err)
	require.Len(t, ports, 2)
	for _, p := range ports {
		require.True(t, s.Match(p))
	}
}
