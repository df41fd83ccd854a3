package link

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventJSON(t *testing.T) {
	data, err := json.Marshal(&ConnStateEvent{Port: "/dev/ttyACM0", State: Connected})
	require.NoError(t, err)
	require.JSONEq(t, `{"port":"/dev/ttyACM0","state":"connected"}`, string(data))

	var ev ConnStateEvent
	require.NoError(t, json.Unmarshal([]byte(`{"state":"disconnected"}`), &ev))
	require.Equal(t, Disconnected, ev.State)
	require.Error(t, json.Unmarshal([]byte(`{"state":"gone"}`), &ev))

	data, err = json.Marshal(&ErrorEvent{Port: "p", Err: errors.New("boom")})
	require.NoError(t, err)
	require.JSONEq(t, `{"port":"p","error":"boom"}`, string(data))
}

func TestConnStateString(t *testing.T) {
	require.Equal(t, "waiting", Waiting.String())
	require.Equal(t, "connected", Connected.String())
	require.Equal(t, "disconnected", Disconnected.String())
	require.Equal(t, "state(7)", ConnState(7).String())
}
