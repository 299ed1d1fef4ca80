package mqtt

import (
	"testing"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/segbot/pkg/msgs"
	"github.com/robotalks/segbot/pkg/segbot"
)

func TestMatchTopic(t *testing.T) {
	testCases := []struct {
		topic, pattern string
		expect         bool
	}{
		{"segbot/r1/telemetry", "segbot/r1/telemetry", true},
		{"segbot/r1/telemetry", "segbot/+/telemetry", true},
		{"segbot/r1/telemetry", "segbot/#", true},
		{"segbot/r1/telemetry", "#", true},
		{"segbot/r1/telemetry", "segbot/+", false},
		{"segbot/r1", "segbot/+/telemetry", false},
		{"segbot/r1/state", "segbot/+/telemetry", false},
		{"segbot", "segbot/#", true},
		{"other/r1/telemetry", "segbot/#", false},
	}
	for _, tc := range testCases {
		t.Run(tc.topic+" "+tc.pattern, func(t *testing.T) {
			require.Equal(t, tc.expect, MatchTopic(tc.topic, tc.pattern))
		})
	}
}

func TestClientOptionsFromURL(t *testing.T) {
	testCases := []struct {
		url      string
		server   string
		prefix   string
		user     string
		password string
		clientID string
	}{
		{url: "mqtt://localhost:1883/robo/", server: "tcp://localhost:1883", prefix: "robo/"},
		{url: "//localhost:1883", server: "tcp://localhost:1883"},
		{url: "mqtts://u:p@broker:8883/", server: "ssl://broker:8883", user: "u", password: "p"},
		{url: "ws://broker:9001/a/b/?client-id=bot", server: "ws://broker:9001", prefix: "a/b/", clientID: "bot"},
	}
	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			opts, prefix, err := ClientOptionsFromURL(tc.url)
			require.NoError(t, err)
			require.Equal(t, tc.prefix, prefix)
			require.Len(t, opts.Servers, 1)
			require.Equal(t, tc.server, opts.Servers[0].String())
			require.Equal(t, tc.user, opts.Username)
			require.Equal(t, tc.password, opts.Password)
			require.Equal(t, tc.clientID, opts.ClientID)
		})
	}
	_, _, err := ClientOptionsFromURL("mqtt://bad host:%zz")
	require.Error(t, err)
}

type published struct {
	topic   string
	payload []byte
	retain  bool
}

type fakeBroker struct {
	msgs []published
}

func (b *fakeBroker) PubWith(topic string, payload []byte, qos byte, retain bool) paho.Token {
	b.msgs = append(b.msgs, published{topic, payload, retain})
	return &paho.DummyToken{}
}

func (b *fakeBroker) decode(t *testing.T, n int) msgs.SerializableMessage {
	typed, err := msgs.DecodeTyped(b.msgs[n].payload)
	require.NoError(t, err)
	msg, err := typed.Decode()
	require.NoError(t, err)
	return msg
}

func TestPublisher(t *testing.T) {
	b := &fakeBroker{}
	var obs segbot.Observer = NewPublisherWith(b, "r1")
	p := obs.(*Publisher)

	obs.AngleChanged(3)
	obs.SensorDistanceChanged(42)
	obs.VoltageChanged(1180)
	obs.SpeedLeftChanged(-2)
	obs.SpeedRightChanged(2)
	require.Len(t, b.msgs, 5)
	for _, m := range b.msgs {
		require.Equal(t, "segbot/r1/telemetry", m.topic)
		require.True(t, m.retain)
	}
	require.Equal(t, &msgs.Telemetry{Angle: 3, SpeedLeft: -2, SpeedRight: 2, Distance: 42, Voltage: 1180}, b.decode(t, 4))

	p.StateChanged(segbot.State{Device: "/dev/rpmsg0", Open: true, Active: true})
	obs.ErrorStringChanged("file failed to open")
	require.Equal(t, "segbot/r1/state", b.msgs[6].topic)
	require.Equal(t, &msgs.DeviceState{Device: "/dev/rpmsg0", Open: true, Active: true}, b.decode(t, 5))
	require.Equal(t, &msgs.DeviceState{
		Device: "/dev/rpmsg0",
		Open:   true,
		Active: true,
		Error:  "file failed to open",
	}, b.decode(t, 6))

	p.onConnect(nil)
	require.Equal(t, "segbot/r1/meta", b.msgs[7].topic)
	require.JSONEq(t, `{"type":"segbot","id":"r1"}`, string(b.msgs[7].payload))
}

func TestMachineID(t *testing.T) {
	require.NotEmpty(t, MachineID())
}
