package msgs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypedDecode(t *testing.T) {
	testCases := []struct {
		name string
		msg  SerializableMessage
	}{
		{"telemetry", &Telemetry{Angle: -3, Distance: 42, Voltage: 1180}},
		{"device state", &DeviceState{Device: "/dev/rpmsg0", Open: true, Active: true}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := Encode(tc.msg)
			require.NoError(t, err)
			typed, err := DecodeTyped(data)
			require.NoError(t, err)
			require.True(t, typed.IsEvent())
			require.Equal(t, tc.msg.TypeID(), typed.TypeId)
			msg, err := typed.Decode()
			require.NoError(t, err)
			require.Equal(t, tc.msg, msg)
		})
	}
}

func TestTypedErrors(t *testing.T) {
	_, err := TypedFrom("text")
	require.Equal(t, ErrNotSerializable, err)

	typed := &Typed{TypeId: 0x1234}
	require.False(t, typed.IsEvent())
	_, err = typed.Decode()
	require.IsType(t, &ErrUnknownType{}, err)
	require.Equal(t, "unknown type: 1234", err.Error())
}
