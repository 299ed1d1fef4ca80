package msgs

import (
	"github.com/golang/protobuf/proto"
)

// TypeIDs
const (
	TelemetryTypeID   uint32 = GroupSegBot | TypeIDKindEvent | 0x0001
	DeviceStateTypeID uint32 = GroupSegBot | TypeIDKindEvent | 0x0002
)

// Telemetry is the full set of observed sensor values.
type Telemetry struct {
	Angle      int32 `protobuf:"varint,1,opt,name=angle,proto3" json:"angle,omitempty"`
	SpeedLeft  int32 `protobuf:"varint,2,opt,name=speed_left,proto3" json:"speed_left,omitempty"`
	SpeedRight int32 `protobuf:"varint,3,opt,name=speed_right,proto3" json:"speed_right,omitempty"`
	Distance   int32 `protobuf:"varint,4,opt,name=distance,proto3" json:"distance,omitempty"`
	Voltage    int32 `protobuf:"varint,5,opt,name=voltage,proto3" json:"voltage,omitempty"`
}

// TypeID implements SerializableMessage.
func (m *Telemetry) TypeID() uint32 { return TelemetryTypeID }

// NewMessage implements SerializableMessage.
func (m *Telemetry) NewMessage() SerializableMessage { return &Telemetry{} }

// ProtoMessage implements proto.Message.
func (m *Telemetry) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Telemetry) Reset() { *m = Telemetry{} }

// String implements proto.Message.
func (m *Telemetry) String() string { return proto.CompactTextString(m) }

// DeviceState reports the tty channel.
type DeviceState struct {
	Device string `protobuf:"bytes,1,opt,name=device,proto3" json:"device,omitempty"`
	Open   bool   `protobuf:"varint,2,opt,name=open,proto3" json:"open,omitempty"`
	Active bool   `protobuf:"varint,3,opt,name=active,proto3" json:"active,omitempty"`
	Error  string `protobuf:"bytes,4,opt,name=error,proto3" json:"error,omitempty"`
}

// TypeID implements SerializableMessage.
func (m *DeviceState) TypeID() uint32 { return DeviceStateTypeID }

// NewMessage implements SerializableMessage.
func (m *DeviceState) NewMessage() SerializableMessage { return &DeviceState{} }

// ProtoMessage implements proto.Message.
func (m *DeviceState) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DeviceState) Reset() { *m = DeviceState{} }

// String implements proto.Message.
func (m *DeviceState) String() string { return proto.CompactTextString(m) }
