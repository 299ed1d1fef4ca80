//go:build linux

package device

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// PathPattern locates joystick devices by index.
var PathPattern = "/dev/input/js%d"

type device struct {
	file        *os.File
	index       int
	name        string
	axisCount   uint8
	buttonCount uint8
}

// Open opens the device with specified index.
func Open(index int) (Device, error) {
	f, err := os.OpenFile(fmt.Sprintf(PathPattern, index), os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	d := &device{file: f, index: index}
	var name [128]byte
	err = d.ioctl(iocGAXES, unsafe.Pointer(&d.axisCount))
	if err == nil {
		err = d.ioctl(iocGBUTTONS, unsafe.Pointer(&d.buttonCount))
	}
	if err == nil {
		err = d.ioctl(iocGNAME(len(name)), unsafe.Pointer(&name[0]))
	}
	if err != nil {
		d.file.Close()
		return nil, fmt.Errorf("joystick %d: %w", index, err)
	}
	if pos := bytes.IndexByte(name[:], 0); pos >= 0 {
		d.name = string(name[:pos])
	} else {
		d.name = string(name[:])
	}
	return d, nil
}

// DetectAndOpen opens the first available device from startIndex.
// It returns nil without error when nothing is found.
func DetectAndOpen(startIndex int) (Device, error) {
	for index := startIndex; index < 32; index++ {
		d, err := Open(index)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		return d, nil
	}
	return nil, nil
}

func (d *device) Close() error {
	return d.file.Close()
}

func (d *device) Index() int {
	return d.index
}

func (d *device) Name() string {
	return d.name
}

func (d *device) AxisCount() int {
	return int(d.axisCount)
}

func (d *device) ButtonCount() int {
	return int(d.buttonCount)
}

// ReadEvent implements Device.
func (d *device) ReadEvent() (Event, error) {
	var buf [eventSize]byte
	if _, err := io.ReadFull(d.file, buf[:]); err != nil {
		return nil, err
	}
	var ev event
	if err := binary.Read(bytes.NewReader(buf[:]), binary.LittleEndian, &ev); err != nil {
		return nil, err
	}
	switch ev.Type &^ evINIT {
	case evBTN:
		return &buttonEvent{event: ev}, nil
	case evAXIS:
		return &axisEvent{event: ev}, nil
	}
	return &ev, nil
}

// event is struct js_event.
type event struct {
	Time   uint32
	Value  int16
	Type   uint8
	Number uint8
}

const eventSize = 8

func (e *event) IsInit() bool {
	return e.Type&evINIT != 0
}

func (e *event) Index() int {
	return int(e.Number)
}

type axisEvent struct {
	event
}

func (e *axisEvent) Value() int {
	return int(e.event.Value)
}

type buttonEvent struct {
	event
}

func (e *buttonEvent) Pressed() bool {
	return e.Value != 0
}

const (
	iocGAXES    = 0x80016a11
	iocGBUTTONS = 0x80016a12

	evINIT uint8 = 0x80
	evBTN  uint8 = 0x01
	evAXIS uint8 = 0x02
)

// iocGNAME is JSIOCGNAME(len).
func iocGNAME(size int) uintptr {
	return 0x80006a13 | uintptr(size&0x3fff)<<16
}

func (d *device) ioctl(req uintptr, ptr unsafe.Pointer) error {
	conn, err := d.file.SyscallConn()
	if err != nil {
		return err
	}
	var errno unix.Errno
	err = conn.Control(func(fd uintptr) {
		_, _, errno = unix.Syscall(unix.SYS_IOCTL, fd, req, uintptr(ptr))
	})
	if err != nil {
		return err
	}
	if errno != 0 {
		return errno
	}
	return nil
}
