//go:build linux

package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	iocWrite = 1
	iocRead  = 2

	evdevPollTimeoutMs = 100
	evdevBatch         = 64
)

type absInfo struct {
	Value      int32
	Minimum    int32
	Maximum    int32
	Fuzz       int32
	Flat       int32
	Resolution int32
}

func ioc(dir, nr, size uint) uint {
	return dir<<30 | size<<16 | uint('E')<<8 | nr
}

func eviocgabs(axis uint) uint { return ioc(iocRead, 0x40+axis, uint(unsafe.Sizeof(absInfo{}))) }
func eviocgname(size uint) uint { return ioc(iocRead, 0x06, size) }

var eviocgrab = ioc(iocWrite, 0x90, uint(unsafe.Sizeof(int32(0))))

func ioctlPtr(fd int, req uint, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// EvdevReader reads a Linux input device (/dev/input/eventN) and feeds the
// decoded touch and button events to a Sink.
type EvdevReader struct {
	path     string
	name     string
	fd       int
	pressure AbsRange
	grabbed  bool
	logger   *slog.Logger

	mu     sync.Mutex
	closed bool
}

// OpenEvdev opens the device at path. The pressure axis range is queried
// from ABS_MT_PRESSURE, falling back to ABS_PRESSURE.
func OpenEvdev(path string, opts ...EvdevOption) (*EvdevReader, error) {
	o := applyEvdevOptions(opts)

	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	r := &EvdevReader{
		path:   path,
		fd:     fd,
		logger: o.logger.With("device", path),
	}
	r.name = deviceName(fd)
	r.pressure = queryPressure(fd)

	if o.grab {
		if err := unix.IoctlSetPointerInt(fd, eviocgrab, 1); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("grab %s: %w", path, err)
		}
		r.grabbed = true
	}

	r.logger.Debug("input device opened",
		"name", r.name,
		"pressure_min", r.pressure.Min,
		"pressure_max", r.pressure.Max,
		"grabbed", r.grabbed,
	)
	return r, nil
}

func deviceName(fd int) string {
	buf := make([]byte, 256)
	if err := ioctlPtr(fd, eviocgname(uint(len(buf))), unsafe.Pointer(&buf[0])); err != nil {
		return ""
	}
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(buf)
}

func queryPressure(fd int) AbsRange {
	for _, axis := range []uint{absMTPressure, absPressure} {
		var info absInfo
		if err := ioctlPtr(fd, eviocgabs(axis), unsafe.Pointer(&info)); err != nil {
			continue
		}
		r := AbsRange{Min: info.Minimum, Max: info.Maximum}
		if r.Valid() {
			return r
		}
	}
	return AbsRange{}
}

// Name returns the device name reported by the kernel.
func (r *EvdevReader) Name() string { return r.name }

// Pressure returns the pressure axis range. It is not Valid for devices
// without pressure sensing.
func (r *EvdevReader) Pressure() AbsRange { return r.pressure }

// Run reads events until ctx is done or the device fails.
func (r *EvdevReader) Run(ctx context.Context, sink Sink) error {
	word := int(unsafe.Sizeof(unix.Timeval{})) / 2
	size := 2*word + 8
	buf := make([]byte, size*evdevBatch)
	dec := newEvdevDecoder(r.pressure)
	fds := []unix.PollFd{{Fd: int32(r.fd), Events: unix.POLLIN}}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := unix.Poll(fds, evdevPollTimeoutMs)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("poll %s: %w", r.path, err)
		}
		if n == 0 {
			continue
		}
		if fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
			return fmt.Errorf("read %s: device unavailable", r.path)
		}

		n, err = unix.Read(r.fd, buf)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("read %s: %w", r.path, err)
		}

		for off := 0; off+size <= n; off += size {
			ie := decodeInputEvent(buf[off:off+size], word)
			for _, ev := range dec.feed(ie) {
				sink.Dispatch(ev)
			}
		}
	}
}

// Close releases the device.
func (r *EvdevReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	if r.grabbed {
		_ = unix.IoctlSetPointerInt(r.fd, eviocgrab, 0)
	}
	return unix.Close(r.fd)
}
