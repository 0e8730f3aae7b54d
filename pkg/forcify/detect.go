package forcify

import (
	"os"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
)

// OSFamily is the operating system family a registry was built for.
type OSFamily int

const (
	OSUnknown OSFamily = iota
	OSAndroid
	OSIOS
	OSMacOS
	OSWindows
	OSLinux
)

// String returns the lowercase family name.
func (f OSFamily) String() string {
	switch f {
	case OSAndroid:
		return "android"
	case OSIOS:
		return "ios"
	case OSMacOS:
		return "macos"
	case OSWindows:
		return "windows"
	case OSLinux:
		return "linux"
	default:
		return "unknown"
	}
}

var (
	androidPattern = regexp.MustCompile(`(Android);?[\s/]+([\d.]+)?`)
	iosPattern     = regexp.MustCompile(`(iPhone|iPad|iPod)`)
)

// ParseOSFamily derives the OS family from a user-agent style platform
// string or a GOOS name.
func ParseOSFamily(platform string) OSFamily {
	if androidPattern.MatchString(platform) {
		return OSAndroid
	}
	if iosPattern.MatchString(platform) {
		return OSIOS
	}
	p := strings.ToLower(platform)
	switch {
	case p == "android":
		return OSAndroid
	case p == "ios":
		return OSIOS
	case p == "darwin" || p == "macos" || strings.Contains(p, "mac os x") || strings.Contains(p, "macintosh"):
		return OSMacOS
	case p == "windows" || strings.Contains(p, "windows nt"):
		return OSWindows
	case p == "linux" || strings.Contains(p, "linux") || strings.Contains(p, "x11"):
		return OSLinux
	default:
		return OSUnknown
	}
}

// Registry records which input dialect has been observed on this platform.
//
// Flags only ever flip from false to true. Setting an already-set flag is a
// no-op, so concurrent readers and writers need no lock.
type Registry struct {
	osFamily OSFamily

	hardwareForce atomic.Bool
	touchForce    atomic.Bool
	weirdBrowser  atomic.Bool
}

// Detection is a point-in-time copy of a Registry.
type Detection struct {
	OSFamily              OSFamily `json:"os_family"`
	HardwareForceObserved bool     `json:"hardware_force_observed"`
	TouchForceObserved    bool     `json:"touch_force_observed"`
	WeirdBrowserObserved  bool     `json:"weird_browser_observed"`
}

// NewRegistry creates a registry for the given platform identification.
func NewRegistry(platform string) *Registry {
	return &Registry{osFamily: ParseOSFamily(platform)}
}

var (
	globalRegistry     *Registry
	globalRegistryOnce sync.Once
)

// Global returns the process-wide registry. The platform is read once from
// FORCIFY_PLATFORM, falling back to runtime.GOOS.
func Global() *Registry {
	globalRegistryOnce.Do(func() {
		platform := os.Getenv("FORCIFY_PLATFORM")
		if platform == "" {
			platform = runtime.GOOS
		}
		globalRegistry = NewRegistry(platform)
	})
	return globalRegistry
}

// OSFamily returns the platform family. It never changes.
func (r *Registry) OSFamily() OSFamily { return r.osFamily }

// MarkHardwareForce records that a hardware force event type was seen.
func (r *Registry) MarkHardwareForce() { r.hardwareForce.Store(true) }

// MarkTouchForce records that a touch contact reported varying force.
func (r *Registry) MarkTouchForce() { r.touchForce.Store(true) }

// MarkWeirdBrowser records that an implausible force reading was rejected.
func (r *Registry) MarkWeirdBrowser() { r.weirdBrowser.Store(true) }

func (r *Registry) HardwareForceObserved() bool { return r.hardwareForce.Load() }
func (r *Registry) TouchForceObserved() bool    { return r.touchForce.Load() }
func (r *Registry) WeirdBrowserObserved() bool  { return r.weirdBrowser.Load() }

// RealForceObserved reports whether any genuine pressure source is known.
func (r *Registry) RealForceObserved() bool {
	return r.HardwareForceObserved() || r.TouchForceObserved()
}

// Snapshot copies the current flags.
func (r *Registry) Snapshot() Detection {
	return Detection{
		OSFamily:              r.osFamily,
		HardwareForceObserved: r.HardwareForceObserved(),
		TouchForceObserved:    r.TouchForceObserved(),
		WeirdBrowserObserved:  r.WeirdBrowserObserved(),
	}
}
