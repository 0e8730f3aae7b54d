package forcify

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOSFamily(t *testing.T) {
	tests := []struct {
		platform string
		want     OSFamily
	}{
		{"Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36", OSAndroid},
		{"Mozilla/5.0 (Linux; U; Android 4.4.2; Nexus 5 Build/KOT49H)", OSAndroid},
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)", OSIOS},
		{"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)", OSMacOS},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64)", OSWindows},
		{"Mozilla/5.0 (X11; Linux x86_64)", OSLinux},
		{"darwin", OSMacOS},
		{"linux", OSLinux},
		{"windows", OSWindows},
		{"android", OSAndroid},
		{"plan9", OSUnknown},
		{"", OSUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.platform, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseOSFamily(tc.platform))
		})
	}
}

func TestRegistryFlagsAreMonotonic(t *testing.T) {
	r := NewRegistry("linux")
	assert.Equal(t, Detection{OSFamily: OSLinux}, r.Snapshot())

	r.MarkWeirdBrowser()
	r.MarkWeirdBrowser()
	assert.True(t, r.WeirdBrowserObserved())
	assert.False(t, r.RealForceObserved())

	r.MarkTouchForce()
	assert.True(t, r.RealForceObserved())

	r.MarkHardwareForce()
	assert.Equal(t, Detection{
		OSFamily:              OSLinux,
		HardwareForceObserved: true,
		TouchForceObserved:    true,
		WeirdBrowserObserved:  true,
	}, r.Snapshot())
}

func TestRegistryConcurrentMarks(t *testing.T) {
	r := NewRegistry("android")
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.MarkHardwareForce()
			_ = r.HardwareForceObserved()
		}()
	}
	wg.Wait()
	assert.True(t, r.HardwareForceObserved())
	assert.Equal(t, OSAndroid, r.OSFamily())
}

func TestGlobalRegistryIsShared(t *testing.T) {
	assert.Same(t, Global(), Global())
}
