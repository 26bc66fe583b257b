package audio

import (
	"fmt"
	"strings"

	"github.com/gen2brain/malgo"
)

// DeviceInfo describes one capture device
type DeviceInfo struct {
	ID          malgo.DeviceID // Native device identifier
	Name        string         // Human-readable device name
	IsDefault   bool           // Whether this is the default capture device
	MaxChannels int            // Maximum supported channels; 0 means unknown
}

// String returns a human-readable representation of the device
func (d DeviceInfo) String() string {
	defaultMarker := ""
	if d.IsDefault {
		defaultMarker = " [DEFAULT]"
	}
	return fmt.Sprintf("%s%s", d.Name, defaultMarker)
}

// ListDevices returns all available capture devices
func ListDevices() ([]DeviceInfo, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	devices := make([]DeviceInfo, 0, len(infos))
	for _, info := range infos {
		devices = append(devices, DeviceInfo{
			ID:          info.ID,
			Name:        info.Name(),
			IsDefault:   info.IsDefault > 0,
			MaxChannels: 2, // Default to stereo, malgo doesn't expose this directly
		})
	}
	return devices, nil
}

// DefaultDevice returns the default capture device, or the first device when
// none is marked default
func DefaultDevice() (*DeviceInfo, error) {
	devices, err := ListDevices()
	if err != nil {
		return nil, err
	}

	for i := range devices {
		if devices[i].IsDefault {
			return &devices[i], nil
		}
	}
	if len(devices) > 0 {
		return &devices[0], nil
	}
	return nil, fmt.Errorf("no capture devices found")
}

// FindDeviceByName finds a device by name (case-insensitive substring match)
func FindDeviceByName(name string) (*DeviceInfo, error) {
	devices, err := ListDevices()
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(name)
	for i := range devices {
		if strings.Contains(strings.ToLower(devices[i].Name), search) {
			return &devices[i], nil
		}
	}
	return nil, fmt.Errorf("no device found matching name: %s", name)
}
