package app

import (
	"fmt"
	"os"

	"github.com/emmett/mictap/internal/audio"
)

// DeviceManager handles audio device selection and listing
type DeviceManager struct{}

// NewDeviceManager creates a new DeviceManager instance
func NewDeviceManager() *DeviceManager {
	return &DeviceManager{}
}

// ListDevices lists all available audio input devices
func (dm *DeviceManager) ListDevices() error {
	fmt.Println("Detecting audio input devices...")
	fmt.Println()

	devices, err := audio.ListDevices()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to list devices: %v\n", err)
		return err
	}

	if len(devices) == 0 {
		fmt.Println("No audio capture devices found.")
		return fmt.Errorf("no devices found")
	}

	fmt.Printf("Found %d capture device(s):\n\n", len(devices))
	for i, device := range devices {
		fmt.Printf("%d. %s\n", i+1, device.String())
		if device.MaxChannels > 0 {
			fmt.Printf("   Max Channels: %d\n", device.MaxChannels)
		}
	}

	fmt.Println()
	fmt.Println("To use a specific device, run:")
	fmt.Println("  mictap --device \"<device-name>\"")

	return nil
}

// SelectDevice selects an audio device by name, or returns the default
func (dm *DeviceManager) SelectDevice(deviceName string) (*audio.DeviceInfo, error) {
	if deviceName == "" {
		device, err := audio.DefaultDevice()
		if err != nil {
			return nil, fmt.Errorf("failed to get default device: %w", err)
		}
		return device, nil
	}

	device, err := audio.FindDeviceByName(deviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Device '%s' not found\n", deviceName)
		fmt.Println("Use --list-devices to see available devices")
		return nil, err
	}
	return device, nil
}
