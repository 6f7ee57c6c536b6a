package probe

import (
	"fmt"

	"github.com/jochenvg/go-udev"
)

// Vendor/product id and interface description identifying a probe's
// USB CDC-ACM data port.
const (
	usbVendorID  = "0484"
	usbProductID = "5741"
	usbInterface = "SuperbitRF data port"
)

// Discover enumerates tty devices and returns the device node paths of
// every attached probe, filtered by USB vendor/product id and the
// interface's iInterface descriptor string.
func Discover() ([]string, error) {
	u := udev.Udev{}
	enum := u.NewEnumerateFromUdev(&u)
	if err := enum.AddMatchSubsystem("tty"); err != nil {
		return nil, fmt.Errorf("probe: udev enumerate: %w", err)
	}

	devices, err := enum.Devices()
	if err != nil {
		return nil, fmt.Errorf("probe: udev enumerate: %w", err)
	}

	var matches []string
	for _, dev := range devices {
		node := dev.Devnode()
		if node == "" {
			continue
		}
		if matchesProbe(dev) {
			matches = append(matches, node)
		}
	}
	return matches, nil
}

// matchesProbe walks up from the tty device to its usb_interface
// ancestor, checking vendor/product id and interface description.
func matchesProbe(dev *udev.Device) bool {
	iface := dev.ParentWithSubsystemDevtype("usb", "usb_interface")
	if iface == nil {
		return false
	}
	if iface.SysattrValue("interface") != usbInterface {
		return false
	}

	usbDevice := iface.ParentWithSubsystemDevtype("usb", "usb_device")
	if usbDevice == nil {
		return false
	}
	return usbDevice.SysattrValue("idVendor") == usbVendorID &&
		usbDevice.SysattrValue("idProduct") == usbProductID
}
