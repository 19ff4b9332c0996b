// Package device defines the driver interfaces implemented by all device
// drivers and a registry the HAL consults when probing the board.
package device

import (
	"io"

	"rvos/kernel"
)

// Driver is an interface implemented by all drivers.
type Driver interface {
	// DriverName returns the name of the driver.
	DriverName() string

	// DriverVersion returns the driver version.
	DriverVersion() (major uint16, minor uint16, patch uint16)

	// DriverInit initializes the device driver. If the driver init code
	// needs to log some output, it can use the supplied io.Writer in
	// conjunction with a call to kfmt.Fprintf.
	DriverInit(io.Writer) *kernel.Error
}

// ProbeFn is a function that scans for the presence of a particular
// piece of hardware and returns a driver for it.
type ProbeFn func() Driver

// The list of allowed driver detection orders.
const (
	// DetectOrderEarly drivers are probed before anything else. The boot
	// console lives here so later probes have somewhere to log to.
	DetectOrderEarly = -100

	// DetectOrderBoard is the default order for board peripherals.
	DetectOrderBoard = 0

	// DetectOrderLast drivers are probed after everything else.
	DetectOrderLast = 100
)

// DriverInfo describes a driver and the order it should be probed in.
type DriverInfo struct {
	// Order defines the order this driver's probe function runs relative
	// to the other registered drivers.
	Order int

	// Probe detects the hardware this driver manages and returns a
	// Driver for it, or nil if the hardware is not present.
	Probe ProbeFn
}

// DriverInfoList is a list of registered drivers that can be sorted by
// detection order.
type DriverInfoList []*DriverInfo

// Len returns the number of entries in the list.
func (l DriverInfoList) Len() int { return len(l) }

// Swap exchanges 2 list entries.
func (l DriverInfoList) Swap(i, j int) { l[i], l[j] = l[j], l[i] }

// Less compares 2 list entries by their detection order.
func (l DriverInfoList) Less(i, j int) bool { return l[i].Order < l[j].Order }

var registeredDrivers DriverInfoList

// RegisterDriver adds a driver to the registry. Drivers are expected to call
// it from an init function.
func RegisterDriver(info *DriverInfo) {
	registeredDrivers = append(registeredDrivers, info)
}

// DriverList returns the list of registered drivers.
func DriverList() DriverInfoList {
	return registeredDrivers
}
