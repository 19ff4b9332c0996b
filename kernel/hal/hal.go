// Package hal knows the qemu virt board: where its peripherals live in the
// physical address space, how their register windows get mapped into the
// kernel address space and how the registered device drivers are probed and
// initialized at boot.
package hal

import (
	"bytes"
	"io"
	"sort"

	"rvos/device"
	"rvos/kernel"
	"rvos/kernel/kfmt"
	"rvos/kernel/mm"
	"rvos/kernel/mm/vmm"
)

// Peripheral register windows on the qemu virt board. The windows are fixed
// by the board layout and sit below RAM, so they can never overlap the
// kernel image or the frame arena.
const (
	// CLINTBase is the core-local interruptor: machine timer and
	// software interrupt registers.
	CLINTBase = uintptr(0x02000000)
	CLINTSize = uintptr(0x10000)

	// PLICBase is the platform-level interrupt controller.
	PLICBase = uintptr(0x0c000000)
	PLICSize = uintptr(0x400000)

	// UART0Base is the ns16550a serial port.
	UART0Base = uintptr(0x10000000)
	UART0Size = uintptr(0x1000)

	// VirtIO0Base is the first virtio MMIO transport.
	VirtIO0Base = uintptr(0x10001000)
	VirtIO0Size = uintptr(0x1000)
)

var errPeripheralInRAM = &kernel.Error{Module: "hal", Message: "peripheral window overlaps RAM"}

// peripheralWindows lists the register windows MapPeripherals installs.
var peripheralWindows = []struct {
	base uintptr
	size uintptr
}{
	{CLINTBase, CLINTSize},
	{PLICBase, PLICSize},
	{UART0Base, UART0Size},
	{VirtIO0Base, VirtIO0Size},
}

// MapPeripherals identity-maps the board peripheral register windows into
// asp with read and write access. Device memory must never be handed to the
// frame allocator, so any window that intersects RAM is rejected.
func MapPeripherals(asp *vmm.AddressSpace) *kernel.Error {
	for _, win := range peripheralWindows {
		if win.base+win.size > mm.KernBase && win.base < mm.PhysTop {
			return errPeripheralInRAM
		}

		flags := vmm.FlagRead | vmm.FlagWrite | vmm.FlagGlobal
		if err := asp.MapRange(win.base, win.base, win.size, flags); err != nil {
			return err
		}
	}

	return nil
}

// managedDevices contains the devices discovered by the HAL.
type managedDevices struct {
	// activeConsole is the device console output is routed to.
	activeConsole io.Writer

	// activeDrivers tracks all initialized device drivers.
	activeDrivers []device.Driver
}

var (
	devices managedDevices
	strBuf  bytes.Buffer
)

// ActiveConsole returns the device that currently receives console output.
func ActiveConsole() io.Writer {
	return devices.activeConsole
}

// DetectHardware probes for hardware devices and initializes the appropriate
// drivers.
func DetectHardware() {
	// Get driver list and sort by detection priority
	drivers := device.DriverList()
	sort.Sort(drivers)

	probe(drivers)
}

// probe executes the probe function for each driver and invokes
// onDriverInit for each successfully initialized driver.
func probe(driverInfoList device.DriverInfoList) {
	var w = kfmt.PrefixWriter{Sink: kfmt.GetOutputSink()}

	for _, info := range driverInfoList {
		drv := info.Probe()
		if drv == nil {
			continue
		}

		strBuf.Reset()
		major, minor, patch := drv.DriverVersion()
		kfmt.Fprintf(&strBuf, "[hal] %s(%d.%d.%d): ", drv.DriverName(), major, minor, patch)
		w.Prefix = strBuf.Bytes()

		if err := drv.DriverInit(&w); err != nil {
			kfmt.Fprintf(&w, "init failed: %s\n", err.Message)
			continue
		}

		kfmt.Fprintf(&w, "initialized\n")
		onDriverInit(drv)
		devices.activeDrivers = append(devices.activeDrivers, drv)
	}
}

// onDriverInit is invoked by probe() whenever a piece of hardware is detected
// and successfully initialized. The first driver that can act as an output
// sink becomes the active console and receives any buffered early output.
func onDriverInit(drv device.Driver) {
	cons, ok := drv.(io.Writer)
	if !ok || devices.activeConsole != nil {
		return
	}

	devices.activeConsole = cons
	kfmt.SetOutputSink(cons)
}
