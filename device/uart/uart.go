// Package uart provides a driver for the ns16550a UART that the qemu virt
// board exposes at physical address 0x10000000. The device backs the kernel
// console: bytes written to the transmit holding register come out on the
// serial line.
package uart

import (
	"io"

	"rvos/device"
	"rvos/kernel"
)

// baseAddr is the physical address of the UART register window on the qemu
// virt board.
const baseAddr = uintptr(0x10000000)

// ns16550a register offsets from the base address. Each register is one
// byte wide.
const (
	regTHR = 0 // transmit holding register (write)
	regIER = 1 // interrupt enable register
	regFCR = 2 // FIFO control register (write)
	regLCR = 3 // line control register
	regLSR = 5 // line status register (read)
)

// Register bits used by the driver.
const (
	fcrFIFOEnable = 1 << 0
	fcrFIFOClear  = 3 << 1
	lcrWordLen8   = 3 << 0
	lsrTxIdle     = 1 << 5
)

// Device models an ns16550a UART behind its 8-byte register window. Bytes
// latched into the transmit holding register are appended to an internal
// transcript in write order.
type Device struct {
	base uintptr
	regs [8]byte
	tx   []byte
}

// NewDevice returns a UART device with its register window at base.
func NewDevice(base uintptr) *Device {
	return &Device{base: base}
}

// writeReg stores a byte to the register at the given window offset.
func (dev *Device) writeReg(off uintptr, val byte) {
	if off == regTHR {
		dev.tx = append(dev.tx, val)
		return
	}
	dev.regs[off] = val
}

// readReg loads a byte from the register at the given window offset.
func (dev *Device) readReg(off uintptr) byte {
	if off == regLSR {
		// The transcript drains instantly so the transmitter is
		// always idle.
		return dev.regs[off] | lsrTxIdle
	}
	return dev.regs[off]
}

// Base returns the physical address of the device register window.
func (dev *Device) Base() uintptr {
	return dev.base
}

// Transmitted returns the bytes written out the serial line so far.
func (dev *Device) Transmitted() []byte {
	return dev.tx
}

// Write sends p out the serial line one byte at a time, polling the line
// status register for an idle transmitter before each store.
func (dev *Device) Write(p []byte) (int, error) {
	for _, b := range p {
		for dev.readReg(regLSR)&lsrTxIdle == 0 {
		}
		dev.writeReg(regTHR, b)
	}
	return len(p), nil
}

// DriverName returns the name of this driver.
func (dev *Device) DriverName() string {
	return "ns16550a"
}

// DriverVersion returns the version of this driver.
func (dev *Device) DriverVersion() (uint16, uint16, uint16) {
	return 0, 1, 0
}

// DriverInit initializes this driver: interrupts off, FIFOs enabled and
// reset, 8-bit words.
func (dev *Device) DriverInit(_ io.Writer) *kernel.Error {
	dev.writeReg(regIER, 0)
	dev.writeReg(regFCR, fcrFIFOEnable|fcrFIFOClear)
	dev.writeReg(regLCR, lcrWordLen8)
	return nil
}

// probeForUART checks for the presence of the board UART.
func probeForUART() device.Driver {
	return NewDevice(baseAddr)
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderEarly,
		Probe: probeForUART,
	})
}
