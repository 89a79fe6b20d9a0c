package fusb302

import "github.com/nerrad567/typec-core/internal/i2c"

// DriverName identifies the driver on the host bus.
const DriverName = "fusb302"

// Compatible lists the device identifiers the driver binds to.
var Compatible = []string{"fcs,fusb302", "fcs,fusb302b"}

// RequiredFuncs is the adapter functionality the driver needs: byte-data
// transfers for register access and I2C-block transfers for FIFO bursts.
const RequiredFuncs = i2c.FuncSMBusReadByteData | i2c.FuncSMBusWriteByteData |
	i2c.FuncSMBusReadI2CBlock | i2c.FuncSMBusWriteI2CBlock

// FUSB302 register addresses.
const (
	regDeviceID   = 0x01
	regSwitches0  = 0x02
	regSwitches1  = 0x03
	regMeasure    = 0x04
	regSlice      = 0x05
	regControl0   = 0x06
	regControl1   = 0x07
	regControl2   = 0x08
	regControl3   = 0x09
	regMask       = 0x0A
	regPower      = 0x0B
	regReset      = 0x0C
	regOCP        = 0x0D
	regMaskA      = 0x0E
	regMaskB      = 0x0F
	regControl4   = 0x10
	regStatus0A   = 0x3C
	regStatus1A   = 0x3D
	regInterruptA = 0x3E
	regInterruptB = 0x3F
	regStatus0    = 0x40
	regStatus1    = 0x41
	regInterrupt  = 0x42
	regFIFOs      = 0x43
)

// Switches0 bits.
const (
	switches0PdwnCC1 = 0x01
	switches0PdwnCC2 = 0x02
	switches0MeasCC1 = 0x04
	switches0MeasCC2 = 0x08
)

// Control0 bits.
const (
	control0TxStart = 0x01
	control0IntMask = 0x20
)

// Power bits. powerAll enables bandgap, measure, receiver and the internal
// oscillator.
const powerAll = 0x0F

// Reset bits.
const resetSWReset = 0x01

// Status0 bits.
const (
	status0BCLvlMask = 0x03
	status0Activity  = 0x40
	status0VBusOK    = 0x80
)

// BC_LVL codes within Status0.
const (
	bcLvlRa      = 0x00
	bcLvlDefault = 0x01
	bcLvl1A5     = 0x02
	bcLvl3A0     = 0x03
)

// Interrupt bits.
const (
	intBCLvl     = 0x01
	intCollision = 0x02
	intWake      = 0x04
	intAlert     = 0x08
	intCRCChk    = 0x10
	intCompChng  = 0x20
	intActivity  = 0x40
	intVBusOK    = 0x80
)

// InterruptA bits.
const (
	intAHardReset = 0x01
	intASoftReset = 0x02
	intATxSent    = 0x04
	intAHardSent  = 0x08
	intARetryFail = 0x10
	intASoftFail  = 0x20
	intATogDone   = 0x40
	intAOCPTemp   = 0x80
)

// Status1A TOGSS field: which connection the toggle logic settled on.
const (
	status1ATogssShift = 3
	status1ATogssMask  = 0x07

	togssSnkCC1 = 0x05
	togssSnkCC2 = 0x06
)

// Device ID version codes, high nibble of regDeviceID.
const (
	versionA = 0x8
	versionB = 0x9
	versionC = 0xA
)

// versionValid reports whether the identity register value belongs to a
// supported chip revision.
func versionValid(id byte) bool {
	switch id >> 4 {
	case versionA, versionB, versionC:
		return true
	default:
		return false
	}
}

// versionString renders the identity register value for logs and
// diagnostics.
func versionString(id byte) string {
	var rev string
	switch id >> 4 {
	case versionA:
		rev = "A"
	case versionB:
		rev = "B"
	case versionC:
		rev = "C"
	default:
		return "unknown"
	}
	return "FUSB302 rev " + rev
}
