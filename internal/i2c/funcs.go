package i2c

import (
	"strings"
)

// Funcs is an adapter functionality bitmask. The values mirror the
// I2C_FUNC_* flags from <linux/i2c.h> so masks read from the kernel via
// I2C_FUNCS can be used directly.
type Funcs uint64

// Functionality flags.
const (
	FuncI2C                 Funcs = 0x00000001
	Func10BitAddr           Funcs = 0x00000002
	FuncProtocolMangling    Funcs = 0x00000004
	FuncSMBusPEC            Funcs = 0x00000008
	FuncNoStart             Funcs = 0x00000010
	FuncSlave               Funcs = 0x00000020
	FuncSMBusBlockProcCall  Funcs = 0x00008000
	FuncSMBusQuick          Funcs = 0x00010000
	FuncSMBusReadByte       Funcs = 0x00020000
	FuncSMBusWriteByte      Funcs = 0x00040000
	FuncSMBusReadByteData   Funcs = 0x00080000
	FuncSMBusWriteByteData  Funcs = 0x00100000
	FuncSMBusReadWordData   Funcs = 0x00200000
	FuncSMBusWriteWordData  Funcs = 0x00400000
	FuncSMBusProcCall       Funcs = 0x00800000
	FuncSMBusReadBlockData  Funcs = 0x01000000
	FuncSMBusWriteBlockData Funcs = 0x02000000
	FuncSMBusReadI2CBlock   Funcs = 0x04000000
	FuncSMBusWriteI2CBlock  Funcs = 0x08000000
)

// Has reports whether every bit of want is present in f.
func (f Funcs) Has(want Funcs) bool {
	return f&want == want
}

// Missing returns the bits of want that are absent from f.
func (f Funcs) Missing(want Funcs) Funcs {
	return want &^ f
}

// funcNames maps single flags to their short names, in ascending bit order.
var funcNames = []struct {
	flag Funcs
	name string
}{
	{FuncI2C, "i2c"},
	{Func10BitAddr, "10bit_addr"},
	{FuncProtocolMangling, "protocol_mangling"},
	{FuncSMBusPEC, "smbus_pec"},
	{FuncNoStart, "nostart"},
	{FuncSlave, "slave"},
	{FuncSMBusBlockProcCall, "smbus_block_proc_call"},
	{FuncSMBusQuick, "smbus_quick"},
	{FuncSMBusReadByte, "smbus_read_byte"},
	{FuncSMBusWriteByte, "smbus_write_byte"},
	{FuncSMBusReadByteData, "smbus_read_byte_data"},
	{FuncSMBusWriteByteData, "smbus_write_byte_data"},
	{FuncSMBusReadWordData, "smbus_read_word_data"},
	{FuncSMBusWriteWordData, "smbus_write_word_data"},
	{FuncSMBusProcCall, "smbus_proc_call"},
	{FuncSMBusReadBlockData, "smbus_read_block_data"},
	{FuncSMBusWriteBlockData, "smbus_write_block_data"},
	{FuncSMBusReadI2CBlock, "smbus_read_i2c_block"},
	{FuncSMBusWriteI2CBlock, "smbus_write_i2c_block"},
}

// String renders the set flags as a comma-separated list, or "none".
func (f Funcs) String() string {
	if f == 0 {
		return "none"
	}
	var names []string
	for _, fn := range funcNames {
		if f&fn.flag != 0 {
			names = append(names, fn.name)
		}
	}
	if len(names) == 0 {
		return "unknown"
	}
	return strings.Join(names, ",")
}
