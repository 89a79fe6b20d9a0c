package i2c

import (
	"errors"
	"sync"
)

// ErrSimClosed is returned by Tx after the simulator has been closed.
var ErrSimClosed = errors.New("i2c: simulated adapter closed")

// simDefaultFuncs is the functionality a simulated adapter advertises,
// matching what a typical SoC i2c controller offers.
const simDefaultFuncs = FuncI2C |
	FuncSMBusQuick |
	FuncSMBusReadByte | FuncSMBusWriteByte |
	FuncSMBusReadByteData | FuncSMBusWriteByteData |
	FuncSMBusReadWordData | FuncSMBusWriteWordData |
	FuncSMBusReadI2CBlock | FuncSMBusWriteI2CBlock

// Sim is an in-memory register device implementing Adapter.
//
// It models the usual register-pointer protocol: the first written byte
// selects a register, further written bytes land in consecutive registers,
// and reads return consecutive registers from the current pointer. It backs
// the bus.simulate daemon mode and the package tests, and supports fault
// injection so error paths can be exercised without hardware.
type Sim struct {
	mu      sync.Mutex
	name    string
	funcs   Funcs
	regs    map[byte]byte
	pointer byte
	txs     int
	failN   int // transfers left to fail; -1 fails until cleared
	failErr error
	closed  bool
}

// NewSim creates a simulated adapter with the default functionality mask
// and an empty register file.
func NewSim(name string) *Sim {
	return &Sim{
		name:  name,
		funcs: simDefaultFuncs,
		regs:  make(map[byte]byte),
	}
}

// Name returns the simulator label.
func (s *Sim) Name() string { return s.name }

// Functionality returns the advertised functionality mask.
func (s *Sim) Functionality() Funcs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.funcs
}

// SetFuncs overrides the advertised functionality mask.
func (s *Sim) SetFuncs(f Funcs) {
	s.mu.Lock()
	s.funcs = f
	s.mu.Unlock()
}

// Load stores a register value directly, bypassing the bus.
func (s *Sim) Load(reg, val byte) {
	s.mu.Lock()
	s.regs[reg] = val
	s.mu.Unlock()
}

// Peek reads a register value directly, bypassing the bus.
func (s *Sim) Peek(reg byte) byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[reg]
}

// FailTxs makes the next n transfers fail with err.
func (s *Sim) FailTxs(n int, err error) {
	s.mu.Lock()
	s.failN = n
	s.failErr = err
	s.mu.Unlock()
}

// SetTxErr makes every transfer fail with err until cleared with nil.
func (s *Sim) SetTxErr(err error) {
	s.mu.Lock()
	if err == nil {
		s.failN = 0
		s.failErr = nil
	} else {
		s.failN = -1
		s.failErr = err
	}
	s.mu.Unlock()
}

// TxCount returns the number of Tx calls, including failed ones.
func (s *Sim) TxCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txs
}

// Tx implements Adapter against the in-memory register file.
func (s *Sim) Tx(addr uint16, w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSimClosed
	}
	s.txs++

	if s.failErr != nil && s.failN != 0 {
		if s.failN > 0 {
			s.failN--
		}
		return s.failErr
	}

	if len(w) > 0 {
		s.pointer = w[0]
		for i, b := range w[1:] {
			s.regs[s.pointer+byte(i)] = b
		}
	}
	for i := range r {
		r[i] = s.regs[s.pointer+byte(i)]
	}
	return nil
}

// Close marks the simulator closed. Further transfers fail.
func (s *Sim) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
