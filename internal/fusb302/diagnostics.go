package fusb302

import "github.com/nerrad567/typec-core/internal/diag"

// RegistryDiagnostics exposes chips as diagnostic providers named
// "fusb302/<device>".
type RegistryDiagnostics struct {
	logger Logger
	reg    *diag.Registry
}

// NewRegistryDiagnostics creates the diagnostics collaborator.
func NewRegistryDiagnostics(reg *diag.Registry) *RegistryDiagnostics {
	return &RegistryDiagnostics{logger: noopLogger{}, reg: reg}
}

// SetLogger sets the logger for the diagnostics collaborator.
func (d *RegistryDiagnostics) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	d.logger = logger
}

// Expose implements Diagnostics. A name collision is logged and the chip
// simply goes without diagnostics; attach carries on.
func (d *RegistryDiagnostics) Expose(chip *Chip) {
	name := DriverName + "/" + chip.id
	if dev := chip.Device(); dev != nil {
		name = DriverName + "/" + dev.Name()
	}

	if err := d.reg.Register(name, chip); err != nil {
		d.logger.Warn("diagnostics registration failed", "name", name, "error", err)
		return
	}
	chip.diagName = name
	d.logger.Debug("diagnostics exposed", "name", name)
}

// Withdraw implements Diagnostics.
func (d *RegistryDiagnostics) Withdraw(chip *Chip) {
	if chip.diagName == "" {
		return
	}
	d.reg.Unregister(chip.diagName)
	chip.diagName = ""
}
