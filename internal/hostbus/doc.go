// Package hostbus implements the device-management framework that owns
// driver attachment for typecd.
//
// It mirrors the shape of a kernel bus subsystem in daemon space: drivers
// register against the bus with a compatible table and a required adapter
// functionality mask, devices are added with their I2C adapter and
// compatible strings, and the bus matches devices to drivers and dispatches
// the attach/detach callbacks. The bus owns the host-boundary error
// convention: attach reports 0 on success or a negative errno, detach
// always reports 0.
//
// Each device carries a Devres scope. Resources a driver ties to the scope
// are released by the bus when an attach dispatch fails and after a detach
// completes, so device-lifetime memory is reclaimed without the driver
// managing it explicitly.
//
// Thread Safety: Bus, Device, and Devres methods are safe for concurrent
// use from multiple goroutines.
package hostbus
