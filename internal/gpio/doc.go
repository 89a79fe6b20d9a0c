// Package gpio drives GPIO lines through the sysfs interface.
//
// The sysfs base path is injectable so tests can point it at a temp
// directory; production uses DefaultSysfsPath. Lines are exported on first
// use and an already-exported line is not an error.
//
// Pins bundles the two lines a Type-C port needs: the VBUS-enable output
// and the active-low interrupt input. Either line can be left unwired by
// passing a negative number.
package gpio
