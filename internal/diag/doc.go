// Package diag provides a registry of named diagnostic attribute providers.
//
// Drivers register a provider per device during attach; the API serves the
// collected attributes read-only. Providers stay registered until they are
// explicitly unregistered, so a stale provider after a device goes away is
// expected and its attributes simply stop changing.
package diag
