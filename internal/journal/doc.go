// Package journal records host-bus lifecycle transitions and port state
// changes in SQLite.
//
// The bus writes through a lifecycle notifier and the protocol engine
// through a state sink; both are provided by Recorder. The API serves the
// stored rows back out with filtering and pagination. Recording is
// best-effort: a failed insert is logged and dropped so persistence
// trouble never disturbs an attach or detach dispatch.
package journal
