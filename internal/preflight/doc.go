// Package preflight provides readiness checks for the model endpoints,
// binaries, and filesystem paths that clipguard depends on.
//
// These checks run in two contexts:
//   - "clipguard serve" calls RunAll at startup and logs every failure as a
//     warning; requests still run and degrade per stage.
//   - "clipguard status" renders each Result and dependency Status as a table.
//
// Cookie bundle checks are Optional: a missing bundle only means downloads
// run unauthenticated.
package preflight
