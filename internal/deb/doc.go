// Package deb defines the package data model shared by the planning,
// arbitration, and execution layers.
//
// Values here are plain data: a Package snapshot of one Debian package,
// the Conflict pairing produced by install simulation, and the Plan that
// carries a resolution from the resolver through arbitration to execution.
// Classification results (Type, Risk) are derived by the classify package
// and never persisted.
//
// Key responsibilities:
//   - Package identity and install-state representation
//   - Conflict pairing ("installing X requires removing Y")
//   - Plan accumulation during resolution and arbitration
//   - Result reporting from the execution layer
package deb
