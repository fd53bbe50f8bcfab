// Package resolve handles the planning phase of package operations.
//
// The resolver computes the transitive dependency closure of a target
// package, detects conflicts against the install set, proposes the
// removals that would clear those conflicts, orders installations so
// dependencies come first, and validates finished plans.
//
// Key responsibilities:
//   - Depth-first dependency closure with cycle avoidance and memoization
//   - Conflict-removal candidate selection (preserve critical, prefer custom)
//   - Deterministic installation ordering via a ready-set loop
//   - Plan validation (circularity, high-risk removals, metapackage gaps)
//
// A Resolver caches closures per target name and is not safe for
// concurrent use; create one per resolution request.
package resolve
