package deb

// Conflict records that installing Package requires removing ConflictsWith.
// The pairing is asymmetric: Package is the incoming side, ConflictsWith
// the resident side.
type Conflict struct {
	// Package is the package being installed
	Package Package

	// ConflictsWith is the package that would have to go
	ConflictsWith Package

	// Reason is a human-readable explanation of the conflict
	Reason string
}

// Plan is the ordered outcome of dependency resolution: what to install,
// remove, and upgrade, plus any conflicts still attached to the plan.
//
// A plan is mutated only during resolution and conflict arbitration; once
// handed to the execution layer it is read-only. In a valid plan no name
// appears in both Install and Remove.
type Plan struct {
	// Install is the list of packages to install, in dependency order
	// once InstallationOrder has run
	Install []Package

	// Remove is the list of packages to remove, least critical first
	Remove []Package

	// Upgrade is the list of installed packages needing a version change
	Upgrade []Package

	// Conflicts is the list of detected conflicts (empty when clean)
	Conflicts []Conflict

	// NeedsConfirmation is set when the plan removes packages or carries
	// conflicts and must pass through arbitration
	NeedsConfirmation bool

	// NeedsForce is set when some conflicts could not be resolved within
	// policy and the execution layer must push them through explicitly
	NeedsForce bool
}

// NewPlan creates a new empty Plan.
func NewPlan() *Plan {
	return &Plan{
		Install:   []Package{},
		Remove:    []Package{},
		Upgrade:   []Package{},
		Conflicts: []Conflict{},
	}
}

// HasConflicts returns true if the plan has any unresolved conflicts.
func (p *Plan) HasConflicts() bool {
	return len(p.Conflicts) > 0
}

// HasRemovals returns true if the plan removes any packages.
func (p *Plan) HasRemovals() bool {
	return len(p.Remove) > 0
}

// Empty returns true if the plan performs no operations at all.
func (p *Plan) Empty() bool {
	return len(p.Install) == 0 && len(p.Remove) == 0 && len(p.Upgrade) == 0
}

// AddConflict appends a conflict to the plan.
func (p *Plan) AddConflict(c Conflict) {
	p.Conflicts = append(p.Conflicts, c)
}

// Result reports the outcome of executing a plan or single operation.
type Result struct {
	// Success is true when every step completed
	Success bool

	// Affected lists the packages the operation touched
	Affected []Package

	// Warnings are non-fatal notes surfaced to the user
	Warnings []string

	// Errors are the failures encountered (non-empty implies !Success)
	Errors []string
}

// AddWarning appends a warning to the result.
func (r *Result) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// AddError appends an error message and marks the result failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Success = false
}
