// Package intern eliminates duplicate allocations of identical immutable values.
//
// Constructing a value whose content equals an already-live canonical
// instance returns a reference to that instance rather than a newly
// allocated one. A never-seen value is adopted as the new canonical for its
// content and handed back unchanged.
//
// # How does it work?
//
// Each value kind gets one Table: a mutex-guarded map from a derived content
// key to weak handles on the live canonicals. Registering a candidate
// derives its key, scans the matching bucket for a live content-equal entry,
// and either returns that entry (discarding the candidate) or adopts the
// candidate. When the last owning reference to a canonical is released, a
// runtime cleanup removes its table entry, so equal content constructed
// later registers fresh.
//
// The table never owns the values it tracks. Handles are weak, liveness is
// controlled solely by callers, and a handle whose referent is gone is
// treated as vacant until its cleanup prunes it.
//
// # Opting in
//
// Registration is an explicit call, not a construction intercept. A kind
// exposes its content either through Decompose (an ordered canonical
// decomposition, recursed into and type-tagged during key derivation) or
// through Equals for direct content comparison. The package-level factories
// New, Instance, and InstanceIf wrap the build-then-register flow around
// the lazily created per-kind tables, and InstanceIf lets one kind produce
// both canonical and free-standing instances.
//
// Because canonical instances are shared, they must never be mutated.
// AssertMutable is the guard callers place at the start of any
// state-changing operation.
package intern
