// Package features implements the closed capability-dispatch seam: rather
// than the validator branching on a growing set of proposal flags
// scattered through its call tree, every post-MVP instruction or type it
// encounters asks this package a single question — is the owning feature
// enabled for this module's api.CoreFeatures set — and gets a uniform,
// already-formatted rejection error if not.
package features

import "github.com/uwvmgo/uwvmgo/api"

// Gate reports an error unless feature is enabled in enabled. The
// validator calls this once per proposal-gated opcode or type instead of
// hand-rolling the same enabled-check and error text at every call site.
func Gate(enabled api.CoreFeatures, feature api.CoreFeatures) error {
	return enabled.RequireEnabled(feature)
}

// MVP is the feature set with every WebAssembly 1.0 (20191205) instruction
// and type always available and no post-MVP proposal enabled. It's the
// floor every api.CoreFeatures value is validated against: a module that
// uses no post-MVP construct behaves identically regardless of which
// proposals happen to be turned on.
const MVP = api.CoreFeaturesV1

// Supported is the set of proposals this package can gate at all. A
// feature bit outside this set is rejected by Known even if a caller
// somehow sets it, since the validator has no corresponding check for it.
const Supported = api.CoreFeaturesV2

// Known reports whether every bit set in f is one this package can gate.
func Known(f api.CoreFeatures) bool {
	return f&^Supported == 0
}
