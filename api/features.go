package api

import (
	"fmt"
	"strings"
)

// CoreFeatures is a bitset of post-MVP WebAssembly core features. The MVP
// (20191205) feature set is always enabled and has no corresponding bits
// here; this type only toggles proposals layered on top of it.
//
// No flag has the value zero: the smallest flag is 1 << 0, a zero-valued
// CoreFeatures reports every feature disabled, and a flag value of zero must
// never be mistaken for "set".
type CoreFeatures uint64

const (
	// CoreFeatureMutableGlobal allows globals to be mutable, per the
	// "mutable-global" proposal.
	CoreFeatureMutableGlobal CoreFeatures = 1 << iota
	// CoreFeatureSignExtensionOps adds sign-extension integer instructions,
	// per the "sign-extension-ops" proposal.
	CoreFeatureSignExtensionOps
	// CoreFeatureMultiValue allows functions and blocks to return more than
	// one value, per the "multi-value" proposal.
	CoreFeatureMultiValue
	// CoreFeatureBulkMemoryOperations adds the memory.copy, memory.fill,
	// table.copy and friends, per the "bulk-memory-operations" proposal.
	CoreFeatureBulkMemoryOperations
	// CoreFeatureReferenceTypes adds funcref/externref value types and their
	// instructions, per the "reference-types" proposal.
	CoreFeatureReferenceTypes
	// CoreFeatureNonTrappingFloatToIntConversion adds saturating
	// float-to-int truncation instructions, per the
	// "nontrapping-float-to-int-conversion" proposal.
	CoreFeatureNonTrappingFloatToIntConversion
	// CoreFeatureSIMD adds the v128 value type and vector instructions, per
	// the "simd" proposal.
	CoreFeatureSIMD
)

// CoreFeaturesV1 is the WebAssembly Core Specification 1.0 feature set: no
// post-MVP proposals enabled.
const CoreFeaturesV1 = CoreFeatures(0)

// CoreFeaturesV2 is the WebAssembly Core Specification 2.0 feature set: every
// proposal this module defines bits for, enabled.
const CoreFeaturesV2 = CoreFeatureMutableGlobal |
	CoreFeatureSignExtensionOps |
	CoreFeatureMultiValue |
	CoreFeatureBulkMemoryOperations |
	CoreFeatureReferenceTypes |
	CoreFeatureNonTrappingFloatToIntConversion |
	CoreFeatureSIMD

var coreFeatureNames = []struct {
	bit  CoreFeatures
	name string
}{
	{CoreFeatureBulkMemoryOperations, "bulk-memory-operations"},
	{CoreFeatureMultiValue, "multi-value"},
	{CoreFeatureMutableGlobal, "mutable-global"},
	{CoreFeatureNonTrappingFloatToIntConversion, "nontrapping-float-to-int-conversion"},
	{CoreFeatureReferenceTypes, "reference-types"},
	{CoreFeatureSignExtensionOps, "sign-extension-ops"},
	{CoreFeatureSIMD, "simd"},
}

// IsEnabled returns true if feature is non-zero and all of its bits are set
// in f. The bits need not name a known feature.
func (f CoreFeatures) IsEnabled(feature CoreFeatures) bool {
	return feature != 0 && f&feature == feature
}

// SetEnabled returns a copy of f with feature set or cleared.
func (f CoreFeatures) SetEnabled(feature CoreFeatures, val bool) CoreFeatures {
	if val {
		return f | feature
	}
	return f &^ feature
}

// RequireEnabled returns an error naming feature unless it is enabled in f.
func (f CoreFeatures) RequireEnabled(feature CoreFeatures) error {
	if !f.IsEnabled(feature) {
		return fmt.Errorf("feature %q is disabled", feature.String())
	}
	return nil
}

// String renders the enabled, named features in alphabetical order,
// separated by "|". Unnamed or unset bits are silently omitted.
func (f CoreFeatures) String() string {
	var names []string
	for _, fn := range coreFeatureNames {
		if f.IsEnabled(fn.bit) {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, "|")
}
