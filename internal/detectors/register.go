package detectors

import "github.com/lucasamorimca/cosmwasm-guard/internal/detect"

// All returns every built-in detector in the order they register with a
// Registry: the three MVP checks first, then the supplemented checks in the
// order their originals appear in the ported detector crate.
func All() []detect.Detector {
	return []detect.Detector{
		MissingAddrValidate{},
		MissingAccessControl{},
		UnboundedIteration{},
		UnsafeUnwrap{},
		ArithmeticOverflow{},
		StorageKeyCollision{},
		MissingFundsValidation{},
		MissingMigrationVersion{},
		SubmessageReplyUnvalidated{},
		UninitializedStateAccess{},
		NondeterministicIteration{},
		MissingErrorPropagation{},
		IncorrectPermissionHierarchy{},
	}
}

// NewRegistry builds a detect.Registry pre-populated with every built-in
// detector.
func NewRegistry() *detect.Registry {
	r := detect.NewRegistry()
	r.RegisterAll(All())
	return r
}
