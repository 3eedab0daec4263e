package detectors

import (
	"testing"

	"github.com/lucasamorimca/cosmwasm-guard/internal/contract"
	"github.com/lucasamorimca/cosmwasm-guard/internal/detect"
	"github.com/lucasamorimca/cosmwasm-guard/internal/finding"
	"github.com/lucasamorimca/cosmwasm-guard/internal/ir"
)

func newFunctionIr(name string, isEntry bool) *ir.FunctionIr {
	cfg := ir.NewCfg(name)
	cfg.AddBlock()
	return &ir.FunctionIr{Name: name, Cfg: cfg, IsEntryPoint: isEntry}
}

func TestMissingAddrValidateFlagsUnvalidatedField(t *testing.T) {
	c := &contract.ContractInfo{
		MessageEnums: []contract.MessageEnum{
			{
				Name: "ExecuteMsg",
				Variants: []contract.MessageVariant{
					{Name: "Withdraw", Fields: []contract.FieldInfo{{Name: "recipient", TypeName: "String"}}},
				},
			},
		},
	}
	cIr := &ir.ContractIr{Functions: []*ir.FunctionIr{newFunctionIr("execute", true)}}
	ctx := detect.NewAnalysisContext(c, cIr, nil)

	got := MissingAddrValidate{}.Detect(ctx)
	if len(got) != 1 {
		t.Fatalf("expected 1 finding, got %d: %+v", len(got), got)
	}
}

func TestMissingAddrValidateSkipsValidatedField(t *testing.T) {
	c := &contract.ContractInfo{
		MessageEnums: []contract.MessageEnum{
			{
				Name: "ExecuteMsg",
				Variants: []contract.MessageVariant{
					{Name: "Withdraw", Fields: []contract.FieldInfo{{Name: "recipient", TypeName: "String"}}},
				},
			},
		},
	}
	fn := newFunctionIr("execute", true)
	block := fn.Cfg.Block(fn.Cfg.EntryBlock)
	block.Instructions = append(block.Instructions, ir.Instruction{
		Op:      ir.OpAddrValidate,
		Address: ir.VarOperand(ir.SsaVar{Name: "recipient"}),
	})
	cIr := &ir.ContractIr{Functions: []*ir.FunctionIr{fn}}
	ctx := detect.NewAnalysisContext(c, cIr, nil)

	got := MissingAddrValidate{}.Detect(ctx)
	if len(got) != 0 {
		t.Fatalf("expected no findings, got %+v", got)
	}
}

func TestUnboundedIterationFlagsRangeWithoutTake(t *testing.T) {
	fn := newFunctionIr("query_all", false)
	block := fn.Cfg.Block(fn.Cfg.EntryBlock)
	rangeVar := ir.SsaVar{Name: "iter"}
	block.Instructions = append(block.Instructions,
		ir.Instruction{Op: ir.OpRange, DestOpt: &rangeVar, Receiver: ir.VarOperand(ir.SsaVar{Name: "map"}), Method: "range"},
		ir.Instruction{Op: ir.OpMethodCall, Receiver: ir.VarOperand(rangeVar), Method: "collect"},
	)
	cIr := &ir.ContractIr{Functions: []*ir.FunctionIr{fn}}
	c := &contract.ContractInfo{StateItems: []contract.StateItem{{Name: "map", StorageType: contract.StorageMap}}}
	ctx := detect.NewAnalysisContext(c, cIr, nil)

	got := UnboundedIteration{}.Detect(ctx)
	if len(got) != 1 {
		t.Fatalf("expected 1 finding, got %d: %+v", len(got), got)
	}
}

func TestUnboundedIterationSkipsWithTake(t *testing.T) {
	fn := newFunctionIr("query_page", false)
	block := fn.Cfg.Block(fn.Cfg.EntryBlock)
	rangeVar := ir.SsaVar{Name: "iter"}
	takeVar := ir.SsaVar{Name: "limited"}
	block.Instructions = append(block.Instructions,
		ir.Instruction{Op: ir.OpRange, DestOpt: &rangeVar, Receiver: ir.VarOperand(ir.SsaVar{Name: "map"}), Method: "range"},
		ir.Instruction{Op: ir.OpTake, DestOpt: &takeVar, Receiver: ir.VarOperand(rangeVar), Method: "take"},
		ir.Instruction{Op: ir.OpMethodCall, Receiver: ir.VarOperand(takeVar), Method: "collect"},
	)
	cIr := &ir.ContractIr{Functions: []*ir.FunctionIr{fn}}
	c := &contract.ContractInfo{StateItems: []contract.StateItem{{Name: "map", StorageType: contract.StorageMap}}}
	ctx := detect.NewAnalysisContext(c, cIr, nil)

	got := UnboundedIteration{}.Detect(ctx)
	if len(got) != 0 {
		t.Fatalf("expected no findings, got %+v", got)
	}
}

func TestUnboundedIterationSkipsNonStorageReceiver(t *testing.T) {
	fn := newFunctionIr("collect_local", false)
	block := fn.Cfg.Block(fn.Cfg.EntryBlock)
	rangeVar := ir.SsaVar{Name: "iter"}
	block.Instructions = append(block.Instructions,
		ir.Instruction{Op: ir.OpRange, DestOpt: &rangeVar, Receiver: ir.VarOperand(ir.SsaVar{Name: "some_vec"}), Method: "range"},
		ir.Instruction{Op: ir.OpMethodCall, Receiver: ir.VarOperand(rangeVar), Method: "collect"},
	)
	cIr := &ir.ContractIr{Functions: []*ir.FunctionIr{fn}}
	c := &contract.ContractInfo{StateItems: []contract.StateItem{{Name: "map", StorageType: contract.StorageMap}}}
	ctx := detect.NewAnalysisContext(c, cIr, nil)

	got := UnboundedIteration{}.Detect(ctx)
	if len(got) != 0 {
		t.Fatalf("expected no findings for a non-storage receiver, got %+v", got)
	}
}

func TestUnsafeUnwrapFlagsUnwrapAndExpect(t *testing.T) {
	fn := newFunctionIr("execute", true)
	block := fn.Cfg.Block(fn.Cfg.EntryBlock)
	block.Instructions = append(block.Instructions,
		ir.Instruction{Op: ir.OpMethodCall, Method: "unwrap"},
		ir.Instruction{Op: ir.OpMethodCall, Method: "expect"},
		ir.Instruction{Op: ir.OpMethodCall, Method: "unwrap_or_default"},
	)
	cIr := &ir.ContractIr{Functions: []*ir.FunctionIr{fn}}
	ctx := detect.NewAnalysisContext(nil, cIr, nil)

	got := UnsafeUnwrap{}.Detect(ctx)
	if len(got) != 2 {
		t.Fatalf("expected 2 findings, got %d: %+v", len(got), got)
	}
}

func TestArithmeticOverflowFlagsWrappingOps(t *testing.T) {
	fn := newFunctionIr("execute", true)
	block := fn.Cfg.Block(fn.Cfg.EntryBlock)
	block.Instructions = append(block.Instructions,
		ir.Instruction{Op: ir.OpMethodCall, Method: "wrapping_sub"},
		ir.Instruction{Op: ir.OpMethodCall, Method: "checked_sub"},
	)
	cIr := &ir.ContractIr{Functions: []*ir.FunctionIr{fn}}
	ctx := detect.NewAnalysisContext(nil, cIr, nil)

	got := ArithmeticOverflow{}.Detect(ctx)
	if len(got) != 1 {
		t.Fatalf("expected 1 finding, got %d: %+v", len(got), got)
	}
}

func TestStorageKeyCollisionFlagsDuplicateKeys(t *testing.T) {
	c := &contract.ContractInfo{
		StateItems: []contract.StateItem{
			{Name: "CONFIG", StorageKey: "config"},
			{Name: "STATE", StorageKey: "config"},
			{Name: "BALANCES", StorageKey: "balances"},
		},
	}
	ctx := detect.NewAnalysisContext(c, nil, nil)

	got := StorageKeyCollision{}.Detect(ctx)
	if len(got) != 1 {
		t.Fatalf("expected 1 finding, got %d: %+v", len(got), got)
	}
}

func TestMissingAccessControlFlagsNoSenderCheck(t *testing.T) {
	c := &contract.ContractInfo{
		EntryPoints: []contract.EntryPoint{{Name: "execute", Kind: contract.EntryPointExecute}},
		Functions:   []contract.FunctionInfo{{Name: "execute", BodyText: "let balance = 5;"}},
	}
	ctx := detect.NewAnalysisContext(c, nil, nil)

	got := MissingAccessControl{}.Detect(ctx)
	if len(got) != 1 {
		t.Fatalf("expected 1 finding, got %d: %+v", len(got), got)
	}
}

func TestMissingAccessControlSkipsWithSenderCheck(t *testing.T) {
	c := &contract.ContractInfo{
		EntryPoints: []contract.EntryPoint{{Name: "execute", Kind: contract.EntryPointExecute}},
		Functions: []contract.FunctionInfo{{
			Name:     "execute",
			BodyText: `ensure_eq!(info.sender, config.admin, ContractError::Unauthorized {});`,
		}},
	}
	ctx := detect.NewAnalysisContext(c, nil, nil)

	got := MissingAccessControl{}.Detect(ctx)
	if len(got) != 0 {
		t.Fatalf("expected no findings, got %+v", got)
	}
}

func TestMissingFundsValidationFlagsMissingReference(t *testing.T) {
	c := &contract.ContractInfo{
		EntryPoints: []contract.EntryPoint{{Name: "execute", Kind: contract.EntryPointExecute}},
		Functions:   []contract.FunctionInfo{{Name: "execute", BodyText: "do_thing();"}},
	}
	ctx := detect.NewAnalysisContext(c, nil, nil)

	got := MissingFundsValidation{}.Detect(ctx)
	if len(got) != 1 {
		t.Fatalf("expected 1 finding, got %d: %+v", len(got), got)
	}
}

func TestMissingMigrationVersionFlagsMissingGuard(t *testing.T) {
	c := &contract.ContractInfo{
		EntryPoints: []contract.EntryPoint{{Name: "migrate", Kind: contract.EntryPointMigrate}},
		Functions:   []contract.FunctionInfo{{Name: "migrate", BodyText: "Ok(Response::new())"}},
	}
	ctx := detect.NewAnalysisContext(c, nil, nil)

	got := MissingMigrationVersion{}.Detect(ctx)
	if len(got) != 1 {
		t.Fatalf("expected 1 finding, got %d: %+v", len(got), got)
	}
}

func TestSubmessageReplyFlagsMissingIdCheck(t *testing.T) {
	c := &contract.ContractInfo{
		EntryPoints: []contract.EntryPoint{{Name: "reply", Kind: contract.EntryPointReply}},
		Functions:   []contract.FunctionInfo{{Name: "reply", BodyText: "Ok(Response::new())"}},
	}
	ctx := detect.NewAnalysisContext(c, nil, nil)

	got := SubmessageReplyUnvalidated{}.Detect(ctx)
	if len(got) != 1 {
		t.Fatalf("expected 1 finding, got %d: %+v", len(got), got)
	}
}

func TestUninitializedStateAccessFlagsPanickingLoad(t *testing.T) {
	c := &contract.ContractInfo{
		EntryPoints: []contract.EntryPoint{
			{Name: "instantiate", Kind: contract.EntryPointInstantiate},
			{Name: "execute", Kind: contract.EntryPointExecute},
		},
	}
	instantiateFn := newFunctionIr("instantiate", true)
	executeFn := newFunctionIr("execute", true)
	execBlock := executeFn.Cfg.Block(executeFn.Cfg.EntryBlock)
	execBlock.Instructions = append(execBlock.Instructions, ir.Instruction{
		Op: ir.OpStorageLoad, StorageItem: "CONFIG", Method: "load",
	})
	cIr := &ir.ContractIr{Functions: []*ir.FunctionIr{instantiateFn, executeFn}}
	ctx := detect.NewAnalysisContext(c, cIr, nil)

	got := UninitializedStateAccess{}.Detect(ctx)
	if len(got) != 1 {
		t.Fatalf("expected 1 finding, got %d: %+v", len(got), got)
	}
}

func TestUninitializedStateAccessSkipsInitializedItem(t *testing.T) {
	c := &contract.ContractInfo{
		EntryPoints: []contract.EntryPoint{
			{Name: "instantiate", Kind: contract.EntryPointInstantiate},
			{Name: "execute", Kind: contract.EntryPointExecute},
		},
	}
	instantiateFn := newFunctionIr("instantiate", true)
	instBlock := instantiateFn.Cfg.Block(instantiateFn.Cfg.EntryBlock)
	instBlock.Instructions = append(instBlock.Instructions, ir.Instruction{
		Op: ir.OpStorageStore, StorageItem: "CONFIG", Method: "save",
	})
	executeFn := newFunctionIr("execute", true)
	execBlock := executeFn.Cfg.Block(executeFn.Cfg.EntryBlock)
	execBlock.Instructions = append(execBlock.Instructions, ir.Instruction{
		Op: ir.OpStorageLoad, StorageItem: "CONFIG", Method: "load",
	})
	cIr := &ir.ContractIr{Functions: []*ir.FunctionIr{instantiateFn, executeFn}}
	ctx := detect.NewAnalysisContext(c, cIr, nil)

	got := UninitializedStateAccess{}.Detect(ctx)
	if len(got) != 0 {
		t.Fatalf("expected no findings, got %+v", got)
	}
}

func TestNondeterministicIterationFlagsHashMapIter(t *testing.T) {
	c := &contract.ContractInfo{
		Functions: []contract.FunctionInfo{{
			Name:     "tally",
			BodyText: "let votes: HashMap<String, u64> = load(); for (k, v) in votes.iter() { total += v; }",
		}},
	}
	ctx := detect.NewAnalysisContext(c, nil, nil)

	got := NondeterministicIteration{}.Detect(ctx)
	if len(got) != 1 {
		t.Fatalf("expected 1 finding, got %d: %+v", len(got), got)
	}
}

func TestNondeterministicIterationSkipsBTreeMap(t *testing.T) {
	c := &contract.ContractInfo{
		Functions: []contract.FunctionInfo{{
			Name:     "tally",
			BodyText: "let votes: BTreeMap<String, u64> = load(); for (k, v) in votes.iter() { total += v; }",
		}},
	}
	ctx := detect.NewAnalysisContext(c, nil, nil)

	got := NondeterministicIteration{}.Detect(ctx)
	if len(got) != 0 {
		t.Fatalf("expected no findings, got %+v", got)
	}
}

func TestMissingErrorPropagationFlagsWildcardLet(t *testing.T) {
	c := &contract.ContractInfo{
		Functions: []contract.FunctionInfo{{
			Name:     "execute",
			Span:     finding.Span{File: "lib.rs", Start: finding.Position{Line: 10}},
			BodyText: "let ok = 1;\nlet _ = deps.storage.remove(b\"key\");\n",
		}},
	}
	ctx := detect.NewAnalysisContext(c, nil, nil)

	got := MissingErrorPropagation{}.Detect(ctx)
	if len(got) != 1 {
		t.Fatalf("expected 1 finding, got %d: %+v", len(got), got)
	}
	if got[0].Span.Start.Line != 11 {
		t.Errorf("expected line 11 (10 + offset 1), got %d", got[0].Span.Start.Line)
	}
}

func TestIncorrectPermissionHierarchyFlagsWriteWithoutRead(t *testing.T) {
	c := &contract.ContractInfo{
		EntryPoints: []contract.EntryPoint{{Name: "execute", Kind: contract.EntryPointExecute}},
	}
	fn := newFunctionIr("execute", true)
	block := fn.Cfg.Block(fn.Cfg.EntryBlock)
	block.Instructions = append(block.Instructions, ir.Instruction{
		Op: ir.OpStorageStore, StorageItem: "ADMIN", Method: "save",
	})
	cIr := &ir.ContractIr{Functions: []*ir.FunctionIr{fn}}
	ctx := detect.NewAnalysisContext(c, cIr, nil)

	got := IncorrectPermissionHierarchy{}.Detect(ctx)
	if len(got) != 1 {
		t.Fatalf("expected 1 finding, got %d: %+v", len(got), got)
	}
}

func TestIncorrectPermissionHierarchySkipsWriteWithRead(t *testing.T) {
	c := &contract.ContractInfo{
		EntryPoints: []contract.EntryPoint{{Name: "execute", Kind: contract.EntryPointExecute}},
	}
	fn := newFunctionIr("execute", true)
	block := fn.Cfg.Block(fn.Cfg.EntryBlock)
	block.Instructions = append(block.Instructions,
		ir.Instruction{Op: ir.OpStorageLoad, StorageItem: "ADMIN", Method: "load"},
		ir.Instruction{Op: ir.OpStorageStore, StorageItem: "ADMIN", Method: "save"},
	)
	cIr := &ir.ContractIr{Functions: []*ir.FunctionIr{fn}}
	ctx := detect.NewAnalysisContext(c, cIr, nil)

	got := IncorrectPermissionHierarchy{}.Detect(ctx)
	if len(got) != 0 {
		t.Fatalf("expected no findings, got %+v", got)
	}
}

func TestAllReturnsThirteenDetectors(t *testing.T) {
	if got := len(All()); got != 13 {
		t.Fatalf("expected 13 detectors, got %d", got)
	}
}

func TestNewRegistryListsAllDetectors(t *testing.T) {
	r := NewRegistry()
	names := r.ListDetectors()
	if len(names) != 13 {
		t.Fatalf("expected 13 registered detectors, got %d: %v", len(names), names)
	}
}
