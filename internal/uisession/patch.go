package uisession

// PatchOp is one declarative UI mutation. The client applies the ops of a
// patch in order.
type PatchOp struct {
	Op    string `json:"op"`
	ID    string `json:"id"`
	Prop  string `json:"prop"`
	Value any    `json:"value"`
}

type Patch struct {
	Type string    `json:"type"`
	Ops  []PatchOp `json:"ops"`
}

const (
	patchType = "patch"
	opSet     = "set"
)

func setOp(id, prop string, value any) PatchOp {
	return PatchOp{Op: opSet, ID: id, Prop: prop, Value: value}
}

func newPatch(ops ...PatchOp) Patch {
	return Patch{Type: patchType, Ops: ops}
}

// solvedPatch shows the signature and disables the action control so the
// same payload cannot be submitted twice.
func solvedPatch(signature string) Patch {
	return newPatch(
		setOp(StatusLabelID, "text", "signature: "+signature),
		setOp(ActionControlID, "enabled", false),
	)
}

func solveFailedPatch() Patch {
	return newPatch(setOp(StatusLabelID, "text", "error"))
}
