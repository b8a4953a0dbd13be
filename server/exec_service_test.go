package server

import (
	"testing"

	"connectrpc.com/connect"

	"github.com/chazu/bfcloud/store"
)

const bubbleSortSource = `
>>,[>>,]<<[
[<<]>>>>[
<<[>+<<+>-]
>>[>+<<<<[->]>[<]>>-]
<<<[[-]>>[>+<-]>>[<<<+>>>-]]
>>[[<+>-]>>]<
]<<[>>+<<-]<<
]>>>>[.>>]
`

func newInstance(t *testing.T, env *testEnv) int64 {
	t.Helper()
	resp, err := env.allocService().New(bg(), connectReq(&NewRequest{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return resp.Msg.ID
}

func TestExecService_UploadInputRun(t *testing.T) {
	env := newTestEnv(t)
	svc := env.execService(0)
	id := newInstance(t, env)

	up, err := svc.Upload(bg(), connectReq(&UploadRequest{ID: id, Source: "sort me:" + bubbleSortSource}))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if up.Msg.BVM.Code == "" || up.Msg.BVM.CodePtr != 0 {
		t.Errorf("Upload returned code=%q ptr=%d", up.Msg.BVM.Code, up.Msg.BVM.CodePtr)
	}

	in, err := svc.Input(bg(), connectReq(&InputRequest{ID: id, Text: "3985"}))
	if err != nil {
		t.Fatalf("Input: %v", err)
	}
	if in.Msg.BVM.Stdin != "3985" {
		t.Errorf("Stdin = %q, want %q", in.Msg.BVM.Stdin, "3985")
	}

	run, err := svc.Run(bg(), connectReq(&RunRequest{ID: id}))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !run.Msg.Halted {
		t.Error("Run should halt")
	}
	if run.Msg.Output != "3589" {
		t.Errorf("Output = %q, want %q", run.Msg.Output, "3589")
	}
	if run.Msg.Instance.State != string(store.StateAvailable) {
		t.Errorf("State after run = %q, want Available", run.Msg.Instance.State)
	}

	inst, _, err := env.Alloc.Load(bg(), id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if inst.State != store.StateAvailable {
		t.Errorf("persisted state = %q, want Available", inst.State)
	}
}

func TestExecService_RunBudgetPersistsProgress(t *testing.T) {
	env := newTestEnv(t)
	svc := env.execService(3)
	id := newInstance(t, env)

	if _, err := svc.Upload(bg(), connectReq(&UploadRequest{ID: id, Source: "+.+.+."})); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	first, err := svc.Run(bg(), connectReq(&RunRequest{ID: id}))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if first.Msg.Halted || first.Msg.Steps != 3 {
		t.Fatalf("first run = halted %v, %d steps", first.Msg.Halted, first.Msg.Steps)
	}
	if first.Msg.Output != "\x01" {
		t.Errorf("first output = %q", first.Msg.Output)
	}

	second, err := svc.Run(bg(), connectReq(&RunRequest{ID: id}))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !second.Msg.Halted {
		t.Error("second run should halt")
	}
	if second.Msg.Output != "\x02\x03" {
		t.Errorf("second output = %q, want only new output", second.Msg.Output)
	}
	if second.Msg.Instance.BVM.Executed != 6 {
		t.Errorf("Executed = %d, want 6", second.Msg.Instance.BVM.Executed)
	}
}

func TestExecService_Errors(t *testing.T) {
	env := newTestEnv(t)
	svc := env.execService(0)
	id := newInstance(t, env)

	_, err := svc.Run(bg(), connectReq(&RunRequest{ID: id}))
	if codeOfErr(err) != connect.CodeFailedPrecondition {
		t.Errorf("Run without program code = %v, want FailedPrecondition", codeOfErr(err))
	}

	if _, err := svc.Upload(bg(), connectReq(&UploadRequest{ID: id, Source: "+]"})); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	_, err = svc.Run(bg(), connectReq(&RunRequest{ID: id}))
	if codeOfErr(err) != connect.CodeInvalidArgument {
		t.Errorf("unbalanced Run code = %v, want InvalidArgument", codeOfErr(err))
	}
	inst, m, err := env.Alloc.Load(bg(), id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if inst.State != store.StateAvailable {
		t.Errorf("state after failed run = %q, want Available", inst.State)
	}
	if m.Executed() != 1 {
		t.Errorf("failed run progress not saved: executed = %d", m.Executed())
	}

	_, err = svc.Upload(bg(), connectReq(&UploadRequest{ID: 404, Source: "+"}))
	if codeOfErr(err) != connect.CodeNotFound {
		t.Errorf("Upload(404) code = %v, want NotFound", codeOfErr(err))
	}

	if err := env.Alloc.Delete(bg(), id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err = svc.Input(bg(), connectReq(&InputRequest{ID: id, Text: "x"}))
	if codeOfErr(err) != connect.CodeFailedPrecondition {
		t.Errorf("Input on deleted instance code = %v, want FailedPrecondition", codeOfErr(err))
	}
}
