package server

import (
	"time"

	"github.com/chazu/bfcloud/store"
	"github.com/chazu/bfcloud/vm"
)

// Procedure paths served by the API.
const (
	AllocServiceName = "bfcloud.v1.AllocService"
	ExecServiceName  = "bfcloud.v1.ExecService"

	AllocNewProcedure    = "/" + AllocServiceName + "/New"
	AllocGetProcedure    = "/" + AllocServiceName + "/Get"
	AllocDeleteProcedure = "/" + AllocServiceName + "/Delete"
	AllocListProcedure   = "/" + AllocServiceName + "/List"

	ExecUploadProcedure = "/" + ExecServiceName + "/Upload"
	ExecInputProcedure  = "/" + ExecServiceName + "/Input"
	ExecRunProcedure    = "/" + ExecServiceName + "/Run"
)

// BVM mirrors vm.State for API responses.
type BVM struct {
	MemorySize int    `json:"memory_size"`
	Memory     []int  `json:"memory"`
	MemoryPtr  int    `json:"memory_ptr"`
	Code       string `json:"code"`
	CodePtr    int    `json:"code_ptr"`
	Executed   uint64 `json:"executed"`
	Stdin      string `json:"stdin"`
	Stdout     string `json:"stdout"`
	LoopStack  []int  `json:"loop_stack"`
}

// Instance is an instance record plus, when it exists, its VM.
type Instance struct {
	ID        int64     `json:"id"`
	State     string    `json:"state"`
	StoredAt  string    `json:"stored_at,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	BVM       *BVM      `json:"bvm,omitempty"`
}

type NewRequest struct {
	// MemorySize of 0 selects the configured default.
	MemorySize int `json:"memory_size"`
}

type GetRequest struct {
	ID int64 `json:"id"`
}

type DeleteRequest struct {
	ID int64 `json:"id"`
}

type DeleteResponse struct{}

type ListRequest struct{}

type ListResponse struct {
	Instances []*Instance `json:"instances"`
}

type UploadRequest struct {
	ID     int64  `json:"id"`
	Source string `json:"source"`
}

type InputRequest struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

type RunRequest struct {
	ID int64 `json:"id"`
}

type RunResponse struct {
	Instance *Instance `json:"instance"`
	// Halted is false when the run stopped on its step or time budget.
	Halted bool `json:"halted"`
	// Output holds only what this run wrote.
	Output string `json:"output"`
	Steps  uint64 `json:"steps"`
}

func bvmMessage(m *vm.VM) *BVM {
	s := m.Snapshot()
	memory := make([]int, len(s.Memory))
	for i, c := range s.Memory {
		memory[i] = int(c)
	}
	return &BVM{
		MemorySize: s.MemorySize,
		Memory:     memory,
		MemoryPtr:  s.MemoryPtr,
		Code:       s.Code,
		CodePtr:    s.CodePtr,
		Executed:   s.Executed,
		Stdin:      vm.Text(s.Stdin),
		Stdout:     vm.Text(s.Stdout),
		LoopStack:  s.LoopStack,
	}
}

func instanceMessage(inst *store.Instance, m *vm.VM) *Instance {
	msg := &Instance{
		ID:        inst.ID,
		State:     string(inst.State),
		StoredAt:  inst.StoredAt,
		CreatedAt: inst.CreatedAt,
		UpdatedAt: inst.UpdatedAt,
	}
	if m != nil {
		msg.BVM = bvmMessage(m)
	}
	return msg
}
