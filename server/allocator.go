package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/chazu/bfcloud/store"
	"github.com/chazu/bfcloud/vm"
)

// ErrInstanceDeleted is returned when operating on an instance whose VM no
// longer exists.
var ErrInstanceDeleted = errors.New("instance has no VM")

// Allocator creates, loads, saves and deletes persisted VM instances.
// It does no locking of its own; callers serialize per instance through a
// WorkerPool.
type Allocator struct {
	records *store.Records
	files   *store.Files
}

// NewAllocator creates an Allocator over the given stores.
func NewAllocator(records *store.Records, files *store.Files) *Allocator {
	return &Allocator{records: records, files: files}
}

// New allocates a VM with memorySize cells, stores its snapshot and
// records it as available.
func (a *Allocator) New(ctx context.Context, memorySize int) (*store.Instance, *vm.VM, error) {
	m, err := vm.New(memorySize)
	if err != nil {
		return nil, nil, err
	}

	path, err := a.files.Allocate()
	if err != nil {
		return nil, nil, err
	}
	if err := a.files.Save(path, m); err != nil {
		a.files.Remove(path)
		return nil, nil, err
	}

	inst, err := a.records.Create(ctx, store.StateAvailable, path)
	if err != nil {
		a.files.Remove(path)
		return nil, nil, err
	}
	return inst, m, nil
}

// Load returns the record for id and its VM. The VM is nil when the
// instance is in StateNotExists.
func (a *Allocator) Load(ctx context.Context, id int64) (*store.Instance, *vm.VM, error) {
	inst, err := a.records.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if inst.State == store.StateNotExists {
		return inst, nil, nil
	}
	m, err := a.files.Load(inst.StoredAt)
	if err != nil {
		return nil, nil, fmt.Errorf("instance %d: %w", id, err)
	}
	return inst, m, nil
}

// LoadLive is Load but fails with ErrInstanceDeleted when there is no VM.
func (a *Allocator) LoadLive(ctx context.Context, id int64) (*store.Instance, *vm.VM, error) {
	inst, m, err := a.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if m == nil {
		return nil, nil, fmt.Errorf("%w: id=%d", ErrInstanceDeleted, id)
	}
	return inst, m, nil
}

// Save writes m back to the instance's snapshot file.
func (a *Allocator) Save(inst *store.Instance, m *vm.VM) error {
	if inst.State == store.StateNotExists {
		return fmt.Errorf("%w: id=%d", ErrInstanceDeleted, inst.ID)
	}
	return a.files.Save(inst.StoredAt, m)
}

// SetState updates the instance record.
func (a *Allocator) SetState(ctx context.Context, inst *store.Instance, state store.State) error {
	if err := a.records.SetState(ctx, inst.ID, state); err != nil {
		return err
	}
	inst.State = state
	return nil
}

// Delete removes the snapshot and marks the record as not existing.
// Deleting an already deleted instance is a no-op.
func (a *Allocator) Delete(ctx context.Context, id int64) error {
	inst, err := a.records.Get(ctx, id)
	if err != nil {
		return err
	}
	if inst.State == store.StateNotExists {
		return nil
	}
	if err := a.files.Remove(inst.StoredAt); err != nil {
		return err
	}
	return a.records.MarkDeleted(ctx, id)
}

// List returns all instance records.
func (a *Allocator) List(ctx context.Context) ([]*store.Instance, error) {
	return a.records.List(ctx)
}
