package server

import (
	"context"

	"connectrpc.com/connect"
	"github.com/tliron/commonlog"

	"github.com/chazu/bfcloud/vm"
)

// AllocService implements the allocation procedures.
type AllocService struct {
	alloc             *Allocator
	pool              *WorkerPool
	defaultMemorySize int
	log               commonlog.Logger
}

// NewAllocService creates an AllocService.
func NewAllocService(alloc *Allocator, pool *WorkerPool, defaultMemorySize int) *AllocService {
	return &AllocService{
		alloc:             alloc,
		pool:              pool,
		defaultMemorySize: defaultMemorySize,
		log:               commonlog.GetLogger("bfcloud.server.alloc"),
	}
}

// New creates a VM instance. A fresh instance is unreachable until this
// returns, so it does not go through the worker pool.
func (s *AllocService) New(
	ctx context.Context,
	req *connect.Request[NewRequest],
) (*connect.Response[Instance], error) {
	size := req.Msg.MemorySize
	if size == 0 {
		size = s.defaultMemorySize
	}

	inst, m, err := s.alloc.New(ctx, size)
	if err != nil {
		s.log.Warningf("new instance (memory_size=%d): %v", size, err)
		return nil, connectError(err)
	}
	s.log.Infof("allocated instance %d (memory_size=%d)", inst.ID, size)
	return connect.NewResponse(instanceMessage(inst, m)), nil
}

// Get returns an instance and its VM state.
func (s *AllocService) Get(
	ctx context.Context,
	req *connect.Request[GetRequest],
) (*connect.Response[Instance], error) {
	id := req.Msg.ID
	result, err := s.pool.Do(ctx, id, func() (any, error) {
		inst, m, err := s.alloc.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		return instanceMessage(inst, m), nil
	})
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(result.(*Instance)), nil
}

// Delete discards an instance's VM. The record is kept in the
// "Not exists" state.
func (s *AllocService) Delete(
	ctx context.Context,
	req *connect.Request[DeleteRequest],
) (*connect.Response[DeleteResponse], error) {
	id := req.Msg.ID
	_, err := s.pool.Do(ctx, id, func() (any, error) {
		return nil, s.alloc.Delete(ctx, id)
	})
	if err != nil {
		return nil, connectError(err)
	}
	s.log.Infof("deleted instance %d", id)
	return connect.NewResponse(&DeleteResponse{}), nil
}

// List returns every instance record without VM state.
func (s *AllocService) List(
	ctx context.Context,
	req *connect.Request[ListRequest],
) (*connect.Response[ListResponse], error) {
	records, err := s.alloc.List(ctx)
	if err != nil {
		return nil, connectError(err)
	}
	out := &ListResponse{Instances: make([]*Instance, 0, len(records))}
	for _, inst := range records {
		out.Instances = append(out.Instances, instanceMessage(inst, nil))
	}
	return connect.NewResponse(out), nil
}

// mutate loads a live instance on its worker, applies fn and saves the
// result.
func mutate(ctx context.Context, pool *WorkerPool, alloc *Allocator, id int64, fn func(*vm.VM)) (*Instance, error) {
	result, err := pool.Do(ctx, id, func() (any, error) {
		inst, m, err := alloc.LoadLive(ctx, id)
		if err != nil {
			return nil, err
		}
		fn(m)
		if err := alloc.Save(inst, m); err != nil {
			return nil, err
		}
		return instanceMessage(inst, m), nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Instance), nil
}
