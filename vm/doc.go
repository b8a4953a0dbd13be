// Package vm implements the bfcloud Brainfuck virtual machine.
//
// This package contains:
//   - A fixed-size byte tape with a circular cursor
//   - The filtered instruction stream and its pointer
//   - A static table of tagged operations
//   - The bounded loop-control stack used for bracket matching
//   - FIFO input and output buffers
//   - The fetch-dispatch-advance driver
//   - Snapshot and restore of the full resumable state
package vm
