// Package wire encodes VM snapshots as canonical CBOR.
package wire

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/bfcloud/vm"
)

// Magic identifies an encoded bfcloud snapshot.
var Magic = [4]byte{'B', 'F', 'V', 'M'}

// Version of the snapshot envelope.
// v1: initial format, loop stack included
const Version uint32 = 1

var (
	ErrInvalidMagic    = errors.New("invalid magic number: expected BFVM")
	ErrVersionMismatch = errors.New("snapshot version mismatch")
)

// envelope wraps a State with format identification.
type envelope struct {
	Magic   [4]byte   `cbor:"1,keyasint"`
	Version uint32    `cbor:"2,keyasint"`
	State   *vm.State `cbor:"3,keyasint"`
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Marshal serializes a State to CBOR bytes.
func Marshal(s *vm.State) ([]byte, error) {
	return cborEncMode.Marshal(&envelope{Magic: Magic, Version: Version, State: s})
}

// Unmarshal deserializes a State from CBOR bytes. The state is not
// validated; vm.Restore does that.
func Unmarshal(data []byte) (*vm.State, error) {
	var env envelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("wire: unmarshal snapshot: %w", err)
	}
	if env.Magic != Magic {
		return nil, ErrInvalidMagic
	}
	if env.Version != Version {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, env.Version, Version)
	}
	if env.State == nil {
		return nil, fmt.Errorf("wire: snapshot has no state")
	}
	return env.State, nil
}

// EncodeVM snapshots m and serializes the result.
func EncodeVM(m *vm.VM) ([]byte, error) {
	return Marshal(m.Snapshot())
}

// DecodeVM deserializes and restores a VM.
func DecodeVM(data []byte) (*vm.VM, error) {
	s, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}
	m, err := vm.Restore(s)
	if err != nil {
		return nil, fmt.Errorf("wire: restore: %w", err)
	}
	return m, nil
}
