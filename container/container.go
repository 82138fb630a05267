package container

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/tliron/commonlog"

	"github.com/chazu/dexpatch/dalvik"
)

// Magic starts every snapshot file.
var Magic = [4]byte{'D', 'X', 'P', 'S'}

// Version is the snapshot format version written by this package.
const Version byte = 1

var (
	ErrInvalidMagic = errors.New("invalid magic number: expected DXPS")
	ErrVersion      = errors.New("unsupported snapshot version")
	ErrCorrupt      = errors.New("corrupt snapshot")
)

var log = commonlog.GetLogger("dexpatch.container")

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("container: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Marshal encodes a class set as a snapshot.
func Marshal(cs *dalvik.ClassSet) ([]byte, error) {
	body, err := cborEncMode.Marshal(encodeClassSet(cs))
	if err != nil {
		return nil, fmt.Errorf("container: marshal: %w", err)
	}
	var buf bytes.Buffer
	buf.Grow(len(Magic) + 1 + len(body))
	buf.Write(Magic[:])
	buf.WriteByte(Version)
	buf.Write(body)
	return buf.Bytes(), nil
}

// Unmarshal decodes a snapshot.
func Unmarshal(data []byte) (*dalvik.ClassSet, error) {
	if len(data) < len(Magic)+1 {
		return nil, fmt.Errorf("container: %w: %d bytes", ErrCorrupt, len(data))
	}
	if !bytes.Equal(data[:len(Magic)], Magic[:]) {
		return nil, fmt.Errorf("container: %w: got %q", ErrInvalidMagic, data[:len(Magic)])
	}
	if v := data[len(Magic)]; v != Version {
		return nil, fmt.Errorf("container: %w: %d", ErrVersion, v)
	}
	var f fileRecord
	if err := cbor.Unmarshal(data[len(Magic)+1:], &f); err != nil {
		return nil, fmt.Errorf("container: %w: %v", ErrCorrupt, err)
	}
	cs, err := decodeClassSet(&f)
	if err != nil {
		return nil, fmt.Errorf("container: %w", err)
	}
	return cs, nil
}

// ReadFile loads a snapshot from path.
func ReadFile(path string) (*dalvik.ClassSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("container: %w", err)
	}
	cs, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Debugf("read %d classes from %s", cs.Len(), path)
	return cs, nil
}

// WriteFile stores a snapshot at path.
func WriteFile(path string, cs *dalvik.ClassSet) error {
	data, err := Marshal(cs)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("container: %w", err)
	}
	log.Debugf("wrote %d classes (%d bytes) to %s", cs.Len(), len(data), path)
	return nil
}

// HashMethod computes the SHA-256 content hash of a method: its signature,
// access flags and body. Label names do not contribute, label positions do.
// The defining class is not part of the hash.
func HashMethod(m *dalvik.Method) [32]byte {
	data, err := cborEncMode.Marshal(encodeMethod(m, false))
	if err != nil {
		// Records hold only strings, integers and slices of them.
		panic(fmt.Sprintf("container: hash %s: %v", m.Ref.Descriptor(), err))
	}
	return sha256.Sum256(data)
}
