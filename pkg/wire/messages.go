// Package wire defines the schema-evolvable record set used for every
// multi-record payload EpochFS writes through a ChunkStore: the ordered
// chunk list for one file, a batch of files packed into a files-blob,
// and the checkpoint record that ties a set of files-blobs together.
//
// Records are encoded with canonical CBOR so that two encoders never
// disagree on the bytes for the same value, matching the deterministic
// framing style used elsewhere in the dependency stack.
package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/epochfs/epochfs/pkg/epochfserr"
)

// canonicalMode encodes with deterministic map key order and no
// floating-point surprises, so re-encoding a decoded record reproduces
// the original bytes.
var canonicalMode cbor.EncMode

func init() {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: failed to build canonical CBOR mode: %v", err))
	}
	canonicalMode = mode
}

// FileChunks is the ordered list of chunk ids that reconstruct one
// file's content.
type FileChunks struct {
	Ids []string `cbor:"1,keyasint"`
}

// File is one namespace entry: a path and the chunk list behind it.
type File struct {
	Path   string     `cbor:"1,keyasint"`
	Chunks FileChunks `cbor:"2,keyasint"`
}

// Files is a batch of File entries packed into a single files-blob
// chunk. A Checkpoint references an ordered list of these blobs.
type Files struct {
	Files []File `cbor:"1,keyasint"`
}

// Checkpoint is the ordered list of files-blob chunk ids that
// reconstruct a namespace snapshot.
type Checkpoint struct {
	Chunks FileChunks `cbor:"1,keyasint"`
}

// Marshal encodes v using the canonical CBOR mode.
func Marshal(v any) ([]byte, error) {
	return canonicalMode.Marshal(v)
}

// Unmarshal decodes CBOR bytes into v, wrapping malformed payloads as
// epochfserr.ErrDecodeError.
func Unmarshal(data []byte, v any) error {
	if err := cbor.Unmarshal(data, v); err != nil {
		return epochfserr.New("wire.unmarshal", fmt.Sprintf("%T", v), "", fmt.Errorf("%w: %v", epochfserr.ErrDecodeError, err))
	}
	return nil
}

// EncodeFileChunks encodes a FileChunks record.
func EncodeFileChunks(fc FileChunks) ([]byte, error) {
	return Marshal(fc)
}

// DecodeFileChunks decodes a FileChunks record.
func DecodeFileChunks(data []byte) (FileChunks, error) {
	var fc FileChunks
	err := Unmarshal(data, &fc)
	return fc, err
}

// EncodeFiles encodes a Files batch record.
func EncodeFiles(f Files) ([]byte, error) {
	return Marshal(f)
}

// DecodeFiles decodes a Files batch record.
func DecodeFiles(data []byte) (Files, error) {
	var f Files
	err := Unmarshal(data, &f)
	return f, err
}

// EncodeCheckpoint encodes a Checkpoint record.
func EncodeCheckpoint(c Checkpoint) ([]byte, error) {
	return Marshal(c)
}

// DecodeCheckpoint decodes a Checkpoint record.
func DecodeCheckpoint(data []byte) (Checkpoint, error) {
	var c Checkpoint
	err := Unmarshal(data, &c)
	return c, err
}

// EncodedSize returns the canonical CBOR encoded size of v, used by the
// checkpoint engine to enforce the files-blob size boundary.
func EncodedSize(v any) (int, error) {
	b, err := Marshal(v)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}
