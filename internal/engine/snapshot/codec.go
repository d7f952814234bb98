package snapshot

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
)

// Wire format: a fixed little-endian header (magic, version, payload size),
// a JSON-encoded Snapshot payload, and a CRC-32 footer over the payload.
const (
	MagicBytes    uint32 = 0x44534E50 // "DSNP"
	FormatVersion uint32 = 1
	headerSize           = 16
	footerSize           = 4
)

// DecodeError reports malformed, truncated, or version-mismatched snapshot
// bytes. The caller decides whether to rebuild from source documents
// (recommended) or abort.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decoding snapshot: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decoding snapshot: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Encode serialises the snapshot into a self-describing byte envelope.
func Encode(snap *Snapshot) ([]byte, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot payload: %w", err)
	}
	buf := make([]byte, headerSize+len(payload)+footerSize)
	binary.LittleEndian.PutUint32(buf[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(buf[4:8], FormatVersion)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(len(payload)))
	copy(buf[headerSize:], payload)
	checksum := crc32.ChecksumIEEE(payload)
	binary.LittleEndian.PutUint32(buf[headerSize+len(payload):], checksum)
	return buf, nil
}

// Decode parses bytes produced by Encode, verifying magic, version, declared
// payload size, and checksum before unmarshalling. Any mismatch fails with a
// *DecodeError.
func Decode(data []byte) (*Snapshot, error) {
	if len(data) < headerSize+footerSize {
		return nil, &DecodeError{Reason: fmt.Sprintf("truncated envelope (%d bytes)", len(data))}
	}
	if magic := binary.LittleEndian.Uint32(data[0:4]); magic != MagicBytes {
		return nil, &DecodeError{Reason: fmt.Sprintf("bad magic bytes %#x", magic)}
	}
	if version := binary.LittleEndian.Uint32(data[4:8]); version != FormatVersion {
		return nil, &DecodeError{Reason: fmt.Sprintf("unsupported format version %d", version)}
	}
	payloadLen := binary.LittleEndian.Uint64(data[8:16])
	if payloadLen != uint64(len(data)-headerSize-footerSize) {
		return nil, &DecodeError{Reason: fmt.Sprintf("payload size mismatch: header says %d, have %d",
			payloadLen, len(data)-headerSize-footerSize)}
	}
	payload := data[headerSize : headerSize+int(payloadLen)]
	want := binary.LittleEndian.Uint32(data[headerSize+int(payloadLen):])
	if got := crc32.ChecksumIEEE(payload); got != want {
		return nil, &DecodeError{Reason: fmt.Sprintf("checksum mismatch: computed %#x, stored %#x", got, want)}
	}
	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, &DecodeError{Reason: "unmarshalling payload", Err: err}
	}
	return &snap, nil
}
