package snapshot

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"reflect"
	"testing"
	"time"

	"github.com/docsift/docsift/internal/engine/index"
)

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		Texts: map[string]string{
			"a.pdf": "cat dog\ndog",
			"b.pdf": "cat cat cat",
		},
		Inverted: index.Inverted{
			"cat": {"a.pdf": []int{1}, "b.pdf": []int{1}},
			"dog": {"a.pdf": []int{1, 2}},
		},
		TF: map[string]map[string]float64{
			"a.pdf": {"cat": 1.0 / 3, "dog": 2.0 / 3},
			"b.pdf": {"cat": 1},
		},
		IDF: map[string]float64{"cat": 1, "dog": 1.4054651081081644},
		Weights: map[string]map[string]float64{
			"a.pdf": {"cat": 1.0 / 3, "dog": 0.937},
			"b.pdf": {"cat": 1},
		},
		BuiltAt: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	snap := sampleSnapshot()
	data, err := Encode(snap)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, snap) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, snap)
	}
}

func TestDecodeRejectsCorruptEnvelopes(t *testing.T) {
	valid, err := Encode(sampleSnapshot())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	corrupt := func(mutate func([]byte)) []byte {
		data := make([]byte, len(valid))
		copy(data, valid)
		mutate(data)
		return data
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"truncated header", valid[:10]},
		{"truncated payload", valid[:len(valid)-8]},
		{"bad magic", corrupt(func(d []byte) {
			binary.LittleEndian.PutUint32(d[0:4], 0xDEADBEEF)
		})},
		{"future version", corrupt(func(d []byte) {
			binary.LittleEndian.PutUint32(d[4:8], FormatVersion+1)
		})},
		{"payload size mismatch", corrupt(func(d []byte) {
			binary.LittleEndian.PutUint64(d[8:16], 5)
		})},
		{"flipped payload byte", corrupt(func(d []byte) {
			d[headerSize] ^= 0xFF
		})},
		{"flipped checksum byte", corrupt(func(d []byte) {
			d[len(d)-1] ^= 0xFF
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			var decErr *DecodeError
			if !errors.As(err, &decErr) {
				t.Fatalf("Decode error = %v, want *DecodeError", err)
			}
			if decErr.Reason == "" {
				t.Error("DecodeError has empty reason")
			}
		})
	}
}

func TestDecodeRejectsInvalidJSONPayload(t *testing.T) {
	payload := []byte("{not json")
	data := make([]byte, headerSize+len(payload)+footerSize)
	binary.LittleEndian.PutUint32(data[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(data[4:8], FormatVersion)
	binary.LittleEndian.PutUint64(data[8:16], uint64(len(payload)))
	copy(data[headerSize:], payload)
	binary.LittleEndian.PutUint32(data[headerSize+len(payload):], crc32.ChecksumIEEE(payload))

	_, err := Decode(data)
	var decErr *DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("Decode error = %v, want *DecodeError", err)
	}
	if decErr.Unwrap() == nil {
		t.Error("expected wrapped unmarshal error")
	}
}

func TestSnapshotCounts(t *testing.T) {
	snap := sampleSnapshot()
	if got := snap.DocCount(); got != 2 {
		t.Errorf("DocCount = %d, want 2", got)
	}
	if got := snap.TermCount(); got != 2 {
		t.Errorf("TermCount = %d, want 2", got)
	}
}
