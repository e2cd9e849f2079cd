package ringlog

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

const timestampLen = 8

// EncodeRecord frames a log entry as ts(8B BE) | uvarint len | text.
func EncodeRecord(ts int64, text string) []byte {
	out := make([]byte, timestampLen, timestampLen+binary.MaxVarintLen64+len(text))
	binary.BigEndian.PutUint64(out, uint64(ts))
	out = binary.AppendUvarint(out, uint64(len(text)))
	return append(out, text...)
}

// DecodeRecord reverses EncodeRecord.
func DecodeRecord(b []byte) (int64, string, error) {
	if len(b) < timestampLen {
		return 0, "", fmt.Errorf("%w: %d bytes, need at least %d", ErrCorruptRecord, len(b), timestampLen)
	}
	ts := int64(binary.BigEndian.Uint64(b[:timestampLen]))
	rest := b[timestampLen:]
	n, w := binary.Uvarint(rest)
	if w <= 0 {
		return 0, "", fmt.Errorf("%w: bad length prefix", ErrCorruptRecord)
	}
	rest = rest[w:]
	if n > uint64(len(rest)) {
		return 0, "", fmt.Errorf("%w: text length %d exceeds %d remaining bytes", ErrCorruptRecord, n, len(rest))
	}
	if n != uint64(len(rest)) {
		return 0, "", fmt.Errorf("%w: %d trailing bytes", ErrCorruptRecord, uint64(len(rest))-n)
	}
	if !utf8.Valid(rest) {
		return 0, "", fmt.Errorf("%w: text is not valid UTF-8", ErrCorruptRecord)
	}
	return ts, string(rest), nil
}
