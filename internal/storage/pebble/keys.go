package pebblestore

import "encoding/binary"

// Keyspace (byte-wise sortable):
//
//	rs/{name}/m            last assigned record ID, be8; marks the store as existing
//	rs/{name}/r/{id_be8}   record payload
//
// Store names never contain '/', so one store's range never overlaps another's.

var (
	storesPrefix = []byte("rs/")
	metaSuffix   = []byte("/m")
	recordSeg    = []byte("/r/")
)

func keyStorePrefix(name string) []byte {
	k := make([]byte, 0, len(storesPrefix)+len(name)+1)
	k = append(k, storesPrefix...)
	k = append(k, name...)
	return append(k, '/')
}

func keyMeta(name string) []byte {
	k := make([]byte, 0, len(storesPrefix)+len(name)+len(metaSuffix))
	k = append(k, storesPrefix...)
	k = append(k, name...)
	return append(k, metaSuffix...)
}

func keyRecordPrefix(name string) []byte {
	k := make([]byte, 0, len(storesPrefix)+len(name)+len(recordSeg)+8)
	k = append(k, storesPrefix...)
	k = append(k, name...)
	return append(k, recordSeg...)
}

func keyRecord(name string, id uint64) []byte {
	k := keyRecordPrefix(name)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], id)
	return append(k, b[:]...)
}

// prefixEnd returns the smallest key greater than every key with prefix p.
func prefixEnd(p []byte) []byte {
	end := append([]byte(nil), p...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func encodeID(id uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], id)
	return b[:]
}

func decodeID(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}
