package recordstore

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrStoreNotFound   = errors.New("record store not found")
	ErrStoreFull       = errors.New("record store full")
	ErrNotOpen         = errors.New("record store not open")
	ErrInvalidRecordID = errors.New("invalid record id")
	ErrInvalidName     = errors.New("invalid record store name")
	ErrStoreInUse      = errors.New("record store in use")
)

// MaxNameLength bounds store names, matching the platform stores the
// format comes from.
const MaxNameLength = 32

// ID is a store-assigned record identifier. Zero is never assigned.
type ID uint64

func (id ID) String() string { return strconv.FormatUint(uint64(id), 10) }

// Filter reports whether a record should be part of an enumeration.
type Filter func(record []byte) bool

// Comparator orders two records: negative when a precedes b, positive when
// a follows b, zero when equivalent.
type Comparator func(a, b []byte) int

// EnumerateOptions configure EnumerateRecords.
type EnumerateOptions struct {
	// Filter drops records for which it returns false. Nil keeps all.
	Filter Filter
	// Comparator sorts the enumeration. Nil keeps the backend scan order.
	Comparator Comparator
	// Reverse walks the sorted enumeration back to front, so records the
	// comparator treats as equal come out in reverse scan order too.
	Reverse bool
	// KeepUpdated makes every First() re-read the store so that a restarted
	// enumeration reflects records added or deleted since it was built.
	KeepUpdated bool
}

// Store is an opened record store handle.
type Store interface {
	Name() string
	AddRecord(data []byte) (ID, error)
	DeleteRecord(id ID) error
	GetRecord(id ID) ([]byte, error)
	EnumerateRecords(opts EnumerateOptions) (*Enumeration, error)
	NumRecords() (int, error)
	// Size reports the total number of payload bytes held by the store.
	Size() (int64, error)
	Close() error
}

// Opener opens named stores.
type Opener interface {
	Open(name string, createIfMissing bool) (Store, error)
}

// Lister is implemented by openers that can list existing store names.
type Lister interface {
	ListStores() ([]string, error)
}

// Remover is implemented by openers that can delete a whole store.
type Remover interface {
	DeleteStore(name string) error
}

// Scanner is the backend primitive behind enumerations: it calls fn for
// every record in backend order until fn returns false.
type Scanner interface {
	Scan(fn func(id ID, data []byte) bool) error
}

// ValidateName checks a store name for use with any backend.
func ValidateName(name string) error {
	if name == "" || len(name) > MaxNameLength {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	for i := 0; i < len(name); i++ {
		if name[i] == '/' || name[i] == 0 {
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return nil
}
