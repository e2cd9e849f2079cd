package ringlog

import (
	"fmt"

	"github.com/yuuhhe/microlog/internal/recordstore"
	"github.com/yuuhhe/microlog/pkg/log"
)

// reconstruct rebuilds the ring for st by walking its records newest
// first. The newest capacity records fill slots[C-1] down to slots[0];
// every older record is deleted. Failed deletes are reported and skipped.
// It returns the ring and the number of records deleted.
func reconstruct(st recordstore.Store, capacity int, logger log.Logger) (*ring, int, error) {
	en, err := st.EnumerateRecords(Descending.enumerateOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("enumerate %s: %w", st.Name(), err)
	}
	defer en.Close()

	r := newRing(capacity)
	slot := capacity - 1
	deleted := 0
	for ok := en.First(); ok; ok = en.Next() {
		if slot >= 0 {
			r.slots[slot] = en.ID()
			slot--
			continue
		}
		if err := st.DeleteRecord(en.ID()); err != nil {
			logger.Warn("reconstruct: delete surplus record failed",
				log.Store(st.Name()), log.Uint64("id", uint64(en.ID())), log.Err(err))
			continue
		}
		deleted++
	}
	// the oldest retained record sits in the lowest occupied slot; with a
	// partial window slots below it are empty and get filled first
	r.oldest = 0
	return r, deleted, nil
}
