package allocation

import (
	"context"
	"errors"
	"fmt"
)

// Rollback reverses every deduction attributed to the lot: each link's drawn
// quantity is subtracted back from its batch's used quantity (including any
// negative excess) and the link is deleted. Returns the number of links
// restored; a second call finds no links and restores zero.
func (e *Engine) Rollback(ctx context.Context, lotID uint) (int, error) {
	restored := 0
	err := e.store.Transact(ctx, func(st Store) error {
		links, err := st.Lots().LinksByLot(ctx, lotID)
		if err != nil {
			return err
		}
		for _, l := range links {
			if err := st.Batches().AddUsed(ctx, l.BatchID, -l.Qty); err != nil {
				if errors.Is(err, ErrNotFound) {
					// A link pointing at a missing batch means the ledger
					// itself is corrupt, not that the caller raced us.
					return fmt.Errorf("%w: link %d references missing batch %d", ErrInvariant, l.LinkID, l.BatchID)
				}
				return err
			}
			if err := st.Lots().DeleteLink(ctx, l.LinkID); err != nil {
				return err
			}
		}
		restored = len(links)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return restored, nil
}
