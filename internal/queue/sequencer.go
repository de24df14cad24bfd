package queue

import (
	"context"

	"backend-antrian-klinik/internal/models"
	"backend-antrian-klinik/internal/store"
)

// Sequencer hands out token numbers for a (provider, day) partition: max+1,
// starting at 1. Numbers of deleted tokens stay retired through the partition
// high-water mark, so max covers them too.
//
// Next is only race-free when called inside Service.inPartition: the partition
// lock serializes allocators, the transaction locks the scanned range on MySQL,
// and the unique index (provider_id, day, token_number) turns any remaining
// collision into store.ErrDuplicate, which join retries with a fresh number.
type Sequencer struct{}

func (Sequencer) Next(ctx context.Context, tx store.Queries, providerID int64, day models.Day) (int, error) {
	highest, err := tx.MaxTokenNumber(ctx, providerID, day)
	if err != nil {
		return 0, err
	}
	retired, err := tx.HighWater(ctx, providerID, day)
	if err != nil {
		return 0, err
	}
	return max(highest, retired) + 1, nil
}
