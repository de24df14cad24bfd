package queue_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"backend-antrian-klinik/internal/apperr"
	"backend-antrian-klinik/internal/models"
	"backend-antrian-klinik/internal/queue"
	"backend-antrian-klinik/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwap_AcceptExchangesNumbers(t *testing.T) {
	f := newFixture(t, queue.Options{})
	ctx := context.Background()

	a := f.join(t, patient(100))
	b := f.join(t, patient(101))

	req, err := f.svc.RequestSwap(ctx, f.at(), f.provider.ID, patient(100), 2)
	require.NoError(t, err)
	assert.Equal(t, models.SwapPending, req.Status)
	assert.Equal(t, a.ID, req.FromTokenID)
	assert.Equal(t, b.ID, req.ToTokenID)
	assert.True(t, req.ExpiresAt.Equal(t0.Add(2*time.Minute)))

	res, err := f.svc.AcceptSwap(ctx, f.at(), req.ID, patient(101))
	require.NoError(t, err)
	assert.Equal(t, models.SwapAccepted, res.Status)
	assert.Equal(t, 2, res.FromTokenNumber)
	assert.Equal(t, 1, res.ToTokenNumber)
	assert.Equal(t, f.provider.ID, res.ProviderID)

	assert.Equal(t, 2, f.token(t, a.ID).TokenNumber)
	assert.Equal(t, 1, f.token(t, b.ID).TokenNumber)
	assert.Equal(t, models.SwapAccepted, f.swap(t, req.ID).Status)

	_, err = f.svc.AcceptSwap(ctx, f.at(), req.ID, patient(101))
	assert.ErrorIs(t, err, apperr.ErrSwapProcessed)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestSwap_RejectAfterExpiry(t *testing.T) {
	f := newFixture(t, queue.Options{})
	ctx := context.Background()

	f.join(t, patient(100))
	f.join(t, patient(101))

	req, err := f.svc.RequestSwap(ctx, f.at(), f.provider.ID, patient(100), 2)
	require.NoError(t, err)

	f.clk.Advance(130 * time.Second)
	_, err = f.svc.RejectSwap(ctx, f.at(), req.ID, patient(101))
	assert.ErrorIs(t, err, apperr.ErrNoPendingSwap)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, models.SwapExpired, f.swap(t, req.ID).Status)
}

func TestSwap_AcceptBoundary(t *testing.T) {
	ctx := context.Background()

	t.Run("exactly at expires_at", func(t *testing.T) {
		f := newFixture(t, queue.Options{})
		f.join(t, patient(100))
		f.join(t, patient(101))
		req, err := f.svc.RequestSwap(ctx, f.at(), f.provider.ID, patient(100), 2)
		require.NoError(t, err)

		f.clk.Advance(2 * time.Minute)
		_, err = f.svc.AcceptSwap(ctx, f.at(), req.ID, patient(101))
		assert.NoError(t, err)
	})

	t.Run("just after expires_at", func(t *testing.T) {
		f := newFixture(t, queue.Options{})
		a := f.join(t, patient(100))
		f.join(t, patient(101))
		req, err := f.svc.RequestSwap(ctx, f.at(), f.provider.ID, patient(100), 2)
		require.NoError(t, err)

		f.clk.Advance(2*time.Minute + time.Millisecond)
		_, err = f.svc.AcceptSwap(ctx, f.at(), req.ID, patient(101))
		assert.ErrorIs(t, err, apperr.ErrSwapExpired)
		assert.Equal(t, models.SwapExpired, f.swap(t, req.ID).Status)
		assert.Equal(t, 1, f.token(t, a.ID).TokenNumber)
	})
}

func TestSwap_AcceptRacingExpiry(t *testing.T) {
	f := newFixture(t, queue.Options{})
	ctx := context.Background()

	a := f.join(t, patient(100))
	b := f.join(t, patient(101))
	req, err := f.svc.RequestSwap(ctx, f.at(), f.provider.ID, patient(100), 2)
	require.NoError(t, err)

	f.clk.Advance(2*time.Minute + time.Second)
	at := f.at()

	var (
		wg        sync.WaitGroup
		acceptErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, acceptErr = f.svc.AcceptSwap(ctx, at, req.ID, patient(101))
	}()
	go func() {
		defer wg.Done()
		_, err := f.svc.ExpireDue(ctx, at)
		assert.NoError(t, err)
	}()
	wg.Wait()

	assert.ErrorIs(t, acceptErr, apperr.ErrSwapExpired)
	assert.Equal(t, models.SwapExpired, f.swap(t, req.ID).Status)
	assert.Equal(t, 1, f.token(t, a.ID).TokenNumber)
	assert.Equal(t, 2, f.token(t, b.ID).TokenNumber)
}

func TestSwap_AcceptIsAtomic(t *testing.T) {
	var faulty *faultyStore
	f := newFixtureWith(t, queue.Options{}, func(st store.Store) store.Store {
		faulty = &faultyStore{Store: st}
		return faulty
	})
	ctx := context.Background()

	a := f.join(t, patient(100))
	b := f.join(t, patient(101))
	req, err := f.svc.RequestSwap(ctx, f.at(), f.provider.ID, patient(100), 2)
	require.NoError(t, err)

	faulty.failSetNumber = 2
	_, err = f.svc.AcceptSwap(ctx, f.at(), req.ID, patient(101))
	require.Error(t, err)
	assert.Equal(t, apperr.KindTransient, apperr.KindOf(err))

	// tidak ada perubahan setengah jalan
	assert.Equal(t, models.SwapPending, f.swap(t, req.ID).Status)
	assert.Equal(t, 1, f.token(t, a.ID).TokenNumber)
	assert.Equal(t, 2, f.token(t, b.ID).TokenNumber)

	faulty.failSetNumber = 0
	_, err = f.svc.AcceptSwap(ctx, f.at(), req.ID, patient(101))
	require.NoError(t, err)
	assert.Equal(t, 2, f.token(t, a.ID).TokenNumber)
	assert.Equal(t, 1, f.token(t, b.ID).TokenNumber)
}

func TestSwap_AcceptOnlyByReceiver(t *testing.T) {
	f := newFixture(t, queue.Options{})
	ctx := context.Background()

	f.join(t, patient(100))
	f.join(t, patient(101))
	req, err := f.svc.RequestSwap(ctx, f.at(), f.provider.ID, patient(100), 2)
	require.NoError(t, err)

	_, err = f.svc.AcceptSwap(ctx, f.at(), req.ID, patient(100))
	assert.ErrorIs(t, err, apperr.ErrNotSwapReceiver)

	_, err = f.svc.RejectSwap(ctx, f.at(), req.ID, patient(102))
	assert.ErrorIs(t, err, apperr.ErrNotSwapReceiver)

	_, err = f.svc.AcceptSwap(ctx, f.at(), 999, patient(101))
	assert.ErrorIs(t, err, apperr.ErrSwapNotFound)
}

func TestSwap_AcceptNoLongerEligible(t *testing.T) {
	f := newFixture(t, queue.Options{})
	ctx := context.Background()

	f.join(t, patient(100))
	f.join(t, patient(101))
	req, err := f.svc.RequestSwap(ctx, f.at(), f.provider.ID, patient(100), 2)
	require.NoError(t, err)

	// token 1 dipanggil sebelum permintaan dijawab
	_, err = f.svc.CallNext(ctx, f.at(), f.provider.ID, f.operator)
	require.NoError(t, err)

	_, err = f.svc.AcceptSwap(ctx, f.at(), req.ID, patient(101))
	assert.ErrorIs(t, err, apperr.ErrSwapNotEligible)
	assert.Equal(t, models.SwapPending, f.swap(t, req.ID).Status)
}

func TestSwap_Reject(t *testing.T) {
	f := newFixture(t, queue.Options{})
	ctx := context.Background()

	a := f.join(t, patient(100))
	f.join(t, patient(101))
	req, err := f.svc.RequestSwap(ctx, f.at(), f.provider.ID, patient(100), 2)
	require.NoError(t, err)

	res, err := f.svc.RejectSwap(ctx, f.at(), req.ID, patient(101))
	require.NoError(t, err)
	assert.Equal(t, models.SwapRejected, res.Status)
	assert.Equal(t, 1, f.token(t, a.ID).TokenNumber)

	_, err = f.svc.RejectSwap(ctx, f.at(), req.ID, patient(101))
	assert.ErrorIs(t, err, apperr.ErrNoPendingSwap)

	_, err = f.svc.AcceptSwap(ctx, f.at(), req.ID, patient(101))
	assert.ErrorIs(t, err, apperr.ErrSwapProcessed)

	// slot keluar kembali tersedia
	_, err = f.svc.RequestSwap(ctx, f.at(), f.provider.ID, patient(100), 2)
	assert.NoError(t, err)
}

func TestSwap_RequestValidation(t *testing.T) {
	f := newFixture(t, queue.Options{})
	ctx := context.Background()

	_, err := f.svc.RequestSwap(ctx, f.at(), f.provider.ID, patient(100), 0)
	assert.ErrorIs(t, err, apperr.ErrInvalidTarget)

	_, err = f.svc.RequestSwap(ctx, f.at(), f.provider.ID, patient(100), 1)
	assert.ErrorIs(t, err, apperr.ErrNoActiveToken)

	f.join(t, patient(100))
	f.join(t, patient(101))
	f.join(t, patient(102))

	_, err = f.svc.RequestSwap(ctx, f.at(), f.provider.ID, patient(100), 1)
	assert.ErrorIs(t, err, apperr.ErrSelfSwap)

	_, err = f.svc.RequestSwap(ctx, f.at(), f.provider.ID, patient(100), 9)
	assert.ErrorIs(t, err, apperr.ErrTargetNotWaiting)

	_, err = f.svc.RequestSwap(ctx, f.at(), f.provider.ID, patient(100), 2)
	require.NoError(t, err)

	_, err = f.svc.RequestSwap(ctx, f.at(), f.provider.ID, patient(100), 2)
	assert.ErrorIs(t, err, apperr.ErrDuplicateSwap)

	_, err = f.svc.RequestSwap(ctx, f.at(), f.provider.ID, patient(100), 3)
	assert.ErrorIs(t, err, apperr.ErrSwapLimit)
}

func TestSwap_TargetMustBeWaiting(t *testing.T) {
	f := newFixture(t, queue.Options{})
	ctx := context.Background()

	f.join(t, patient(100))
	f.join(t, patient(101))
	_, err := f.svc.CallNext(ctx, f.at(), f.provider.ID, f.operator)
	require.NoError(t, err)

	_, err = f.svc.RequestSwap(ctx, f.at(), f.provider.ID, patient(101), 1)
	assert.ErrorIs(t, err, apperr.ErrTargetNotWaiting)
}

func TestSwap_MultipleOutgoingWhenAllowed(t *testing.T) {
	f := newFixture(t, queue.Options{MaxOutgoingSwaps: 2})
	ctx := context.Background()

	for i := int64(0); i < 4; i++ {
		f.join(t, patient(100+i))
	}

	_, err := f.svc.RequestSwap(ctx, f.at(), f.provider.ID, patient(100), 2)
	require.NoError(t, err)
	_, err = f.svc.RequestSwap(ctx, f.at(), f.provider.ID, patient(100), 3)
	require.NoError(t, err)
	_, err = f.svc.RequestSwap(ctx, f.at(), f.provider.ID, patient(100), 4)
	assert.ErrorIs(t, err, apperr.ErrSwapLimit)
}

func TestSwap_OutgoingLimitSpansProviders(t *testing.T) {
	f := newFixture(t, queue.Options{})
	ctx := context.Background()

	gigi, err := f.svc.CreateProvider(ctx, f.at(), f.admin, models.CreateProviderRequest{
		Name:                "Poli Gigi",
		ConsultationMinutes: 15,
	})
	require.NoError(t, err)

	for _, providerID := range []int64{f.provider.ID, gigi.ID} {
		_, err := f.svc.Join(ctx, f.at(), providerID, patient(200))
		require.NoError(t, err)
		_, err = f.svc.Join(ctx, f.at(), providerID, patient(100))
		require.NoError(t, err)
	}

	_, err = f.svc.RequestSwap(ctx, f.at(), f.provider.ID, patient(100), 1)
	require.NoError(t, err)

	_, err = f.svc.RequestSwap(ctx, f.at(), gigi.ID, patient(100), 1)
	assert.ErrorIs(t, err, apperr.ErrSwapLimit)

	views, err := f.svc.MySwaps(ctx, f.at(), patient(100))
	require.NoError(t, err)
	outgoing := 0
	for _, v := range views {
		if v.Direction == models.SwapOutgoing && v.Status == models.SwapPending {
			outgoing++
		}
	}
	assert.Equal(t, 1, outgoing)
}

func TestSwap_ExpiredFreesOutgoingSlot(t *testing.T) {
	f := newFixture(t, queue.Options{})
	ctx := context.Background()

	for i := int64(0); i < 3; i++ {
		f.join(t, patient(100+i))
	}
	_, err := f.svc.RequestSwap(ctx, f.at(), f.provider.ID, patient(100), 2)
	require.NoError(t, err)

	f.clk.Advance(3 * time.Minute)
	_, err = f.svc.RequestSwap(ctx, f.at(), f.provider.ID, patient(100), 3)
	assert.NoError(t, err)
}

func TestExpireDue(t *testing.T) {
	f := newFixture(t, queue.Options{SwapTTL: time.Minute, MaxOutgoingSwaps: 3})
	ctx := context.Background()

	for i := int64(0); i < 4; i++ {
		f.join(t, patient(100+i))
	}
	first, err := f.svc.RequestSwap(ctx, f.at(), f.provider.ID, patient(100), 2)
	require.NoError(t, err)

	f.clk.Advance(40 * time.Second)
	second, err := f.svc.RequestSwap(ctx, f.at(), f.provider.ID, patient(100), 3)
	require.NoError(t, err)

	f.clk.Advance(30 * time.Second)
	n, err := f.svc.ExpireDue(ctx, f.at())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, models.SwapExpired, f.swap(t, first.ID).Status)
	assert.Equal(t, models.SwapPending, f.swap(t, second.ID).Status)

	n, err = f.svc.ExpireDue(ctx, f.at())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMySwaps(t *testing.T) {
	f := newFixture(t, queue.Options{})
	ctx := context.Background()

	f.join(t, patient(100))
	f.join(t, patient(101))
	f.join(t, patient(102))

	out, err := f.svc.RequestSwap(ctx, f.at(), f.provider.ID, patient(100), 2)
	require.NoError(t, err)
	f.clk.Advance(time.Second)
	in, err := f.svc.RequestSwap(ctx, f.at(), f.provider.ID, patient(102), 2)
	require.NoError(t, err)

	swaps, err := f.svc.MySwaps(ctx, f.at(), patient(101))
	require.NoError(t, err)
	require.Len(t, swaps, 2)

	assert.Equal(t, in.ID, swaps[0].ID)
	assert.Equal(t, out.ID, swaps[1].ID)
	for _, s := range swaps {
		assert.Equal(t, models.SwapIncoming, s.Direction)
		assert.Equal(t, 2, s.ToTokenNumber)
		assert.Equal(t, f.provider.ID, s.ProviderID)
	}

	mine, err := f.svc.MySwaps(ctx, f.at(), patient(100))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, models.SwapOutgoing, mine[0].Direction)
	assert.Equal(t, 1, mine[0].FromTokenNumber)

	none, err := f.svc.MySwaps(ctx, f.at(), patient(555))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestNearbyTokens(t *testing.T) {
	f := newFixture(t, queue.Options{})
	ctx := context.Background()

	for i := int64(0); i < 4; i++ {
		f.join(t, patient(100+i))
	}
	_, err := f.svc.CallNext(ctx, f.at(), f.provider.ID, f.operator)
	require.NoError(t, err)

	nearby, err := f.svc.NearbyTokens(ctx, f.at(), f.provider.ID, patient(102))
	require.NoError(t, err)

	var numbers []int
	for _, n := range nearby {
		numbers = append(numbers, n.TokenNumber)
	}
	assert.Equal(t, []int{2, 4}, numbers)

	_, err = f.svc.NearbyTokens(ctx, f.at(), 999, patient(102))
	assert.ErrorIs(t, err, apperr.ErrProviderNotFound)
}
