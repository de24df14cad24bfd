package queue_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"backend-antrian-klinik/internal/clock"
	"backend-antrian-klinik/internal/lock"
	"backend-antrian-klinik/internal/models"
	"backend-antrian-klinik/internal/queue"
	"backend-antrian-klinik/internal/repositories"
	"backend-antrian-klinik/internal/store"

	"github.com/stretchr/testify/require"
)

var wib = time.FixedZone("WIB", 7*3600)

// 09:00 WIB
var t0 = time.Date(2026, 3, 2, 2, 0, 0, 0, time.UTC)

type fixture struct {
	db       *repositories.DB
	store    store.Store
	svc      *queue.Service
	clk      *clock.Manual
	provider models.Provider
	operator models.Principal
	admin    models.Principal
}

func openDB(t *testing.T) *repositories.DB {
	t.Helper()

	db, err := repositories.OpenSQLite(filepath.Join(t.TempDir(), "antrian.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func newFixture(t *testing.T, opts queue.Options) *fixture {
	return newFixtureWith(t, opts, nil)
}

// newFixtureWith lets a test wrap the store, e.g. with fault injection.
func newFixtureWith(t *testing.T, opts queue.Options, wrap func(store.Store) store.Store) *fixture {
	t.Helper()

	db := openDB(t)
	var st store.Store = db
	if wrap != nil {
		st = wrap(db)
	}

	if opts.Location == nil {
		opts.Location = wib
	}

	f := &fixture{
		db:    db,
		store: st,
		svc:   queue.NewService(st, lock.NewLocal(), opts),
		clk:   clock.NewManual(t0),
		admin: models.Principal{UserID: 1, Nama: "admin", Role: models.RoleAdmin},
	}

	p, err := f.svc.CreateProvider(context.Background(), f.at(), f.admin, models.CreateProviderRequest{
		Name:                "Poli Umum",
		ConsultationMinutes: 10,
	})
	require.NoError(t, err)
	f.provider = p

	pid := p.ID
	f.operator = models.Principal{UserID: 2, Nama: "loket 1", Role: models.RoleOperator, ProviderID: &pid}
	return f
}

func (f *fixture) at() clock.Snapshot {
	return clock.Snap(f.clk, wib)
}

func patient(id int64) models.Principal {
	return models.Principal{UserID: id, Nama: fmt.Sprintf("pasien %d", id), Role: models.RolePatient}
}

func (f *fixture) join(t *testing.T, client models.Principal) models.Token {
	t.Helper()

	res, err := f.svc.Join(context.Background(), f.at(), f.provider.ID, client)
	require.NoError(t, err)
	return res.Token
}

func (f *fixture) token(t *testing.T, id int64) models.Token {
	t.Helper()

	tok, err := f.db.GetToken(context.Background(), id)
	require.NoError(t, err)
	return tok
}

func (f *fixture) swap(t *testing.T, id int64) models.SwapRequest {
	t.Helper()

	s, err := f.db.GetSwap(context.Background(), id)
	require.NoError(t, err)
	return s
}

// faultyStore hands out transactions whose writes can be made to fail.
type faultyStore struct {
	store.Store

	mu             sync.Mutex
	duplicateJoins int // InsertToken calls that report a duplicate number
	failSetNumber  int // fail the n-th SetTokenNumber call inside one transaction, 0 = never
}

func (s *faultyStore) InTx(ctx context.Context, fn func(tx store.Queries) error) error {
	return s.Store.InTx(ctx, func(tx store.Queries) error {
		return fn(&faultyTx{Queries: tx, parent: s})
	})
}

type faultyTx struct {
	store.Queries
	parent   *faultyStore
	setCalls int
}

func (tx *faultyTx) InsertToken(ctx context.Context, t *models.Token) error {
	tx.parent.mu.Lock()
	fail := tx.parent.duplicateJoins > 0
	if fail {
		tx.parent.duplicateJoins--
	}
	tx.parent.mu.Unlock()

	if fail {
		return fmt.Errorf("%w: injected", store.ErrDuplicate)
	}
	return tx.Queries.InsertToken(ctx, t)
}

func (tx *faultyTx) SetTokenNumber(ctx context.Context, id int64, number int) error {
	tx.setCalls++

	tx.parent.mu.Lock()
	failAt := tx.parent.failSetNumber
	tx.parent.mu.Unlock()

	if failAt > 0 && tx.setCalls == failAt {
		return fmt.Errorf("injected crash before write %d", failAt)
	}
	return tx.Queries.SetTokenNumber(ctx, id, number)
}
