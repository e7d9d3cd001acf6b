package integration

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"sync"
	"time"

	"loyalty-engine/internal/core/domain"
	"loyalty-engine/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Account Repo ---

type inMemoryAccountRepo struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*domain.Account
}

func newInMemoryAccountRepo() *inMemoryAccountRepo {
	return &inMemoryAccountRepo{accounts: make(map[uuid.UUID]*domain.Account)}
}

func (r *inMemoryAccountRepo) Create(ctx context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.ExternalID == a.ExternalID {
			return fmt.Errorf("external id already exists")
		}
	}
	cp := *a
	r.accounts[a.ID] = &cp
	return nil
}

func (r *inMemoryAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *inMemoryAccountRepo) GetByExternalID(ctx context.Context, externalID string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.accounts {
		if a.ExternalID == externalID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryAccountRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryAccountRepo) UpdatePoints(ctx context.Context, tx pgx.Tx, id uuid.UUID, points int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return fmt.Errorf("account not found")
	}
	a.Points = points
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemoryAccountRepo) TopByPoints(ctx context.Context, limit int) ([]domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Points > result[j].Points })
	if limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu      sync.RWMutex
	entries []domain.Transaction // append-only, insertion order
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *t)
	return nil
}

func (r *inMemoryTransactionRepo) StreamByAccount(ctx context.Context, accountID uuid.UUID) iter.Seq2[domain.Transaction, error] {
	return func(yield func(domain.Transaction, error) bool) {
		r.mu.RLock()
		snapshot := make([]domain.Transaction, 0, len(r.entries))
		for _, t := range r.entries {
			if t.AccountID == accountID {
				snapshot = append(snapshot, t)
			}
		}
		r.mu.RUnlock()
		for _, t := range snapshot {
			if !yield(t, nil) {
				return
			}
		}
	}
}

func (r *inMemoryTransactionRepo) SumDeltas(ctx context.Context, accountID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum int64
	for _, t := range r.entries {
		if t.AccountID == accountID {
			sum += t.Delta
		}
	}
	return sum, nil
}

// --- In-Memory Reward Repo ---

type inMemoryRewardRepo struct {
	mu      sync.RWMutex
	rewards map[int64]*domain.Reward
	nextID  int64
}

func newInMemoryRewardRepo() *inMemoryRewardRepo {
	return &inMemoryRewardRepo{rewards: make(map[int64]*domain.Reward), nextID: 1}
}

func (r *inMemoryRewardRepo) Create(ctx context.Context, reward *domain.Reward) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reward.ID = r.nextID
	r.nextID++
	cp := *reward
	r.rewards[reward.ID] = &cp
	return nil
}

func (r *inMemoryRewardRepo) GetByID(ctx context.Context, id int64) (*domain.Reward, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reward, ok := r.rewards[id]
	if !ok {
		return nil, nil
	}
	cp := *reward
	return &cp, nil
}

func (r *inMemoryRewardRepo) List(ctx context.Context) ([]domain.Reward, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Reward, 0, len(r.rewards))
	for _, reward := range r.rewards {
		result = append(result, *reward)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *inMemoryRewardRepo) DecrementStock(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reward, ok := r.rewards[id]
	if !ok || reward.Stock <= 0 {
		return false, nil
	}
	reward.Stock--
	return true, nil
}

func (r *inMemoryRewardRepo) RestoreStock(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reward, ok := r.rewards[id]
	if !ok {
		return fmt.Errorf("reward not found")
	}
	reward.Stock++
	return nil
}

// --- In-Memory Voucher Repo ---

type inMemoryVoucherRepo struct {
	mu      sync.Mutex
	entries []*domain.VoucherEntry // ordered by id (load order)
	nextID  int64
}

func newInMemoryVoucherRepo() *inMemoryVoucherRepo {
	return &inMemoryVoucherRepo{nextID: 1}
}

func (r *inMemoryVoucherRepo) Allocate(ctx context.Context, denomination string, accountID uuid.UUID) (*domain.VoucherEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.Denomination == denomination && !e.Consumed {
			now := time.Now().UTC()
			e.Consumed = true
			e.ConsumedBy = &accountID
			e.ConsumedAt = &now
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryVoucherRepo) BulkInsert(ctx context.Context, denomination string, codes []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing := make(map[string]bool, len(r.entries))
	for _, e := range r.entries {
		existing[e.Code] = true
	}
	inserted := 0
	for _, code := range codes {
		if existing[code] {
			continue
		}
		existing[code] = true
		r.entries = append(r.entries, &domain.VoucherEntry{
			ID:           r.nextID,
			Denomination: denomination,
			Code:         code,
		})
		r.nextID++
		inserted++
	}
	return inserted, nil
}

func (r *inMemoryVoucherRepo) CountAvailable(ctx context.Context, denomination string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, e := range r.entries {
		if e.Denomination == denomination && !e.Consumed {
			count++
		}
	}
	return count, nil
}

// --- In-Memory Redemption Repo ---

type inMemoryRedemptionRepo struct {
	mu          sync.RWMutex
	redemptions []domain.Redemption
}

func newInMemoryRedemptionRepo() *inMemoryRedemptionRepo {
	return &inMemoryRedemptionRepo{}
}

func (r *inMemoryRedemptionRepo) Create(ctx context.Context, redemption *domain.Redemption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redemptions = append(r.redemptions, *redemption)
	return nil
}

func (r *inMemoryRedemptionRepo) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Redemption, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Redemption
	for _, red := range r.redemptions {
		if red.AccountID == accountID {
			result = append(result, red)
		}
	}
	return result, nil
}

// --- In-Memory Leaderboard Cache ---

type inMemoryLeaderboard struct {
	mu     sync.RWMutex
	scores map[uuid.UUID]int64
}

func newInMemoryLeaderboard() *inMemoryLeaderboard {
	return &inMemoryLeaderboard{scores: make(map[uuid.UUID]int64)}
}

func (l *inMemoryLeaderboard) IncrScore(ctx context.Context, accountID uuid.UUID, delta int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.scores[accountID] += delta
	return nil
}

func (l *inMemoryLeaderboard) Top(ctx context.Context, n int) ([]ports.LeaderboardEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entries := make([]ports.LeaderboardEntry, 0, len(l.scores))
	for id, score := range l.scores {
		entries = append(entries, ports.LeaderboardEntry{AccountID: id, Points: score})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Points > entries[j].Points })
	if n < len(entries) {
		entries = entries[:n]
	}
	return entries, nil
}

// --- In-Memory Transactor ---

// inMemoryTransactor serializes transactions with a single mutex, standing in
// for row-level locking: a Begin blocks until the previous transaction commits
// or rolls back.
type inMemoryTransactor struct {
	mu sync.Mutex
}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &noopTx{release: t.mu.Unlock}, nil
}

// noopTx is a no-op pgx.Tx whose Commit/Rollback release the transactor lock
// exactly once (Rollback after Commit is the usual defer pattern).
type noopTx struct {
	once    sync.Once
	release func()
}

func (t *noopTx) done() {
	if t.release != nil {
		t.once.Do(t.release)
	}
}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { t.done(); return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { t.done(); return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
