package entitlement

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishikalpadas/mydesignbazaar-sub001/app/models"
	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/audit"
	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/subscription"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	users map[uint]*models.User
}

func (f *fakeUserRepo) Create(u *models.User) error { f.users[u.ID] = u; return nil }
func (f *fakeUserRepo) GetByID(id uint) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeUserRepo) GetByAPIKeyHash(hash string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeUserRepo) Update(u *models.User) error { f.users[u.ID] = u; return nil }

type fakeDesignRepo struct {
	designs map[string]*models.Design
}

func (f *fakeDesignRepo) Create(d *models.Design) error { f.designs[d.UUID] = d; return nil }
func (f *fakeDesignRepo) GetByUUID(uuid string) (*models.Design, error) {
	if d, ok := f.designs[uuid]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeDesignRepo) GetApprovedByUUID(uuid string) (*models.Design, error) {
	d, err := f.GetByUUID(uuid)
	if err != nil {
		return nil, err
	}
	if d.Status != models.DesignStatusApproved {
		return nil, gorm.ErrRecordNotFound
	}
	return d, nil
}
func (f *fakeDesignRepo) ListApproved(offset, limit int) ([]models.Design, error) { return nil, nil }
func (f *fakeDesignRepo) UpdateStatus(uuid, status string) error {
	if d, ok := f.designs[uuid]; ok {
		d.Status = status
	}
	return nil
}

// memLedgerRepo mirrors the SQL repository's atomicity contract.
type memLedgerRepo struct {
	mu      sync.Mutex
	nextID  uint
	entries []*models.SubscriptionLedgerEntry
}

func (m *memLedgerRepo) current(buyerID uint) *models.SubscriptionLedgerEntry {
	var latest *models.SubscriptionLedgerEntry
	for _, e := range m.entries {
		if e.BuyerID != buyerID || e.SupersededAt != nil {
			continue
		}
		if latest == nil || e.ActivatedAt.After(latest.ActivatedAt) {
			latest = e
		}
	}
	return latest
}

func (m *memLedgerRepo) GetCurrentEntry(buyerID uint) (*models.SubscriptionLedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e := m.current(buyerID); e != nil {
		cp := *e
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memLedgerRepo) Replace(entry *models.SubscriptionLedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.SourceOrderID == entry.SourceOrderID {
			return gorm.ErrDuplicatedKey
		}
	}
	now := time.Now()
	for _, e := range m.entries {
		if e.BuyerID == entry.BuyerID && e.SupersededAt == nil {
			t := now
			e.SupersededAt = &t
		}
	}
	m.nextID++
	entry.ID = m.nextID
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memLedgerRepo) GetBySourceOrder(orderID string) (*models.SubscriptionLedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.SourceOrderID == orderID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memLedgerRepo) DecrementCredit(buyerID uint, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.current(buyerID)
	if e == nil || e.CreditsRemaining <= 0 || !now.Before(e.ExpiresAt) {
		return false, nil
	}
	e.CreditsRemaining--
	return true, nil
}

type testEnv struct {
	engine  *Engine
	users   *fakeUserRepo
	designs *fakeDesignRepo
	ledger  *subscription.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	users := &fakeUserRepo{users: map[uint]*models.User{
		1: {ID: 1, Role: models.ROLE_BUYER, Status: models.STATUS_ACTIVE},
		2: {ID: 2, Role: models.ROLE_DESIGNER, Status: models.STATUS_ACTIVE},
	}}
	designs := &fakeDesignRepo{designs: map[string]*models.Design{
		"d-approved": {UUID: "d-approved", Status: models.DesignStatusApproved, Tier: models.DesignTierStandard, FilePath: "designs/d-approved.zip"},
		"d-pending":  {UUID: "d-pending", Status: models.DesignStatusPending, Tier: models.DesignTierStandard, FilePath: "designs/d-pending.zip"},
	}}
	ledger := subscription.NewService(&memLedgerRepo{})
	signer := NewSigner("test-secret", DefaultGrantTTL)
	engine := NewEngine(users, designs, ledger, signer, NewMemoryGrantStore(), audit.Nop{})
	return &testEnv{engine: engine, users: users, designs: designs, ledger: ledger}
}

func reasonOf(t *testing.T, err error) Reason {
	t.Helper()
	d, ok := AsDenial(err)
	require.True(t, ok, "expected a denial, got %v", err)
	return d.Reason
}

func TestRequestDownloadNotABuyer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Designer accounts are rejected before any ledger access, even when a
	// ledger entry would exist.
	_, err := env.ledger.GrantEntitlement(ctx, 2, "basic", 10, 15, "o1")
	require.NoError(t, err)

	_, err = env.engine.RequestDownload(ctx, 2, "d-approved")
	assert.Equal(t, ReasonNotABuyer, reasonOf(t, err))

	_, err = env.engine.RequestDownload(ctx, 999, "d-approved")
	assert.Equal(t, ReasonNotABuyer, reasonOf(t, err))
}

func TestRequestDownloadDesignGate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.ledger.GrantEntitlement(ctx, 1, "basic", 10, 15, "o1")
	require.NoError(t, err)

	// Missing and unapproved designs surface the same public reason.
	_, err = env.engine.RequestDownload(ctx, 1, "nope")
	assert.Equal(t, ReasonDesignNotFound, reasonOf(t, err))

	_, err = env.engine.RequestDownload(ctx, 1, "d-pending")
	assert.Equal(t, ReasonDesignNotFound, reasonOf(t, err))

	// No credit was spent on either denial.
	st, err := env.ledger.Status(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, st.CreditsRemaining)
}

func TestRequestDownloadLedgerGates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.engine.RequestDownload(ctx, 1, "d-approved")
	assert.Equal(t, ReasonNoSubscription, reasonOf(t, err))

	// Expired window with credits left denies with Expired, not Exhausted.
	past := time.Now().Add(-30 * 24 * time.Hour)
	env.ledger.WithClock(func() time.Time { return past })
	_, err = env.ledger.GrantEntitlement(ctx, 1, "basic", 5, 15, "o1")
	require.NoError(t, err)
	env.ledger.WithClock(time.Now)

	_, err = env.engine.RequestDownload(ctx, 1, "d-approved")
	assert.Equal(t, ReasonExpired, reasonOf(t, err))
}

func TestRequestDownloadConsumesExactlyN(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.ledger.GrantEntitlement(ctx, 1, "basic", 10, 15, "o1")
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		res, err := env.engine.RequestDownload(ctx, 1, "d-approved")
		require.NoError(t, err, "download %d", i+1)
		assert.Equal(t, 9-i, res.CreditsRemaining)
		assert.NotEmpty(t, res.Grant.Token)
	}

	_, err = env.engine.RequestDownload(ctx, 1, "d-approved")
	assert.Equal(t, ReasonExhausted, reasonOf(t, err))
}

func TestRequestDownloadSigningFailureSpendsNoCredit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.ledger.GrantEntitlement(ctx, 1, "basic", 1, 15, "o1")
	require.NoError(t, err)

	// A misconfigured signer fails the request before the ledger is touched;
	// the buyer's last credit survives for a retry.
	broken := NewEngine(env.users, env.designs, env.ledger,
		NewSigner("", DefaultGrantTTL), NewMemoryGrantStore(), audit.Nop{})
	_, err = broken.RequestDownload(ctx, 1, "d-approved")
	require.Error(t, err)
	_, isDenial := AsDenial(err)
	assert.False(t, isDenial, "signer failure is an internal error, not a denial")

	st, err := env.ledger.Status(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, st.CreditsRemaining)
}

func TestRequestDownloadConcurrentLastCredit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.ledger.GrantEntitlement(ctx, 1, "basic", 1, 15, "o1")
	require.NoError(t, err)

	const k = 12
	var wg sync.WaitGroup
	errs := make(chan error, k)
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.engine.RequestDownload(ctx, 1, "d-approved")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	granted, exhausted := 0, 0
	for err := range errs {
		if err == nil {
			granted++
			continue
		}
		d, ok := AsDenial(err)
		require.True(t, ok, "unexpected error: %v", err)
		require.Equal(t, ReasonExhausted, d.Reason)
		exhausted++
	}
	assert.Equal(t, 1, granted)
	assert.Equal(t, k-1, exhausted)
}

func TestGrantRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.ledger.GrantEntitlement(ctx, 1, "basic", 2, 15, "o1")
	require.NoError(t, err)

	res, err := env.engine.RequestDownload(ctx, 1, "d-approved")
	require.NoError(t, err)

	claims, err := env.engine.RedeemGrant(ctx, res.Grant.Token)
	require.NoError(t, err)
	assert.Equal(t, uint(1), claims.BuyerID)
	assert.Equal(t, "d-approved", claims.DesignUUID)
	assert.Equal(t, "designs/d-approved.zip", claims.ResourceLocator)

	// Second redemption of the same grant fails.
	_, err = env.engine.RedeemGrant(ctx, res.Grant.Token)
	assert.ErrorIs(t, err, ErrGrantAlreadyUsed)
}

func TestGrantTamperRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.ledger.GrantEntitlement(ctx, 1, "basic", 2, 15, "o1")
	require.NoError(t, err)
	res, err := env.engine.RequestDownload(ctx, 1, "d-approved")
	require.NoError(t, err)

	parts := strings.SplitN(res.Grant.Token, ".", 2)
	require.Len(t, parts, 2)
	tampered := parts[0] + "x." + parts[1]
	_, err = env.engine.RedeemGrant(ctx, tampered)
	assert.ErrorIs(t, err, ErrInvalidGrant)

	_, err = env.engine.RedeemGrant(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidGrant)
}

func TestGrantExpires(t *testing.T) {
	signer := NewSigner("test-secret", time.Minute)
	issued := time.Now().Add(-10 * time.Minute)
	signer.WithClock(func() time.Time { return issued })

	token, err := signer.Sign(&GrantClaims{GrantID: "g1", BuyerID: 1, DesignUUID: "d", ResourceLocator: "f"})
	require.NoError(t, err)

	signer.WithClock(time.Now)
	_, err = signer.Verify(token)
	assert.ErrorIs(t, err, ErrGrantExpired)
}

func TestIssueGrantForPayPerDownload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	token, expiresAt, err := env.engine.IssueGrant(ctx, 1, "d-approved")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	// Ledger stays untouched.
	_, err = env.ledger.Status(ctx, 1)
	assert.ErrorIs(t, err, subscription.ErrNoActiveEntry)

	_, _, err = env.engine.IssueGrant(ctx, 1, "d-pending")
	d, ok := AsDenial(err)
	require.True(t, ok)
	assert.Equal(t, ReasonDesignNotFound, d.Reason)
}
