package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/unibite/unibite-backend/internal/model"
	"github.com/unibite/unibite-backend/internal/repository"
)

// The fakes below mirror the contracts of the SQL-backed repositories
// closely enough to exercise the claim state machine without a
// database: reserve is a check-and-decrement under one lock, the
// ledger transitions are compare-and-swap on status under one lock.

type fakeListing struct {
	owner     uint64
	total     uint32
	remaining uint32
	limit     uint32
}

type fakeInventory struct {
	mu       sync.Mutex
	listings map[uint64]*fakeListing
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{listings: make(map[uint64]*fakeListing)}
}

func (f *fakeInventory) add(id uint64, total, limit uint32) {
	f.addOwned(id, 0, total, limit)
}

func (f *fakeInventory) addOwned(id, owner uint64, total, limit uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listings[id] = &fakeListing{owner: owner, total: total, remaining: total, limit: limit}
}

func (f *fakeInventory) remaining(id uint64) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listings[id].remaining
}

func (f *fakeInventory) Reserve(_ context.Context, listingID uint64, qty uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[listingID]
	if !ok {
		return repository.ErrListingNotFound
	}
	if l.remaining == 0 {
		return repository.ErrSoldOut
	}
	if qty > l.limit {
		return repository.ErrExceedsPerPersonLimit
	}
	if qty > l.remaining {
		return repository.ErrInsufficientRemaining
	}
	l.remaining -= qty
	return nil
}

func (f *fakeInventory) Owner(_ context.Context, listingID uint64) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[listingID]
	if !ok {
		return 0, repository.ErrListingNotFound
	}
	return l.owner, nil
}

func (f *fakeInventory) Restore(_ context.Context, listingID uint64, qty uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[listingID]
	if !ok {
		return repository.ErrListingNotFound
	}
	l.remaining += qty
	if l.remaining > l.total {
		l.remaining = l.total
	}
	return nil
}

type fakeLedger struct {
	mu         sync.Mutex
	nextID     uint64
	claims     map[uint64]*model.Claim
	base       time.Time
	failCreate bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		claims: make(map[uint64]*model.Claim),
		base:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeLedger) Create(_ context.Context, listingID, studentID uint64, qty uint32) (model.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return model.Claim{}, errors.New("ledger write failed")
	}
	f.nextID++
	c := &model.Claim{
		ID:        f.nextID,
		ListingID: listingID,
		StudentID: studentID,
		Quantity:  qty,
		Status:    model.StatusClaimed,
		QRToken:   "claim-token-" + time.Duration(f.nextID).String(),
		ClaimedAt: f.base.Add(time.Duration(f.nextID) * time.Second),
	}
	f.claims[c.ID] = c
	return *c, nil
}

func (f *fakeLedger) GetByID(_ context.Context, id uint64) (model.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.claims[id]
	if !ok {
		return model.Claim{}, repository.ErrClaimNotFound
	}
	return *c, nil
}

func (f *fakeLedger) GetByToken(_ context.Context, token string) (model.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.claims {
		if c.QRToken == token {
			return *c, nil
		}
	}
	return model.Claim{}, repository.ErrClaimNotFound
}

func (f *fakeLedger) Redeem(_ context.Context, id uint64) (model.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.claims[id]
	if !ok {
		return model.Claim{}, repository.ErrClaimNotFound
	}
	switch c.Status {
	case model.StatusRedeemed:
		return model.Claim{}, repository.ErrAlreadyRedeemed
	case model.StatusCanceled:
		return model.Claim{}, repository.ErrAlreadyCanceled
	}
	c.Status = model.StatusRedeemed
	at := time.Now().UTC()
	c.RedeemedAt = &at
	return *c, nil
}

func (f *fakeLedger) Cancel(_ context.Context, id uint64) (model.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.claims[id]
	if !ok {
		return model.Claim{}, repository.ErrClaimNotFound
	}
	switch c.Status {
	case model.StatusRedeemed:
		return model.Claim{}, repository.ErrAlreadyRedeemed
	case model.StatusCanceled:
		return model.Claim{}, repository.ErrAlreadyCanceled
	}
	c.Status = model.StatusCanceled
	return *c, nil
}

func (f *fakeLedger) LatestClaimedByStudent(_ context.Context, studentID uint64) (model.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *model.Claim
	for _, c := range f.claims {
		if c.StudentID != studentID || c.Status != model.StatusClaimed {
			continue
		}
		if latest == nil || c.ClaimedAt.After(latest.ClaimedAt) {
			latest = c
		}
	}
	if latest == nil {
		return model.Claim{}, repository.ErrNoActiveClaim
	}
	return *latest, nil
}

func (f *fakeLedger) ListByStudent(_ context.Context, studentID uint64) ([]model.Claim, error) {
	return f.listWhere(func(c *model.Claim) bool { return c.StudentID == studentID })
}

func (f *fakeLedger) ListByListing(_ context.Context, listingID uint64) ([]model.Claim, error) {
	return f.listWhere(func(c *model.Claim) bool { return c.ListingID == listingID })
}

func (f *fakeLedger) listWhere(match func(*model.Claim) bool) ([]model.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Claim, 0)
	// IDs increase with creation time, so ascending ID order is
	// ascending claimed_at order.
	for id := uint64(1); id <= f.nextID; id++ {
		if c, ok := f.claims[id]; ok && match(c) {
			out = append(out, *c)
		}
	}
	return out, nil
}

type fakeStandingTokens struct {
	byToken map[string]uint64
}

func (f *fakeStandingTokens) FindUserByQRToken(_ context.Context, token string) (uint64, error) {
	if id, ok := f.byToken[token]; ok {
		return id, nil
	}
	return 0, repository.ErrUserNotFound
}
