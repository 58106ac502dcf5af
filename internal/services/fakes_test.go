package services

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/escrow-marketplace/backend/internal/amount"
	"github.com/escrow-marketplace/backend/internal/events"
	"github.com/escrow-marketplace/backend/internal/models"
	"github.com/escrow-marketplace/backend/internal/repositories"
)

// In-memory doubles for the store interfaces. They mirror the transactional
// behavior of the Postgres repos: a failed transfer leaves deal status and
// balances untouched.

type fakeLedger struct {
	mu         sync.Mutex
	balances   map[string]*big.Rat // "addr/sym"
	allowances map[string]*big.Rat // "owner/spender/sym"
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balances:   make(map[string]*big.Rat),
		allowances: make(map[string]*big.Rat),
	}
}

func quoteVal(v int64) *big.Int { return big.NewInt(v) }

func balKey(addr, sym string) string { return addr + "/" + sym }

func allowKey(owner, spender, sym string) string { return owner + "/" + spender + "/" + sym }

func (l *fakeLedger) get(m map[string]*big.Rat, key string) *big.Rat {
	if r, ok := m[key]; ok {
		return r
	}
	r := new(big.Rat)
	m[key] = r
	return r
}

func (l *fakeLedger) setBalance(addr, sym, value string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, _ := amount.Parse(value)
	l.balances[balKey(addr, sym)] = r
}

func (l *fakeLedger) addBalance(addr, sym, value string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, _ := amount.Parse(value)
	r := l.get(l.balances, balKey(addr, sym))
	r.Add(r, v)
}

func (l *fakeLedger) balance(addr, sym string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return amount.Format(l.get(l.balances, balKey(addr, sym)), 18)
}

func (l *fakeLedger) setAllowance(owner, spender, sym, value string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, _ := amount.Parse(value)
	l.allowances[allowKey(owner, spender, sym)] = r
}

func (l *fakeLedger) allowance(owner, spender, sym string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return amount.Format(l.get(l.allowances, allowKey(owner, spender, sym)), 18)
}

// transfer moves value between balances, failing without side effects when
// the source is short.
func (l *fakeLedger) transfer(from, to, sym, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, err := amount.Parse(value)
	if err != nil {
		return err
	}
	src := l.get(l.balances, balKey(from, sym))
	if src.Cmp(v) < 0 {
		return fmt.Errorf("balance of %s below %s %s: %w", from, value, sym, models.ErrTransferFailed)
	}
	src.Sub(src, v)
	dst := l.get(l.balances, balKey(to, sym))
	dst.Add(dst, v)
	return nil
}

func (l *fakeLedger) addAllowance(owner, spender, sym, value string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, _ := amount.Parse(value)
	a := l.get(l.allowances, allowKey(owner, spender, sym))
	a.Add(a, v)
}

func (l *fakeLedger) consumeAllowance(owner, spender, sym, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, err := amount.Parse(value)
	if err != nil {
		return err
	}
	a := l.get(l.allowances, allowKey(owner, spender, sym))
	if a.Cmp(v) < 0 {
		return fmt.Errorf("allowance %s/%s below %s %s: %w", owner, spender, value, sym, models.ErrTransferFailed)
	}
	a.Sub(a, v)
	return nil
}

type fakeDealStore struct {
	mu     sync.Mutex
	nextID int64
	deals  map[int64]*models.Deal
	ledger *fakeLedger
}

func newFakeDealStore(ledger *fakeLedger) *fakeDealStore {
	return &fakeDealStore{nextID: 1, deals: make(map[int64]*models.Deal), ledger: ledger}
}

func (s *fakeDealStore) Create(_ context.Context, d *models.Deal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = s.nextID
	s.nextID++
	d.PaidAmount = "0"
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	cp := *d
	s.deals[d.ID] = &cp
	return nil
}

func (s *fakeDealStore) GetByID(_ context.Context, id int64) (*models.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deals[id]
	if !ok {
		return nil, models.ErrDealNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *fakeDealStore) List(_ context.Context, f repositories.DealFilter) ([]models.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Deal
	for id := s.nextID - 1; id >= 1; id-- {
		d, ok := s.deals[id]
		if !ok {
			continue
		}
		if f.Status != nil && d.Status != *f.Status {
			continue
		}
		if f.SenderAddress != nil && d.SenderAddress != *f.SenderAddress {
			continue
		}
		if f.ReceiverAddress != nil && d.ReceiverAddress != *f.ReceiverAddress {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (s *fakeDealStore) markPaid(id int64, paid string) (*models.Deal, error) {
	d, ok := s.deals[id]
	if !ok || d.Status != models.DealStatusCreated {
		return nil, models.ErrInvalidState
	}
	d.Status = models.DealStatusPaid
	d.PaidAmount = paid
	d.UpdatedAt = time.Now()
	return d, nil
}

func (s *fakeDealStore) PayNative(_ context.Context, dealID int64, sender, escrowAddr, symbol, amt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ledger.transfer(sender, escrowAddr, symbol, amt); err != nil {
		return err
	}
	if _, err := s.markPaid(dealID, amt); err != nil {
		// Roll the transfer back, like the SQL transaction would.
		_ = s.ledger.transfer(escrowAddr, sender, symbol, amt)
		return err
	}
	return nil
}

func (s *fakeDealStore) PayFungible(_ context.Context, dealID int64, sender, escrowAddr, symbol, amt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ledger.consumeAllowance(sender, escrowAddr, symbol, amt); err != nil {
		return err
	}
	if err := s.ledger.transfer(sender, escrowAddr, symbol, amt); err != nil {
		s.ledger.addAllowance(sender, escrowAddr, symbol, amt) // restore
		return err
	}
	if _, err := s.markPaid(dealID, amt); err != nil {
		_ = s.ledger.transfer(escrowAddr, sender, symbol, amt)
		return err
	}
	return nil
}

func (s *fakeDealStore) Finalize(_ context.Context, dealID int64, escrowAddr, receiver, symbol, amt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deals[dealID]
	if !ok || d.Status != models.DealStatusPaid {
		return models.ErrInvalidState
	}
	if err := s.ledger.transfer(escrowAddr, receiver, symbol, amt); err != nil {
		return err
	}
	d.Status = models.DealStatusFinalized
	d.UpdatedAt = time.Now()
	return nil
}

func (s *fakeDealStore) Cancel(_ context.Context, dealID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deals[dealID]
	if !ok || d.Status != models.DealStatusCreated {
		return models.ErrInvalidState
	}
	d.Status = models.DealStatusCancelled
	d.UpdatedAt = time.Now()
	return nil
}

type fakeTokenStore struct {
	mu     sync.Mutex
	tokens map[string]models.TokenEntry
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: make(map[string]models.TokenEntry)}
}

func (s *fakeTokenStore) Add(_ context.Context, t *models.TokenEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[t.Symbol]; ok {
		return models.ErrDuplicateToken
	}
	t.CreatedAt = time.Now()
	s.tokens[t.Symbol] = *t
	return nil
}

func (s *fakeTokenStore) Get(_ context.Context, symbol string) (*models.TokenEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[symbol]
	if !ok {
		return nil, models.ErrUnknownToken
	}
	return &t, nil
}

func (s *fakeTokenStore) List(_ context.Context) ([]models.TokenEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.TokenEntry
	for _, t := range s.tokens {
		out = append(out, t)
	}
	return out, nil
}

type fakeRoleStore struct {
	mu    sync.Mutex
	roles map[string]map[string]bool // address -> role set
}

func newFakeRoleStore() *fakeRoleStore {
	return &fakeRoleStore{roles: make(map[string]map[string]bool)}
}

func (s *fakeRoleStore) HasRole(_ context.Context, address, role string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roles[address][role], nil
}

func (s *fakeRoleStore) Grant(_ context.Context, address, role, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roles[address] == nil {
		s.roles[address] = make(map[string]bool)
	}
	s.roles[address][role] = true
	return nil
}

func (s *fakeRoleStore) ListByAddress(_ context.Context, address string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for r := range s.roles[address] {
		out = append(out, r)
	}
	return out, nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (a *fakeAudit) Log(_ context.Context, entry models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return nil
}

func (a *fakeAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []string
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *fakePublisher) Publish(_ context.Context, _ string, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
