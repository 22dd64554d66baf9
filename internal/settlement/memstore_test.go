package settlement

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"consultpay/internal/availability"
	"consultpay/internal/booking"
	"consultpay/internal/consultant"
	"consultpay/internal/payment"
	"consultpay/internal/wallet"
)

// memStore is a transactional in-memory stand-in for PostgreSQL. Transactions
// are serialised and rolled back by restoring a snapshot, which gives the
// same isolation the row locks provide in production.
type memStore struct {
	txMu   sync.Mutex
	dataMu sync.Mutex

	bookings map[int64]booking.Booking
	wallets  map[int64]wallet.Wallet
	txs      []wallet.Transaction

	consultants map[int64]consultant.Consultant
	pricings    map[int64]consultant.Pricing
	blocked     map[string]bool

	nextBooking int64
	nextWallet  int64
	nextTx      int64
	seq         int64

	// saveErr makes every wallet balance write fail.
	saveErr error
}

type snapshot struct {
	bookings map[int64]booking.Booking
	wallets  map[int64]wallet.Wallet
	txs      []wallet.Transaction
}

func newMemStore() *memStore {
	return &memStore{
		bookings:    map[int64]booking.Booking{},
		wallets:     map[int64]wallet.Wallet{},
		consultants: map[int64]consultant.Consultant{},
		pricings:    map[int64]consultant.Pricing{},
		blocked:     map[string]bool{},
	}
}

func (s *memStore) InTx(ctx context.Context, fn func(q sqlx.ExtContext) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(nil); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) snapshot() snapshot {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()

	snap := snapshot{
		bookings: make(map[int64]booking.Booking, len(s.bookings)),
		wallets:  make(map[int64]wallet.Wallet, len(s.wallets)),
		txs:      append([]wallet.Transaction(nil), s.txs...),
	}
	for k, v := range s.bookings {
		snap.bookings[k] = v
	}
	for k, v := range s.wallets {
		snap.wallets[k] = v
	}
	return snap
}

func (s *memStore) restore(snap snapshot) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()

	s.bookings = snap.bookings
	s.wallets = snap.wallets
	s.txs = snap.txs
}

func (s *memStore) addConsultant(c consultant.Consultant) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.consultants[c.ID] = c
}

func (s *memStore) addPricing(p consultant.Pricing) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.pricings[p.ID] = p
}

func (s *memStore) block(consultantID int64, date, slotTime string) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.blocked[slotKey(consultantID, date, slotTime)] = true
}

// corruptBalance changes a wallet without writing a ledger row.
func (s *memStore) corruptBalance(consultantID, delta int64) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	w := s.wallets[consultantID]
	w.Balance += delta
	s.wallets[consultantID] = w
}

func (s *memStore) walletOf(consultantID int64) wallet.Wallet {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return s.wallets[consultantID]
}

func (s *memStore) ledger(walletID int64) []wallet.Transaction {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	var out []wallet.Transaction
	for _, t := range s.txs {
		if t.WalletID == walletID {
			out = append(out, t)
		}
	}
	return out
}

func (s *memStore) bookingOf(id int64) booking.Booking {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return s.bookings[id]
}

func slotKey(consultantID int64, date, slotTime string) string {
	return fmt.Sprintf("%d|%s|%s", consultantID, date, slotTime)
}

func holdsSlot(status booking.Status) bool {
	for _, s := range availability.BlockingStatuses {
		if string(status) == s {
			return true
		}
	}
	return false
}

// bookingRepo

type memBookings struct{ s *memStore }

func (r memBookings) Create(ctx context.Context, q sqlx.ExtContext, nb booking.NewBooking) (*booking.Booking, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	for _, b := range r.s.bookings {
		if b.ConsultantID == nb.ConsultantID && b.Date() == nb.BookingDate && b.BookingTime == nb.BookingTime && holdsSlot(b.Status) {
			return nil, booking.ErrSlotTaken
		}
	}

	date, err := time.Parse(booking.DateLayout, nb.BookingDate)
	if err != nil {
		return nil, err
	}

	r.s.nextBooking++
	now := time.Now()
	b := booking.Booking{
		ID:            r.s.nextBooking,
		ClientName:    nb.ClientName,
		ClientEmail:   nb.ClientEmail,
		ClientPhone:   nb.ClientPhone,
		ConsultantID:  nb.ConsultantID,
		PricingID:     nb.PricingID,
		BookingDate:   date,
		BookingTime:   nb.BookingTime,
		Timezone:      nb.Timezone,
		Amount:        nb.Amount,
		Currency:      nb.Currency,
		Status:        booking.StatusPending,
		PaymentStatus: booking.PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.s.bookings[b.ID] = b
	return &b, nil
}

func (r memBookings) GetByID(ctx context.Context, q sqlx.ExtContext, id int64) (*booking.Booking, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	return &b, nil
}

func (r memBookings) GetForUpdate(ctx context.Context, q sqlx.ExtContext, id int64) (*booking.Booking, error) {
	return r.GetByID(ctx, q, id)
}

func (r memBookings) Update(ctx context.Context, q sqlx.ExtContext, id int64, p booking.Patch) (*booking.Booking, error) {
	if p.IsEmpty() {
		return nil, booking.ErrEmptyPatch
	}

	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.PaymentStatus != nil {
		b.PaymentStatus = *p.PaymentStatus
	}
	if p.GatewaySessionID != nil {
		b.GatewaySessionID = p.GatewaySessionID
	}
	if p.GatewayChargeID != nil {
		b.GatewayChargeID = p.GatewayChargeID
	}
	if p.ValidationNote != nil {
		b.ValidationNote = p.ValidationNote
	}
	if p.CancelReason != nil {
		b.CancelReason = p.CancelReason
	}
	b.UpdatedAt = time.Now()
	r.s.bookings[id] = b
	return &b, nil
}

func (r memBookings) List(ctx context.Context, q sqlx.ExtContext, f booking.ListFilter) ([]booking.Booking, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	out := []booking.Booking{}
	for _, b := range r.s.bookings {
		if f.ConsultantID != 0 && b.ConsultantID != f.ConsultantID {
			continue
		}
		if f.Status != nil && b.Status != *f.Status {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// walletRepo

type memWallets struct{ s *memStore }

func (r memWallets) LockForConsultant(ctx context.Context, q sqlx.ExtContext, consultantID int64, currency string) (*wallet.Wallet, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	w, ok := r.s.wallets[consultantID]
	if !ok {
		r.s.nextWallet++
		w = wallet.Wallet{ID: r.s.nextWallet, ConsultantID: consultantID, Currency: currency, IsActive: true, CreatedAt: time.Now()}
		r.s.wallets[consultantID] = w
	}
	return &w, nil
}

func (r memWallets) GetForUpdate(ctx context.Context, q sqlx.ExtContext, consultantID int64) (*wallet.Wallet, error) {
	return r.GetByConsultant(ctx, q, consultantID)
}

func (r memWallets) GetByConsultant(ctx context.Context, q sqlx.ExtContext, consultantID int64) (*wallet.Wallet, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	w, ok := r.s.wallets[consultantID]
	if !ok {
		return nil, wallet.ErrNotFound
	}
	return &w, nil
}

func (r memWallets) SaveBalances(ctx context.Context, q sqlx.ExtContext, w *wallet.Wallet) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	if r.s.saveErr != nil {
		return r.s.saveErr
	}
	if w.Balance < 0 || w.PendingBalance < 0 {
		return errors.New("check constraint violated")
	}
	cur, ok := r.s.wallets[w.ConsultantID]
	if !ok || cur.ID != w.ID {
		return wallet.ErrNotFound
	}
	cur.Balance = w.Balance
	cur.PendingBalance = w.PendingBalance
	cur.TotalEarnings = w.TotalEarnings
	cur.UpdatedAt = time.Now()
	r.s.wallets[w.ConsultantID] = cur
	return nil
}

func (r memWallets) Append(ctx context.Context, q sqlx.ExtContext, t *wallet.Transaction) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	r.s.nextTx++
	t.ID = r.s.nextTx
	t.CreatedAt = time.Now()
	if len(t.Metadata) == 0 {
		t.Metadata = wallet.Metadata(nil)
	}
	if t.Type.TouchesBalance() {
		r.s.seq++
		seq := r.s.seq
		t.AppliedSeq = &seq
	}
	r.s.txs = append(r.s.txs, *t)
	return nil
}

func (r memWallets) PendingForBooking(ctx context.Context, q sqlx.ExtContext, bookingID int64) (*wallet.Transaction, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	for _, t := range r.s.txs {
		if t.BookingID != nil && *t.BookingID == bookingID && t.Type == wallet.TypePending && t.Amount > 0 {
			return &t, nil
		}
	}
	return nil, wallet.ErrTransactionNotFound
}

func (r memWallets) Promote(ctx context.Context, q sqlx.ExtContext, id, balanceAfter int64) (*wallet.Transaction, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	for i := range r.s.txs {
		t := &r.s.txs[i]
		if t.ID != id {
			continue
		}
		if t.Type != wallet.TypePending {
			return nil, wallet.ErrAlreadyPromoted
		}
		r.s.seq++
		seq := r.s.seq
		t.Type = wallet.TypeCredit
		t.BalanceAfter = balanceAfter
		t.AppliedSeq = &seq
		out := *t
		return &out, nil
	}
	return nil, wallet.ErrAlreadyPromoted
}

func (r memWallets) LastBalanceAfter(ctx context.Context, q sqlx.ExtContext, walletID int64) (int64, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	var (
		best    int64
		balance int64
	)
	for _, t := range r.s.txs {
		if t.WalletID == walletID && t.AppliedSeq != nil && *t.AppliedSeq > best {
			best = *t.AppliedSeq
			balance = t.BalanceAfter
		}
	}
	return balance, nil
}

func (r memWallets) ListTransactions(ctx context.Context, q sqlx.ExtContext, walletID int64, limit, offset int) ([]wallet.Transaction, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	out := []wallet.Transaction{}
	for i := len(r.s.txs) - 1; i >= 0; i-- {
		if r.s.txs[i].WalletID == walletID {
			out = append(out, r.s.txs[i])
		}
	}
	if offset >= len(out) {
		return []wallet.Transaction{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r memWallets) Ledger(ctx context.Context, q sqlx.ExtContext, walletID int64) ([]wallet.Transaction, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	out := []wallet.Transaction{}
	for _, t := range r.s.txs {
		if t.WalletID == walletID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].AppliedSeq, out[j].AppliedSeq
		switch {
		case a != nil && b != nil:
			return *a < *b
		case a != nil:
			return true
		case b != nil:
			return false
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r memWallets) ConsultantIDs(ctx context.Context, q sqlx.ExtContext) ([]int64, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	ids := []int64{}
	for id := range r.s.wallets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// consultant directory and availability

type memConsultants struct{ s *memStore }

func (r memConsultants) GetByID(ctx context.Context, id int64) (*consultant.Consultant, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	c, ok := r.s.consultants[id]
	if !ok {
		return nil, consultant.ErrNotFound
	}
	return &c, nil
}

func (r memConsultants) GetPricing(ctx context.Context, id int64) (*consultant.Pricing, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	p, ok := r.s.pricings[id]
	if !ok {
		return nil, consultant.ErrPricingNotFound
	}
	return &p, nil
}

type memAvailability struct{ s *memStore }

func (r memAvailability) IsSlotBlocked(ctx context.Context, consultantID int64, date, slotTime string) (bool, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	return r.s.blocked[slotKey(consultantID, date, slotTime)], nil
}

func (r memAvailability) HasConflictingBooking(ctx context.Context, consultantID int64, date, slotTime string) (bool, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	for _, b := range r.s.bookings {
		if b.ConsultantID == consultantID && b.Date() == date && b.BookingTime == slotTime && holdsSlot(b.Status) {
			return true, nil
		}
	}
	return false, nil
}

func (r memAvailability) GetDay(ctx context.Context, consultantID int64, date string) (*availability.DayAvailability, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	day := &availability.DayAvailability{
		ConsultantID: consultantID,
		Date:         date,
		BlockedSlots: []availability.BlockedSlot{},
		TakenTimes:   []string{},
	}
	for _, b := range r.s.bookings {
		if b.ConsultantID == consultantID && b.Date() == date && holdsSlot(b.Status) {
			day.TakenTimes = append(day.TakenTimes, b.BookingTime)
		}
	}
	sort.Strings(day.TakenTimes)
	return day, nil
}

// collaborators

type fakeGateway struct {
	mu          sync.Mutex
	transferErr error
	checkoutErr error
	transfers   []payment.TransferRequest
	sessions    int
}

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.checkoutErr != nil {
		return nil, g.checkoutErr
	}
	g.sessions++
	id := fmt.Sprintf("cs_%d", g.sessions)
	return &payment.CheckoutSession{ID: id, URL: "https://pay.test/" + id}, nil
}

func (g *fakeGateway) CreateTransfer(ctx context.Context, req payment.TransferRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.transferErr != nil {
		return "", g.transferErr
	}
	g.transfers = append(g.transfers, req)
	return fmt.Sprintf("tr_%d", len(g.transfers)), nil
}

type sentOutcome struct {
	BookingID int64
	Outcome   Outcome
}

type fakeNotifier struct {
	mu          sync.Mutex
	outcomes    []sentOutcome
	withdrawals []int64
}

func (n *fakeNotifier) NotifyBookingOutcome(ctx context.Context, b *booking.Booking, outcome Outcome) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.outcomes = append(n.outcomes, sentOutcome{BookingID: b.ID, Outcome: outcome})
	return nil
}

func (n *fakeNotifier) NotifyWithdrawal(ctx context.Context, consultantID int64, tx *wallet.Transaction) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.withdrawals = append(n.withdrawals, tx.ID)
	return nil
}

func (n *fakeNotifier) sent() []sentOutcome {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentOutcome(nil), n.outcomes...)
}

var testNow = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

const (
	testConsultant     = int64(3)
	inactiveConsultant = int64(4)
	otherConsultant    = int64(5)
	testPricing        = int64(11)
	foreignPricing     = int64(12)
)

type harness struct {
	engine   *Engine
	store    *memStore
	gateway  *fakeGateway
	notifier *fakeNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := newMemStore()
	payout := "acct_consultant_3"
	store.addConsultant(consultant.Consultant{ID: testConsultant, Name: "Dana Consultant", Email: "dana@example.com", PayoutAccount: &payout, IsActive: true})
	store.addConsultant(consultant.Consultant{ID: inactiveConsultant, Name: "Idle", Email: "idle@example.com", IsActive: false})
	store.addConsultant(consultant.Consultant{ID: otherConsultant, Name: "No Payout", Email: "nopayout@example.com", IsActive: true})
	store.addPricing(consultant.Pricing{ID: testPricing, ConsultantID: testConsultant, Title: "Strategy session", Amount: 15000, Currency: "EUR", DurationMinutes: 60})
	store.addPricing(consultant.Pricing{ID: foreignPricing, ConsultantID: otherConsultant, Title: "Other", Amount: 9000, Currency: "EUR", DurationMinutes: 30})

	gw := &fakeGateway{}
	notifier := &fakeNotifier{}

	engine := NewEngine(Deps{
		Tx:           store,
		Bookings:     memBookings{store},
		Wallets:      memWallets{store},
		Consultants:  memConsultants{store},
		Availability: memAvailability{store},
		Gateway:      gw,
		Notifier:     notifier,
	}, Options{
		DefaultCurrency:    "EUR",
		CheckoutSuccessURL: "https://consultpay.test/success",
		CheckoutCancelURL:  "https://consultpay.test/cancel",
	})
	engine.now = func() time.Time { return testNow }

	return &harness{engine: engine, store: store, gateway: gw, notifier: notifier}
}

func bookingInput(slotTime string, amount int64) CreateBookingInput {
	return CreateBookingInput{
		ClientName:   "Ana Client",
		ClientEmail:  "ana@example.com",
		ConsultantID: testConsultant,
		Date:         "2026-11-02",
		Time:         slotTime,
		Timezone:     "Europe/Berlin",
		Amount:       amount,
		Currency:     "EUR",
	}
}

// assertLedger checks both conservation sums and the snapshot chain for
// the consultant's wallet.
func (h *harness) assertLedger(t *testing.T, consultantID int64) wallet.Wallet {
	t.Helper()

	w := h.store.walletOf(consultantID)
	var balance, pending int64
	for _, tx := range h.store.ledger(w.ID) {
		if tx.Type.TouchesBalance() {
			balance += tx.Amount
		} else {
			pending += tx.Amount
		}
	}
	if balance != w.Balance {
		t.Fatalf("balance conservation broken: ledger %d, wallet %d", balance, w.Balance)
	}
	if pending != w.PendingBalance {
		t.Fatalf("pending conservation broken: ledger %d, wallet %d", pending, w.PendingBalance)
	}
	if w.Balance < 0 || w.PendingBalance < 0 {
		t.Fatalf("negative wallet: %+v", w)
	}

	audit, err := h.engine.ReconcileWallet(context.Background(), consultantID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !audit.Consistent {
		t.Fatalf("ledger drift: %+v", audit.Drifts)
	}
	return w
}
