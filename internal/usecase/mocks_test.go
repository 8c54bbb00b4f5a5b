// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"io"
	"sync"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"voicebridge/internal/domain"
	"voicebridge/internal/domain/model"
	"voicebridge/internal/domain/ports/adapter"
	"voicebridge/internal/domain/ports/repository"
)

// ---------------- credit accounts ----------------

type memAccountRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.CreditAccount
	saveErr error
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{store: make(map[string]*model.CreditAccount)}
}

var _ repository.CreditAccountRepository = (*memAccountRepo)(nil)

func (m *memAccountRepo) Save(ctx context.Context, tx repository.Tx, a *model.CreditAccount) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.store[a.UserID] = &cp
	return nil
}

func (m *memAccountRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.CreditAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.store[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAccountRepo) CountAccounts(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store), nil
}

// delete simulates an account wipe, used by trial-grant tests.
func (m *memAccountRepo) delete(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, userID)
}

// ---------------- trial markers ----------------

type memTrialRepo struct {
	mu    sync.RWMutex
	store map[string]*model.TrialMarker
}

func newMemTrialRepo() *memTrialRepo {
	return &memTrialRepo{store: make(map[string]*model.TrialMarker)}
}

var _ repository.TrialMarkerRepository = (*memTrialRepo)(nil)

func (m *memTrialRepo) Create(ctx context.Context, tx repository.Tx, marker *model.TrialMarker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[marker.UserHash]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *marker
	m.store[marker.UserHash] = &cp
	return nil
}

func (m *memTrialRepo) Exists(ctx context.Context, tx repository.Tx, userHash string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.store[userHash]
	return ok, nil
}

// ---------------- roles ----------------

type memRoleRepo struct {
	mu    sync.RWMutex
	store map[string]map[model.Role]bool // userID -> roles
}

func newMemRoleRepo() *memRoleRepo {
	return &memRoleRepo{store: make(map[string]map[model.Role]bool)}
}

var _ repository.RoleRepository = (*memRoleRepo)(nil)

func (m *memRoleRepo) AddRole(ctx context.Context, tx repository.Tx, userID string, role model.Role, addedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store[userID] == nil {
		m.store[userID] = make(map[model.Role]bool)
	}
	m.store[userID][role] = true
	return nil
}

func (m *memRoleRepo) RemoveRole(ctx context.Context, tx repository.Tx, userID string, role model.Role) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.store[userID][role] {
		return false, nil
	}
	delete(m.store[userID], role)
	return true, nil
}

func (m *memRoleRepo) ListByRole(ctx context.Context, tx repository.Tx, role model.Role) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for id, roles := range m.store {
		if roles[role] {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *memRoleRepo) HasRole(ctx context.Context, tx repository.Tx, userID string, role model.Role) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store[userID][role], nil
}

// ---------------- monthly stats ----------------

type memStatsRepo struct {
	mu    sync.RWMutex
	store map[string]*model.MonthlyStats
}

func newMemStatsRepo() *memStatsRepo {
	return &memStatsRepo{store: make(map[string]*model.MonthlyStats)}
}

var _ repository.MonthlyStatsRepository = (*memStatsRepo)(nil)

func (m *memStatsRepo) Add(ctx context.Context, tx repository.Tx, month string, delta model.MonthlyStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.store[month]
	if !ok {
		st = &model.MonthlyStats{Month: month}
		m.store[month] = st
	}
	st.Transcriptions += delta.Transcriptions
	st.Payments += delta.Payments
	st.CreditsSold += delta.CreditsSold
	st.WitAudioSeconds += delta.WitAudioSeconds
	st.GroqAudioSeconds += delta.GroqAudioSeconds
	return nil
}

func (m *memStatsRepo) FindByMonth(ctx context.Context, tx repository.Tx, month string) (*model.MonthlyStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.store[month]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

// ---------------- per-user usage ----------------

type memUserUsageRepo struct {
	mu    sync.RWMutex
	store map[string]*model.UserMonthlyUsage // userID|month
}

func newMemUserUsageRepo() *memUserUsageRepo {
	return &memUserUsageRepo{store: make(map[string]*model.UserMonthlyUsage)}
}

var _ repository.UserUsageRepository = (*memUserUsageRepo)(nil)

func (m *memUserUsageRepo) Add(ctx context.Context, tx repository.Tx, u *model.UserMonthlyUsage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := u.UserID + "|" + u.Month
	cur, ok := m.store[key]
	if !ok {
		cp := *u
		m.store[key] = &cp
		return nil
	}
	cur.Transcriptions += u.Transcriptions
	cur.AudioSeconds += u.AudioSeconds
	cur.FreeTokens += u.FreeTokens
	cur.PurchasedTokens += u.PurchasedTokens
	return nil
}

func (m *memUserUsageRepo) FindByUserAndMonth(ctx context.Context, tx repository.Tx, userID, month string) (*model.UserMonthlyUsage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[userID+"|"+month]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserUsageRepo) ListByMonth(ctx context.Context, tx repository.Tx, month string) ([]*model.UserMonthlyUsage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.UserMonthlyUsage
	for _, u := range m.store {
		if u.Month == month {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---------------- wit usage ----------------

type memWitUsageRepo struct {
	mu    sync.RWMutex
	store map[string]int // month|language
}

func newMemWitUsageRepo() *memWitUsageRepo {
	return &memWitUsageRepo{store: make(map[string]int)}
}

var _ repository.WitUsageRepository = (*memWitUsageRepo)(nil)

func (m *memWitUsageRepo) Increment(ctx context.Context, tx repository.Tx, month, language string, count int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := month + "|" + language
	m.store[key] += count
	return m.store[key], nil
}

func (m *memWitUsageRepo) Get(ctx context.Context, tx repository.Tx, month, language string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store[month+"|"+language], nil
}

func (m *memWitUsageRepo) Snapshot(ctx context.Context, tx repository.Tx, month string) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int)
	for key, n := range m.store {
		if len(key) > len(month) && key[:len(month)] == month {
			out[key[len(month)+1:]] = n
		}
	}
	return out, nil
}

// ---------------- alert flags ----------------

type memAlertRepo struct {
	mu    sync.RWMutex
	store map[string]bool // alertType|month
}

func newMemAlertRepo() *memAlertRepo {
	return &memAlertRepo{store: make(map[string]bool)}
}

var _ repository.AlertFlagRepository = (*memAlertRepo)(nil)

func (m *memAlertRepo) Create(ctx context.Context, tx repository.Tx, f *model.AlertFlag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := f.AlertType + "|" + f.Month
	if m.store[key] {
		return domain.ErrAlreadyExists
	}
	m.store[key] = true
	return nil
}

func (m *memAlertRepo) Exists(ctx context.Context, tx repository.Tx, alertType, month string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store[alertType+"|"+month], nil
}

// ---------------- account links ----------------

type memLinkRepo struct {
	mu    sync.RWMutex
	store map[string]*model.AccountLink // by ID
}

func newMemLinkRepo() *memLinkRepo {
	return &memLinkRepo{store: make(map[string]*model.AccountLink)}
}

var _ repository.LinkRepository = (*memLinkRepo)(nil)

func (m *memLinkRepo) Save(ctx context.Context, tx repository.Tx, l *model.AccountLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *l
	m.store[l.ID] = &cp
	return nil
}

func (m *memLinkRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, telegramID string) (*model.AccountLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.store {
		if l.TelegramID == telegramID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memLinkRepo) FindByPhone(ctx context.Context, tx repository.Tx, phone string) (*model.AccountLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.store {
		if l.WhatsAppPhone == phone {
			cp := *l
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memLinkRepo) DeleteByEitherSide(ctx context.Context, tx repository.Tx, telegramID, phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, l := range m.store {
		if l.TelegramID == telegramID || l.WhatsAppPhone == phone {
			delete(m.store, id)
		}
	}
	return nil
}

func (m *memLinkRepo) DeleteByTelegramID(ctx context.Context, tx repository.Tx, telegramID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, l := range m.store {
		if l.TelegramID == telegramID {
			delete(m.store, id)
			return true, nil
		}
	}
	return false, nil
}

// ---------------- link codes ----------------

type memLinkCodeRepo struct {
	mu    sync.RWMutex
	store map[string]*model.LinkCode // by code
}

func newMemLinkCodeRepo() *memLinkCodeRepo {
	return &memLinkCodeRepo{store: make(map[string]*model.LinkCode)}
}

var _ repository.LinkCodeRepository = (*memLinkCodeRepo)(nil)

func (m *memLinkCodeRepo) Save(ctx context.Context, tx repository.Tx, c *model.LinkCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.store[c.Code] = &cp
	return nil
}

func (m *memLinkCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.LinkCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.store[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memLinkCodeRepo) DeleteByCode(ctx context.Context, tx repository.Tx, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, code)
	return nil
}

func (m *memLinkCodeRepo) DeleteByTelegramID(ctx context.Context, tx repository.Tx, telegramID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for code, c := range m.store {
		if c.TelegramID == telegramID {
			delete(m.store, code)
		}
	}
	return nil
}

// ---------------- link attempts ----------------

type memLinkAttemptRepo struct {
	mu    sync.RWMutex
	store map[string]*model.LinkAttempt // by phone
}

func newMemLinkAttemptRepo() *memLinkAttemptRepo {
	return &memLinkAttemptRepo{store: make(map[string]*model.LinkAttempt)}
}

var _ repository.LinkAttemptRepository = (*memLinkAttemptRepo)(nil)

func (m *memLinkAttemptRepo) Save(ctx context.Context, tx repository.Tx, a *model.LinkAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.store[a.Phone] = &cp
	return nil
}

func (m *memLinkAttemptRepo) FindByPhone(ctx context.Context, tx repository.Tx, phone string) (*model.LinkAttempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.store[phone]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memLinkAttemptRepo) DeleteByPhone(ctx context.Context, tx repository.Tx, phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, phone)
	return nil
}

// ---------------- transcript cache ----------------

type memTranscriptCache struct {
	mu    sync.RWMutex
	store map[string]string
}

func newMemTranscriptCache() *memTranscriptCache {
	return &memTranscriptCache{store: make(map[string]string)}
}

var _ repository.TranscriptCache = (*memTranscriptCache)(nil)

func (m *memTranscriptCache) Store(ctx context.Context, userID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[userID] = text
	return nil
}

func (m *memTranscriptCache) Get(ctx context.Context, userID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store[userID], nil
}

func (m *memTranscriptCache) Clear(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, userID)
	return nil
}

// ---------------- command limiter ----------------

type mockCommandLimiter struct {
	AllowFunc func(ctx context.Context, userID, command string) (bool, error)
}

var _ repository.CommandLimiter = (*mockCommandLimiter)(nil)

func (m *mockCommandLimiter) Allow(ctx context.Context, userID, command string) (bool, error) {
	if m.AllowFunc != nil {
		return m.AllowFunc(ctx, userID, command)
	}
	return true, nil
}

// ---------------- adapters ----------------

type mockNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

var _ adapter.AdminNotifier = (*mockNotifier)(nil)

func (m *mockNotifier) NotifyAdmins(ctx context.Context, text string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, text)
	return nil
}

func (m *mockNotifier) sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.messages...)
}

type mockTranscriber struct {
	name           string
	configured     bool
	TranscribeFunc func(ctx context.Context, audio adapter.Audio) (string, error)
	calls          int
}

var _ adapter.Transcriber = (*mockTranscriber)(nil)

func (m *mockTranscriber) Name() string     { return m.name }
func (m *mockTranscriber) Configured() bool { return m.configured }

func (m *mockTranscriber) Transcribe(ctx context.Context, audio adapter.Audio) (string, error) {
	m.calls++
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audio)
	}
	return "hello world", nil
}

type mockCompletion struct {
	CompleteFunc func(ctx context.Context, req adapter.CompletionRequest) (string, error)
}

var _ adapter.CompletionService = (*mockCompletion)(nil)

func (m *mockCompletion) Complete(ctx context.Context, req adapter.CompletionRequest) (string, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return "summary text", nil
}

// ---------------- transaction manager ----------------

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn directly with a nil tx. The in-memory repos ignore the
// handle, so transactional use cases exercise their full path.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, nil)
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
