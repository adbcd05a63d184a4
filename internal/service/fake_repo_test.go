package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	apperrors "github.com/ealicense/license-server-go/internal/errors"
	"github.com/ealicense/license-server-go/internal/model"
)

// memoryRepo is an in-memory LicenseRepository with the same per-call
// atomicity as the SQL store.
type memoryRepo struct {
	mu      sync.Mutex
	records map[int64]model.LicenseRecord
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{records: make(map[int64]model.LicenseRecord)}
}

func (r *memoryRepo) put(rec model.LicenseRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.AccountNumber] = rec
}

func (r *memoryRepo) get(accountNumber int64) (model.LicenseRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[accountNumber]
	return rec, ok
}

func (r *memoryRepo) FindByAccount(ctx context.Context, accountNumber int64) (*model.LicenseRecord, error) {
	rec, ok := r.get(accountNumber)
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *memoryRepo) FindAll(ctx context.Context) ([]model.LicenseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]model.LicenseRecord, 0, len(r.records))
	for _, rec := range r.records {
		all = append(all, rec)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return all, nil
}

func (r *memoryRepo) Create(ctx context.Context, p model.CreateLicenseParams) (*model.LicenseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[p.AccountNumber]; exists {
		return nil, apperrors.DuplicateKey("License")
	}
	rec := model.LicenseRecord{
		AccountNumber:    p.AccountNumber,
		AccountName:      p.AccountName,
		BrokerName:       p.BrokerName,
		ServerName:       p.ServerName,
		AccountCurrency:  p.AccountCurrency,
		AccountBalance:   p.AccountBalance,
		AccountLeverage:  p.AccountLeverage,
		AccountType:      p.AccountType,
		EAName:           p.EAName,
		EAVersion:        p.EAVersion,
		MT5Build:         p.MT5Build,
		SubscriptionType: p.SubscriptionType,
		Status:           p.Status,
		ExpiresAt:        p.ExpiresAt,
		LicenseKey:       p.LicenseKey,
		CreatedAt:        p.Now,
		UpdatedAt:        p.Now,
		LastSeen:         p.Now,
		ValidationCount:  1,
		ClientIP:         p.ClientIP,
	}
	r.records[p.AccountNumber] = rec
	return &rec, nil
}

func (r *memoryRepo) Update(ctx context.Context, accountNumber int64, p model.UpdateLicenseParams) (*model.LicenseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[accountNumber]
	if !ok {
		return nil, apperrors.NotFound("License")
	}
	assign(&rec.AccountName, p.AccountName)
	assign(&rec.BrokerName, p.BrokerName)
	assign(&rec.ServerName, p.ServerName)
	assign(&rec.AccountCurrency, p.AccountCurrency)
	assign(&rec.AccountBalance, p.AccountBalance)
	assign(&rec.AccountLeverage, p.AccountLeverage)
	assign(&rec.AccountType, p.AccountType)
	assign(&rec.EAName, p.EAName)
	assign(&rec.EAVersion, p.EAVersion)
	assign(&rec.SubscriptionType, p.SubscriptionType)
	assign(&rec.Status, p.Status)
	assign(&rec.ExpiresAt, p.ExpiresAt)
	assign(&rec.ClientIP, p.ClientIP)
	assign(&rec.LastSeen, p.LastSeen)
	if p.MT5Build != nil {
		rec.MT5Build = p.MT5Build
	}
	if p.IncrementValidations {
		rec.ValidationCount++
	}
	rec.UpdatedAt = p.Now
	r.records[accountNumber] = rec
	return &rec, nil
}

func (r *memoryRepo) SetStatus(ctx context.Context, accountNumber int64, status model.LicenseStatus, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[accountNumber]
	if !ok {
		return apperrors.NotFound("License")
	}
	rec.Status = status
	rec.UpdatedAt = now
	r.records[accountNumber] = rec
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, accountNumber int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[accountNumber]; !ok {
		return apperrors.NotFound("License")
	}
	delete(r.records, accountNumber)
	return nil
}

func (r *memoryRepo) Stats(ctx context.Context) (*model.LicenseStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var s model.LicenseStats
	for _, rec := range r.records {
		s.TotalUsers++
		if strings.Contains(string(rec.SubscriptionType), "trial") {
			s.TrialUsers++
		} else {
			s.PaidUsers++
		}
		switch rec.Status {
		case model.StatusActive, model.StatusTrial:
			s.ActiveUsers++
		case model.StatusPaused:
			s.PausedUsers++
		case model.StatusPending:
			s.PendingApprovals++
		case model.StatusSuspended:
			s.SuspendedUsers++
		case model.StatusExpired:
			s.ExpiredUsers++
		}
	}
	return &s, nil
}

func assign[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// staleReadRepo misses the first lookup of an account that already exists,
// reproducing the loser of a concurrent first check-in.
type staleReadRepo struct {
	*memoryRepo
	once sync.Once
}

func (r *staleReadRepo) FindByAccount(ctx context.Context, accountNumber int64) (*model.LicenseRecord, error) {
	stale := false
	r.once.Do(func() { stale = true })
	if stale {
		return nil, nil
	}
	return r.memoryRepo.FindByAccount(ctx, accountNumber)
}

type mockLicenseRepo struct {
	mock.Mock
}

func (m *mockLicenseRepo) FindByAccount(ctx context.Context, accountNumber int64) (*model.LicenseRecord, error) {
	args := m.Called(ctx, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LicenseRecord), args.Error(1)
}

func (m *mockLicenseRepo) FindAll(ctx context.Context) ([]model.LicenseRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LicenseRecord), args.Error(1)
}

func (m *mockLicenseRepo) Create(ctx context.Context, params model.CreateLicenseParams) (*model.LicenseRecord, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LicenseRecord), args.Error(1)
}

func (m *mockLicenseRepo) Update(ctx context.Context, accountNumber int64, params model.UpdateLicenseParams) (*model.LicenseRecord, error) {
	args := m.Called(ctx, accountNumber, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LicenseRecord), args.Error(1)
}

func (m *mockLicenseRepo) SetStatus(ctx context.Context, accountNumber int64, status model.LicenseStatus, now time.Time) error {
	args := m.Called(ctx, accountNumber, status, now)
	return args.Error(0)
}

func (m *mockLicenseRepo) Delete(ctx context.Context, accountNumber int64) error {
	args := m.Called(ctx, accountNumber)
	return args.Error(0)
}

func (m *mockLicenseRepo) Stats(ctx context.Context) (*model.LicenseStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LicenseStats), args.Error(1)
}
