package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saufi-opi/mini-emr/internal/models"
	"github.com/saufi-opi/mini-emr/internal/repository"
	appErrors "github.com/saufi-opi/mini-emr/pkg/errors"
	"github.com/saufi-opi/mini-emr/pkg/query"
)

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type memoryRevocationStore struct {
	mu     sync.Mutex
	keys   map[string]time.Duration
	putErr error
	getErr error
}

func newMemoryRevocationStore() *memoryRevocationStore {
	return &memoryRevocationStore{keys: map[string]time.Duration{}}
}

func (s *memoryRevocationStore) Put(ctx context.Context, key string, ttl time.Duration) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = ttl
	return nil
}

func (s *memoryRevocationStore) Exists(ctx context.Context, key string) (bool, error) {
	if s.getErr != nil {
		return false, s.getErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[key]
	return ok, nil
}

type memoryUserRepo struct {
	users     map[string]*models.User
	err       error
	createErr error
	listQuery models.ListQuery
}

func newMemoryUserRepo(users ...*models.User) *memoryUserRepo {
	repo := &memoryUserRepo{users: map[string]*models.User{}}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *memoryUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *memoryUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	user, ok := r.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *memoryUserRepo) List(ctx context.Context, params models.ListQuery) (*query.Result[models.User], error) {
	if r.err != nil {
		return nil, r.err
	}
	r.listQuery = params
	data := make([]models.User, 0, len(r.users))
	for _, user := range r.users {
		data = append(data, *user)
	}
	sort.Slice(data, func(i, j int) bool { return data[i].Email < data[j].Email })
	return &query.Result[models.User]{Data: data, Count: len(data)}, nil
}

func (r *memoryUserRepo) Create(ctx context.Context, user *models.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	user.ID = uuid.NewString()
	user.CreatedAt = fixedNow
	user.UpdatedAt = fixedNow
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *memoryUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (plainHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return ErrPasswordMismatch
	}
	return nil
}

type memoryDiagnosisRepo struct {
	items     map[string]models.Diagnosis
	listCalls int
	err       error
}

func newMemoryDiagnosisRepo(items ...models.Diagnosis) *memoryDiagnosisRepo {
	repo := &memoryDiagnosisRepo{items: map[string]models.Diagnosis{}}
	for _, item := range items {
		repo.items[item.ID] = item
	}
	return repo
}

func (r *memoryDiagnosisRepo) List(ctx context.Context, params models.ListQuery) (*query.Result[models.Diagnosis], error) {
	r.listCalls++
	if r.err != nil {
		return nil, r.err
	}
	data := make([]models.Diagnosis, 0, len(r.items))
	for _, item := range r.items {
		data = append(data, item)
	}
	sort.Slice(data, func(i, j int) bool { return data[i].Code < data[j].Code })
	total := len(data)
	start := params.Pagination.Skip
	if start > total {
		start = total
	}
	end := start + params.Pagination.Limit
	if end > total {
		end = total
	}
	return &query.Result[models.Diagnosis]{Data: data[start:end], Count: total}, nil
}

func (r *memoryDiagnosisRepo) FindByID(ctx context.Context, id string) (*models.Diagnosis, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &item, nil
}

func (r *memoryDiagnosisRepo) FindByCode(ctx context.Context, code string) (*models.Diagnosis, error) {
	for _, item := range r.items {
		if item.Code == code {
			found := item
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *memoryDiagnosisRepo) Create(ctx context.Context, diagnosis *models.Diagnosis) error {
	if _, err := r.FindByCode(ctx, diagnosis.Code); err == nil {
		return repository.ErrDuplicate
	}
	diagnosis.ID = uuid.NewString()
	diagnosis.CreatedAt = fixedNow
	r.items[diagnosis.ID] = *diagnosis
	return nil
}

func (r *memoryDiagnosisRepo) BulkInsertMissing(ctx context.Context, diagnoses []models.Diagnosis) (int64, error) {
	var inserted int64
	for i := range diagnoses {
		if err := r.Create(ctx, &diagnoses[i]); err == nil {
			inserted++
		}
	}
	return inserted, nil
}

type memoryCacheRepo struct {
	values  map[string][]byte
	deleted []string
	setErr  error
	getErr  error
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{values: map[string][]byte{}}
}

func (r *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	if r.getErr != nil {
		return r.getErr
	}
	raw, ok := r.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (r *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.setErr != nil {
		return r.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	r.values[key] = raw
	return nil
}

func (r *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range r.values {
		if strings.HasPrefix(key, prefix) {
			delete(r.values, key)
		}
	}
	r.deleted = append(r.deleted, pattern)
	return nil
}

type memoryConsultationRepo struct {
	items     map[string]*models.Consultation
	diagnoses map[string]models.Diagnosis
	lastScope models.ConsultationScope
	createErr error
	findErr   error
}

func newMemoryConsultationRepo(diagnoses ...models.Diagnosis) *memoryConsultationRepo {
	repo := &memoryConsultationRepo{items: map[string]*models.Consultation{}, diagnoses: map[string]models.Diagnosis{}}
	for _, d := range diagnoses {
		repo.diagnoses[d.ID] = d
	}
	return repo
}

func (r *memoryConsultationRepo) Create(ctx context.Context, consultation *models.Consultation, diagnosisIDs []string) error {
	if r.createErr != nil {
		return r.createErr
	}
	consultation.ID = uuid.NewString()
	stored := *consultation
	stored.Diagnoses = []models.Diagnosis{}
	for _, id := range diagnosisIDs {
		if d, ok := r.diagnoses[id]; ok {
			stored.Diagnoses = append(stored.Diagnoses, d)
		}
	}
	stored.DiagnosisCount = len(stored.Diagnoses)
	r.items[stored.ID] = &stored
	return nil
}

func (r *memoryConsultationRepo) FindByID(ctx context.Context, id string) (*models.Consultation, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	item, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *item
	return &copied, nil
}

func (r *memoryConsultationRepo) List(ctx context.Context, scope models.ConsultationScope, params models.ListQuery) (*query.Result[models.Consultation], error) {
	r.lastScope = scope
	data := make([]models.Consultation, 0)
	for _, item := range r.items {
		if scope.DoctorID != "" && item.DoctorID != scope.DoctorID {
			continue
		}
		data = append(data, *item)
	}
	return &query.Result[models.Consultation]{Data: data, Count: len(data)}, nil
}

var errStoreDown = errors.New("store unavailable")
