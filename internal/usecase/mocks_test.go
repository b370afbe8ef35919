package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"car-share/internal/data/entity"
	"car-share/internal/data/query"
	"car-share/internal/data/repository"
	"car-share/pkg/payment"
	"car-share/pkg/utils"

	"github.com/google/uuid"
)

var errStore = errors.New("store unavailable")

// memStore backs all mock repositories so writes through one are visible to the others.
type memStore struct {
	mu           sync.Mutex
	users        map[uuid.UUID]*entity.User
	profiles     map[uuid.UUID]*entity.Profile
	sessions     map[uuid.UUID]*entity.Session
	otps         []*entity.OTP
	listings     map[int64]*entity.Listing
	reservations map[uuid.UUID]*entity.Reservation
	nextListing  int64
}

func newMemStore() *memStore {
	return &memStore{
		users:        map[uuid.UUID]*entity.User{},
		profiles:     map[uuid.UUID]*entity.Profile{},
		sessions:     map[uuid.UUID]*entity.Session{},
		listings:     map[int64]*entity.Listing{},
		reservations: map[uuid.UUID]*entity.Reservation{},
	}
}

type mockRepos struct {
	store       *memStore
	User        *MockUserRepository
	Session     *MockSessionRepository
	OTP         *MockOTPRepository
	Profile     *MockProfileRepository
	Listing     *MockListingRepository
	Reservation *MockReservationRepository
}

func newMockRepos() *mockRepos {
	store := newMemStore()
	return &mockRepos{
		store:       store,
		User:        &MockUserRepository{store: store},
		Session:     &MockSessionRepository{store: store},
		OTP:         &MockOTPRepository{store: store},
		Profile:     &MockProfileRepository{store: store},
		Listing:     &MockListingRepository{store: store},
		Reservation: &MockReservationRepository{store: store},
	}
}

func (m *mockRepos) Repository() *repository.Repository {
	return &repository.Repository{
		User:        m.User,
		Session:     m.Session,
		OTP:         m.OTP,
		Profile:     m.Profile,
		Listing:     m.Listing,
		Reservation: m.Reservation,
	}
}

func testConfig() *utils.Config {
	return &utils.Config{
		App: utils.AppConfig{
			Name:    "car-share",
			BaseURL: "https://cars.example.com",
		},
		Session: utils.SessionConfig{ExpiryHours: 24},
		OTP:     utils.OTPConfig{ExpiryMinutes: 10, Length: 6},
		Stripe: utils.StripeConfig{
			Currency: "eur",
			Timeout:  time.Second,
		},
		Reservation: utils.ReservationConfig{
			TTL:           30 * time.Minute,
			SweepSchedule: "@every 1m",
		},
	}
}

type MockUserRepository struct {
	store                *memStore
	CreateWithProfileErr error
}

func (m *MockUserRepository) Create(ctx context.Context, user *entity.User) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) CreateWithProfile(ctx context.Context, user *entity.User, profile *entity.Profile) error {
	if m.CreateWithProfileErr != nil {
		return m.CreateWithProfileErr
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	u, p := *user, *profile
	m.store.users[user.ID] = &u
	m.store.profiles[profile.ID] = &p
	return nil
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if u, ok := m.store.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, u := range m.store.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (m *MockUserRepository) Update(ctx context.Context, user *entity.User) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if _, ok := m.store.users[user.ID]; !ok {
		return fmt.Errorf("user %s not found", user.ID)
	}
	c := *user
	m.store.users[user.ID] = &c
	return nil
}

type MockSessionRepository struct {
	store *memStore
}

func (m *MockSessionRepository) Create(ctx context.Context, session *entity.Session) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.sessions[session.Token] = session
	return nil
}

func (m *MockSessionRepository) FindValidSession(ctx context.Context, token uuid.UUID) (*entity.Session, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if s, ok := m.store.sessions[token]; ok && s.Active(time.Now()) {
		return s, nil
	}
	return nil, nil
}

func (m *MockSessionRepository) Revoke(ctx context.Context, token uuid.UUID) (bool, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	s, ok := m.store.sessions[token]
	if !ok || s.RevokedAt != nil {
		return false, nil
	}
	now := time.Now()
	s.RevokedAt = &now
	return true, nil
}

func (m *MockSessionRepository) CleanExpiredSessions(ctx context.Context) (int64, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var n int64
	for token, s := range m.store.sessions {
		if !s.Active(time.Now()) {
			delete(m.store.sessions, token)
			n++
		}
	}
	return n, nil
}

type MockOTPRepository struct {
	store *memStore
}

func (m *MockOTPRepository) Issue(ctx context.Context, otp *entity.OTP) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, o := range m.store.otps {
		if o.UserID == otp.UserID && o.OTPType == otp.OTPType {
			o.IsUsed = true
		}
	}
	m.store.otps = append(m.store.otps, otp)
	return nil
}

func (m *MockOTPRepository) Consume(ctx context.Context, email, code string, otpType entity.OTPType) (*entity.OTP, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for i := len(m.store.otps) - 1; i >= 0; i-- {
		o := m.store.otps[i]
		if strings.EqualFold(o.Email, email) && o.OTPCode == code && o.OTPType == otpType &&
			!o.IsUsed && !o.Expired(time.Now()) {
			o.IsUsed = true
			c := *o
			return &c, nil
		}
	}
	return nil, nil
}

// lastOTP returns the most recent code issued for email.
func (m *MockOTPRepository) lastOTP(email string) *entity.OTP {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for i := len(m.store.otps) - 1; i >= 0; i-- {
		if m.store.otps[i].Email == email {
			return m.store.otps[i]
		}
	}
	return nil
}

type MockProfileRepository struct {
	store  *memStore
	Writes int
}

func (m *MockProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if p, ok := m.store.profiles[id]; ok {
		c := *p
		return &c, nil
	}
	return nil, nil
}

func (m *MockProfileRepository) FindByEmail(ctx context.Context, email string) (*entity.Profile, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, p := range m.store.profiles {
		if strings.EqualFold(p.Email, email) {
			c := *p
			return &c, nil
		}
	}
	return nil, nil
}

func (m *MockProfileRepository) Upsert(ctx context.Context, profile *entity.Profile) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.Writes++

	c := *profile
	if existing, ok := m.store.profiles[profile.ID]; ok {
		c.AccountStatus = existing.AccountStatus
		c.StripeConnectedLinked = existing.StripeConnectedLinked
		if !sameAccount(existing.ConnectedAccountID, profile.ConnectedAccountID) {
			c.AccountStatus = entity.AccountStatusPending
			c.StripeConnectedLinked = false
		}
	}
	m.store.profiles[profile.ID] = &c
	return nil
}

func sameAccount(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (m *MockProfileRepository) SetAccountStatus(ctx context.Context, id uuid.UUID, status entity.ConnectedAccountStatus) (bool, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	p, ok := m.store.profiles[id]
	if !ok {
		return false, nil
	}
	m.Writes++
	p.AccountStatus = status
	p.StripeConnectedLinked = status == entity.AccountStatusActive
	return true, nil
}

func (m *MockProfileRepository) put(p *entity.Profile) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	c := *p
	m.store.profiles[p.ID] = &c
}

func (m *MockProfileRepository) get(id uuid.UUID) *entity.Profile {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	return m.store.profiles[id]
}

type MockListingRepository struct {
	store     *memStore
	CreateErr error
	LastSpec  query.QuerySpec
}

func (m *MockListingRepository) Create(ctx context.Context, listing *entity.Listing) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.nextListing++
	listing.ID = m.store.nextListing
	c := *listing
	m.store.listings[listing.ID] = &c
	return nil
}

func (m *MockListingRepository) FindByID(ctx context.Context, id int64) (*entity.Listing, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if l, ok := m.store.listings[id]; ok {
		c := *l
		return &c, nil
	}
	return nil, nil
}

// Search ignores the predicates and pages over all listings by id.
func (m *MockListingRepository) Search(ctx context.Context, spec query.QuerySpec, limit, offset int) ([]*entity.Listing, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.LastSpec = spec

	ids := make([]int64, 0, len(m.store.listings))
	for id := range m.store.listings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []*entity.Listing
	for i := offset; i < len(ids) && len(out) < limit; i++ {
		out = append(out, m.store.listings[ids[i]])
	}
	return out, nil
}

func (m *MockListingRepository) Count(ctx context.Context, spec query.QuerySpec) (int64, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	return int64(len(m.store.listings)), nil
}

func (m *MockListingRepository) FindOwnersByPhotoKey(ctx context.Context, key string) ([]uuid.UUID, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	seen := map[uuid.UUID]bool{}
	var owners []uuid.UUID
	for _, l := range m.store.listings {
		for _, photo := range l.Photos {
			u, err := url.Parse(photo)
			if err != nil || path.Base(u.Path) != key || seen[l.OwnerID] {
				continue
			}
			seen[l.OwnerID] = true
			owners = append(owners, l.OwnerID)
		}
	}
	return owners, nil
}

type MockReservationRepository struct {
	store     *memStore
	CreateErr error
}

func (m *MockReservationRepository) Create(ctx context.Context, res *entity.Reservation) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, other := range m.store.reservations {
		if other.ListingID == res.ListingID && !isClosed(other.Status) && other.Dates().SharesNights(res.Dates()) {
			return repository.ErrReservationOverlap
		}
	}
	c := *res
	m.store.reservations[res.ID] = &c
	return nil
}

func isClosed(s entity.ReservationStatus) bool {
	return s == entity.ReservationCancelled || s == entity.ReservationExpired
}

func (m *MockReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if r, ok := m.store.reservations[id]; ok {
		c := *r
		return &c, nil
	}
	return nil, nil
}

func (m *MockReservationRepository) FindByRenter(ctx context.Context, renterID uuid.UUID, limit, offset int) ([]*entity.Reservation, error) {
	all := m.byRenter(renterID)
	var out []*entity.Reservation
	for i := offset; i < len(all) && len(out) < limit; i++ {
		out = append(out, all[i])
	}
	return out, nil
}

func (m *MockReservationRepository) CountByRenter(ctx context.Context, renterID uuid.UUID) (int64, error) {
	return int64(len(m.byRenter(renterID))), nil
}

func (m *MockReservationRepository) byRenter(renterID uuid.UUID) []*entity.Reservation {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var out []*entity.Reservation
	for _, r := range m.store.reservations {
		if r.RenterID == renterID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *MockReservationRepository) FindActiveByListing(ctx context.Context, listingID int64) ([]*entity.Reservation, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var out []*entity.Reservation
	for _, r := range m.store.reservations {
		if r.ListingID == listingID && !isClosed(r.Status) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockReservationRepository) SetCheckoutSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	r, ok := m.store.reservations[id]
	if !ok {
		return fmt.Errorf("reservation %s not found", id)
	}
	r.CheckoutSessionID = &sessionID
	return nil
}

func (m *MockReservationRepository) TransitionStatus(ctx context.Context, id uuid.UUID, status entity.ReservationStatus) (bool, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	r, ok := m.store.reservations[id]
	if !ok || r.Status != entity.ReservationPendingPayment {
		return false, nil
	}
	r.Status = status
	return true, nil
}

func (m *MockReservationRepository) ExpirePendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var n int64
	for _, r := range m.store.reservations {
		if r.Status == entity.ReservationPendingPayment && r.CreatedAt.Before(cutoff) {
			r.Status = entity.ReservationExpired
			n++
		}
	}
	return n, nil
}

func (m *MockReservationRepository) Reinstate(ctx context.Context, id uuid.UUID) (bool, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	r, ok := m.store.reservations[id]
	if !ok || !isClosed(r.Status) {
		return false, nil
	}
	for _, other := range m.store.reservations {
		if other.ID != id && other.ListingID == r.ListingID && !isClosed(other.Status) && other.Dates().SharesNights(r.Dates()) {
			return false, wrapOverlap()
		}
	}
	r.Status = entity.ReservationConfirmed
	return true, nil
}

func (m *MockReservationRepository) put(r *entity.Reservation) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	c := *r
	m.store.reservations[r.ID] = &c
}

func (m *MockReservationRepository) get(id uuid.UUID) *entity.Reservation {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	return m.store.reservations[id]
}

type MockGateway struct {
	mu sync.Mutex

	AccountID        string
	CreateAccountErr error
	CreatedAccounts  []payment.CreateAccountParams
	DeletedAccounts  []string
	DeleteAccountErr error

	LinkParams   []payment.AccountLinkParams
	LoginLinks   []string
	CheckoutErr  error
	CheckoutCall []payment.CheckoutSessionParams

	Event    *payment.Event
	EventErr error
}

func (g *MockGateway) CreateAccount(ctx context.Context, params payment.CreateAccountParams) (*payment.Account, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.CreatedAccounts = append(g.CreatedAccounts, params)
	if g.CreateAccountErr != nil {
		return nil, g.CreateAccountErr
	}
	id := g.AccountID
	if id == "" {
		id = "acct_test"
	}
	return &payment.Account{ID: id, Email: params.Email}, nil
}

func (g *MockGateway) DeleteAccount(ctx context.Context, accountID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.DeletedAccounts = append(g.DeletedAccounts, accountID)
	return g.DeleteAccountErr
}

func (g *MockGateway) CreateAccountLink(ctx context.Context, params payment.AccountLinkParams) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.LinkParams = append(g.LinkParams, params)
	return "https://connect.example.com/setup/" + params.AccountID, nil
}

func (g *MockGateway) CreateLoginLink(ctx context.Context, accountID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.LoginLinks = append(g.LoginLinks, accountID)
	return "https://connect.example.com/express/" + accountID, nil
}

func (g *MockGateway) CreateCheckoutSession(ctx context.Context, params payment.CheckoutSessionParams) (*payment.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.CheckoutCall = append(g.CheckoutCall, params)
	if g.CheckoutErr != nil {
		return nil, g.CheckoutErr
	}
	id := fmt.Sprintf("cs_test_%d", len(g.CheckoutCall))
	return &payment.CheckoutSession{
		ID:                id,
		URL:               "https://checkout.example.com/" + id,
		ClientReferenceID: params.ClientReferenceID,
		Metadata:          params.Metadata,
	}, nil
}

func (g *MockGateway) ConstructEvent(payload []byte, signatureHeader string) (*payment.Event, error) {
	if g.EventErr != nil {
		return nil, g.EventErr
	}
	return g.Event, nil
}

type MockPhotoStore struct {
	Deleted   []string
	DeleteErr error
}

func (m *MockPhotoStore) Delete(ctx context.Context, keys ...string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.Deleted = append(m.Deleted, keys...)
	return nil
}

func (m *MockPhotoStore) KeyFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" || u.Path == "" || u.Path == "/" {
		return "", fmt.Errorf("bad photo url %q", rawURL)
	}
	return path.Base(u.Path), nil
}

func ptr[T any](v T) *T {
	return &v
}

func wrapOverlap() error {
	return fmt.Errorf("create reservation: %w", repository.ErrReservationOverlap)
}

var emptySpec = query.QuerySpec{}
