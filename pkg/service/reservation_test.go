package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/susatyo441/food-app/pkg/database"
	"github.com/susatyo441/food-app/pkg/model"
	"github.com/susatyo441/food-app/pkg/quota"
)

var testNow = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

type mockPostRepo struct {
	posts map[int]model.Post
}

func (m *mockPostRepo) GetWithVariants(_ context.Context, id int) (model.Post, error) {
	p, ok := m.posts[id]
	if !ok {
		return model.Post{}, database.ErrNotFound
	}
	return p, nil
}

func (m *mockPostRepo) AdjustStock(context.Context, int, int) error {
	return nil
}

type confirmCall struct {
	reservationID int
	review        int
	comment       string
}

type mockReservationRepo struct {
	mu sync.Mutex

	ongoing      bool
	used         int
	reservations map[int]model.Reservation
	nextID       int

	created      []model.Reservation
	lastMax      int
	lastDayStart time.Time
	lastDayEnd   time.Time

	confirms []confirmCall
	cancels  []int
}

func newMockReservationRepo() *mockReservationRepo {
	return &mockReservationRepo{reservations: make(map[int]model.Reservation), nextID: 1}
}

func (m *mockReservationRepo) Create(_ context.Context, res model.Reservation, maxPerDay int, dayStart, dayEnd time.Time) (model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ongoing {
		return model.Reservation{}, model.ErrOngoingExists
	}
	if m.used >= maxPerDay {
		return model.Reservation{}, model.ErrQuotaExceeded
	}

	m.lastMax = maxPerDay
	m.lastDayStart, m.lastDayEnd = dayStart, dayEnd

	res.ID = m.nextID
	m.nextID++
	res.CreatedAt = res.ConfirmedAt

	m.reservations[res.ID] = res
	m.created = append(m.created, res)
	m.used++

	return res, nil
}

func (m *mockReservationRepo) Get(_ context.Context, id int) (model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, ok := m.reservations[id]
	if !ok {
		return model.Reservation{}, database.ErrNotFound
	}
	return res, nil
}

func (m *mockReservationRepo) Ongoing(context.Context, int, time.Time) (bool, error) {
	return m.ongoing, nil
}

func (m *mockReservationRepo) CountCreatedBetween(context.Context, int, time.Time, time.Time) (int, error) {
	return m.used, nil
}

func (m *mockReservationRepo) Confirm(_ context.Context, res model.Reservation, review int, comment string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := m.reservations[res.ID]
	stored.PickedUpAt = sql.NullTime{Time: now, Valid: true}
	stored.Review = sql.NullInt64{Int64: int64(review), Valid: true}
	stored.Comment = sql.NullString{String: comment, Valid: true}
	m.reservations[res.ID] = stored

	m.confirms = append(m.confirms, confirmCall{res.ID, review, comment})
	return nil
}

func (m *mockReservationRepo) Cancel(_ context.Context, res model.Reservation, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.reservations, res.ID)
	m.cancels = append(m.cancels, res.ID)
	return nil
}

func (m *mockReservationRepo) ListByUser(context.Context, int, string) ([]model.Reservation, error) {
	return nil, nil
}

func (m *mockReservationRepo) ReviewsByDonor(context.Context, int, int) ([]model.Reservation, error) {
	return nil, nil
}

func (m *mockReservationRepo) ReviewCountsByRating(context.Context, int) (map[int]int, error) {
	return nil, nil
}

func (m *mockReservationRepo) ExpiredUnreclaimed(context.Context, time.Time, int) ([]model.Reservation, error) {
	return nil, nil
}

type mockExtendCounter struct {
	valid int
}

func (m *mockExtendCounter) CountValid(context.Context, int, time.Time) (int, error) {
	return m.valid, nil
}

type notification struct {
	userID int
	title  string
	body   string
	meta   map[string]string
}

type mockNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (m *mockNotifier) Notify(_ context.Context, userID int, title, body string, meta map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, notification{userID, title, body, meta})
}

func expiring(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: true}
}

func testPost() model.Post {
	return model.Post{
		Base:   model.Base{ID: 10},
		UserID: 7,
		Title:  "Homemade Rendang",
		Status: model.PostStatusVisible,
		Variants: []model.Variant{
			{Base: model.Base{ID: 1}, PostID: 10, Name: "Regular portion", Stock: 5},
			{Base: model.Base{ID: 2}, PostID: 10, Name: "Family pack", Stock: 3, ExpiredAt: expiring(testNow.Add(30 * time.Minute))},
		},
	}
}

func newTestService(posts *mockPostRepo, repo *mockReservationRepo, extends *mockExtendCounter, notifier *mockNotifier) *ReservationGeneric {
	return &ReservationGeneric{
		Posts:        posts,
		Reservations: repo,
		Quotas:       &quota.Calculator{Reservations: repo, Extends: extends},
		Notifier:     notifier,
		Clock:        func() time.Time { return testNow },
	}
}

func TestReserveSuccess(t *testing.T) {
	repo := newMockReservationRepo()
	notifier := &mockNotifier{}
	svc := newTestService(
		&mockPostRepo{posts: map[int]model.Post{10: testPost()}},
		repo, &mockExtendCounter{}, notifier,
	)

	res, err := svc.Reserve(context.Background(), 10, 9, []ReserveItem{{VariantID: 1, Quantity: 2}, {VariantID: 2, Quantity: 1}})
	require.NoError(t, err)

	assert.Equal(t, 1, res.ID)
	assert.Equal(t, 7, res.DonorID)
	assert.Equal(t, 9, res.RecipientID)
	assert.Equal(t, testNow, res.ConfirmedAt)
	assert.Len(t, res.Code, model.PickupCodeLen)

	// the 30-minute expiry is tighter than the two-hour window
	assert.Equal(t, testNow.Add(30*time.Minute), res.MaxPickupAt)

	require.Len(t, res.Items, 2)
	assert.Equal(t, model.ReservationItem{VariantID: 1, Name: "Regular portion", Quantity: 2}, res.Items[0])
	assert.Equal(t, model.ReservationItem{VariantID: 2, Name: "Family pack", Quantity: 1}, res.Items[1])

	assert.Equal(t, 3, repo.lastMax)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, 7, notifier.sent[0].userID)
	assert.Contains(t, notifier.sent[0].body, "Homemade Rendang")
	assert.Contains(t, notifier.sent[0].body, "Regular portion - 2, Family pack - 1")
	assert.Equal(t, res.Code, notifier.sent[0].meta["pickup_code"])
}

func TestReserveDeadlineDefaultsToWindow(t *testing.T) {
	post := testPost()
	post.Variants[1].ExpiredAt = expiring(testNow.Add(3 * time.Hour))

	repo := newMockReservationRepo()
	svc := newTestService(&mockPostRepo{posts: map[int]model.Post{10: post}}, repo, &mockExtendCounter{}, &mockNotifier{})

	res, err := svc.Reserve(context.Background(), 10, 9, []ReserveItem{{VariantID: 2, Quantity: 1}})
	require.NoError(t, err)

	assert.Equal(t, testNow.Add(2*time.Hour), res.MaxPickupAt)
}

func TestReserveValidation(t *testing.T) {
	hidden := testPost()
	hidden.Status = model.PostStatusHidden

	reported := testPost()
	reported.Reported = true

	expired := testPost()
	expired.Variants[1].ExpiredAt = expiring(testNow.Add(-time.Minute))

	tests := []struct {
		name        string
		post        model.Post
		ongoing     bool
		used        int
		recipientID int
		items       []ReserveItem
		wantErr     error
	}{
		{
			name:        "ongoing reservation checked before anything else",
			post:        testPost(),
			ongoing:     true,
			recipientID: 9,
			items:       []ReserveItem{{VariantID: 99, Quantity: 1}},
			wantErr:     model.ErrOngoingExists,
		},
		{
			name:        "hidden post",
			post:        hidden,
			recipientID: 9,
			items:       []ReserveItem{{VariantID: 1, Quantity: 1}},
			wantErr:     model.ErrPostNotFound,
		},
		{
			name:        "reported post",
			post:        reported,
			recipientID: 9,
			items:       []ReserveItem{{VariantID: 1, Quantity: 1}},
			wantErr:     model.ErrPostNotFound,
		},
		{
			name:        "own post wins over variant validity",
			post:        testPost(),
			recipientID: 7,
			items:       []ReserveItem{{VariantID: 99, Quantity: 1}},
			wantErr:     model.ErrOwnPost,
		},
		{
			name:        "cross-post variant id",
			post:        testPost(),
			recipientID: 9,
			items:       []ReserveItem{{VariantID: 99, Quantity: 1}},
			wantErr:     model.ErrVariantNotInPost,
		},
		{
			name:        "expired variant wins over stock",
			post:        expired,
			recipientID: 9,
			items:       []ReserveItem{{VariantID: 2, Quantity: 100}},
			wantErr:     model.ErrVariantExpired,
		},
		{
			name:        "insufficient stock",
			post:        testPost(),
			recipientID: 9,
			items:       []ReserveItem{{VariantID: 1, Quantity: 6}},
			wantErr:     model.ErrInsufficientStock,
		},
		{
			name:        "quota exhausted",
			post:        testPost(),
			used:        3,
			recipientID: 9,
			items:       []ReserveItem{{VariantID: 1, Quantity: 1}},
			wantErr:     model.ErrQuotaExceeded,
		},
		{
			name:        "empty item list",
			post:        testPost(),
			recipientID: 9,
			items:       nil,
			wantErr:     ErrInvalidItems,
		},
		{
			name:        "non-positive quantity",
			post:        testPost(),
			recipientID: 9,
			items:       []ReserveItem{{VariantID: 1, Quantity: 0}},
			wantErr:     ErrInvalidItems,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockReservationRepo()
			repo.ongoing = tt.ongoing
			repo.used = tt.used
			notifier := &mockNotifier{}

			svc := newTestService(&mockPostRepo{posts: map[int]model.Post{10: tt.post}}, repo, &mockExtendCounter{}, notifier)

			_, err := svc.Reserve(context.Background(), 10, tt.recipientID, tt.items)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, repo.created, "no reservation may be written on validation failure")
			assert.Empty(t, notifier.sent, "no notification may be sent on validation failure")
		})
	}
}

func TestReservePostNotFound(t *testing.T) {
	repo := newMockReservationRepo()
	svc := newTestService(&mockPostRepo{posts: map[int]model.Post{}}, repo, &mockExtendCounter{}, &mockNotifier{})

	_, err := svc.Reserve(context.Background(), 404, 9, []ReserveItem{{VariantID: 1, Quantity: 1}})
	assert.ErrorIs(t, err, model.ErrPostNotFound)
}

func TestReserveExtendGrantsRaiseQuota(t *testing.T) {
	repo := newMockReservationRepo()
	repo.used = 4

	svc := newTestService(&mockPostRepo{posts: map[int]model.Post{10: testPost()}}, repo, &mockExtendCounter{valid: 2}, &mockNotifier{})

	res, err := svc.Reserve(context.Background(), 10, 9, []ReserveItem{{VariantID: 1, Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, 5, repo.lastMax)
	assert.NotZero(t, res.ID)

	// the fifth pickup used the last slot
	_, err = svc.Reserve(context.Background(), 10, 9, []ReserveItem{{VariantID: 1, Quantity: 1}})
	assert.ErrorIs(t, err, model.ErrQuotaExceeded)
}

func TestConfirmSuccess(t *testing.T) {
	repo := newMockReservationRepo()
	notifier := &mockNotifier{}
	svc := newTestService(&mockPostRepo{posts: map[int]model.Post{10: testPost()}}, repo, &mockExtendCounter{}, notifier)

	created, err := svc.Reserve(context.Background(), 10, 9, []ReserveItem{{VariantID: 1, Quantity: 2}})
	require.NoError(t, err)

	res, err := svc.Confirm(context.Background(), created.ID, 9, 5, "delicious")
	require.NoError(t, err)

	assert.True(t, res.PickedUpAt.Valid)
	assert.Equal(t, testNow, res.PickedUpAt.Time)
	assert.Equal(t, int64(5), res.Review.Int64)
	assert.Equal(t, "delicious", res.Comment.String)

	require.Len(t, repo.confirms, 1)
	assert.Equal(t, confirmCall{created.ID, 5, "delicious"}, repo.confirms[0])

	// reserve notification + one for each party on confirm
	require.Len(t, notifier.sent, 3)
	assert.Equal(t, 7, notifier.sent[1].userID)
	assert.Equal(t, 9, notifier.sent[2].userID)
}

func TestConfirmOnlyOnce(t *testing.T) {
	repo := newMockReservationRepo()
	svc := newTestService(&mockPostRepo{posts: map[int]model.Post{10: testPost()}}, repo, &mockExtendCounter{}, &mockNotifier{})

	created, err := svc.Reserve(context.Background(), 10, 9, []ReserveItem{{VariantID: 1, Quantity: 1}})
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), created.ID, 9, 4, "")
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), created.ID, 9, 4, "")
	assert.ErrorIs(t, err, model.ErrAlreadyPickedUp)

	assert.Len(t, repo.confirms, 1, "points must be awarded exactly once")
}

func TestConfirmValidation(t *testing.T) {
	base := model.Reservation{
		Base:        model.Base{ID: 1},
		PostID:      10,
		DonorID:     7,
		RecipientID: 9,
		MaxPickupAt: testNow.Add(time.Hour),
		ConfirmedAt: testNow.Add(-time.Hour),
	}

	pickedUp := base
	pickedUp.PickedUpAt = expiring(testNow.Add(-30 * time.Minute))
	pickedUp.MaxPickupAt = testNow.Add(-time.Minute) // picked-up must win over expired

	expired := base
	expired.MaxPickupAt = testNow.Add(-time.Minute)

	tests := []struct {
		name        string
		stored      *model.Reservation
		id          int
		recipientID int
		review      int
		wantErr     error
	}{
		{name: "not found", id: 404, recipientID: 9, review: 5, wantErr: model.ErrReservationNotFound},
		{name: "already picked up", stored: &pickedUp, id: 1, recipientID: 9, review: 5, wantErr: model.ErrAlreadyPickedUp},
		{name: "deadline passed wins over ownership", stored: &expired, id: 1, recipientID: 12, review: 5, wantErr: model.ErrPickupExpired},
		{name: "not the recipient", stored: &base, id: 1, recipientID: 12, review: 5, wantErr: model.ErrNotRecipient},
		{name: "review too low", stored: &base, id: 1, recipientID: 9, review: 0, wantErr: ErrInvalidReview},
		{name: "review too high", stored: &base, id: 1, recipientID: 9, review: 6, wantErr: ErrInvalidReview},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockReservationRepo()
			if tt.stored != nil {
				repo.reservations[tt.stored.ID] = *tt.stored
			}

			svc := newTestService(&mockPostRepo{}, repo, &mockExtendCounter{}, &mockNotifier{})

			_, err := svc.Confirm(context.Background(), tt.id, tt.recipientID, tt.review, "")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, repo.confirms)
		})
	}
}

func TestCancelSuccess(t *testing.T) {
	repo := newMockReservationRepo()
	notifier := &mockNotifier{}
	svc := newTestService(&mockPostRepo{posts: map[int]model.Post{10: testPost()}}, repo, &mockExtendCounter{}, notifier)

	created, err := svc.Reserve(context.Background(), 10, 9, []ReserveItem{{VariantID: 1, Quantity: 2}})
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), created.ID, 9))

	assert.Equal(t, []int{created.ID}, repo.cancels)

	_, err = repo.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)

	require.Len(t, notifier.sent, 2)
	assert.Equal(t, 7, notifier.sent[1].userID)
	assert.Contains(t, notifier.sent[1].body, "cancelled")
}

func TestCancelValidation(t *testing.T) {
	base := model.Reservation{
		Base:        model.Base{ID: 1},
		PostID:      10,
		DonorID:     7,
		RecipientID: 9,
		MaxPickupAt: testNow.Add(time.Hour),
	}

	pickedUp := base
	pickedUp.PickedUpAt = expiring(testNow.Add(-time.Minute))

	expired := base
	expired.MaxPickupAt = testNow.Add(-time.Minute)

	tests := []struct {
		name        string
		stored      *model.Reservation
		id          int
		recipientID int
		wantErr     error
	}{
		{name: "not found", id: 404, recipientID: 9, wantErr: model.ErrReservationNotFound},
		{name: "ownership wins over state", stored: &pickedUp, id: 1, recipientID: 12, wantErr: model.ErrNotRecipient},
		{name: "already picked up", stored: &pickedUp, id: 1, recipientID: 9, wantErr: model.ErrNotOngoing},
		{name: "deadline passed", stored: &expired, id: 1, recipientID: 9, wantErr: model.ErrNotOngoing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockReservationRepo()
			if tt.stored != nil {
				repo.reservations[tt.stored.ID] = *tt.stored
			}

			svc := newTestService(&mockPostRepo{}, repo, &mockExtendCounter{}, &mockNotifier{})

			err := svc.Cancel(context.Background(), tt.id, tt.recipientID)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, repo.cancels)
		})
	}
}

func TestReserveAgainAfterCancel(t *testing.T) {
	repo := newMockReservationRepo()
	svc := newTestService(&mockPostRepo{posts: map[int]model.Post{10: testPost()}}, repo, &mockExtendCounter{}, &mockNotifier{})

	created, err := svc.Reserve(context.Background(), 10, 9, []ReserveItem{{VariantID: 1, Quantity: 1}})
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(context.Background(), created.ID, 9))

	// cancellation deleted the row so a new reservation is allowed
	_, err = svc.Reserve(context.Background(), 10, 9, []ReserveItem{{VariantID: 1, Quantity: 1}})
	require.NoError(t, err)
}
