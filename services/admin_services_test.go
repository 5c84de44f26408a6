package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokyoedge/portal/models"
	"github.com/tokyoedge/portal/pkg"
	"github.com/tokyoedge/portal/pkg/email"
	"github.com/tokyoedge/portal/repository"
)

func TestSettingsPublicListIsCachedUntilUpsert(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := repository.NewSQLiteSettingRepo(db.Conn)
	svc := NewSettingService(repo, time.Minute)

	require.NoError(t, repo.Upsert(ctx, &models.Setting{Key: "webhook_secret", Value: "s3cr3t", Category: "internal"}))

	public, err := svc.ListPublic(ctx)
	require.NoError(t, err)
	for _, s := range public {
		assert.NotEqual(t, "internal", s.Category)
	}
	seeded := len(public)
	assert.Positive(t, seeded)

	// Repo'ya doğrudan yazılan değer cache süresince görünmez.
	require.NoError(t, repo.Upsert(ctx, &models.Setting{Key: "direct_write", Value: "1", Category: "server"}))
	cached, err := svc.ListPublic(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, seeded)

	saved, err := svc.Upsert(ctx, "  server_name ", &models.UpsertSettingRequest{Value: "Tokyo Edge RP", Category: "server"})
	require.NoError(t, err)
	assert.Equal(t, "server_name", saved.Key)

	fresh, err := svc.ListPublic(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh, seeded+1)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, seeded+2)
}

func TestSettingsUpsertValidation(t *testing.T) {
	db := openTestDB(t)
	svc := NewSettingService(repository.NewSQLiteSettingRepo(db.Conn), time.Minute)

	_, err := svc.Upsert(context.Background(), "server_name", &models.UpsertSettingRequest{Category: "server"})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	_, err = svc.Upsert(context.Background(), " ", &models.UpsertSettingRequest{Value: "x", Category: "server"})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestStaffRoster(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	svc := NewStaffService(repository.NewSQLiteStaffRepo(db.Conn))

	seeded, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, seeded, 5)
	assert.Equal(t, "ThugLife", seeded[0].Name)

	member, err := svc.Create(ctx, &models.CreateStaffMemberRequest{Name: "Yuki", Role: "moderador", Position: "Moderadora"})
	require.NoError(t, err)
	assert.True(t, member.IsActive)
	assert.Equal(t, models.DefaultDisplayOrder, member.DisplayOrder)

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 6)
	assert.Equal(t, "Yuki", active[5].Name)

	inactive := false
	updated, err := svc.Update(ctx, member.ID, &models.UpdateStaffMemberRequest{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "Yuki", updated.Name)

	active, err = svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 5)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 6)

	_, err = svc.Create(ctx, &models.CreateStaffMemberRequest{Name: "NoRole"})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	require.NoError(t, svc.Delete(ctx, member.ID))
	_, err = svc.GetByID(ctx, member.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

// stubStatus, dashboard için sabit bir snapshot döner.
type stubStatus struct {
	StatusBroadcaster
	stats models.ServerStats
}

func (s stubStatus) Latest(context.Context) models.ServerStats { return s.stats }

func TestDashboardSummary(t *testing.T) {
	ctx := context.Background()
	env := newAppEnv(t, nil, false, nil)

	first := env.submit(t, env.applicant)
	env.clock.Advance(time.Second)
	second := env.submit(t, env.other)
	_, err := env.svc.Review(ctx, env.admin, first.ID, &models.ReviewApplicationRequest{Status: models.StatusApproved})
	require.NoError(t, err)

	svc := NewDashboardService(
		repository.NewSQLiteDashboardRepo(env.db.Conn),
		env.users,
		stubStatus{stats: models.ServerStats{Online: true, Players: 50, MaxPlayers: 128}},
		&fakePublisher{count: 4},
	)

	_, err = svc.Summary(ctx, env.applicant)
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	summary, err := svc.Summary(ctx, env.admin)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Applications[models.StatusPending])
	assert.Equal(t, 1, summary.Applications[models.StatusApproved])
	require.Len(t, summary.LatestPending, 1)
	assert.Equal(t, second.ID, summary.LatestPending[0].ID)
	require.NotNil(t, summary.LatestPending[0].User)
	assert.Equal(t, "hana", summary.LatestPending[0].User.Username)
	assert.Equal(t, 3, summary.UserCount)
	assert.Equal(t, 5, summary.ActiveStaffCount)
	require.NotNil(t, summary.ServerStatus)
	assert.Equal(t, 50, summary.ServerStatus.Players)
	assert.Equal(t, 4, summary.StatusSubscribers)
}

type countingCleaner struct{ calls int }

func (c *countingCleaner) Cleanup() int {
	c.calls++
	return 2
}

func TestHousekeepingPurgesExpiredSessions(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	users := repository.NewSQLiteUserRepo(db.Conn)
	sessions := repository.NewSQLiteSessionRepo(db.Conn)
	u := seedUser(t, users, "kenji", models.RoleUser)

	clock := newTestClock()
	require.NoError(t, sessions.Create(ctx, &models.Session{
		ID: "expired", UserID: u.ID, RefreshToken: "old", ExpiresAt: clock.Now().Add(-time.Hour), CreatedAt: clock.Now().Add(-8 * 24 * time.Hour),
	}))
	require.NoError(t, sessions.Create(ctx, &models.Session{
		ID: "live", UserID: u.ID, RefreshToken: "new", ExpiresAt: clock.Now().Add(time.Hour), CreatedAt: clock.Now(),
	}))

	cleaner := &countingCleaner{}
	h := NewHousekeeping(sessions, cleaner, nil)
	h.now = clock.Now
	h.RunOnce(ctx)

	_, err := sessions.GetByRefreshToken(ctx, "old")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	_, err = sessions.GetByRefreshToken(ctx, "new")
	assert.NoError(t, err)
	assert.Equal(t, 1, cleaner.calls)
}

func TestHousekeepingRejectsBadSchedule(t *testing.T) {
	h := NewHousekeeping(nil)
	assert.Error(t, h.Start("every now and then"))

	require.NoError(t, h.Start(HousekeepingSchedule))
	h.Stop()
}

type recordingWebhook struct {
	mu    sync.Mutex
	calls []string
}

func (w *recordingWebhook) NotifyNewApplication(_ *models.Application, applicant *models.UserSummary) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	name := ""
	if applicant != nil {
		name = applicant.Username
	}
	w.calls = append(w.calls, name)
	return errors.New("discord is down")
}

func (w *recordingWebhook) names() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.calls...)
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []email.ReviewDecision
}

func (m *recordingMailer) SendReviewDecision(_ context.Context, msg email.ReviewDecision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) messages() []email.ReviewDecision {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]email.ReviewDecision(nil), m.sent...)
}

func TestNotifierDeliversInBackground(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	users := repository.NewSQLiteUserRepo(db.Conn)

	mail := "kenji@example.com"
	withEmail := &models.User{Username: "kenji", PasswordHash: "x", Email: &mail}
	require.NoError(t, users.Create(ctx, withEmail))
	noEmail := seedUser(t, users, "hana", models.RoleUser)

	hook := &recordingWebhook{}
	mailer := &recordingMailer{}
	n := NewApplicationNotifier(hook, mailer, users)

	n.ApplicationSubmitted(models.Application{ID: 1, UserID: withEmail.ID, Status: models.StatusPending})
	require.Eventually(t, func() bool { return len(hook.names()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"kenji"}, hook.names())

	notes := "Welcome aboard"
	n.ApplicationDecided(models.Application{ID: 1, UserID: withEmail.ID, Status: models.StatusApproved, AdminNotes: &notes})
	n.ApplicationDecided(models.Application{ID: 2, UserID: noEmail.ID, Status: models.StatusRejected})
	n.ApplicationDecided(models.Application{ID: 3, UserID: withEmail.ID, Status: models.StatusInReview})

	require.Eventually(t, func() bool { return len(mailer.messages()) == 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	sent := mailer.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "kenji@example.com", sent[0].To)
	assert.True(t, sent[0].Approved)
	assert.Equal(t, "Welcome aboard", sent[0].Notes)
}
