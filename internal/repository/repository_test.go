package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/eventhub-api/internal/models"
	"github.com/yukikurage/eventhub-api/internal/utils"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRepositoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	err = db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Organization{},
		&models.OrganizationCollaborator{},
		&models.OrganizationFollower{},
		&models.Event{},
		&models.EventParticipant{},
		&models.EventInterest{},
		&models.Notification{},
	)
	require.NoError(t, err)

	return db
}

func createRepoUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@example.com", PasswordHash: "hashed"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createRepoOrganization(t *testing.T, db *gorm.DB, name string, ownerID uint64) *models.Organization {
	t.Helper()
	org := &models.Organization{Name: name, OwnerID: ownerID}
	require.NoError(t, db.Create(org).Error)
	return org
}

func createRepoEvent(t *testing.T, db *gorm.DB, name string, org *models.Organization, capacity *int, date time.Time) *models.Event {
	t.Helper()
	event := &models.Event{
		Name:           name,
		Date:           date,
		Capacity:       capacity,
		OrganizerID:    org.OwnerID,
		OrganizationID: org.ID,
	}
	require.NoError(t, db.Create(event).Error)
	return event
}

func intPtr(n int) *int { return &n }

func TestEventRepository_CapacityZeroStoredAsUnlimited(t *testing.T) {
	db := setupRepositoryTestDB(t)
	owner := createRepoUser(t, db, "owner")
	org := createRepoOrganization(t, db, "Org", owner.ID)

	event := createRepoEvent(t, db, "Free", org, intPtr(0), time.Now().UTC())

	var stored models.Event
	require.NoError(t, db.First(&stored, event.ID).Error)
	require.Nil(t, stored.Capacity)
	require.Equal(t, models.EventStatusActive, stored.Status)
}

func TestEventRepository_AddParticipant_RespectsCapacity(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	owner := createRepoUser(t, db, "owner")
	u1 := createRepoUser(t, db, "u1")
	u2 := createRepoUser(t, db, "u2")
	u3 := createRepoUser(t, db, "u3")
	org := createRepoOrganization(t, db, "Org", owner.ID)
	event := createRepoEvent(t, db, "Small", org, intPtr(2), time.Now().UTC())

	ok, err := repo.AddParticipant(ctx, event.ID, u1.ID, time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.AddParticipant(ctx, event.ID, u2.ID, time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.AddParticipant(ctx, event.ID, u3.ID, time.Now())
	require.NoError(t, err)
	require.False(t, ok, "third join must be refused")

	count, err := repo.CountParticipants(ctx, event.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	_, err = repo.AddParticipant(ctx, event.ID, u1.ID, time.Now())
	require.ErrorIs(t, err, ErrAlreadyParticipant)

	_, err = repo.AddParticipant(ctx, 9999, u1.ID, time.Now())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestEventRepository_AddParticipant_Unlimited(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	owner := createRepoUser(t, db, "owner")
	org := createRepoOrganization(t, db, "Org", owner.ID)
	event := createRepoEvent(t, db, "Open", org, nil, time.Now().UTC())

	for _, name := range []string{"a", "b", "c", "d"} {
		user := createRepoUser(t, db, name)
		ok, err := repo.AddParticipant(ctx, event.ID, user.ID, time.Now())
		require.NoError(t, err)
		require.True(t, ok)
	}

	removed, err := repo.RemoveParticipant(ctx, event.ID, owner.ID)
	require.NoError(t, err)
	require.False(t, removed)

	ids, err := repo.ParticipatingEventIDs(ctx, owner.ID)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestEventRepository_ListVisibilityAndFilters(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	owner := createRepoUser(t, db, "owner")
	org := createRepoOrganization(t, db, "Org", owner.ID)
	other := createRepoOrganization(t, db, "Other", owner.ID)

	base := time.Date(2030, 5, 10, 12, 0, 0, 0, time.UTC)
	music := createRepoEvent(t, db, "Jazz Night", org, nil, base)
	require.NoError(t, db.Model(music).Update("category", "Music").Error)
	talk := createRepoEvent(t, db, "Go Talk", org, nil, base.Add(48*time.Hour))
	require.NoError(t, db.Model(talk).Update("category", "Tech").Error)
	cancelled := createRepoEvent(t, db, "Cancelled Gig", other, nil, base.Add(24*time.Hour))
	require.NoError(t, db.Model(cancelled).Update("status", models.EventStatusCancelled).Error)

	// Public callers only see active events.
	events, total, err := repo.List(ctx, EventFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Equal(t, music.ID, events[0].ID)
	require.Equal(t, "Org", events[0].Organization.Name)

	// Members also see cancelled events of their organizations.
	_, total, err = repo.List(ctx, EventFilter{MemberOrganizationIDs: []uint64{other.ID}})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)

	events, _, err = repo.List(ctx, EventFilter{Categories: []string{"Tech"}})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, talk.ID, events[0].ID)

	events, _, err = repo.List(ctx, EventFilter{Search: "jazz"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, music.ID, events[0].ID)

	from := base.Add(time.Hour)
	events, _, err = repo.List(ctx, EventFilter{DateFrom: &from, AllStatuses: true, SortDesc: true})
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, talk.ID, events[0].ID)

	events, total, err = repo.List(ctx, EventFilter{Pagination: utils.PaginationParams{Page: 2, Limit: 1, Offset: 1}})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, events, 1)
	require.Equal(t, talk.ID, events[0].ID)
}

func TestEventRepository_Stats(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	owner := createRepoUser(t, db, "owner")
	viewer := createRepoUser(t, db, "viewer")
	org := createRepoOrganization(t, db, "Org", owner.ID)
	event := createRepoEvent(t, db, "Event", org, nil, time.Now().UTC())

	_, err := repo.AddParticipant(ctx, event.ID, viewer.ID, time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.AddInterest(ctx, event.ID, viewer.ID))
	require.NoError(t, repo.AddInterest(ctx, event.ID, owner.ID))
	require.ErrorIs(t, repo.AddInterest(ctx, event.ID, owner.ID), gorm.ErrDuplicatedKey)

	stats, err := repo.Stats(ctx, []uint64{event.ID}, viewer.ID)
	require.NoError(t, err)
	require.Equal(t, EventStats{ParticipantCount: 1, InterestCount: 2, IsParticipating: true, IsInterested: true}, stats[event.ID])

	stats, err = repo.Stats(ctx, []uint64{event.ID}, 0)
	require.NoError(t, err)
	require.False(t, stats[event.ID].IsParticipating)
}

func TestOrganizationRepository_DeleteCascades(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewOrganizationRepository(db)
	events := NewEventRepository(db)
	ctx := context.Background()

	owner := createRepoUser(t, db, "owner")
	member := createRepoUser(t, db, "member")
	org := createRepoOrganization(t, db, "Org", owner.ID)
	keep := createRepoOrganization(t, db, "Keep", owner.ID)
	event := createRepoEvent(t, db, "Event", org, nil, time.Now().UTC())
	kept := createRepoEvent(t, db, "Kept", keep, nil, time.Now().UTC())

	require.NoError(t, repo.AddCollaborator(ctx, org.ID, member.ID))
	require.NoError(t, repo.AddFollower(ctx, org.ID, member.ID))
	_, err := events.AddParticipant(ctx, event.ID, member.ID, time.Now())
	require.NoError(t, err)
	_, err = events.AddParticipant(ctx, kept.ID, member.ID, time.Now())
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, org.ID))

	var count int64
	require.NoError(t, db.Model(&models.Event{}).Where("organization_id = ?", org.ID).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, db.Model(&models.EventParticipant{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
	require.NoError(t, db.Model(&models.OrganizationCollaborator{}).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, db.Model(&models.OrganizationFollower{}).Count(&count).Error)
	require.Zero(t, count)

	_, err = repo.FindByID(ctx, org.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestOrganizationRepository_Membership(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewOrganizationRepository(db)
	ctx := context.Background()

	owner := createRepoUser(t, db, "owner")
	collab := createRepoUser(t, db, "collab")
	owned := createRepoOrganization(t, db, "Owned", owner.ID)
	other := createRepoOrganization(t, db, "Other", collab.ID)

	require.NoError(t, repo.AddCollaborator(ctx, owned.ID, collab.ID))
	require.ErrorIs(t, repo.AddCollaborator(ctx, owned.ID, collab.ID), gorm.ErrDuplicatedKey)

	ok, err := repo.IsCollaborator(ctx, owned.ID, collab.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ids, err := repo.MemberOrganizationIDs(ctx, collab.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []uint64{owned.ID, other.ID}, ids)

	collaborating, err := repo.ListCollaboratingFor(ctx, collab.ID)
	require.NoError(t, err)
	require.Len(t, collaborating, 1)
	require.Equal(t, "owner", collaborating[0].Owner.Username)

	users, err := repo.ListCollaborators(ctx, owned.ID)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, collab.ID, users[0].ID)

	removed, err := repo.RemoveCollaborator(ctx, owned.ID, collab.ID)
	require.NoError(t, err)
	require.True(t, removed)
	removed, err = repo.RemoveCollaborator(ctx, owned.ID, collab.ID)
	require.NoError(t, err)
	require.False(t, removed)

	taken, err := repo.NameTaken(ctx, "Owned", 0)
	require.NoError(t, err)
	require.True(t, taken)
	taken, err = repo.NameTaken(ctx, "Owned", owned.ID)
	require.NoError(t, err)
	require.False(t, taken)

	require.NoError(t, repo.AddFollower(ctx, other.ID, owner.ID))
	followed, err := repo.FollowedAmong(ctx, owner.ID, []uint64{owned.ID, other.ID})
	require.NoError(t, err)
	require.Equal(t, map[uint64]bool{other.ID: true}, followed)

	list, total, err := repo.ListFollowedBy(ctx, owner.ID, utils.PaginationParams{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, other.ID, list[0].ID)
}

func TestUserRepository_CreateWithProfileAndEnsure(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x"}
	profile := &models.Profile{Role: models.RoleOrganizer}
	require.NoError(t, repo.CreateWithProfile(ctx, user, profile))
	require.Equal(t, user.ID, profile.UserID)

	found, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, found.Profile)
	require.Equal(t, models.RoleOrganizer, found.Profile.Role)

	dup := &models.User{Username: "alice", Email: "other@example.com", PasswordHash: "x"}
	err = repo.CreateWithProfile(ctx, dup, &models.Profile{})
	require.ErrorIs(t, err, ErrCreateUser)
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// A user created without a profile gets a default one on demand.
	bare := createRepoUser(t, db, "bare")
	ensured, err := repo.EnsureProfile(ctx, bare.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleAttendee, ensured.Role)

	again, err := repo.EnsureProfile(ctx, bare.ID)
	require.NoError(t, err)
	require.Equal(t, ensured.ID, again.ID)
}

func TestNotificationRepository_ScopedToOwner(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	alice := createRepoUser(t, db, "alice")
	bob := createRepoUser(t, db, "bob")

	first := &models.Notification{UserID: alice.ID, Title: "first"}
	second := &models.Notification{UserID: alice.ID, Title: "second"}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, &models.Notification{UserID: bob.ID, Title: "bob"}))

	list, total, err := repo.ListForUser(ctx, alice.ID, utils.PaginationParams{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Equal(t, second.ID, list[0].ID)

	_, err = repo.FindForUser(ctx, first.ID, bob.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.SetRead(ctx, first.ID, alice.ID, true))
	unread, err := repo.CountUnread(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), unread)

	updated, err := repo.MarkAllRead(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), updated)

	unread, err = repo.CountUnread(ctx, bob.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), unread)
}

func TestNotificationRepository_CountUnreadPropagatesErrors(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "notifications"`)).
		WillReturnError(errors.New("connection reset"))

	_, err = NewNotificationRepository(db).CountUnread(context.Background(), 1)
	require.EqualError(t, err, "connection reset")
	require.NoError(t, mock.ExpectationsWereMet())
}
