package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/eventhub-api/internal/access"
	"github.com/yukikurage/eventhub-api/internal/models"
	"github.com/yukikurage/eventhub-api/internal/utils"
)

func TestNotificationService_CreateAdminOnly(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()

	admin := env.signup(t, "admin", models.RoleAdmin)
	organizer := env.signup(t, "organizer", models.RoleOrganizer)
	recipient := env.signup(t, "recipient", models.RoleAttendee)

	input := CreateNotificationInput{UserID: recipient.UserID, Title: "Welcome", Message: "Hello"}

	_, err := env.notifications.Create(ctx, organizer, input)
	require.ErrorIs(t, err, access.ErrPermissionDenied)

	_, err = env.notifications.Create(ctx, admin, CreateNotificationInput{UserID: 9999, Title: "Lost"})
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = env.notifications.Create(ctx, admin, CreateNotificationInput{UserID: recipient.UserID, Title: "  "})
	require.ErrorIs(t, err, ErrValidation)

	notification, err := env.notifications.Create(ctx, admin, input)
	require.NoError(t, err)
	assert.False(t, notification.IsRead)
	assert.Equal(t, recipient.UserID, notification.UserID)
}

func TestNotificationService_ReadFlagsAreCallerScoped(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()

	admin := env.signup(t, "admin", models.RoleAdmin)
	alice := env.signup(t, "alice", models.RoleAttendee)
	bob := env.signup(t, "bob", models.RoleAttendee)

	var ids []uint64
	for _, title := range []string{"first", "second", "third"} {
		n, err := env.notifications.Create(ctx, admin, CreateNotificationInput{UserID: alice.UserID, Title: title})
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}

	list, total, err := env.notifications.List(ctx, alice, utils.PaginationParams{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Title)

	_, err = env.notifications.Get(ctx, bob, ids[0])
	require.ErrorIs(t, err, ErrNotificationNotFound)
	_, err = env.notifications.MarkRead(ctx, bob, ids[0])
	require.ErrorIs(t, err, ErrNotificationNotFound)

	read, err := env.notifications.MarkRead(ctx, alice, ids[0])
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	unread, err := env.notifications.UnreadCount(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	unreadAgain, err := env.notifications.MarkUnread(ctx, alice, ids[0])
	require.NoError(t, err)
	assert.False(t, unreadAgain.IsRead)

	updated, err := env.notifications.MarkAllRead(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated)

	unread, err = env.notifications.UnreadCount(ctx, alice)
	require.NoError(t, err)
	assert.Zero(t, unread)

	_, err = env.notifications.UnreadCount(ctx, access.Anonymous())
	require.ErrorIs(t, err, access.ErrAuthenticationRequired)
}
