package access

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/eventhub-api/internal/models"
)

const ownerID uint64 = 1

func TestRelate(t *testing.T) {
	tests := []struct {
		name           string
		actor          Actor
		isCollaborator bool
		want           Relationship
	}{
		{"anonymous", Anonymous(), false, RelationshipAnonymous},
		{"anonymous ignores collaborator flag", Anonymous(), true, RelationshipAnonymous},
		{"owner", Actor{UserID: ownerID, Role: models.RoleOrganizer}, false, RelationshipOwner},
		{"owner wins over collaborator", Actor{UserID: ownerID}, true, RelationshipOwner},
		{"collaborator", Actor{UserID: 2}, true, RelationshipCollaborator},
		{"other", Actor{UserID: 3}, false, RelationshipOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Relate(tt.actor, ownerID, tt.isCollaborator))
		})
	}
}

func TestSelectView(t *testing.T) {
	assert.Equal(t, ViewPublic, SelectView(RelationshipAnonymous))
	assert.Equal(t, ViewPublic, SelectView(RelationshipOther))
	assert.Equal(t, ViewCollaborator, SelectView(RelationshipCollaborator))
	assert.Equal(t, ViewOwner, SelectView(RelationshipOwner))
}

func TestCanCreateOrganization(t *testing.T) {
	require.ErrorIs(t, CanCreateOrganization(Anonymous()), ErrAuthenticationRequired)

	for _, role := range []models.Role{models.RoleAttendee, models.RoleAdmin} {
		err := CanCreateOrganization(Actor{UserID: 5, Role: role})
		require.ErrorIs(t, err, ErrPermissionDenied, "role %s", role)
	}

	require.NoError(t, CanCreateOrganization(Actor{UserID: 5, Role: models.RoleOrganizer}))
}

func TestCanManageOrganization(t *testing.T) {
	actor := Actor{UserID: 2, Role: models.RoleOrganizer}

	require.ErrorIs(t, CanManageOrganization(Anonymous(), RelationshipAnonymous), ErrAuthenticationRequired)
	require.ErrorIs(t, CanManageOrganization(actor, RelationshipOther), ErrPermissionDenied)
	require.ErrorIs(t, CanManageOrganization(actor, RelationshipCollaborator), ErrPermissionDenied)
	require.NoError(t, CanManageOrganization(actor, RelationshipOwner))
}

func TestCanCreateEvent(t *testing.T) {
	actor := Actor{UserID: 2}

	require.ErrorIs(t, CanCreateEvent(Anonymous(), RelationshipAnonymous), ErrAuthenticationRequired)
	require.ErrorIs(t, CanCreateEvent(actor, RelationshipOther), ErrPermissionDenied)
	require.NoError(t, CanCreateEvent(actor, RelationshipCollaborator))
	require.NoError(t, CanCreateEvent(actor, RelationshipOwner))
}

func TestCanManageEvent(t *testing.T) {
	collaborator := Actor{UserID: 2}

	tests := []struct {
		name        string
		actor       Actor
		rel         Relationship
		organizerID uint64
		wantErr     error
	}{
		{"anonymous", Anonymous(), RelationshipAnonymous, 2, ErrAuthenticationRequired},
		{"owner manages any event", Actor{UserID: ownerID}, RelationshipOwner, 2, nil},
		{"collaborator manages own event", collaborator, RelationshipCollaborator, 2, nil},
		{"collaborator cannot manage others", collaborator, RelationshipCollaborator, ownerID, ErrPermissionDenied},
		{"organizer without relationship", collaborator, RelationshipOther, 2, ErrPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanManageEvent(tt.actor, tt.rel, tt.organizerID)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDenialCarriesReason(t *testing.T) {
	err := CanManageEvent(Actor{UserID: 2}, RelationshipCollaborator, ownerID)

	var denial *Denial
	require.True(t, errors.As(err, &denial))
	assert.Equal(t, "Collaborators can only modify events they created.", denial.Error())
	assert.False(t, errors.Is(err, ErrAuthenticationRequired))
}

func TestCanSeeAllEvents(t *testing.T) {
	assert.False(t, CanSeeAllEvents(RelationshipAnonymous))
	assert.False(t, CanSeeAllEvents(RelationshipOther))
	assert.True(t, CanSeeAllEvents(RelationshipCollaborator))
	assert.True(t, CanSeeAllEvents(RelationshipOwner))
}

func TestIsFull(t *testing.T) {
	capacity := func(n int) *int { return &n }

	tests := []struct {
		name     string
		capacity *int
		count    int64
		want     bool
	}{
		{"unlimited", nil, 1000, false},
		{"zero is unlimited", capacity(0), 10, false},
		{"negative is unlimited", capacity(-1), 10, false},
		{"below capacity", capacity(2), 1, false},
		{"at capacity", capacity(2), 2, true},
		{"over capacity", capacity(2), 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFull(tt.capacity, tt.count))
		})
	}
}
