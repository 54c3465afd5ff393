package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/eventhub-api/internal/access"
	"github.com/yukikurage/eventhub-api/internal/models"
	"github.com/yukikurage/eventhub-api/internal/services"
)

func organizationDetail(view access.View) services.OrganizationDetail {
	established := time.Date(2015, 6, 1, 0, 0, 0, 0, time.UTC)
	return services.OrganizationDetail{
		Organization: models.Organization{
			ID:              7,
			Name:            "Go Meetup",
			OwnerID:         3,
			Owner:           models.User{ID: 3, Username: "gopher", FirstName: "Rob", LastName: "Pike"},
			EstablishedDate: &established,
		},
		View:          view,
		EventCount:    2,
		Collaborators: []models.User{{ID: 4, Username: "helper"}},
	}
}

func encode(t *testing.T, v any) map[string]any {
	t.Helper()

	raw, err := json.Marshal(v)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestToOrganizationView(t *testing.T) {
	public := encode(t, ToOrganizationView(organizationDetail(access.ViewPublic)))
	assert.NotContains(t, public, "owner_id")
	assert.NotContains(t, public, "updated_at")
	assert.NotContains(t, public, "collaborators")
	assert.NotContains(t, public, "is_collaborator")
	assert.Equal(t, "Rob Pike", public["owner_name"])
	assert.Equal(t, "2015-06-01", public["established_date"])
	assert.EqualValues(t, 2, public["event_count"])

	collaborator := encode(t, ToOrganizationView(organizationDetail(access.ViewCollaborator)))
	assert.Equal(t, true, collaborator["is_collaborator"])
	assert.NotContains(t, collaborator, "owner_id")

	owner := encode(t, ToOrganizationView(organizationDetail(access.ViewOwner)))
	assert.EqualValues(t, 3, owner["owner_id"])
	assert.Contains(t, owner, "updated_at")
	assert.Equal(t, false, owner["is_collaborator"])
	assert.Len(t, owner["collaborators"], 1)
}

func TestToParticipationDTO(t *testing.T) {
	full := ToParticipationDTO(services.ParticipationResult{
		Outcome:          services.OutcomeFull,
		ParticipantCount: 2,
		IsFull:           true,
	})
	assert.Equal(t, "Event is full.", full.Detail)
	assert.False(t, full.IsParticipating)

	registered := ToParticipationDTO(services.ParticipationResult{
		Outcome:          services.OutcomeRegistered,
		ParticipantCount: 1,
		IsParticipating:  true,
	})
	assert.True(t, registered.IsParticipating)
	assert.EqualValues(t, 1, registered.ParticipantCount)
}

func TestToCurrentUserDTO_DefaultsToAttendee(t *testing.T) {
	user := models.User{ID: 1, Username: "nobody"}
	assert.Equal(t, models.RoleAttendee, ToCurrentUserDTO(user).Role)

	user.Profile = &models.Profile{Role: models.RoleAdmin}
	assert.Equal(t, models.RoleAdmin, ToCurrentUserDTO(user).Role)
}
