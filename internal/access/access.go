// Package access decides what a caller may see and do with organizations and
// their events. Every function here is pure: callers load the facts (owner,
// collaborator membership, event organizer) and pass them in.
package access

import (
	"errors"

	"github.com/yukikurage/eventhub-api/internal/models"
)

var (
	// ErrAuthenticationRequired is returned when an anonymous caller attempts an
	// operation that needs an identity.
	ErrAuthenticationRequired = errors.New("authentication credentials were not provided")
	// ErrPermissionDenied is matched by every Denial.
	ErrPermissionDenied = errors.New("you do not have permission to perform this action")
)

// Denial is an authorization failure carrying a caller-facing reason.
type Denial struct {
	Reason string
}

func (d *Denial) Error() string {
	return d.Reason
}

// Is lets errors.Is(err, ErrPermissionDenied) match any Denial.
func (d *Denial) Is(target error) bool {
	return target == ErrPermissionDenied
}

func deny(reason string) error {
	return &Denial{Reason: reason}
}

// Actor is the caller of an operation. The zero value is anonymous.
type Actor struct {
	UserID uint64
	Role   models.Role
}

// Anonymous returns the actor used for unauthenticated requests.
func Anonymous() Actor {
	return Actor{}
}

// IsAuthenticated reports whether the actor carries an identity.
func (a Actor) IsAuthenticated() bool {
	return a.UserID != 0
}

// Relationship is the actor's standing towards one organization.
type Relationship int

const (
	RelationshipAnonymous Relationship = iota
	RelationshipOther
	RelationshipCollaborator
	RelationshipOwner
)

func (r Relationship) String() string {
	switch r {
	case RelationshipOwner:
		return "owner"
	case RelationshipCollaborator:
		return "collaborator"
	case RelationshipOther:
		return "other"
	default:
		return "anonymous"
	}
}

// IsMember reports whether the relationship is owner or collaborator.
func (r Relationship) IsMember() bool {
	return r == RelationshipOwner || r == RelationshipCollaborator
}

// View is the representation of an organization returned to a caller.
type View int

const (
	ViewPublic View = iota
	ViewCollaborator
	ViewOwner
)

func (v View) String() string {
	switch v {
	case ViewOwner:
		return "owner"
	case ViewCollaborator:
		return "collaborator"
	default:
		return "public"
	}
}

// Relate classifies the actor against an organization. Ownership wins over
// collaboration when both hold.
func Relate(actor Actor, ownerID uint64, isCollaborator bool) Relationship {
	switch {
	case !actor.IsAuthenticated():
		return RelationshipAnonymous
	case actor.UserID == ownerID:
		return RelationshipOwner
	case isCollaborator:
		return RelationshipCollaborator
	default:
		return RelationshipOther
	}
}

// SelectView maps a relationship to the organization view it is entitled to.
func SelectView(rel Relationship) View {
	switch rel {
	case RelationshipOwner:
		return ViewOwner
	case RelationshipCollaborator:
		return ViewCollaborator
	default:
		return ViewPublic
	}
}

// CanCreateOrganization allows only authenticated users whose profile role is
// ORGANIZER. ADMIN does not imply ORGANIZER.
func CanCreateOrganization(actor Actor) error {
	if !actor.IsAuthenticated() {
		return ErrAuthenticationRequired
	}
	if actor.Role != models.RoleOrganizer {
		return deny("Only users with the ORGANIZER role can create organizations.")
	}
	return nil
}

// CanManageOrganization guards update, delete and collaborator management.
func CanManageOrganization(actor Actor, rel Relationship) error {
	if !actor.IsAuthenticated() {
		return ErrAuthenticationRequired
	}
	if rel != RelationshipOwner {
		return deny("Only the organization owner can perform this action.")
	}
	return nil
}

// CanCreateEvent allows the owner and collaborators of the target organization.
func CanCreateEvent(actor Actor, rel Relationship) error {
	if !actor.IsAuthenticated() {
		return ErrAuthenticationRequired
	}
	if !rel.IsMember() {
		return deny("You must be the owner or a collaborator of this organization to create events.")
	}
	return nil
}

// CanManageEvent guards update, delete, cancel and uncancel. The owner may
// manage any event of the organization; a collaborator only the events they
// organize.
func CanManageEvent(actor Actor, rel Relationship, organizerID uint64) error {
	if !actor.IsAuthenticated() {
		return ErrAuthenticationRequired
	}
	switch rel {
	case RelationshipOwner:
		return nil
	case RelationshipCollaborator:
		if organizerID == actor.UserID {
			return nil
		}
		return deny("Collaborators can only modify events they created.")
	default:
		return deny("Only the organization owner or the event organizer can modify this event.")
	}
}

// CanSeeAllEvents reports whether cancelled events and participant lists of an
// organization are visible to the relationship.
func CanSeeAllEvents(rel Relationship) bool {
	return rel.IsMember()
}

// IsFull reports whether a capacity is reached. A nil or non-positive capacity
// is unlimited.
func IsFull(capacity *int, participantCount int64) bool {
	if capacity == nil || *capacity <= 0 {
		return false
	}
	return participantCount >= int64(*capacity)
}
