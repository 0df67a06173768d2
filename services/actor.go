package services

import (
	"github.com/google/uuid"

	"github.com/andrensetiawan/form-service/models"
	"github.com/andrensetiawan/form-service/utils"
)

// Actor is whoever performs an operation. Its role comes from the users
// table, never from a client-supplied value.
type Actor struct {
	UserID uuid.UUID
	Email  string
	Name   string
	Role   models.Role
}

// PublicActor is an unauthenticated caller holding a public view token.
var PublicActor = Actor{Email: "public"}

// Can reports whether the actor's role grants capability.
func (a Actor) Can(capability models.Capability) bool {
	return utils.HasCapability(a.Role, capability)
}

func (a Actor) IsPublic() bool {
	return a.UserID == uuid.Nil
}

// Label is what gets written into created_by / updated_by columns.
func (a Actor) Label() string {
	if a.Email != "" {
		return a.Email
	}
	return a.UserID.String()
}

// seesAll reports whether the actor may read tickets not assigned to them.
func (a Actor) seesAll() bool {
	return a.Can(models.CapRequestReadAll)
}
