package service

import "libraryhub/internal/microservices/http-api/models"

// Actor is the authenticated caller as reported by the token verifier.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// CanAccess reports whether the actor may act on a record owned by ownerID.
func (a Actor) CanAccess(ownerID string) bool {
	return a.IsAdmin() || (a.UserID != "" && a.UserID == ownerID)
}
