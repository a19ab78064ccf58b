package domain

// Actor is the authenticated caller context, rebuilt per request from a
// verified token plus the backing account record. Never persisted.
type Actor struct {
	ID           string
	Name         string
	Role         Role
	SupervisorID *string
}

// ActorFor derives the actor context from an account.
func ActorFor(u *User) Actor {
	return Actor{
		ID:           u.ID,
		Name:         u.Name,
		Role:         u.Role,
		SupervisorID: u.SupervisorID,
	}
}
