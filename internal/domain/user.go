package domain

// User is the transient copy of the identity record for the signed-in caller.
type User struct {
	Username string
	Email    string
	Role     Role
}
