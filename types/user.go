package types

// User is the caller identity resolved from a bearer token. Users are owned
// by the external identity provider, this service only keys rows by ID.
type User struct {
	ID    string
	Email string
}

func (u User) IsSet() bool {
	return u.ID != ""
}
