package session

// Context is the identity a single request carries. The zero value is anonymous.
type Context struct {
	Email string
}

func Anonymous() Context {
	return Context{}
}

func Authenticated(email string) Context {
	return Context{Email: email}
}

func (c Context) IsAuthenticated() bool {
	return c.Email != ""
}
