package auth

import (
	"context"
)

type userKeyType struct{}

var userKey userKeyType

type User struct {
	Username     string
	Organization string
}

func UserFromContext(ctx context.Context) (User, bool) {
	val := ctx.Value(userKey)
	if val == nil {
		return User{}, false
	}
	return val.(User), true
}

func NewUserContext(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey, u)
}
