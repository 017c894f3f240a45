package auth

import (
	"fmt"
	"strings"
)

// Role is the storefront role of a user.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleAdmin    Role = "admin"
)

const defaultAvatar = "/placeholder.svg"

// User is an authenticated storefront user.
type User struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	Avatar string `json:"avatar,omitempty"`
}

// Demo accounts.
var demoUsers = []User{
	{ID: 1, Name: "Demo Customer", Email: "client@exemple.fr", Role: RoleCustomer, Avatar: defaultAvatar},
	{ID: 2, Name: "Demo Seller", Email: "vendeur@exemple.fr", Role: RoleSeller, Avatar: defaultAvatar},
	{ID: 3, Name: "Demo Admin", Email: "admin@exemple.fr", Role: RoleAdmin, Avatar: defaultAvatar},
}

// DemoUsers returns a copy of the demo accounts.
func DemoUsers() []User {
	out := make([]User, len(demoUsers))
	copy(out, demoUsers)
	return out
}

func demoUser(role Role) User {
	for _, u := range demoUsers {
		if u.Role == role {
			return u
		}
	}
	panic("no demo user for role " + string(role))
}

// RoleForEmail infers a role from an email address. There is no credential
// check: exact demo addresses first, then substrings, then customer.
func RoleForEmail(email string) Role {
	for _, u := range demoUsers {
		if email == u.Email {
			return u.Role
		}
	}
	switch {
	case strings.Contains(email, "client"):
		return RoleCustomer
	case strings.Contains(email, "vendeur"), strings.Contains(email, "seller"):
		return RoleSeller
	case strings.Contains(email, "admin"):
		return RoleAdmin
	}
	return RoleCustomer
}

// RegistrationRole infers the role of a new account. Unlike RoleForEmail
// it has no customer substring rule, so seller and admin markers win.
func RegistrationRole(email string) Role {
	switch {
	case strings.Contains(email, "vendeur"), strings.Contains(email, "seller"):
		return RoleSeller
	case strings.Contains(email, "admin"):
		return RoleAdmin
	}
	return RoleCustomer
}

// directoryUsers returns the demo accounts followed by generated ones.
func directoryUsers() []User {
	users := DemoUsers()
	for i := 0; i < 10; i++ {
		role := RoleCustomer
		if i%3 == 1 {
			role = RoleSeller
		}
		users = append(users, User{
			ID:     int64(100 + i),
			Name:   fmt.Sprintf("User %d", i+1),
			Email:  fmt.Sprintf("user%d@exemple.fr", i+1),
			Role:   role,
			Avatar: defaultAvatar,
		})
	}
	return users
}
