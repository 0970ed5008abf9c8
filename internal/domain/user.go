package domain

import "strings"

// User - автор отзывов. Аутентификация живет вне каталога,
// здесь нужен только разрешенный по идентификатору пользователь.
type User struct {
	id       ID
	username string
}

func NewUser(username string) (User, error) {
	if strings.TrimSpace(username) == "" {
		return User{}, invalid("username", "must not be blank")
	}
	return User{username: username}, nil
}

func RestoreUser(id ID, username string) User {
	return User{id: id, username: username}
}

func (u User) ID() ID               { return u.id }
func (u User) Username() string     { return u.username }
func (u User) Persisted(id ID) User { return User{id: id, username: u.username} }
