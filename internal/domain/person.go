package domain

import "strings"

// ID - идентификатор, который выдает хранилище при первой вставке.
// Нулевое значение означает, что сущность еще не сохранялась.
type ID int64

// Assigned сообщает, выдан ли идентификатор хранилищем.
func (id ID) Assigned() bool { return id > 0 }

// Actor - актер каталога.
type Actor struct {
	id   ID
	name string
}

// NewActor создает еще не сохраненного актера.
func NewActor(name string) (Actor, error) {
	if strings.TrimSpace(name) == "" {
		return Actor{}, invalid("name", "must not be blank")
	}
	return Actor{name: name}, nil
}

// RestoreActor восстанавливает актера из хранилища.
func RestoreActor(id ID, name string) Actor {
	return Actor{id: id, name: name}
}

func (a Actor) ID() ID                { return a.id }
func (a Actor) Name() string          { return a.name }
func (a Actor) Persisted(id ID) Actor { return Actor{id: id, name: a.name} }

// Rename возвращает копию актера с новым именем.
func (a Actor) Rename(name string) (Actor, error) {
	if strings.TrimSpace(name) == "" {
		return a, invalid("name", "must not be blank")
	}
	return Actor{id: a.id, name: name}, nil
}

// SameAs сравнивает актеров по идентичности. Несохраненные актеры не равны никому.
func (a Actor) SameAs(other Actor) bool {
	return a.id.Assigned() && a.id == other.id
}

// Director - режиссер каталога.
type Director struct {
	id   ID
	name string
}

func NewDirector(name string) (Director, error) {
	if strings.TrimSpace(name) == "" {
		return Director{}, invalid("name", "must not be blank")
	}
	return Director{name: name}, nil
}

func RestoreDirector(id ID, name string) Director {
	return Director{id: id, name: name}
}

func (d Director) ID() ID                   { return d.id }
func (d Director) Name() string             { return d.name }
func (d Director) Persisted(id ID) Director { return Director{id: id, name: d.name} }

func (d Director) Rename(name string) (Director, error) {
	if strings.TrimSpace(name) == "" {
		return d, invalid("name", "must not be blank")
	}
	return Director{id: d.id, name: name}, nil
}

func (d Director) SameAs(other Director) bool {
	return d.id.Assigned() && d.id == other.id
}
