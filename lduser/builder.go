package lduser

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// UserBuilder builds a User via chained setter calls, finishing with Build.
//
//	user := NewUserBuilder("user-key").Name("Bob").Email("bob@example.com").Build()
//
// A UserBuilder must not be used from more than one goroutine at a time.
type UserBuilder interface {
	Key(value string) UserBuilder
	Secondary(value string) UserBuilder
	IP(value string) UserBuilder
	Country(value string) UserBuilder
	Email(value string) UserBuilder
	FirstName(value string) UserBuilder
	LastName(value string) UserBuilder
	Avatar(value string) UserBuilder
	Name(value string) UserBuilder
	Anonymous(value bool) UserBuilder
	Custom(name string, value ldvalue.Value) UserBuilder
	Build() User
}

type userBuilderImpl struct {
	key          string
	secondary    ldvalue.OptionalString
	ip           ldvalue.OptionalString
	country      ldvalue.OptionalString
	email        ldvalue.OptionalString
	firstName    ldvalue.OptionalString
	lastName     ldvalue.OptionalString
	avatar       ldvalue.OptionalString
	name         ldvalue.OptionalString
	anonymous    bool
	hasAnonymous bool
	custom       map[string]ldvalue.Value
}

// NewUserBuilder constructs a new UserBuilder, specifying the user key.
func NewUserBuilder(key string) UserBuilder {
	return &userBuilderImpl{key: key}
}

// NewUserBuilderFromUser constructs a new UserBuilder, copying all attributes from an existing
// user; further setter calls modify only the copy.
func NewUserBuilderFromUser(fromUser User) UserBuilder {
	b := &userBuilderImpl{
		key:          fromUser.key,
		secondary:    fromUser.secondary,
		ip:           fromUser.ip,
		country:      fromUser.country,
		email:        fromUser.email,
		firstName:    fromUser.firstName,
		lastName:     fromUser.lastName,
		avatar:       fromUser.avatar,
		name:         fromUser.name,
		anonymous:    fromUser.anonymous,
		hasAnonymous: fromUser.hasAnonymous,
	}
	if len(fromUser.custom) > 0 {
		b.custom = make(map[string]ldvalue.Value, len(fromUser.custom))
		for k, v := range fromUser.custom {
			b.custom[k] = v
		}
	}
	return b
}

func (b *userBuilderImpl) Key(value string) UserBuilder {
	b.key = value
	return b
}

func (b *userBuilderImpl) Secondary(value string) UserBuilder {
	b.secondary = ldvalue.NewOptionalString(value)
	return b
}

func (b *userBuilderImpl) IP(value string) UserBuilder {
	b.ip = ldvalue.NewOptionalString(value)
	return b
}

func (b *userBuilderImpl) Country(value string) UserBuilder {
	b.country = ldvalue.NewOptionalString(value)
	return b
}

func (b *userBuilderImpl) Email(value string) UserBuilder {
	b.email = ldvalue.NewOptionalString(value)
	return b
}

func (b *userBuilderImpl) FirstName(value string) UserBuilder {
	b.firstName = ldvalue.NewOptionalString(value)
	return b
}

func (b *userBuilderImpl) LastName(value string) UserBuilder {
	b.lastName = ldvalue.NewOptionalString(value)
	return b
}

func (b *userBuilderImpl) Avatar(value string) UserBuilder {
	b.avatar = ldvalue.NewOptionalString(value)
	return b
}

func (b *userBuilderImpl) Name(value string) UserBuilder {
	b.name = ldvalue.NewOptionalString(value)
	return b
}

// Anonymous sets the anonymous attribute. An anonymous user's key is never added to the
// dashboard's known-users list.
func (b *userBuilderImpl) Anonymous(value bool) UserBuilder {
	b.anonymous = value
	b.hasAnonymous = true
	return b
}

// Custom sets a custom attribute. Any JSON-representable value is allowed.
func (b *userBuilderImpl) Custom(name string, value ldvalue.Value) UserBuilder {
	if b.custom == nil {
		b.custom = make(map[string]ldvalue.Value)
	}
	b.custom[name] = value
	return b
}

// Build creates a User from the current builder properties. The User is independent of the
// builder afterward; further calls to the builder do not affect it.
func (b *userBuilderImpl) Build() User {
	u := User{
		key:          b.key,
		secondary:    b.secondary,
		ip:           b.ip,
		country:      b.country,
		email:        b.email,
		firstName:    b.firstName,
		lastName:     b.lastName,
		avatar:       b.avatar,
		name:         b.name,
		anonymous:    b.anonymous,
		hasAnonymous: b.hasAnonymous,
	}
	if len(b.custom) > 0 {
		c := make(map[string]ldvalue.Value, len(b.custom))
		for k, v := range b.custom {
			c[k] = v
		}
		u.custom = c
	}
	return u
}
