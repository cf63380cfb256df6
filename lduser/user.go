// Package lduser defines the user model that targeting rules are evaluated against.
//
// A User has a required Key plus a fixed set of built-in attributes (IP, Country, Email, and so
// on) and an open-ended set of custom attributes. The preferred way to construct one is
// NewUserBuilder, not a struct literal, since the zero value of some fields (an empty OptionalString
// for instance) needs to be distinguished from "not set" when clauses test for attribute presence.
package lduser

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// User contains attributes of a user being evaluated against feature flag targeting rules.
//
// The Key is the only mandatory attribute, and must uniquely identify the user: for an
// authenticated user this might be a username or email address, for an anonymous user an IP
// address or session ID.
type User struct {
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

// NewUser creates a new user identified by the given key.
func NewUser(key string) User {
	return User{key: key}
}

// NewAnonymousUser creates a new anonymous user identified by the given key.
func NewAnonymousUser(key string) User {
	return User{key: key, anonymous: true, hasAnonymous: true}
}

// GetKey returns the unique key of the user.
func (u User) GetKey() string {
	return u.key
}

// GetSecondaryKey returns the secondary key of the user, if any.
//
// If you have chosen to bucket users by a specific attribute, the secondary key (if set) is used
// to further distinguish between users who are otherwise identical according to that attribute.
func (u User) GetSecondaryKey() ldvalue.OptionalString {
	return u.secondary
}

// GetIP returns the IP address attribute of the user, if any.
func (u User) GetIP() ldvalue.OptionalString {
	return u.ip
}

// GetCountry returns the country attribute of the user, if any.
func (u User) GetCountry() ldvalue.OptionalString {
	return u.country
}

// GetEmail returns the email address attribute of the user, if any.
func (u User) GetEmail() ldvalue.OptionalString {
	return u.email
}

// GetFirstName returns the first name attribute of the user, if any.
func (u User) GetFirstName() ldvalue.OptionalString {
	return u.firstName
}

// GetLastName returns the last name attribute of the user, if any.
func (u User) GetLastName() ldvalue.OptionalString {
	return u.lastName
}

// GetAvatar returns the avatar URL attribute of the user, if any.
func (u User) GetAvatar() ldvalue.OptionalString {
	return u.avatar
}

// GetName returns the full name attribute of the user, if any.
func (u User) GetName() ldvalue.OptionalString {
	return u.name
}

// GetAnonymous returns the anonymous attribute of the user. An anonymous user's key is never
// added to the dashboard's known-users list.
func (u User) GetAnonymous() bool {
	return u.anonymous
}

// GetAnonymousOptional returns the anonymous attribute along with whether it was set at all.
func (u User) GetAnonymousOptional() (bool, bool) {
	return u.anonymous, u.hasAnonymous
}

// GetCustom returns a custom attribute of the user by name. The second return value is false if
// no value was set for that name.
func (u User) GetCustom(attrName string) (ldvalue.Value, bool) {
	if u.custom == nil {
		return ldvalue.Null(), false
	}
	v, ok := u.custom[attrName]
	return v, ok
}

// GetCustomKeys returns the names of all custom attributes that have been set on this user.
func (u User) GetCustomKeys() []string {
	if len(u.custom) == 0 {
		return nil
	}
	keys := make([]string, 0, len(u.custom))
	for k := range u.custom {
		keys = append(keys, k)
	}
	return keys
}

// ValueOf resolves an attribute reference used by a targeting clause to its value on this user,
// covering both the built-in attribute names and anything in the custom attribute map. The
// "key" attribute always resolves even though it has no corresponding OptionalString field.
func (u User) ValueOf(attr string) (ldvalue.Value, bool) {
	switch attr {
	case "key":
		return ldvalue.String(u.key), true
	case "secondary":
		return optionalStringValue(u.secondary)
	case "ip":
		return optionalStringValue(u.ip)
	case "country":
		return optionalStringValue(u.country)
	case "email":
		return optionalStringValue(u.email)
	case "firstName":
		return optionalStringValue(u.firstName)
	case "lastName":
		return optionalStringValue(u.lastName)
	case "avatar":
		return optionalStringValue(u.avatar)
	case "name":
		return optionalStringValue(u.name)
	case "anonymous":
		if !u.hasAnonymous {
			return ldvalue.Null(), false
		}
		return ldvalue.Bool(u.anonymous), true
	default:
		return u.GetCustom(attr)
	}
}

func optionalStringValue(o ldvalue.OptionalString) (ldvalue.Value, bool) {
	s, ok := o.Get()
	if !ok {
		return ldvalue.Null(), false
	}
	return ldvalue.String(s), true
}
