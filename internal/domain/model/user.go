package model

import "telegram-storefront-bot/internal/domain"

// FunnelState is the onboarding position of a user. It is derived from the
// stored record and only ever moves forward.
type FunnelState int

const (
	StateAnonymous FunnelState = iota
	StateHasPhone
	StateRegistered
)

func (s FunnelState) String() string {
	switch s {
	case StateHasPhone:
		return "has_phone"
	case StateRegistered:
		return "registered"
	default:
		return "anonymous"
	}
}

// User is the persisted onboarding record keyed by the Telegram user id.
type User struct {
	UserID     int64
	Phone      *string
	Latitude   *float64
	Longitude  *float64
	Registered bool
}

// UserPatch is a field-level write. Nil fields keep the stored value.
type UserPatch struct {
	Phone      *string
	Latitude   *float64
	Longitude  *float64
	Registered *bool
}

// PhonePatch records a shared contact number.
func PhonePatch(phone string) UserPatch {
	return UserPatch{Phone: &phone}
}

// LocationPatch records coordinates and completes registration.
func LocationPatch(lat, lon float64) UserPatch {
	registered := true
	return UserPatch{Latitude: &lat, Longitude: &lon, Registered: &registered}
}

func ValidateUserID(id int64) error {
	if id <= 0 {
		return domain.ErrInvalidArgument
	}
	return nil
}

// Apply merges p into u the same way the stores do: absent fields are kept
// and the registered flag never reverts.
func (u *User) Apply(p UserPatch) {
	if p.Phone != nil {
		u.Phone = p.Phone
	}
	if p.Latitude != nil {
		u.Latitude = p.Latitude
	}
	if p.Longitude != nil {
		u.Longitude = p.Longitude
	}
	if p.Registered != nil {
		u.Registered = u.Registered || *p.Registered
	}
}

func (u *User) State() FunnelState {
	switch {
	case u == nil:
		return StateAnonymous
	case u.Registered:
		return StateRegistered
	case u.Phone != nil:
		return StateHasPhone
	default:
		return StateAnonymous
	}
}

func (u *User) PhoneOr(placeholder string) string {
	if u.Phone == nil || *u.Phone == "" {
		return placeholder
	}
	return *u.Phone
}
