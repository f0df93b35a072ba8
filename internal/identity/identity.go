package identity

import (
	"context"
	"strings"
	"time"
)

// Identity is a verified user session.
type Identity struct {
	Subject    string    `json:"subject"`
	Address    string    `json:"address"`
	VerifiedAt time.Time `json:"verifiedAt"`
}

// Provider exposes the current session. Current returns nil, nil when nobody
// is signed in.
type Provider interface {
	Current(ctx context.Context) (*Identity, error)
	SendLoginChallenge(ctx context.Context, address string) error
	SignOut(ctx context.Context) error
}

// NormalizeAddress lower-cases and trims an address so it can be compared
// and used as an owner key.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// AllowList is a closed set of addresses. The empty list admits everyone.
type AllowList map[string]struct{}

func NewAllowList(addresses []string) AllowList {
	list := AllowList{}
	for _, a := range addresses {
		if n := NormalizeAddress(a); n != "" {
			list[n] = struct{}{}
		}
	}
	return list
}

func (l AllowList) Allows(address string) bool {
	if len(l) == 0 {
		return true
	}
	_, ok := l[NormalizeAddress(address)]
	return ok
}
