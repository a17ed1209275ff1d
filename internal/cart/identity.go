package cart

import (
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
)

// Identity names the owner of a cart. Exactly one of UserID or SessionID is
// set for any cart operation.
type Identity struct {
	UserID    uuid.UUID
	SessionID string
}

func UserIdentity(userID uuid.UUID) Identity {
	return Identity{UserID: userID}
}

// SessionIdentity trims surrounding whitespace so every lookup and insert
// agrees on the stored key.
func SessionIdentity(sessionID string) Identity {
	return Identity{SessionID: strings.TrimSpace(sessionID)}
}

func (i Identity) HasUser() bool {
	return i.UserID != uuid.Nil
}

func (i Identity) HasSession() bool {
	return strings.TrimSpace(i.SessionID) != ""
}

// normalized returns the identity with its session key in stored form.
func (i Identity) normalized() Identity {
	i.SessionID = strings.TrimSpace(i.SessionID)
	return i
}

// validate checks the exactly-one rule, reporting violations with code.
func (i Identity) validate(code pkgerrors.Code) error {
	switch {
	case i.HasUser() && i.HasSession():
		return pkgerrors.New(code, "identity carries both user and session")
	case !i.HasUser() && !i.HasSession():
		return pkgerrors.New(code, "identity carries neither user nor session")
	}
	return nil
}
