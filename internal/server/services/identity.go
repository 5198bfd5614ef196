package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/todoauth/internal/common"
	"github.com/dmitrijs2005/todoauth/internal/server/models"
	"github.com/dmitrijs2005/todoauth/internal/server/roles"
)

// IdentityVersion is the only Identity layout this build issues and accepts.
const IdentityVersion = 1

// Identity is the user profile carried, encrypted, inside access tokens and
// returned to clients after login or session verification.
type Identity struct {
	Version   int        `json:"v"`
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	RoleValue roles.Code `json:"roleValue"`
	Email     string     `json:"email,omitempty"`
	Mobile    string     `json:"mobile,omitempty"`
	Image     string     `json:"image,omitempty"`
}

func newIdentity(u *models.User) (Identity, error) {
	slug, ok := roles.Format(u.Role)
	if !ok {
		return Identity{}, fmt.Errorf("%w: stored role %d", common.ErrUnknownRole, int(u.Role))
	}
	return Identity{
		Version:   IdentityVersion,
		ID:        u.ID,
		Name:      u.UserName,
		Role:      slug,
		RoleValue: u.Role,
		Email:     u.Email,
		Mobile:    u.Mobile,
		Image:     u.Image,
	}, nil
}

func encodeIdentity(id Identity) (string, error) {
	b, err := json.Marshal(id)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

var errBadIdentity = errors.New("bad identity payload")

// decodeIdentity rejects unknown versions, missing required fields and a
// role slug that disagrees with the role value.
func decodeIdentity(s string) (Identity, error) {
	var id Identity
	if err := json.Unmarshal([]byte(s), &id); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", errBadIdentity, err)
	}
	if id.Version != IdentityVersion {
		return Identity{}, fmt.Errorf("%w: version %d", errBadIdentity, id.Version)
	}
	if id.ID == "" || id.Name == "" || id.Role == "" {
		return Identity{}, fmt.Errorf("%w: missing required field", errBadIdentity)
	}
	if code, ok := roles.Resolve(id.Role); !ok || code != id.RoleValue {
		return Identity{}, fmt.Errorf("%w: role %q does not match %d", errBadIdentity, id.Role, int(id.RoleValue))
	}
	return id, nil
}
