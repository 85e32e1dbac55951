package users

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RoleAdmin is the reserved superuser role. Membership satisfies any
// role check; the bypass is centralized in AuthorizationChecker.
const RoleAdmin = "admin"

// Account is the account model. Exactly one of PasswordHash and
// IdentityURL is present: a federated account carries no local
// credential. ActivationCode is assigned at creation and never cleared;
// activation state is determined by ActivatedAt alone.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`

	ID                uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Login             string     `bun:"login,notnull,unique" json:"login,omitempty"`
	Name              string     `bun:"name" json:"name,omitempty"`
	Email             string     `bun:"email,notnull,unique" json:"email,omitempty"`
	IdentityURL       string     `bun:"identity_url" json:"identity_url,omitempty"`
	PasswordHash      string     `bun:"password_hash" json:"password_hash,omitempty"`
	ActivationCode    string     `bun:"activation_code,nullzero,unique" json:"activation_code,omitempty"`
	ActivatedAt       *time.Time `bun:"activated_at,nullzero" json:"activated_at,omitempty"`
	Enabled           bool       `bun:"enabled,notnull,default:true" json:"enabled,omitempty"`
	PasswordResetCode string     `bun:"password_reset_code,nullzero,unique" json:"password_reset_code,omitempty"`
	LoginAttempts     int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt    *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt        *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	Roles             []*Role    `bun:"m2m:account_roles,join:Account=Role" json:"roles,omitempty"`
	CreatedAt         *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt         *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt         *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// IsActivated reports whether the account has completed activation.
func (a *Account) IsActivated() bool {
	return a != nil && a.ActivatedAt != nil
}

// IsFederated reports whether the account authenticates through an
// external identity provider and holds no local credential.
func (a *Account) IsFederated() bool {
	return a != nil && a.IdentityURL != "" && a.PasswordHash == ""
}

// HasLocalCredential reports whether the account has a password hash a
// reset could replace.
func (a *Account) HasLocalCredential() bool {
	return a != nil && a.PasswordHash != ""
}

// RoleNames collects the names of the loaded role relation.
func (a *Account) RoleNames() []string {
	if a == nil || len(a.Roles) == 0 {
		return nil
	}
	names := make([]string, 0, len(a.Roles))
	for _, r := range a.Roles {
		if r != nil {
			names = append(names, r.Name)
		}
	}
	return names
}

// Role is identified by its name.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:rol"`

	ID   uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name string    `bun:"name,notnull,unique" json:"name,omitempty"`
}

// AccountRole is the accounts<->roles join model.
type AccountRole struct {
	bun.BaseModel `bun:"table:account_roles,alias:acr"`

	AccountID uuid.UUID `bun:"account_id,pk,type:uuid" json:"account_id,omitempty"`
	Account   *Account  `bun:"rel:belongs-to,join:account_id=id" json:"account,omitempty"`
	RoleID    uuid.UUID `bun:"role_id,pk,type:uuid" json:"role_id,omitempty"`
	Role      *Role     `bun:"rel:belongs-to,join:role_id=id" json:"role,omitempty"`
}
