// Package authn implements credential verification and OAuth identity
// reconciliation. Both are read-mostly operations over the users collection;
// session minting happens in the login handlers.
package authn

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	userstore "github.com/dmoreira/cobrafacil/internal/app/store/users"
	"github.com/dmoreira/cobrafacil/internal/app/system/authutil"
	"github.com/dmoreira/cobrafacil/internal/domain/models"
)

var (
	// ErrInvalidCredentials covers unknown email, missing password hash,
	// and wrong password alike, so responses don't reveal which it was.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountDisabled is returned for correct credentials on a disabled
	// account.
	ErrAccountDisabled = errors.New("account is disabled")
)

// UserSource is the slice of the user store authn needs.
type UserSource interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u models.User) (models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, name, picture string) error
}

// Identity is the verified account identity handed to session minting.
type Identity struct {
	UserID   primitive.ObjectID
	Name     string
	Role     string
	TenantID *primitive.ObjectID
	IsActive bool
}

// Verifier checks email/password credentials.
type Verifier struct {
	users UserSource
	log   *zap.Logger
}

// NewVerifier builds a Verifier; users is normally *userstore.Store.
func NewVerifier(users UserSource, logger *zap.Logger) *Verifier {
	return &Verifier{users: users, log: logger}
}

// Verify checks credentials and returns the account identity. The password
// comparison is constant-time bcrypt; plaintext equality is never used.
func (v *Verifier) Verify(ctx context.Context, email, password string) (Identity, error) {
	u, err := v.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, err
	}

	// OAuth-only accounts have no hash and cannot log in with a password.
	if !u.HasPassword() {
		return Identity{}, ErrInvalidCredentials
	}
	if !authutil.CheckPassword(password, *u.PasswordHash) {
		return Identity{}, ErrInvalidCredentials
	}
	if !u.IsActive {
		return Identity{}, ErrAccountDisabled
	}

	return Identity{
		UserID:   u.ID,
		Name:     u.Name,
		Role:     u.Role,
		TenantID: u.TenantID,
		IsActive: true,
	}, nil
}

// ExternalIdentity is the profile asserted by an OAuth provider.
type ExternalIdentity struct {
	Email    string
	Name     string
	Picture  string
	Provider string // "google"
	Subject  string // provider's stable user id
}

// Reconciler maps external identities onto local users.
type Reconciler struct {
	users UserSource
	log   *zap.Logger
}

// NewReconciler builds a Reconciler; users is normally *userstore.Store.
func NewReconciler(users UserSource, logger *zap.Logger) *Reconciler {
	return &Reconciler{users: users, log: logger}
}

// Reconcile returns the local user for an external identity, creating a
// tenant-less, password-less user on first sight. It never overwrites an
// existing user's password, role, or tenant.
//
// Two concurrent first logins race at the unique email index; the loser
// retries the lookup and returns the winner's user.
func (r *Reconciler) Reconcile(ctx context.Context, ext ExternalIdentity) (*models.User, error) {
	u, err := r.users.GetByEmail(ctx, ext.Email)
	if err == nil {
		if !u.IsActive {
			return nil, ErrAccountDisabled
		}
		// Refresh the display profile; failure is not fatal.
		if upErr := r.users.UpdateProfile(ctx, u.ID, ext.Name, ext.Picture); upErr != nil {
			r.log.Warn("profile refresh failed", zap.Error(upErr),
				zap.String("user_id", u.ID.Hex()))
		}
		return u, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	subject := ext.Subject
	created, err := r.users.Create(ctx, models.User{
		Name:         ext.Name,
		Email:        ext.Email,
		Picture:      ext.Picture,
		AuthMethod:   models.AuthGoogle,
		AuthReturnID: &subject,
		Role:         models.RoleMember,
	})
	if err == nil {
		r.log.Info("provisioned user from oauth login",
			zap.String("user_id", created.ID.Hex()),
			zap.String("provider", ext.Provider))
		return &created, nil
	}
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		return nil, err
	}

	// Lost the insert race; the user now exists.
	u, err = r.users.GetByEmail(ctx, ext.Email)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}
	return u, nil
}
