package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/souschef/souschef/internal/api"
	"github.com/souschef/souschef/internal/auth"
	"github.com/souschef/souschef/internal/auth/authorization"
	apperrors "github.com/souschef/souschef/internal/errors"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		expected string
	}{
		{name: "lowercases domain", email: "chef@EXAMPLE.COM", expected: "chef@example.com"},
		{name: "preserves local part case", email: "Chef.One@Example.com", expected: "Chef.One@example.com"},
		{name: "already normalized", email: "chef@example.com", expected: "chef@example.com"},
		{name: "no at sign passes through", email: "not-an-address", expected: "not-an-address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeEmail(tt.email))
		})
	}
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name            string
		enforceAllowed  bool
		enforceErr      error
		expectErr       bool
		expectedErrCode string
	}{
		{name: "allowed", enforceAllowed: true},
		{name: "denied", enforceAllowed: false, expectErr: true, expectedErrCode: apperrors.ErrCodeForbidden},
		{
			name:            "enforcer failure",
			enforceErr:      assert.AnError,
			expectErr:       true,
			expectedErrCode: apperrors.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authz := &mockAuthorizer{
				enforceFunc: func(_, _ string, _ authorization.Action) (bool, error) {
					return tt.enforceAllowed, tt.enforceErr
				},
			}
			svc := newTestService(serviceMocks{authz: authz})

			err := svc.Authorize("chef@example.com", authorization.ObjectRecipes, authorization.ActionRead)

			if tt.expectErr {
				require.Error(t, err)
				assert.Equal(t, tt.expectedErrCode, apperrors.GetErrorCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}

	t.Run("no authorizer configured", func(t *testing.T) {
		svc := newTestService(serviceMocks{})
		err := svc.Authorize("chef@example.com", authorization.ObjectRecipes, authorization.ActionRead)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInternalError, apperrors.GetErrorCode(err))
	})
}

func TestIsAdmin(t *testing.T) {
	t.Run("admin user", func(t *testing.T) {
		authz := &mockAuthorizer{
			enforceFunc: func(subject, object string, action authorization.Action) (bool, error) {
				assert.Equal(t, "admin@example.com", subject)
				assert.Equal(t, authorization.ObjectUsers, object)
				assert.Equal(t, authorization.ActionRead, action)
				return true, nil
			},
		}
		svc := newTestService(serviceMocks{authz: authz})
		assert.True(t, svc.IsAdmin("admin@example.com"))
	})

	t.Run("regular user", func(t *testing.T) {
		authz := &mockAuthorizer{
			enforceFunc: func(_, _ string, _ authorization.Action) (bool, error) {
				return false, nil
			},
		}
		svc := newTestService(serviceMocks{authz: authz})
		assert.False(t, svc.IsAdmin("chef@example.com"))
	})

	t.Run("enforcer failure denies", func(t *testing.T) {
		authz := &mockAuthorizer{
			enforceFunc: func(_, _ string, _ authorization.Action) (bool, error) {
				return false, assert.AnError
			},
		}
		svc := newTestService(serviceMocks{authz: authz})
		assert.False(t, svc.IsAdmin("chef@example.com"))
	})

	t.Run("no authorizer denies", func(t *testing.T) {
		svc := newTestService(serviceMocks{})
		assert.False(t, svc.IsAdmin("chef@example.com"))
	})
}

func TestRegisterUser_Validation(t *testing.T) {
	tests := []struct {
		name            string
		req             api.RegisterUserRequest
		callerIsAdmin   bool
		expectedErrCode string
	}{
		{
			name:            "missing email",
			req:             api.RegisterUserRequest{Password: "secret123"},
			expectedErrCode: apperrors.ErrCodeInvalidRequest,
		},
		{
			name:            "malformed email",
			req:             api.RegisterUserRequest{Email: "not-an-address", Password: "secret123"},
			expectedErrCode: apperrors.ErrCodeInvalidRequest,
		},
		{
			name:            "short password",
			req:             api.RegisterUserRequest{Email: "chef@example.com", Password: "abcd"},
			expectedErrCode: apperrors.ErrCodeInvalidRequest,
		},
		{
			name:            "invalid role from admin",
			req:             api.RegisterUserRequest{Email: "chef@example.com", Password: "secret123", Role: "superuser"},
			callerIsAdmin:   true,
			expectedErrCode: apperrors.ErrCodeInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created := false
			users := &mockUserRepository{
				createUserFunc: func(_ context.Context, _ *api.User, _ string) error {
					created = true
					return nil
				},
			}
			svc := newTestService(serviceMocks{users: users})

			user, err := svc.RegisterUser(context.Background(), tt.req, tt.callerIsAdmin)

			require.Error(t, err)
			assert.Nil(t, user)
			assert.Equal(t, tt.expectedErrCode, apperrors.GetErrorCode(err))
			assert.False(t, created)
		})
	}
}

func TestRegisterUser(t *testing.T) {
	t.Run("normalizes email and defaults role", func(t *testing.T) {
		var createdUser *api.User
		var createdHash string
		users := &mockUserRepository{
			createUserFunc: func(_ context.Context, user *api.User, passwordHash string) error {
				createdUser = user
				createdHash = passwordHash
				return nil
			},
		}
		var assignedTo string
		var assignedRole authorization.Role
		authz := &mockAuthorizer{
			addRoleForUserFunc: func(user string, role authorization.Role) error {
				assignedTo = user
				assignedRole = role
				return nil
			},
		}
		svc := newTestService(serviceMocks{users: users, authz: authz})

		user, err := svc.RegisterUser(context.Background(), api.RegisterUserRequest{
			Email:    "Chef.One@EXAMPLE.com",
			Password: "secret123",
			Name:     "Chef One",
		}, false)

		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "Chef.One@example.com", user.Email)
		assert.Equal(t, "Chef One", user.Name)
		assert.Equal(t, authorization.RoleUser.String(), user.Role)
		assert.True(t, user.IsActive)
		assert.WithinDuration(t, time.Now(), user.CreatedAt, 5*time.Second)

		require.NotNil(t, createdUser)
		assert.Equal(t, "Chef.One@example.com", createdUser.Email)
		require.NotEmpty(t, createdHash)
		assert.NotEqual(t, "secret123", createdHash)
		ok, err := auth.VerifyPassword("secret123", createdHash)
		require.NoError(t, err)
		assert.True(t, ok)

		assert.Equal(t, "Chef.One@example.com", assignedTo)
		assert.Equal(t, authorization.RoleUser, assignedRole)
	})

	t.Run("role request ignored for non-admin caller", func(t *testing.T) {
		svc := newTestService(serviceMocks{users: &mockUserRepository{}, authz: &mockAuthorizer{}})

		user, err := svc.RegisterUser(context.Background(), api.RegisterUserRequest{
			Email:    "sneaky@example.com",
			Password: "secret123",
			Role:     "admin",
		}, false)

		require.NoError(t, err)
		assert.Equal(t, authorization.RoleUser.String(), user.Role)
	})

	t.Run("admin caller can assign admin role", func(t *testing.T) {
		var assignedRole authorization.Role
		authz := &mockAuthorizer{
			addRoleForUserFunc: func(_ string, role authorization.Role) error {
				assignedRole = role
				return nil
			},
		}
		svc := newTestService(serviceMocks{users: &mockUserRepository{}, authz: authz})

		user, err := svc.RegisterUser(context.Background(), api.RegisterUserRequest{
			Email:    "second-admin@example.com",
			Password: "secret123",
			Role:     "admin",
		}, true)

		require.NoError(t, err)
		assert.Equal(t, authorization.RoleAdmin.String(), user.Role)
		assert.Equal(t, authorization.RoleAdmin, assignedRole)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		users := &mockUserRepository{
			getUserByEmailFunc: func(_ context.Context, email string) (*api.User, error) {
				return &api.User{Email: email}, nil
			},
		}
		svc := newTestService(serviceMocks{users: users})

		user, err := svc.RegisterUser(context.Background(), api.RegisterUserRequest{
			Email:    "chef@example.com",
			Password: "secret123",
		}, false)

		require.Error(t, err)
		assert.Nil(t, user)
		assert.Equal(t, apperrors.ErrCodeConflict, apperrors.GetErrorCode(err))
	})

	t.Run("duplicate check uses normalized email", func(t *testing.T) {
		var lookedUp string
		users := &mockUserRepository{
			getUserByEmailFunc: func(_ context.Context, email string) (*api.User, error) {
				lookedUp = email
				return nil, nil
			},
		}
		svc := newTestService(serviceMocks{users: users})

		_, err := svc.RegisterUser(context.Background(), api.RegisterUserRequest{
			Email:    "Chef@EXAMPLE.com",
			Password: "secret123",
		}, false)

		require.NoError(t, err)
		assert.Equal(t, "Chef@example.com", lookedUp)
	})

	t.Run("repository errors pass through", func(t *testing.T) {
		users := &mockUserRepository{
			getUserByEmailFunc: func(_ context.Context, _ string) (*api.User, error) {
				return nil, apperrors.ErrDatabaseError("query failed", assert.AnError)
			},
		}
		svc := newTestService(serviceMocks{users: users})

		_, err := svc.RegisterUser(context.Background(), api.RegisterUserRequest{
			Email:    "chef@example.com",
			Password: "secret123",
		}, false)

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeDatabaseError, apperrors.GetErrorCode(err))
	})
}

func TestLogin(t *testing.T) {
	passwordHash, err := auth.HashPassword("correct-horse")
	require.NoError(t, err)

	activeUser := func() *api.User {
		return &api.User{Email: "chef@example.com", Name: "Chef", Role: "user", IsActive: true}
	}

	t.Run("success mints fresh token", func(t *testing.T) {
		var stored *api.Token
		tokens := &mockTokenRepository{
			createTokenFunc: func(_ context.Context, token *api.Token) error {
				stored = token
				return nil
			},
		}
		lastLoginTouched := false
		users := &mockUserRepository{
			getUserCredentialsFunc: func(_ context.Context, email string) (*api.User, string, error) {
				assert.Equal(t, "chef@example.com", email)
				return activeUser(), passwordHash, nil
			},
			updateLastLoginFunc: func(_ context.Context, _ string) (*time.Time, error) {
				lastLoginTouched = true
				now := time.Now()
				return &now, nil
			},
		}
		svc := newTestService(serviceMocks{users: users, tokens: tokens})

		resp, err := svc.Login(context.Background(), api.LoginRequest{
			Email:    "chef@example.com",
			Password: "correct-horse",
		})

		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.NotEmpty(t, resp.Token)

		require.NotNil(t, stored)
		assert.Equal(t, auth.HashToken(resp.Token), stored.TokenHash)
		assert.NotEqual(t, resp.Token, stored.TokenHash)
		assert.Equal(t, "chef@example.com", stored.UserEmail)
		assert.Greater(t, stored.ExpiresAt, time.Now().Unix())
		assert.True(t, lastLoginTouched)
	})

	t.Run("repeated logins mint distinct tokens", func(t *testing.T) {
		users := &mockUserRepository{
			getUserCredentialsFunc: func(_ context.Context, _ string) (*api.User, string, error) {
				return activeUser(), passwordHash, nil
			},
		}
		svc := newTestService(serviceMocks{users: users, tokens: &mockTokenRepository{}})

		req := api.LoginRequest{Email: "chef@example.com", Password: "correct-horse"}
		first, err := svc.Login(context.Background(), req)
		require.NoError(t, err)
		second, err := svc.Login(context.Background(), req)
		require.NoError(t, err)

		assert.NotEqual(t, first.Token, second.Token)
	})

	t.Run("failures are indistinguishable", func(t *testing.T) {
		unknownSvc := newTestService(serviceMocks{users: &mockUserRepository{}, tokens: &mockTokenRepository{}})
		_, errUnknown := unknownSvc.Login(context.Background(), api.LoginRequest{
			Email:    "ghost@example.com",
			Password: "whatever-1",
		})

		wrongSvc := newTestService(serviceMocks{
			users: &mockUserRepository{
				getUserCredentialsFunc: func(_ context.Context, _ string) (*api.User, string, error) {
					return activeUser(), passwordHash, nil
				},
			},
			tokens: &mockTokenRepository{},
		})
		_, errWrong := wrongSvc.Login(context.Background(), api.LoginRequest{
			Email:    "chef@example.com",
			Password: "wrong-password",
		})

		inactiveSvc := newTestService(serviceMocks{
			users: &mockUserRepository{
				getUserCredentialsFunc: func(_ context.Context, _ string) (*api.User, string, error) {
					user := activeUser()
					user.IsActive = false
					return user, passwordHash, nil
				},
			},
			tokens: &mockTokenRepository{},
		})
		_, errInactive := inactiveSvc.Login(context.Background(), api.LoginRequest{
			Email:    "chef@example.com",
			Password: "correct-horse",
		})

		for _, err := range []error{errUnknown, errWrong, errInactive} {
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeUnauthorized, apperrors.GetErrorCode(err))
		}
		assert.Equal(t, apperrors.GetErrorMessage(errUnknown), apperrors.GetErrorMessage(errWrong))
		assert.Equal(t, apperrors.GetErrorMessage(errWrong), apperrors.GetErrorMessage(errInactive))
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		svc := newTestService(serviceMocks{users: &mockUserRepository{}, tokens: &mockTokenRepository{}})

		_, err := svc.Login(context.Background(), api.LoginRequest{Password: "secret123"})
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeUnauthorized, apperrors.GetErrorCode(err))

		_, err = svc.Login(context.Background(), api.LoginRequest{Email: "chef@example.com"})
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeUnauthorized, apperrors.GetErrorCode(err))
	})

	t.Run("token store failure fails login", func(t *testing.T) {
		users := &mockUserRepository{
			getUserCredentialsFunc: func(_ context.Context, _ string) (*api.User, string, error) {
				return activeUser(), passwordHash, nil
			},
		}
		tokens := &mockTokenRepository{
			createTokenFunc: func(_ context.Context, _ *api.Token) error {
				return apperrors.ErrDatabaseError("put failed", assert.AnError)
			},
		}
		svc := newTestService(serviceMocks{users: users, tokens: tokens})

		_, err := svc.Login(context.Background(), api.LoginRequest{
			Email:    "chef@example.com",
			Password: "correct-horse",
		})

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeDatabaseError, apperrors.GetErrorCode(err))
	})

	t.Run("last login update failure does not fail login", func(t *testing.T) {
		users := &mockUserRepository{
			getUserCredentialsFunc: func(_ context.Context, _ string) (*api.User, string, error) {
				return activeUser(), passwordHash, nil
			},
			updateLastLoginFunc: func(_ context.Context, _ string) (*time.Time, error) {
				return nil, apperrors.ErrDatabaseError("update failed", assert.AnError)
			},
		}
		svc := newTestService(serviceMocks{users: users, tokens: &mockTokenRepository{}})

		resp, err := svc.Login(context.Background(), api.LoginRequest{
			Email:    "chef@example.com",
			Password: "correct-horse",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
	})
}

func TestAuthenticateToken(t *testing.T) {
	validToken := func() *api.Token {
		return &api.Token{
			TokenHash: auth.HashToken("plain-token"),
			UserEmail: "chef@example.com",
			CreatedAt: time.Now().UTC(),
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		}
	}

	t.Run("resolves active user", func(t *testing.T) {
		tokens := &mockTokenRepository{
			getTokenByHashFunc: func(_ context.Context, tokenHash string) (*api.Token, error) {
				assert.Equal(t, auth.HashToken("plain-token"), tokenHash)
				return validToken(), nil
			},
		}
		users := &mockUserRepository{
			getUserByEmailFunc: func(_ context.Context, email string) (*api.User, error) {
				assert.Equal(t, "chef@example.com", email)
				return &api.User{Email: email, IsActive: true}, nil
			},
		}
		svc := newTestService(serviceMocks{users: users, tokens: tokens})

		user, err := svc.AuthenticateToken(context.Background(), "plain-token")

		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "chef@example.com", user.Email)
	})

	t.Run("missing token", func(t *testing.T) {
		svc := newTestService(serviceMocks{users: &mockUserRepository{}, tokens: &mockTokenRepository{}})
		_, err := svc.AuthenticateToken(context.Background(), "")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeUnauthorized, apperrors.GetErrorCode(err))
	})

	t.Run("unknown token", func(t *testing.T) {
		svc := newTestService(serviceMocks{users: &mockUserRepository{}, tokens: &mockTokenRepository{}})
		_, err := svc.AuthenticateToken(context.Background(), "plain-token")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidToken, apperrors.GetErrorCode(err))
	})

	t.Run("expired record still present", func(t *testing.T) {
		tokens := &mockTokenRepository{
			getTokenByHashFunc: func(_ context.Context, _ string) (*api.Token, error) {
				token := validToken()
				token.ExpiresAt = time.Now().Add(-time.Minute).Unix()
				return token, nil
			},
		}
		svc := newTestService(serviceMocks{users: &mockUserRepository{}, tokens: tokens})

		_, err := svc.AuthenticateToken(context.Background(), "plain-token")

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidToken, apperrors.GetErrorCode(err))
	})

	t.Run("user no longer exists", func(t *testing.T) {
		tokens := &mockTokenRepository{
			getTokenByHashFunc: func(_ context.Context, _ string) (*api.Token, error) {
				return validToken(), nil
			},
		}
		svc := newTestService(serviceMocks{users: &mockUserRepository{}, tokens: tokens})

		_, err := svc.AuthenticateToken(context.Background(), "plain-token")

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidToken, apperrors.GetErrorCode(err))
	})

	t.Run("deactivated user", func(t *testing.T) {
		tokens := &mockTokenRepository{
			getTokenByHashFunc: func(_ context.Context, _ string) (*api.Token, error) {
				return validToken(), nil
			},
		}
		users := &mockUserRepository{
			getUserByEmailFunc: func(_ context.Context, email string) (*api.User, error) {
				return &api.User{Email: email, IsActive: false}, nil
			},
		}
		svc := newTestService(serviceMocks{users: users, tokens: tokens})

		_, err := svc.AuthenticateToken(context.Background(), "plain-token")

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeTokenRevoked, apperrors.GetErrorCode(err))
	})
}

func TestTouchTokenLastUsed(t *testing.T) {
	t.Run("updates by token hash", func(t *testing.T) {
		var touched string
		tokens := &mockTokenRepository{
			updateTokenLastUsedFunc: func(_ context.Context, tokenHash string) (*time.Time, error) {
				touched = tokenHash
				now := time.Now()
				return &now, nil
			},
		}
		svc := newTestService(serviceMocks{tokens: tokens})

		lastUsed, err := svc.TouchTokenLastUsed(context.Background(), "plain-token")

		require.NoError(t, err)
		require.NotNil(t, lastUsed)
		assert.Equal(t, auth.HashToken("plain-token"), touched)
	})

	t.Run("missing token", func(t *testing.T) {
		svc := newTestService(serviceMocks{tokens: &mockTokenRepository{}})
		_, err := svc.TouchTokenLastUsed(context.Background(), "")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidRequest, apperrors.GetErrorCode(err))
	})
}

func TestLogout(t *testing.T) {
	t.Run("deletes current token", func(t *testing.T) {
		var deleted string
		tokens := &mockTokenRepository{
			deleteTokenFunc: func(_ context.Context, tokenHash string) error {
				deleted = tokenHash
				return nil
			},
		}
		svc := newTestService(serviceMocks{tokens: tokens})

		err := svc.Logout(context.Background(), "plain-token")

		require.NoError(t, err)
		assert.Equal(t, auth.HashToken("plain-token"), deleted)
	})

	t.Run("missing token", func(t *testing.T) {
		svc := newTestService(serviceMocks{tokens: &mockTokenRepository{}})
		err := svc.Logout(context.Background(), "")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidRequest, apperrors.GetErrorCode(err))
	})
}
