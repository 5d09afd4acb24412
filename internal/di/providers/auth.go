package providers

import (
	"encoding/hex"

	"github.com/samber/do/v2"

	"github.com/tabstash/tabstash-server/internal/auth"
	"github.com/tabstash/tabstash-server/internal/config"
	"github.com/tabstash/tabstash-server/internal/identity/auth0"
	"github.com/tabstash/tabstash-server/internal/logger"
)

// AuthKey wraps the authentication key bytes.
type AuthKey []byte

// ProvideAuthKey loads or generates the authentication key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return nil, err
	}

	// Update config with the loaded key
	cfg.Auth.AccessTokenKey = key

	log.Info("Authentication key loaded",
		"access_token_duration", cfg.Auth.AccessTokenDuration,
		"refresh_token_duration", cfg.Auth.RefreshTokenDuration,
	)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	keyHex := hex.EncodeToString([]byte(authKey))
	return auth.NewTokenService(keyHex, cfg.Auth.AccessTokenDuration, cfg.Auth.RefreshTokenDuration)
}

// IdentityHandle wraps the OAuth provider client. Client is nil when the
// redirect flow is not configured; local login still works.
type IdentityHandle struct {
	Client *auth0.Client
}

// ProvideIdentityClient provides the OAuth provider client.
func ProvideIdentityClient(i do.Injector) (*IdentityHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.ProviderEnabled() {
		log.Info("OAuth provider not configured, redirect login disabled")
		return &IdentityHandle{Client: nil}, nil
	}

	client := auth0.New(auth0.Config{
		Domain:       cfg.Auth.ProviderDomain,
		ClientID:     cfg.Auth.ProviderClientID,
		ClientSecret: cfg.Auth.ProviderClientSecret,
		CallbackURL:  cfg.Auth.ProviderCallbackURL,
	})

	log.Info("OAuth provider configured", "domain", cfg.Auth.ProviderDomain)

	return &IdentityHandle{Client: client}, nil
}
