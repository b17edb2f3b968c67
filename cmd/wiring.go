package cmd

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/samkraft/samkraft-api/internal/api"
	"github.com/samkraft/samkraft-api/internal/applications"
	"github.com/samkraft/samkraft-api/internal/auth"
	"github.com/samkraft/samkraft-api/internal/captcha"
	"github.com/samkraft/samkraft-api/internal/certificates"
	"github.com/samkraft/samkraft-api/internal/filtering"
	"github.com/samkraft/samkraft-api/internal/projects"
	"github.com/samkraft/samkraft-api/internal/store"
	"github.com/samkraft/samkraft-api/internal/store/memory"
	"github.com/samkraft/samkraft-api/internal/store/postgrest"
)

// coreModule provides the domain services shared by the commands.
var coreModule = fx.Options(
	fx.Provide(
		newStore,
		newProjects,
		newRecorder,
		newIssuer,
	),
)

func newStore(config *Config, logger *zap.Logger) (store.Store, error) {
	if config.Backend.Kind == backendMemory {
		logger.Warn("using the in-memory backend, data is lost on exit")
		return memory.New(), nil
	}

	key, err := config.serviceKey()
	if err != nil {
		return nil, err
	}

	client, err := postgrest.New(postgrest.Config{
		URL:        config.Backend.URL,
		ServiceKey: key,
		Timeout:    config.Backend.Timeout,
		PageSize:   config.Backend.PageSize,
	}, logger)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func newProjects(s store.Store, config *Config, logger *zap.Logger) (*projects.Service, error) {
	mode, err := filtering.ParseSkillMode(config.Matching.SkillMode)
	if err != nil {
		return nil, err
	}
	return projects.NewService(s, logger, projects.Options{
		ExcludeFull: config.Matching.ExcludeFull,
		SkillMode:   mode,
	}), nil
}

func newRecorder(s store.Store, config *Config, logger *zap.Logger) (*applications.Recorder, error) {
	policy, err := applications.ParseDuplicatePolicy(config.Applications.DuplicatePolicy)
	if err != nil {
		return nil, err
	}
	return applications.NewRecorder(s, policy, logger), nil
}

func newIssuer(s store.Store, logger *zap.Logger) *certificates.Issuer {
	return certificates.NewIssuer(s, logger)
}

func newCaptcha(config *Config, logger *zap.Logger) (*captcha.Verifier, error) {
	secret, err := config.turnstileSecret()
	if err != nil {
		return nil, err
	}
	v := captcha.New(captcha.Config{
		Secret:   secret,
		Endpoint: config.Turnstile.Endpoint,
		Timeout:  config.Turnstile.Timeout,
	}, logger)
	if !v.Enabled() {
		logger.Warn("turnstile secret is not configured, token verification will fail")
	}
	return v, nil
}

// newAuthenticator returns nil when no JWT secret is configured.
func newAuthenticator(s store.Store, config *Config, logger *zap.Logger) (*auth.Authenticator, error) {
	secret, err := config.jwtSecret()
	if err != nil {
		return nil, err
	}
	if secret == "" {
		return nil, nil
	}
	return auth.New(secret, s, logger)
}

type serverParams struct {
	fx.In

	Config   *Config
	Logger   *zap.Logger
	Store    store.Store
	Projects *projects.Service
	Recorder *applications.Recorder
	Issuer   *certificates.Issuer
	Captcha  *captcha.Verifier
	Auth     *auth.Authenticator
}

func newServer(p serverParams) *api.Server {
	return api.New(api.Config{
		Address:        p.Config.Server.Address,
		AllowedOrigins: p.Config.Server.AllowedOrigins,
		RequestTimeout: p.Config.Server.RequestTimeout,
		Debug:          viperDebug(),
	}, api.Deps{
		Store:    p.Store,
		Projects: p.Projects,
		Recorder: p.Recorder,
		Issuer:   p.Issuer,
		Captcha:  p.Captcha,
		Auth:     p.Auth,
	}, p.Logger)
}
