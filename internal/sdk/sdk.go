// Package sdk exposes one typed client per API resource. Every method returns
// the apiclient.Result of its call unchanged.
package sdk

import (
	"github.com/Bahjat/living-memory/internal/apiclient"
)

// API bundles the resource clients that share one transport and strategy.
type API struct {
	Auth       *AuthClient
	Onboarding *OnboardingClient
	Household  *HouseholdClient
	Health     *HealthClient
}

// New builds every resource client on top of a single apiclient.Client.
func New(baseURL string, strategy apiclient.Strategy, opts ...apiclient.Option) *API {
	root := apiclient.New(baseURL, strategy, opts...)
	return &API{
		Auth:       &AuthClient{c: root.Sub("/api/auth")},
		Onboarding: &OnboardingClient{c: root.Sub("/api/onboarding")},
		Household:  &HouseholdClient{c: root.Sub("/api/household")},
		Health:     &HealthClient{c: root.Sub("/api")},
	}
}

// NewSSR forwards the headers of the request being served on every call.
func NewSSR(baseURL string, opts ...apiclient.Option) *API {
	return New(baseURL, apiclient.SSR(), opts...)
}

// NewBrowser keeps its own cookie jar across calls.
func NewBrowser(baseURL string, opts ...apiclient.Option) *API {
	return New(baseURL, apiclient.Browser(), opts...)
}
