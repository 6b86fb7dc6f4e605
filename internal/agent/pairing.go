package agent

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Bahjat/living-memory/internal/apiclient"
	"github.com/Bahjat/living-memory/internal/model"
	"github.com/Bahjat/living-memory/internal/platform/try"
	"github.com/Bahjat/living-memory/internal/sdk"
)

// slowDownStep is added to the polling interval on every slow_down reply.
const slowDownStep = 5 * time.Second

const minInterval = time.Second

var errPairingFailed = errors.New("agent: could not start pairing")

// DeviceAuthorizer is the part of the auth API the agent needs.
// *sdk.AuthClient implements it.
type DeviceAuthorizer interface {
	DeviceCode(ctx context.Context, req model.DeviceCodeRequest, inbound *http.Request) apiclient.Result[model.DeviceCodeResponse]
	DeviceToken(ctx context.Context, req model.DeviceTokenRequest, inbound *http.Request) apiclient.Result[model.TokenResponse]
}

// Pairer runs the device authorization grant and drives the Manager.
type Pairer struct {
	auth     DeviceAuthorizer
	status   *Manager
	clientID string
	scope    string
	logger   *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPairer(auth DeviceAuthorizer, status *Manager, clientID, scope string, logger *slog.Logger) *Pairer {
	return &Pairer{
		auth:     auth,
		status:   status,
		clientID: clientID,
		scope:    scope,
		logger:   logger,
		sleep:    sleepContext,
		now:      time.Now,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Begin requests a device code and switches the Manager to PAIRING.
func (p *Pairer) Begin(ctx context.Context) (model.DeviceCodeResponse, error) {
	res := p.auth.DeviceCode(ctx, model.DeviceCodeRequest{ClientID: p.clientID, Scope: p.scope}, nil)
	code, err := res.Unwrap()
	if err != nil {
		p.logger.ErrorContext(ctx, "device code request failed", "error", err)
		return model.DeviceCodeResponse{}, errors.Join(errPairingFailed, err)
	}
	if err := p.status.SetPairing(code); err != nil {
		p.status.SetError("Could not save the pairing state")
		return model.DeviceCodeResponse{}, err
	}
	p.logger.InfoContext(ctx, "pairing started", "user_code", code.UserCode, "expires_in", code.ExpiresIn)
	return code, nil
}

// Start begins pairing and polls in the background until the grant reaches a
// terminal state. A running poll loop is replaced.
func (p *Pairer) Start(ctx context.Context) (model.DeviceCodeResponse, error) {
	code, err := p.Begin(ctx)
	if err != nil {
		return code, err
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.cancel = cancel
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer cancel()
		err := try.Go(func() error {
			p.Poll(loopCtx, code)
			return nil
		})
		if err != nil {
			p.logger.Error("pairing loop crashed", "user_code", code.UserCode, "error", err)
			p.status.SetError("Pairing stopped unexpectedly")
		}
	}()
	return code, nil
}

// Close stops the background poll loop and waits for it.
func (p *Pairer) Close() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// Poll asks for the token every interval until the grant is approved, denied,
// expired or fails. It returns the resulting status. Cancelling ctx stops the
// loop without changing the status.
func (p *Pairer) Poll(ctx context.Context, code model.DeviceCodeResponse) Status {
	interval := max(time.Duration(code.Interval)*time.Second, minInterval)
	expiresAt := p.now().Add(time.Duration(code.ExpiresIn) * time.Second)
	req := model.DeviceTokenRequest{
		GrantType:  model.DeviceGrantType,
		DeviceCode: code.DeviceCode,
		ClientID:   p.clientID,
	}
	logger := p.logger.With("user_code", code.UserCode)

	for {
		if err := p.sleep(ctx, interval); err != nil {
			return p.status.Status()
		}
		if !p.now().Before(expiresAt) {
			p.status.SetExpired("The pairing code has expired")
			return p.status.Status()
		}

		res := p.auth.DeviceToken(ctx, req, nil)
		if res.Success {
			if err := p.status.SetAuthorized(code.DeviceCode, res.Data.AccessToken); err != nil {
				logger.ErrorContext(ctx, "could not persist token", "error", err)
			} else {
				logger.InfoContext(ctx, "device authorized")
			}
			return p.status.Status()
		}
		if ctx.Err() != nil {
			return p.status.Status()
		}

		oe, ok := sdk.OAuthErrorOf(res.Error)
		if !ok {
			logger.ErrorContext(ctx, "token poll failed", "error_type", res.Error.ErrorType, "message", res.Error.Message)
			p.status.SetError(res.Error.Message)
			return p.status.Status()
		}

		switch oe.Code {
		case model.OAuthAuthorizationPending:
		case model.OAuthSlowDown:
			interval += slowDownStep
			logger.WarnContext(ctx, "slowing down token polling", "interval", interval.String())
		case model.OAuthAccessDenied:
			p.status.SetDenied("Pairing was denied")
			return p.status.Status()
		case model.OAuthExpiredToken:
			p.status.SetExpired("The pairing code has expired")
			return p.status.Status()
		default:
			msg := oe.Description
			if msg == "" {
				msg = oe.Code
			}
			logger.ErrorContext(ctx, "token poll rejected", "error", oe.Code, "description", oe.Description)
			p.status.SetError(msg)
			return p.status.Status()
		}
	}
}
