// Package orchestrator runs one or more translation services for a single
// request. With several services configured, they race and the first success
// wins; each service gets exactly one attempt.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/valpere/bhasha/internal/translator"
)

type OrchestratorConfig struct {
	// Timeout bounds each service call. Zero means no extra deadline.
	Timeout time.Duration
}

type Orchestrator struct {
	services []translator.TranslationService
	config   OrchestratorConfig
}

func New(services []translator.TranslationService, config OrchestratorConfig) *Orchestrator {
	return &Orchestrator{
		services: services,
		config:   config,
	}
}

func (o *Orchestrator) Services() []translator.TranslationService {
	return o.services
}

// DetectsSource reports whether every configured service accepts "auto".
func (o *Orchestrator) DetectsSource() bool {
	for _, svc := range o.services {
		if !translator.DetectsSource(svc) {
			return false
		}
	}
	return len(o.services) > 0
}

func (o *Orchestrator) call(ctx context.Context, svc translator.TranslationService, cfg translator.ServiceConfig, req translator.TranslateRequest) (*translator.ServiceResult, error) {
	if o.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.Timeout)
		defer cancel()
	}

	res, err := svc.Translate(ctx, cfg, req)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, context.DeadlineExceeded) {
			return res, fmt.Errorf("%s: timed out after %s", svc.Name(), o.config.Timeout)
		}
		return res, fmt.Errorf("%s: %w", svc.Name(), err)
	}
	if res == nil {
		return nil, fmt.Errorf("%s: no result", svc.Name())
	}
	if res.Error != "" {
		return res, fmt.Errorf("%s: %s", res.ServiceName, res.Error)
	}
	return res, nil
}

// Translate returns the first successful result. When every service fails
// the errors are joined in completion order.
func (o *Orchestrator) Translate(ctx context.Context, cfg translator.ServiceConfig, req translator.TranslateRequest) (*translator.ServiceResult, error) {
	switch len(o.services) {
	case 0:
		return nil, fmt.Errorf("no translation services configured")
	case 1:
		return o.call(ctx, o.services[0], cfg, req)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type resultChan struct {
		res *translator.ServiceResult
		err error
	}

	results := make(chan resultChan, len(o.services))
	for _, svc := range o.services {
		go func(service translator.TranslationService) {
			res, err := o.call(ctx, service, cfg, req)
			results <- resultChan{res: res, err: err}
		}(svc)
	}

	var errs []error
	for range o.services {
		rc := <-results
		if rc.err == nil {
			return rc.res, nil
		}
		errs = append(errs, rc.err)
	}

	return nil, errors.Join(errs...)
}
