// Package cms pushes approved recipes to the site backend over HTTP.
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"RecipeRadar/internal/config"
	"RecipeRadar/internal/domain"
	"RecipeRadar/internal/ports"
)

// Publisher posts recipes to the CMS API. Recipes whose plan does not
// allow automatic publication are parked in an in-memory pending queue
// for manual review.
type Publisher struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *slog.Logger

	mu      sync.Mutex
	pending []*domain.Recipe
}

var _ ports.RecipePublisher = (*Publisher)(nil)

// New builds a publisher from CMS configuration.
func New(cfg config.CMSConfig, logger *slog.Logger) *Publisher {
	return &Publisher{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger.With("component", "cms"),
	}
}

// Publish sends the recipe to the CMS when its plan allows it; otherwise
// the recipe is queued for approval. The returned bool reports whether
// the recipe actually went out.
func (p *Publisher) Publish(ctx context.Context, recipe *domain.Recipe) (bool, error) {
	if !recipe.Plan.Publish {
		p.enqueue(recipe)
		p.logger.Info("recipe queued for approval", "title", recipe.Title, "priority", recipe.Plan.Priority)
		return false, nil
	}

	if err := p.post(ctx, recipe); err != nil {
		return false, err
	}

	p.logger.Info("recipe published", "title", recipe.Title, "priority", recipe.Plan.Priority)
	return true, nil
}

func (p *Publisher) post(ctx context.Context, recipe *domain.Recipe) error {
	if p.endpoint == "" {
		return fmt.Errorf("cms publisher misconfigured: empty endpoint")
	}

	body, err := json.Marshal(recipe)
	if err != nil {
		return fmt.Errorf("marshal recipe: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("cms error: %s: %s", resp.Status, bytes.TrimSpace(detail))
	}

	return nil
}

func (p *Publisher) enqueue(recipe *domain.Recipe) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, recipe)
}

// Pending returns a snapshot of recipes awaiting manual approval.
func (p *Publisher) Pending() []*domain.Recipe {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*domain.Recipe, len(p.pending))
	copy(out, p.pending)
	return out
}

// Close drops the pending queue.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n := len(p.pending); n > 0 {
		p.logger.Warn("discarding pending recipes on shutdown", "count", n)
	}
	p.pending = nil
	return nil
}
