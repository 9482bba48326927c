// Package regions looks up Brazilian states and their cities on the IBGE
// localities API.
package regions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"ecoleta/internal/validate"
)

const (
	DefaultBaseURL = "https://servicodados.ibge.gov.br/api/v1/localidades"
	cacheTTL       = 24 * time.Hour
)

type cached struct {
	values    []string
	fetchedAt time.Time
}

// Directory fetches and caches region lists.
type Directory struct {
	client  *http.Client
	baseURL string
	ttl     time.Duration
	now     func() time.Time

	mu    sync.RWMutex
	cache map[string]cached
}

// New returns a directory for baseURL, or the public IBGE API when empty.
func New(baseURL string) *Directory {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Directory{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		ttl:     cacheTTL,
		now:     time.Now,
		cache:   map[string]cached{},
	}
}

// States returns the state codes (sigla), sorted.
func (d *Directory) States(ctx context.Context) ([]string, error) {
	return d.get(ctx, "estados", func() ([]string, error) {
		var resp []struct {
			Sigla string `json:"sigla"`
		}
		if err := d.fetch(ctx, d.baseURL+"/estados", &resp); err != nil {
			return nil, err
		}
		out := make([]string, 0, len(resp))
		for _, s := range resp {
			out = append(out, s.Sigla)
		}
		sort.Strings(out)
		return out, nil
	})
}

// Cities returns the city names of uf, sorted.
func (d *Directory) Cities(ctx context.Context, uf string) ([]string, error) {
	code, ok := validate.UF(uf)
	if !ok || code == "" {
		return nil, fmt.Errorf("invalid state code %q", uf)
	}
	return d.get(ctx, "cities/"+code, func() ([]string, error) {
		var resp []struct {
			Nome string `json:"nome"`
		}
		if err := d.fetch(ctx, d.baseURL+"/estados/"+url.PathEscape(code)+"/municipios", &resp); err != nil {
			return nil, err
		}
		out := make([]string, 0, len(resp))
		for _, c := range resp {
			out = append(out, c.Nome)
		}
		sort.Strings(out)
		return out, nil
	})
}

// get serves key from cache while fresh. A failed refresh falls back to the
// stale entry when one exists.
func (d *Directory) get(ctx context.Context, key string, load func() ([]string, error)) ([]string, error) {
	d.mu.RLock()
	c, ok := d.cache[key]
	d.mu.RUnlock()
	if ok && d.now().Sub(c.fetchedAt) < d.ttl {
		return clone(c.values), nil
	}

	values, err := load()
	if err != nil {
		if ok {
			return clone(c.values), nil
		}
		return nil, err
	}

	d.mu.Lock()
	d.cache[key] = cached{values: values, fetchedAt: d.now()}
	d.mu.Unlock()
	return clone(values), nil
}

func (d *Directory) fetch(ctx context.Context, u string, into any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("ibge request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ibge returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("decode ibge response: %w", err)
	}
	return nil
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}
