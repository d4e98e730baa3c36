package services

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"gate-catering-api/pkg/apiclient"
	"gate-catering-api/pkg/models"
)

// resource proxies a REST collection of the products backend.
type resource struct {
	client  *apiclient.Client
	baseURL string
	path    string
}

func newResource(client *apiclient.Client, baseURL, path string) resource {
	return resource{client: client, baseURL: strings.TrimSuffix(baseURL, "/"), path: path}
}

func (r resource) url(parts ...string) string {
	u := r.baseURL + r.path
	for _, p := range parts {
		u += "/" + url.PathEscape(p)
	}
	return u
}

func (r resource) call(ctx context.Context, method, target string, body interface{}) (models.Record, error) {
	var out models.Record
	res, err := r.client.Do(ctx, apiclient.Request{Method: method, URL: target, Body: body}, &out)
	if err != nil {
		return nil, err
	}
	if res.NoContent {
		return nil, nil
	}
	return out, nil
}

func (r resource) list(ctx context.Context) (models.Record, error) {
	return r.call(ctx, http.MethodGet, r.url(), nil)
}

func (r resource) get(ctx context.Context, id string, sub ...string) (models.Record, error) {
	return r.call(ctx, http.MethodGet, r.url(append([]string{id}, sub...)...), nil)
}

func (r resource) create(ctx context.Context, body interface{}) (models.Record, error) {
	return r.call(ctx, http.MethodPost, r.url(), body)
}

func (r resource) update(ctx context.Context, id string, body interface{}) (models.Record, error) {
	return r.call(ctx, http.MethodPatch, r.url(id), body)
}

// remove returns a nil record when the backend answers 204.
func (r resource) remove(ctx context.Context, id string) (models.Record, error) {
	return r.call(ctx, http.MethodDelete, r.url(id), nil)
}
