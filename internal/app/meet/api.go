/*
Package meet reads conference participants from the Google Meet REST API.

Callers supply an OAuth access token per request; the package never runs an OAuth flow.
The API port is an interface so the resolution logic can be tested with a mock.
*/
package meet

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	meetapi "google.golang.org/api/meet/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"golang.org/x/oauth2"
)

//go:generate go run go.uber.org/mock/mockgen -source=api.go -destination=../../../mocks/mock_meet_api.go -package=mocks

// API is the subset of the Meet API used by Source.
type API interface {
	GetSpace(ctx context.Context, name string) (*meetapi.Space, error)
	ListConferenceRecords(ctx context.Context, filter string, pageSize int64) ([]*meetapi.ConferenceRecord, error)
	ListParticipants(ctx context.Context, parent string, pageSize int64, pageToken string) (*meetapi.ListParticipantsResponse, error)
}

// APIFactory builds an API client authorized with an access token.
type APIFactory func(ctx context.Context, accessToken string) (API, error)

// Sentinel errors returned by Source. Upstream failures wrap one of them.
var (
	ErrUnauthenticated  = errors.New("meet: unauthenticated")
	ErrNotFound         = errors.New("meet: conference not found")
	ErrPermissionDenied = errors.New("meet: permission denied")
	ErrTransport        = errors.New("meet: upstream request failed")
)

type googleAPI struct {
	svc *meetapi.Service
}

// NewGoogleAPIFactory returns an APIFactory backed by google.golang.org/api. extra options
// (for example option.WithEndpoint in tests) are appended to every client.
func NewGoogleAPIFactory(httpClient *http.Client, extra ...option.ClientOption) APIFactory {
	return func(ctx context.Context, accessToken string) (API, error) {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})

		base := httpClient
		if base == nil {
			base = http.DefaultClient
		}
		authed := &http.Client{
			Transport: &oauth2.Transport{Source: src, Base: base.Transport},
			Timeout:   base.Timeout,
		}

		opts := append([]option.ClientOption{option.WithHTTPClient(authed)}, extra...)
		svc, err := meetapi.NewService(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create meet service: %w", err)
		}
		return &googleAPI{svc: svc}, nil
	}
}

func (g *googleAPI) GetSpace(ctx context.Context, name string) (*meetapi.Space, error) {
	return g.svc.Spaces.Get(name).Context(ctx).Do()
}

func (g *googleAPI) ListConferenceRecords(ctx context.Context, filter string, pageSize int64) ([]*meetapi.ConferenceRecord, error) {
	call := g.svc.ConferenceRecords.List().PageSize(pageSize).Context(ctx)
	if filter != "" {
		call = call.Filter(filter)
	}

	res, err := call.Do()
	if err != nil {
		return nil, err
	}
	return res.ConferenceRecords, nil
}

func (g *googleAPI) ListParticipants(ctx context.Context, parent string, pageSize int64, pageToken string) (*meetapi.ListParticipantsResponse, error) {
	call := g.svc.ConferenceRecords.Participants.List(parent).PageSize(pageSize).Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	return call.Do()
}

// classify maps an upstream error onto the package sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrUnauthenticated, apiErr.Message)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrPermissionDenied, apiErr.Message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, apiErr.Message)
		}
	}
	return fmt.Errorf("%w: %v", ErrTransport, err)
}

// statusCode returns the HTTP status of an upstream error, or 0.
func statusCode(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
