package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	workspaceevents "google.golang.org/api/workspaceevents/v1"
)

const meetResourcePrefix = "//meet.googleapis.com/"

var (
	ErrUnauthenticated  = errors.New("events: unauthenticated")
	ErrNotFound         = errors.New("events: subscription not found")
	ErrPermissionDenied = errors.New("events: permission denied")
	ErrUpstream         = errors.New("events: upstream request failed")
)

// Subscription is a Workspace Events subscription.
type Subscription struct {
	Name                 string               `json:"name"`
	UID                  string               `json:"uid"`
	TargetResource       string               `json:"targetResource"`
	EventTypes           []string             `json:"eventTypes"`
	NotificationEndpoint NotificationEndpoint `json:"notificationEndpoint"`
	State                string               `json:"state"`
	CreateTime           string               `json:"createTime"`
	UpdateTime           string               `json:"updateTime"`
}

type NotificationEndpoint struct {
	PubsubTopic string `json:"pubsubTopic,omitempty"`
}

// Operation is a long-running subscription operation. Subscription is set once Done.
type Operation struct {
	Name         string        `json:"name"`
	Done         bool          `json:"done"`
	Subscription *Subscription `json:"subscription,omitempty"`
}

// SubscriptionService wraps the Workspace Events API for one caller credential.
type SubscriptionService struct {
	svc *workspaceevents.Service
}

// SubscriptionServiceFactory builds a SubscriptionService for an access token.
type SubscriptionServiceFactory func(ctx context.Context, accessToken string) (*SubscriptionService, error)

// NewSubscriptionServiceFactory returns a factory using httpClient as the base transport.
// extra options are appended to every client.
func NewSubscriptionServiceFactory(httpClient *http.Client, extra ...option.ClientOption) SubscriptionServiceFactory {
	return func(ctx context.Context, accessToken string) (*SubscriptionService, error) {
		if accessToken == "" {
			return nil, ErrUnauthenticated
		}

		base := httpClient
		if base == nil {
			base = http.DefaultClient
		}
		authed := &http.Client{
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}),
				Base:   base.Transport,
			},
			Timeout: base.Timeout,
		}

		opts := append([]option.ClientOption{option.WithHTTPClient(authed)}, extra...)
		svc, err := workspaceevents.NewService(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create workspace events service: %w", err)
		}
		return &SubscriptionService{svc: svc}, nil
	}
}

// MeetTargetResource returns the full resource name subscriptions use for a conference,
// space or bare conference id.
func MeetTargetResource(resource string) string {
	resource = strings.TrimSpace(resource)
	switch {
	case strings.HasPrefix(resource, meetResourcePrefix):
		return resource
	case strings.HasPrefix(resource, "spaces/"), strings.HasPrefix(resource, conferenceRecordPrefix):
		return meetResourcePrefix + resource
	default:
		return meetResourcePrefix + conferenceRecordPrefix + resource
	}
}

// Create subscribes pubsubTopic to participant joined and left events of target.
func (s *SubscriptionService) Create(ctx context.Context, target, pubsubTopic string) (*Operation, error) {
	op, err := s.svc.Subscriptions.Create(&workspaceevents.Subscription{
		TargetResource: MeetTargetResource(target),
		EventTypes:     []string{TypeParticipantJoined, TypeParticipantLeft},
		NotificationEndpoint: &workspaceevents.NotificationEndpoint{
			PubsubTopic: pubsubTopic,
		},
	}).Context(ctx).Do()
	if err != nil {
		return nil, classifyUpstream(err)
	}
	return toOperation(op)
}

// List returns the subscriptions matching filter, e.g. `event_types:"google.workspace.meet.participant.v2.joined"`.
func (s *SubscriptionService) List(ctx context.Context, filter string) ([]Subscription, error) {
	var out []Subscription

	err := s.svc.Subscriptions.List().Filter(filter).Pages(ctx, func(page *workspaceevents.ListSubscriptionsResponse) error {
		for _, sub := range page.Subscriptions {
			out = append(out, toSubscription(sub))
		}
		return nil
	})
	if err != nil {
		return nil, classifyUpstream(err)
	}
	return out, nil
}

func (s *SubscriptionService) Get(ctx context.Context, name string) (*Subscription, error) {
	sub, err := s.svc.Subscriptions.Get(name).Context(ctx).Do()
	if err != nil {
		return nil, classifyUpstream(err)
	}
	out := toSubscription(sub)
	return &out, nil
}

func (s *SubscriptionService) Delete(ctx context.Context, name string) error {
	if _, err := s.svc.Subscriptions.Delete(name).Context(ctx).Do(); err != nil {
		return classifyUpstream(err)
	}
	return nil
}

// Reactivate resumes a suspended subscription.
func (s *SubscriptionService) Reactivate(ctx context.Context, name string) (*Operation, error) {
	op, err := s.svc.Subscriptions.Reactivate(name, &workspaceevents.ReactivateSubscriptionRequest{}).Context(ctx).Do()
	if err != nil {
		return nil, classifyUpstream(err)
	}
	return toOperation(op)
}

func toOperation(op *workspaceevents.Operation) (*Operation, error) {
	out := &Operation{Name: op.Name, Done: op.Done}
	if op.Error != nil {
		return nil, fmt.Errorf("%w: operation failed: %s", ErrUpstream, op.Error.Message)
	}
	if op.Done && len(op.Response) > 0 {
		var sub workspaceevents.Subscription
		if err := json.Unmarshal(op.Response, &sub); err != nil {
			return nil, fmt.Errorf("%w: decode operation response: %v", ErrUpstream, err)
		}
		converted := toSubscription(&sub)
		out.Subscription = &converted
	}
	return out, nil
}

func toSubscription(sub *workspaceevents.Subscription) Subscription {
	out := Subscription{
		Name:           sub.Name,
		UID:            sub.Uid,
		TargetResource: sub.TargetResource,
		EventTypes:     sub.EventTypes,
		State:          sub.State,
		CreateTime:     sub.CreateTime,
		UpdateTime:     sub.UpdateTime,
	}
	if out.EventTypes == nil {
		out.EventTypes = []string{}
	}
	if sub.NotificationEndpoint != nil {
		out.NotificationEndpoint.PubsubTopic = sub.NotificationEndpoint.PubsubTopic
	}
	return out
}

func classifyUpstream(err error) error {
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
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}
