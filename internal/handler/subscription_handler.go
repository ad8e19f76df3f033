package handler

import (
	"net/http"

	"gmpro/internal/app/events"
	"gmpro/internal/pkg/errs"
	"gmpro/internal/pkg/logx"
	"gmpro/internal/pkg/req"
	"gmpro/internal/pkg/resp"
)

type CreateSubscriptionInput struct {
	ConferenceID string `json:"conferenceId" validate:"required,max=256"`
	PubsubTopic  string `json:"pubsubTopic" validate:"required,max=512"`
}

type ReactivateSubscriptionInput struct {
	SubscriptionName string `json:"subscriptionName" validate:"required,max=512"`
}

// subscriptionService builds the Workspace Events client for the caller's bearer token,
// answering the request itself when that fails.
func subscriptionService(deps *AppDeps, w http.ResponseWriter, r *http.Request) *events.SubscriptionService {
	svc, err := deps.Subscriptions(r.Context(), req.BearerToken(r))
	if err != nil {
		resp.RespondError(w, r, upstreamError(err))
		return nil
	}
	return svc
}

// HandleCreateSubscription subscribes a Pub/Sub topic to the participant events of a
// conference.
func HandleCreateSubscription(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input CreateSubscriptionInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		svc := subscriptionService(deps, w, r)
		if svc == nil {
			return
		}

		target := events.MeetTargetResource(input.ConferenceID)
		op, err := svc.Create(r.Context(), target, input.PubsubTopic)
		if err != nil {
			resp.RespondError(w, r, upstreamError(err))
			return
		}

		logx.Info("Subscription requested", "target", target, "operation", op.Name, "done", op.Done)
		resp.RespondStatus(w, r, http.StatusCreated, op)
	}
}

// HandleListSubscriptions lists the caller's subscriptions matching the filter query. With
// a name query it returns that single subscription instead.
func HandleListSubscriptions(deps *AppDeps) http.HandlerFunc {
	getOne := HandleGetSubscription(deps)

	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") != "" {
			getOne(w, r)
			return
		}

		svc := subscriptionService(deps, w, r)
		if svc == nil {
			return
		}

		subs, err := svc.List(r.Context(), r.URL.Query().Get("filter"))
		if err != nil {
			resp.RespondError(w, r, upstreamError(err))
			return
		}
		if subs == nil {
			subs = []events.Subscription{}
		}

		resp.RespondSuccess(w, r, map[string]any{"subscriptions": subs})
	}
}

// HandleGetSubscription returns the subscription named by the name query.
func HandleGetSubscription(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if name == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		svc := subscriptionService(deps, w, r)
		if svc == nil {
			return
		}

		sub, err := svc.Get(r.Context(), name)
		if err != nil {
			resp.RespondError(w, r, upstreamError(err))
			return
		}
		resp.RespondSuccess(w, r, sub)
	}
}

// HandleDeleteSubscription deletes the subscription named by subscriptionName.
func HandleDeleteSubscription(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("subscriptionName")
		if name == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		svc := subscriptionService(deps, w, r)
		if svc == nil {
			return
		}

		if err := svc.Delete(r.Context(), name); err != nil {
			resp.RespondError(w, r, upstreamError(err))
			return
		}

		logx.Info("Subscription deleted", "subscription", name)
		resp.RespondNoContent(w)
	}
}

// HandleReactivateSubscription reactivates a suspended subscription.
func HandleReactivateSubscription(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input ReactivateSubscriptionInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		svc := subscriptionService(deps, w, r)
		if svc == nil {
			return
		}

		op, err := svc.Reactivate(r.Context(), input.SubscriptionName)
		if err != nil {
			resp.RespondError(w, r, upstreamError(err))
			return
		}
		resp.RespondSuccess(w, r, op)
	}
}
