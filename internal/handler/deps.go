package handler

import (
	"gmpro/internal/app/chat"
	"gmpro/internal/app/events"
	"gmpro/internal/app/meet"
	"gmpro/internal/app/session"
	"gmpro/internal/app/storage"
	"gmpro/internal/configs"
)

// AppDeps are the services the handlers work with. Storage is nil when attachments are
// disabled.
type AppDeps struct {
	Config        *configs.AppConfig
	Chat          *chat.Manager
	Sessions      *session.Manager
	Source        *meet.Source
	Cache         events.RosterCache
	Subscriptions events.SubscriptionServiceFactory
	Storage       storage.StorageService
}
