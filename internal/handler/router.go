package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"gmpro/internal/pkg/auth/jwt"
	"gmpro/internal/pkg/limiter"
	"gmpro/internal/pkg/logx"
	"gmpro/internal/pkg/metrics"
	"gmpro/internal/pkg/req"
	"gmpro/internal/pkg/resp"
)

const (
	JoinRate       = 0.2
	JoinBurst      = 5
	ShuffleRate    = 1
	ShuffleBurst   = 5
	WebhookRate    = 50
	WebhookBurst   = 100
	SocketRate     = 0.5
	SocketBurst    = 5
	MeetProxyRate  = 2
	MeetProxyBurst = 10
)

// Limiters are the per-IP rate limiters of the router. Call Stop on shutdown.
type Limiters struct {
	Join    *limiter.IPRateLimiter
	Shuffle *limiter.IPRateLimiter
	Webhook *limiter.IPRateLimiter
	Socket  *limiter.IPRateLimiter
	Meet    *limiter.IPRateLimiter
}

func NewLimiters() *Limiters {
	return &Limiters{
		Join:    limiter.NewIPRateLimiter(rate.Limit(JoinRate), JoinBurst),
		Shuffle: limiter.NewIPRateLimiter(rate.Limit(ShuffleRate), ShuffleBurst),
		Webhook: limiter.NewIPRateLimiter(rate.Limit(WebhookRate), WebhookBurst),
		Socket:  limiter.NewIPRateLimiter(rate.Limit(SocketRate), SocketBurst),
		Meet:    limiter.NewIPRateLimiter(rate.Limit(MeetProxyRate), MeetProxyBurst),
	}
}

func (l *Limiters) Stop() {
	l.Join.Stop()
	l.Shuffle.Stop()
	l.Webhook.Stop()
	l.Socket.Stop()
	l.Meet.Stop()
}

// Router builds the routing table: global middleware (CORS, request id, real IP, request
// logging, panic recovery), the Meet, chat, file and shuffler APIs, the WebSocket entry
// point, health and metrics.
func Router(deps *AppDeps, limiters *Limiters) http.Handler {
	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", req.GoogleTokenHeader},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]any{
			"status":      "ok",
			"service":     "GM Pro Server",
			"attachments": deps.Storage != nil,
			"sessions":    deps.Sessions.Len(),
		})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Route("/meet", func(m chi.Router) {
			m.With(limiters.Meet.Middleware).Get("/get-participants", HandleGetParticipants(deps))
			m.Get("/participants", HandleParticipants(deps))
			m.Get("/participants-sse", HandleParticipantsSSE(deps))
			m.With(limiters.Webhook.Middleware).Post("/participants-webhook", HandleParticipantsWebhook(deps))

			m.Route("/subscriptions", func(s chi.Router) {
				s.Use(limiters.Meet.Middleware)
				s.Post("/", HandleCreateSubscription(deps))
				s.Get("/", HandleListSubscriptions(deps))
				s.Delete("/", HandleDeleteSubscription(deps))
				s.Post("/reactivate", HandleReactivateSubscription(deps))
			})
		})

		api.With(limiters.Join.Middleware).Post("/chat/join", HandleJoinRoom(deps))

		api.Group(func(authed chi.Router) {
			authed.Use(jwt.RequireRoomToken(deps.Config.JWTSecret))

			authed.Route("/chat/messages", func(m chi.Router) {
				m.Get("/", HandleListMessages(deps))
				m.Post("/", HandleSendMessage(deps))
				m.Post("/{key}/reactions", HandleToggleReaction(deps))
			})

			authed.Post("/file/presign-upload", HandlePresignUploadURL(deps))
			authed.Get("/file/presign-download", HandlePresignDownloadURL(deps))

			authed.Route("/shuffler", func(s chi.Router) {
				s.Get("/", HandleShufflerState(deps))
				s.With(limiters.Shuffle.Middleware).Post("/shuffle", HandleShuffle(deps))
				s.With(limiters.Shuffle.Middleware).Post("/pick", HandlePick(deps))
				s.With(limiters.Shuffle.Middleware).Post("/auto", HandleAutoShuffle(deps))
			})
		})
	})

	r.Get("/ws/{meetId}", HandleWebSocket(deps, wsUpgrader, limiters.Socket))

	return r
}
