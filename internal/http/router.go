package http

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

type RouterConfig struct {
	Rooms        *RoomHandler
	Messages     *MessageHandler
	Profiles     *ProfileHandler
	Doppelganger *DoppelgangerHandler
	QR           *QRHandler
	WS           *WSHandler
	Middleware   []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	router := httprouter.New()

	if cfg.Rooms != nil {
		router.POST("/rooms", cfg.Rooms.Create)
		router.GET("/rooms", cfg.Rooms.List)
		router.GET("/rooms/:id/state", cfg.Rooms.State)
		router.POST("/rooms/:id/join", cfg.Rooms.Join)
		router.POST("/rooms/:id/clear", cfg.Rooms.Clear)
	}

	if cfg.Messages != nil {
		router.GET("/rooms/:id/messages", cfg.Messages.List)
		router.POST("/rooms/:id/messages", cfg.Messages.Create)
	}

	if cfg.Doppelganger != nil {
		router.POST("/rooms/:id/doppelganger", cfg.Doppelganger.Trigger)
	}

	if cfg.QR != nil {
		router.GET("/rooms/:id/qr", cfg.QR.Invite)
	}

	if cfg.WS != nil {
		router.GET("/rooms/:id/ws", cfg.WS.Serve)
	}

	if cfg.Profiles != nil {
		router.POST("/profiles", cfg.Profiles.Create)
		router.GET("/profiles/:id", cfg.Profiles.Get)
		router.POST("/profiles/:id/samples", cfg.Profiles.AddSample)
	}

	var handler http.Handler = router
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}
