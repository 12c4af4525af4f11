package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/leonardo27oliveira02-spec/garccom-app/kds"
	"github.com/leonardo27oliveira02-spec/garccom-app/middlewares"
	"github.com/leonardo27oliveira02-spec/garccom-app/realtime"
	"github.com/leonardo27oliveira02-spec/garccom-app/services"
	"github.com/leonardo27oliveira02-spec/garccom-app/utils"
)

type KDSController struct {
	Views    *services.Views
	Feed     realtime.Subscriber
	Hub      *kds.Hub
	upgrader websocket.Upgrader
}

// NewKDSController accepts websocket upgrades from the listed origins; an
// empty list or "*" allows any origin.
func NewKDSController(views *services.Views, feed realtime.Subscriber, hub *kds.Hub, allowedOrigins ...string) *KDSController {
	return &KDSController{
		Views: views,
		Feed:  feed,
		Hub:   hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// ServeView upgrades the request and streams the named view to the terminal.
func (kc *KDSController) ServeView(c *gin.Context) {
	p, ok := middlewares.CurrentPrincipal(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	name := c.Param("view")
	roles, known := services.ViewRoles[name]
	if !known {
		utils.RespondErrorCode(c, http.StatusNotFound, "not_found", fmt.Errorf("unknown view %q", name), nil)
		return
	}
	if !middlewares.HasRole(p.Role, roles...) {
		utils.RespondErrorCode(c, http.StatusForbidden, "forbidden", fmt.Errorf("%s cannot open %s view", p.Role, name), nil)
		return
	}
	cfg, err := kc.Views.Config(name, p.RestaurantID, p.StaffID)
	if err != nil {
		respondServiceError(c, err, nil)
		return
	}

	ws, err := kc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Warnf("websocket upgrade failed: %v", err)
		return
	}

	err = kc.Hub.Serve(c.Request.Context(), ws, string(p.Role), p.RestaurantID,
		func(ctx context.Context, sink realtime.Sink) error {
			return realtime.RunView(ctx, kc.Feed, cfg, sink)
		})
	if err != nil && !errors.Is(err, context.Canceled) {
		utils.ErrorLogger.Warnf("%s view ended: %v", name, err)
	}
}
