package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"axiapac.com/punchclock/agent"
	"axiapac.com/punchclock/punch"
	"axiapac.com/punchclock/security"
	"axiapac.com/punchclock/web/common"
	"axiapac.com/punchclock/web/middlewares"
)

type Endpoint struct {
	svc    *agent.Service
	secret []byte
}

func NewEndpoint(svc *agent.Service, secret []byte) *Endpoint {
	return &Endpoint{svc: svc, secret: secret}
}

// Register mounts the agent API. Login is public, everything else goes
// through the Authentication middleware.
func Register(r *gin.RouterGroup, svc *agent.Service, secret []byte) {
	endpoint := NewEndpoint(svc, secret)
	r.POST("/session/login", endpoint.Login)

	protected := r.Group("")
	protected.Use(middlewares.Authentication(secret, endpoint.identity))
	{
		protected.POST("/session/logout", endpoint.Logout)
		protected.GET("/session", endpoint.Status)
		protected.POST("/location", endpoint.Location)
		protected.POST("/punch", endpoint.Punch)
		protected.GET("/punches", endpoint.History)
	}
}

func (ep *Endpoint) identity(c *gin.Context, claims *security.IdentityClaims, token string) error {
	return ep.svc.EnsureUser(c.Request.Context(), claims.EmployeeNumber, token)
}

// statusFor maps agent and punch errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, agent.ErrNotSignedIn):
		return http.StatusUnauthorized
	case errors.Is(err, agent.ErrInvalidLocation):
		return http.StatusBadRequest
	}
	switch punch.Kind(err) {
	case punch.KindSensor:
		return http.StatusUnprocessableEntity
	case punch.KindConfiguration, punch.KindConflict:
		return http.StatusConflict
	case punch.KindPolicy:
		return http.StatusForbidden
	case punch.KindNetwork:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func abort(c *gin.Context, err error) {
	resp := common.NewErrorResponse(err.Error())
	if !errors.Is(err, agent.ErrNotSignedIn) && !errors.Is(err, agent.ErrInvalidLocation) {
		resp = resp.WithKind(punch.Kind(err))
	}
	c.JSON(statusFor(err), resp)
}
