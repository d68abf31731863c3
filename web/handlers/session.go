package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"axiapac.com/punchclock/security"
	"axiapac.com/punchclock/web/common"
)

type LoginDTO struct {
	EmployeeID string `json:"employeeId" binding:"required"`
	Token      string `json:"token" binding:"required,jwt"`
}

func (ep *Endpoint) Login(c *gin.Context) {
	var req LoginDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
		return
	}

	claims, err := security.ParseIdentityToken(req.Token, ep.secret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, common.NewErrorResponse("invalid or expired token"))
		return
	}
	if claims.EmployeeNumber != req.EmployeeID {
		c.JSON(http.StatusForbidden, common.NewErrorResponse("token was not issued to this employee"))
		return
	}

	st, err := ep.svc.Login(c.Request.Context(), req.EmployeeID, req.Token)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(st))
}

func (ep *Endpoint) Logout(c *gin.Context) {
	if err := ep.svc.Logout(c.Request.Context()); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessMessage(gin.H{}, "signed out"))
}

func (ep *Endpoint) Status(c *gin.Context) {
	status, err := ep.svc.Status(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(status))
}
