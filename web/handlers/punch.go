package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"axiapac.com/punchclock/geo"
	"axiapac.com/punchclock/utils"
	"axiapac.com/punchclock/web/common"
)

const defaultHistoryLimit = 20

type LocationDTO struct {
	Lat *float64 `json:"lat" binding:"required,gte=-90,lte=90"`
	Lng *float64 `json:"lng" binding:"required,gte=-180,lte=180"`
}

func (ep *Endpoint) Location(c *gin.Context) {
	var req LocationDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
		return
	}

	if err := ep.svc.UpdateLocation(geo.Point{Lat: utils.Deref(req.Lat), Lng: utils.Deref(req.Lng)}); err != nil {
		abort(c, err)
		return
	}

	status, err := ep.svc.Status(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(status))
}

func (ep *Endpoint) Punch(c *gin.Context) {
	outcome, err := ep.svc.Punch(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessMessage(outcome, outcome.Result.Message))
}

func (ep *Endpoint) History(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse("Invalid limit"))
			return
		}
		limit = n
	}

	records, err := ep.svc.History(c.Request.Context(), limit)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSearchResponse(records, int64(len(records))).WithLimit(limit))
}
