package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"attendance-tracker/internal/domain"
	"attendance-tracker/internal/service"
)

type intervalRequest struct {
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
	Shift string `json:"shift"`
	Room  string `json:"room"`
	Owner string `json:"owner"`
}

type writeOffRequest struct {
	Date  string `json:"date" binding:"required"`
	Hours string `json:"hours" binding:"required"`
	Owner string `json:"owner" binding:"required"`
}

type batchRequest struct {
	Start      string   `json:"start"`
	End        string   `json:"end"`
	Shift      string   `json:"shift"`
	Room       string   `json:"room"`
	Date       string   `json:"date"`
	Hours      string   `json:"hours"`
	Recipients []string `json:"recipients" binding:"required,min=1"`
}

type reviewRequest struct {
	Action string `json:"action" binding:"required"`
}

func (h *Handler) submitRecord(c *gin.Context) {
	kind, err := domain.ParseKind(c.Param("kind"))
	if err != nil {
		writeError(c, err)
		return
	}
	caller := mustCaller(c)

	var rec domain.Record
	if kind == domain.KindWriteOff {
		var req writeOffRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		rec, err = h.records.SubmitWriteOff(c.Request.Context(), caller, service.WriteOffInput{
			Date:  req.Date,
			Hours: req.Hours,
			Owner: req.Owner,
		})
	} else {
		var req intervalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		rec, err = h.records.SubmitInterval(c.Request.Context(), caller, kind, service.IntervalInput{
			Start: req.Start,
			End:   req.End,
			Shift: req.Shift,
			Room:  req.Room,
			Owner: req.Owner,
		})
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recordToResponse(rec))
}

func (h *Handler) batchSubmit(c *gin.Context) {
	kind, err := domain.ParseKind(c.Param("kind"))
	if err != nil {
		writeError(c, err)
		return
	}
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.records.BatchSubmit(c.Request.Context(), mustCaller(c), service.BatchInput{
		Kind:       kind,
		Start:      req.Start,
		End:        req.End,
		Shift:      req.Shift,
		Room:       req.Room,
		Date:       req.Date,
		Hours:      req.Hours,
		Recipients: req.Recipients,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusCreated
	if len(res.Failed) > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, batchToResponse(res))
}

func (h *Handler) queryRecords(c *gin.Context) {
	kind, err := domain.ParseKind(c.Param("kind"))
	if err != nil {
		writeError(c, err)
		return
	}

	recs, err := h.records.Query(c.Request.Context(), mustCaller(c), kind, service.QueryInput{
		From:     c.Query("from"),
		To:       c.Query("to"),
		Owner:    c.Query("owner"),
		HoursMin: c.Query("hours_min"),
		HoursMax: c.Query("hours_max"),
		Sort:     c.Query("sort"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recordsToResponse(recs))
}

func (h *Handler) listUnverified(c *gin.Context) {
	pending, err := h.verification.ListUnverified(c.Request.Context(), mustCaller(c))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make(map[string][]RecordResponse, len(pending))
	for _, kind := range domain.Kinds {
		resp[string(kind)] = recordsToResponse(pending[kind])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) reviewRecord(c *gin.Context) {
	kind, err := domain.ParseKind(c.Param("kind"))
	if err != nil {
		writeError(c, err)
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	action, err := service.ParseReviewAction(req.Action)
	if err != nil {
		writeError(c, err)
		return
	}

	id := c.Param("id")
	if err := h.verification.Review(c.Request.Context(), mustCaller(c), kind, id, action); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "kind": kind, "action": action})
}
