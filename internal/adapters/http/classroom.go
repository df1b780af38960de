package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dkeye/Classroom/internal/app/render"
	"github.com/dkeye/Classroom/internal/app/session"
	"github.com/dkeye/Classroom/internal/core"
	"github.com/dkeye/Classroom/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// MemberStore persists roster edits made through the API.
type MemberStore interface {
	Save(ctx context.Context, channel domain.ChannelID, m domain.Member) error
	Delete(ctx context.Context, channel domain.ChannelID, id domain.StreamID) error
}

type ClassroomOptions struct {
	Role    domain.Role
	LocalID domain.StreamID
	Channel domain.ChannelID
	// Store is optional.
	Store      MemberStore
	ReadLimit  int64
	PingPeriod time.Duration
}

// Classroom serves the view of one participant: their session and the
// roster of the room they sit in.
type Classroom struct {
	sessions *session.Controller
	roster   core.MemberDirectory
	opts     ClassroomOptions
}

func NewClassroom(sessions *session.Controller, roster core.MemberDirectory, opts ClassroomOptions) *Classroom {
	return &Classroom{sessions: sessions, roster: roster, opts: opts}
}

// Tree renders the current view.
func (h *Classroom) Tree() render.Tree {
	return render.Compose(h.sessions.Snapshot(), h.roster.Members(), h.opts.Role)
}

func abort(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func (h *Classroom) handleTree(c *gin.Context) {
	c.JSON(http.StatusOK, h.Tree())
}

type startRequest struct {
	UserID    domain.StreamID `json:"userId"`
	ChannelID string          `json:"channelId"`
}

// handleStart starts a session. Missing fields fall back to what this
// browser used last, then to the configured defaults.
func (h *Classroom) handleStart(c *gin.Context) {
	var req startRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abort(c, http.StatusBadRequest, err)
			return
		}
	}

	sess := sessions.Default(c)
	channel := domain.ChannelID(req.ChannelID)
	if channel == "" {
		if last, ok := sess.Get("channel").(string); ok {
			channel = domain.ChannelID(last)
		}
	}
	if channel == "" {
		channel = h.opts.Channel
	}
	uid := req.UserID
	if uid == 0 {
		uid = h.opts.LocalID
	}

	s, err := h.sessions.Start(c.Request.Context(), uid, channel)
	switch {
	case errors.Is(err, session.ErrSessionActive):
		abort(c, http.StatusConflict, err)
		return
	case errors.Is(err, domain.ErrStreamIDZero),
		errors.Is(err, domain.ErrChannelEmpty),
		errors.Is(err, domain.ErrChannelTooLong):
		abort(c, http.StatusBadRequest, err)
		return
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Msg("start session")
		abort(c, http.StatusInternalServerError, err)
		return
	}

	sess.Set("channel", channel.String())
	if err := sess.Save(); err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Msg("save cookie session")
	}
	c.JSON(http.StatusOK, gin.H{"session": s.ID(), "tree": h.Tree()})
}

func (h *Classroom) handleStop(c *gin.Context) {
	err := h.sessions.Stop(c.Request.Context())
	switch {
	case errors.Is(err, session.ErrNoSession):
		abort(c, http.StatusNotFound, err)
		return
	case err != nil:
		// the session is gone anyway; report what the SDK said
		abort(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, h.Tree())
}

func parseID(c *gin.Context) (domain.StreamID, bool) {
	id, err := domain.ParseStreamID(c.Param("id"))
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return 0, false
	}
	return id, true
}

func (h *Classroom) active(c *gin.Context) (*session.Session, bool) {
	s, ok := h.sessions.Active()
	if !ok {
		abort(c, http.StatusNotFound, session.ErrNoSession)
	}
	return s, ok
}

func (h *Classroom) handleRemoveParticipant(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	s, ok := h.active(c)
	if !ok {
		return
	}
	if !s.RemoveParticipant(id) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no such participant"})
		return
	}
	c.Status(http.StatusNoContent)
}

type toggleRequest struct {
	On *bool `json:"on"`
}

func (h *Classroom) toggle(c *gin.Context, set func(*session.Session, bool)) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.On == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "body must be {\"on\": bool}"})
		return
	}
	s, ok := h.active(c)
	if !ok {
		return
	}
	set(s, *req.On)
	c.JSON(http.StatusOK, h.Tree())
}

func (h *Classroom) handleFullscreen(c *gin.Context) {
	h.toggle(c, (*session.Session).SetFullscreen)
}

func (h *Classroom) handleOverlay(c *gin.Context) {
	h.toggle(c, (*session.Session).SetOverlayVisible)
}

func (h *Classroom) handleCamera(c *gin.Context) {
	h.toggle(c, func(s *session.Session, on bool) { s.SetLocalVideo(on) })
}

func (h *Classroom) handleMicrophone(c *gin.Context) {
	h.toggle(c, func(s *session.Session, on bool) { s.SetLocalAudio(on) })
}

func (h *Classroom) handleMembers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"members": h.roster.Members()})
}

type memberRequest struct {
	Identity string `json:"identity"`
	Username string `json:"username"`
}

func (h *Classroom) handleUpsertMember(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	role, err := domain.ParseRole(req.Identity)
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	p, err := domain.NewParticipant(id, req.Username, role)
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	m := domain.NewMember(p.ID, p.Role, p.Username)

	if h.opts.Store != nil {
		if err := h.opts.Store.Save(c.Request.Context(), h.opts.Channel, m); err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("save member")
			abort(c, http.StatusInternalServerError, err)
			return
		}
	}
	h.roster.Upsert(m)
	c.JSON(http.StatusOK, m)
}

func (h *Classroom) handleRemoveMember(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if h.opts.Store != nil {
		if err := h.opts.Store.Delete(c.Request.Context(), h.opts.Channel, id); err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("delete member")
			abort(c, http.StatusInternalServerError, err)
			return
		}
	}
	if !h.roster.Remove(id) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no such member"})
		return
	}
	c.Status(http.StatusNoContent)
}
