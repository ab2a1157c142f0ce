package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"streampool/internal/core/domain"
	"streampool/internal/core/ports"
	"streampool/internal/infrastructure/watch"
	"streampool/pkg/utils"
)

type StreamHandler struct {
	api       ports.StreamAPI
	lifecycle ports.LifecycleService
	pool      ports.PoolService
	watcher   *watch.StateWatcher
}

func NewStreamHandler(
	api ports.StreamAPI,
	lifecycle ports.LifecycleService,
	pool ports.PoolService,
	watcher *watch.StateWatcher,
) *StreamHandler {
	return &StreamHandler{
		api:       api,
		lifecycle: lifecycle,
		pool:      pool,
		watcher:   watcher,
	}
}

func (h *StreamHandler) SetupRoutes(api *gin.RouterGroup) {
	api.POST("/streams", h.CreateStream)
	api.GET("/streams", h.ListStreams)
	api.GET("/streams/:id/state", h.GetState)
	api.GET("/streams/:id/connection", h.GetConnectionState)
	api.GET("/streams/:id/thumbnail", h.GetThumbnail)
	api.GET("/streams/:id/transcoder", h.GetTranscoder)
	api.GET("/streams/:id/watch", h.WatchState)
	api.POST("/streams/:id/start", h.StartStream)
	api.POST("/streams/:id/stop", h.StopStream)

	api.POST("/pool/acquire", h.AcquireStream)
}

func (h *StreamHandler) CreateStream(c *gin.Context) {
	var params domain.StreamParams
	if err := c.BindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if params.Name == "" {
		params.Name = utils.GenerateStreamName("stream")
	}

	stream, err := h.api.Create(c.Request.Context(), params)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"stream": gin.H{
			"name":            stream.Name,
			"id":              stream.ID,
			"connection_code": stream.ConnectionCode,
		},
	})
}

func (h *StreamHandler) ListStreams(c *gin.Context) {
	ids, err := h.api.FetchAllLiveStreams(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stream_ids": ids})
}

func (h *StreamHandler) GetState(c *gin.Context) {
	id := domain.StreamID(c.Param("id"))

	state, err := h.api.FetchState(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stream_id": id, "state": state})
}

func (h *StreamHandler) GetConnectionState(c *gin.Context) {
	id := domain.StreamID(c.Param("id"))

	state, err := h.api.FetchConnectionState(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stream_id": id, "connection": state})
}

func (h *StreamHandler) GetThumbnail(c *gin.Context) {
	id := domain.StreamID(c.Param("id"))

	url, found, err := h.api.FetchThumbnail(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	if !found {
		// No thumbnail yet is a defined success variant, not an error.
		c.JSON(http.StatusOK, gin.H{"stream_id": id, "thumbnail_url": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stream_id": id, "thumbnail_url": url})
}

func (h *StreamHandler) GetTranscoder(c *gin.Context) {
	id := domain.StreamID(c.Param("id"))

	tc, err := h.api.FetchTranscoder(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transcoder": gin.H{
			"domain_name":      tc.DomainName,
			"source_port":      tc.SourcePort,
			"application_name": tc.ApplicationName,
			"stream_name":      tc.StreamName,
			"username":         tc.Username,
			"password":         tc.Password,
		},
	})
}

func (h *StreamHandler) WatchState(c *gin.Context) {
	id := domain.StreamID(c.Param("id"))
	h.watcher.HandleWebSocket(c.Writer, c.Request, id)
}

func (h *StreamHandler) StartStream(c *gin.Context) {
	id := domain.StreamID(c.Param("id"))

	var req struct {
		TimeoutSeconds int `json:"timeout_seconds"`
	}
	// Body is optional; an empty body means the configured default timeout.
	if c.Request.ContentLength > 0 {
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	elapsed, err := h.lifecycle.Start(c.Request.Context(), id, time.Duration(req.TimeoutSeconds)*time.Second)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stream_id":  id,
		"state":      domain.StateStarted,
		"elapsed_ms": elapsed.Milliseconds(),
		"elapsed":    utils.FormatDuration(elapsed),
	})
}

func (h *StreamHandler) StopStream(c *gin.Context) {
	id := domain.StreamID(c.Param("id"))

	if err := h.lifecycle.Stop(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stream_id": id, "state": domain.StateStopped})
}

func (h *StreamHandler) AcquireStream(c *gin.Context) {
	var params *domain.StreamParams
	if c.Request.ContentLength > 0 {
		params = &domain.StreamParams{}
		if err := c.BindJSON(params); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	id, err := h.pool.Acquire(c.Request.Context(), params)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stream_id": id})
}
