package endpoints

import (
	"encoding/base64"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/inkwell-labs/inkwell/internal/http/api"
	"github.com/inkwell-labs/inkwell/internal/render"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// PreviewModule mounts the live preview WebSocket. Auth is applied by
// the mounting group.
func PreviewModule(engine *render.Engine, encoder *render.Encoder) api.Module {
	ctl := &PreviewController{engine: engine, encoder: encoder}
	return api.ModuleFunc(func(c *api.Controller) {
		c.Group.GET("/preview", ctl.preview)
	})
}

type PreviewController struct {
	engine  *render.Engine
	encoder *render.Encoder
}

type previewRequest struct {
	HTML string `json:"html"`
}

type previewResponse struct {
	Content    string  `json:"content"`
	RenderTime float64 `json:"render_time"`
	Error      string  `json:"error,omitempty"`
}

// GET /api/admin/preview
//
// One browser session is held warm for the lifetime of the socket so
// repeated edits skip the browser launch cost. The session inherits
// the request context, so a disconnect mid-render cancels the capture
// and releases the browser.
func (p *PreviewController) preview(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("[preview] websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()

	var session *render.Session
	defer func() {
		if session != nil {
			session.Close()
		}
	}()

	for {
		var req previewRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("[preview] websocket closed unexpectedly")
			}
			return
		}

		if session == nil {
			session, err = p.engine.NewSession(ctx)
			if err != nil {
				log.Error().Err(err).Msg("[preview] could not acquire browser session")
				conn.WriteJSON(previewResponse{Error: "could not start renderer"})
				continue
			}
		}

		start := time.Now()
		raster, err := session.Render(ctx, req.HTML)
		if err != nil {
			conn.WriteJSON(previewResponse{Error: err.Error()})
			continue
		}
		encoded, err := p.encoder.Encode(raster)
		if err != nil {
			conn.WriteJSON(previewResponse{Error: err.Error()})
			continue
		}

		resp := previewResponse{
			Content:    "data:image/bmp;base64," + base64.StdEncoding.EncodeToString(encoded),
			RenderTime: time.Since(start).Seconds(),
		}
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}
