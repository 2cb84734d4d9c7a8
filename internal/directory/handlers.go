package directory

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler exposes the directory over HTTP. Game discovery and chat history
// are plain JSON endpoints; chat push is a websocket subscription.
type Handler struct {
	svc *Service
	hub *Hub
	log zerolog.Logger
}

func NewHandler(svc *Service, hub *Hub, log zerolog.Logger) *Handler {
	return &Handler{
		svc: svc,
		hub: hub,
		log: log.With().Str("component", "http").Logger(),
	}
}

func (h *Handler) Register(router *gin.Engine) {
	router.GET("/ping", h.Ping)
	router.GET("/stats", h.GetStats)

	games := router.Group("/games")
	{
		games.POST("", h.RegisterGame)
		games.GET("", h.ListGames)
		games.GET("/:id", h.GetGame)
		games.POST("/:id/join", h.JoinGame)
		games.PUT("/:id/status", h.UpdateStatus)
		games.DELETE("/:id", h.RemoveGame)

		games.POST("/:id/chat", h.SendChat)
		games.GET("/:id/chat", h.GetChat)
		games.DELETE("/:id/chat", h.ClearChat)
		games.GET("/:id/chat/ws", h.SubscribeChat)
	}
}

func (h *Handler) Ping(c *gin.Context) {
	if !h.svc.Ping() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.svc.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to collect stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) RegisterGame(c *gin.Context) {
	var info GameInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if info.HostName == "" || info.Address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "host_name and address are required"})
		return
	}

	registered, err := h.svc.RegisterGame(info)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register game"})
		return
	}

	c.JSON(http.StatusCreated, registered)
}

func (h *Handler) ListGames(c *gin.Context) {
	games, err := h.svc.ListJoinable()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list games"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": games})
}

func (h *Handler) GetGame(c *gin.Context) {
	info, ok, err := h.svc.GetGame(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get game"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *Handler) JoinGame(c *gin.Context) {
	var req struct {
		PlayerName string `json:"player_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.PlayerName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "player_name is required"})
		return
	}

	ok, err := h.svc.Join(c.Param("id"), req.PlayerName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join game"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"joined": ok})
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req struct {
		CurrentPlayers int    `json:"current_players"`
		Status         Status `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if err := h.svc.UpdateStatus(c.Param("id"), req.CurrentPlayers, req.Status); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to update status",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) RemoveGame(c *gin.Context) {
	if err := h.svc.RemoveGame(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove game"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) SendChat(c *gin.Context) {
	var req struct {
		Sender  string   `json:"sender"`
		Message string   `json:"message"`
		Kind    ChatKind `json:"kind"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Sender == "" || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sender and message are required"})
		return
	}
	if req.Kind == "" {
		req.Kind = ChatRegular
	}

	entry, err := h.svc.SendChat(c.Param("id"), req.Sender, req.Message, req.Kind)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send chat"})
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func (h *Handler) GetChat(c *gin.Context) {
	gameID := c.Param("id")

	var (
		entries []ChatEntry
		err     error
	)
	if raw := c.Query("since"); raw != "" {
		since, perr := time.Parse(time.RFC3339Nano, raw)
		if perr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC3339"})
			return
		}
		entries, err = h.svc.ChatSince(gameID, since)
	} else {
		entries, err = h.svc.ChatHistory(gameID)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read chat"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": entries})
}

func (h *Handler) ClearChat(c *gin.Context) {
	if err := h.svc.ClearChat(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear chat"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SubscribeChat upgrades to a websocket and pushes every new chat entry for
// the game until the peer disconnects.
func (h *Handler) SubscribeChat(c *gin.Context) {
	player := c.Query("player")
	if player == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "player is required"})
		return
	}
	gameID := c.Param("id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to upgrade to websocket")
		return
	}

	listener := &Listener{GameID: gameID, Player: player, Conn: conn}
	h.hub.Register(listener)
	h.svc.ListenerJoined(gameID, player)

	defer h.hub.Unregister(listener)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warn().Err(err).Str("player", player).Msg("websocket error")
			}
			return
		}
	}
}
