package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/qbo-connector/internal/application/service"
	"github.com/sangkips/qbo-connector/internal/presentation/http/dto/request"
	"github.com/sangkips/qbo-connector/internal/presentation/http/dto/response"
)

// ConnectionHandler handles the QuickBooks OAuth connection
type ConnectionHandler struct {
	connectionService *service.ConnectionService
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(connectionService *service.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connectionService: connectionService}
}

// Connect sends the operator to the Intuit consent page. With
// ?redirect=false the URL is returned instead.
// @Summary Connect QuickBooks
// @Tags oauth
// @Success 302
// @Router /oauth/qbo/connect [get]
func (h *ConnectionHandler) Connect(c *gin.Context) {
	url, err := h.connectionService.ConnectURL()
	if err != nil {
		response.Error(c, err)
		return
	}

	if c.Query("redirect") == "false" {
		response.OK(c, "Authorization URL created", gin.H{"url": url})
		return
	}
	c.Redirect(http.StatusFound, url)
}

// Callback exchanges the authorization code Intuit redirects back with
// @Summary QuickBooks OAuth callback
// @Tags oauth
// @Param code query string true "Authorization code"
// @Param realmId query string true "Company id"
// @Success 200 {object} response.APIResponse
// @Failure 400 {object} response.APIResponse
// @Router /oauth/qbo/callback [get]
func (h *ConnectionHandler) Callback(c *gin.Context) {
	var query request.OAuthCallbackQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	if query.Code == "" || query.RealmID == "" {
		response.BadRequest(c, "Missing code or realmId in the query parameters")
		return
	}

	status, err := h.connectionService.HandleCallback(c.Request.Context(), &service.CallbackInput{
		Code:    query.Code,
		RealmID: query.RealmID,
		State:   query.State,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "QuickBooks connected", status)
}

// Refresh rotates the stored tokens now
// @Summary Refresh QuickBooks tokens
// @Tags oauth
// @Security BearerAuth
// @Success 200 {object} response.APIResponse
// @Router /oauth/qbo/refresh [post]
func (h *ConnectionHandler) Refresh(c *gin.Context) {
	status, err := h.connectionService.Refresh(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Token refreshed", status)
}

// Status reports the stored connection
func (h *ConnectionHandler) Status(c *gin.Context) {
	status, err := h.connectionService.Status(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Connection status retrieved", status)
}
