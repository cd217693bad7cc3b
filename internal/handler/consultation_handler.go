package handler

import (
	"net/http"

	"credit-api/internal/middleware"
	"credit-api/internal/service"
	"credit-api/pkg/pagination"
	"credit-api/pkg/response"

	"github.com/gin-gonic/gin"
)

type ConsultationHandler struct {
	consultationService service.ConsultationService
	limiter             *middleware.RateLimiter
}

// NewConsultationHandler wires the consultation endpoints. limiter may be nil.
func NewConsultationHandler(consultationService service.ConsultationService, limiter *middleware.RateLimiter) *ConsultationHandler {
	return &ConsultationHandler{consultationService: consultationService, limiter: limiter}
}

func (h *ConsultationHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api")
	{
		api.POST("/credit-consultations", h.limiter.Handler(), h.CreateConsultation)
		api.GET("/clients", h.ListClients)
		api.GET("/clients/:tax_id/consultations", h.ListConsultations)
	}
}

// CreateConsultation computes an installment plan and records it for the client
// @Summary      Create credit consultation
// @Description  Compounds 2.5% interest over installment_count-1 periods (a single installment carries no interest), splits the total into installments with the rounding residual on the first one and records the consultation. Unknown clients are registered on the fly.
// @Tags         consultations
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ConsultationRequest  true  "Consultation Payload"
// @Success      201      {object}  response.Response{data=service.ConsultationResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/credit-consultations [post]
func (h *ConsultationHandler) CreateConsultation(c *gin.Context) {
	var req service.ConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := h.consultationService.Consult(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// ListClients returns registered clients with their consultation counts
// @Summary      List clients
// @Tags         consultations
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=[]service.ClientResponse}
// @Failure      500    {object}  response.Response
// @Router       /api/clients [get]
func (h *ConsultationHandler) ListClients(c *gin.Context) {
	p := pagination.Parse(c)

	clients, total, err := h.consultationService.ListClients(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, clients, p.Page, p.Limit, total))
}

// ListConsultations returns a client's consultation history, newest first
// @Summary      List client consultations
// @Tags         consultations
// @Produce      json
// @Param        tax_id  path      string  true   "Client tax id"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=[]service.ConsultationResponse}
// @Failure      404     {object}  response.Response
// @Failure      500     {object}  response.Response
// @Router       /api/clients/{tax_id}/consultations [get]
func (h *ConsultationHandler) ListConsultations(c *gin.Context) {
	p := pagination.Parse(c)

	consultations, total, err := h.consultationService.ListConsultations(c.Request.Context(), c.Param("tax_id"), p)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, consultations, p.Page, p.Limit, total))
}
