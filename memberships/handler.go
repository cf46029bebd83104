package memberships

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const accessHistoryPageSize = 20

type Handler struct {
	svc  *Service
	repo *Repository
}

func NewHandler(svc *Service, repo *Repository) *Handler {
	return &Handler{svc: svc, repo: repo}
}

// RegisterRoutes monta las rutas. Todo el mostrador administrativo va
// detrás de auth; la verificación de QR queda pública porque la
// consumen los escáneres de acceso sin sesión.
func (h *Handler) RegisterRoutes(r *gin.Engine, auth gin.HandlerFunc) {
	r.GET("/memberships/verify", h.verify)

	admin := r.Group("", auth)
	admin.GET("/plans", h.getPlans)
	admin.POST("/plans", h.createPlan)
	admin.PUT("/plans/:id", h.updatePlan)
	admin.DELETE("/plans/:id", h.deletePlan)

	admin.GET("/api/clients", h.searchClients)
	admin.POST("/api/clients", h.createClient)

	admin.GET("/api/memberships/preview", h.preview)
	admin.POST("/memberships/createMembership", h.createMembership)
	admin.POST("/memberships/:id/renew", h.renewMembership)
	admin.PUT("/api/memberships/:id/members", h.updateMembers)

	admin.POST("/api/memberships/entries", h.recordEntry)
	admin.GET("/api/memberships/access-history", h.accessHistory)
}

func (h *Handler) getPlans(c *gin.Context) {
	plans, err := h.repo.GetPlans()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": plans})
}

func (h *Handler) createPlan(c *gin.Context) {
	var p Plan
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "datos inválidos"})
		return
	}
	if err := h.repo.CreatePlan(&p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) updatePlan(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id inválido"})
		return
	}
	var p Plan
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "datos inválidos"})
		return
	}
	if err := h.repo.UpdatePlan(id, &p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	p.ID = id
	c.JSON(http.StatusOK, p)
}

func (h *Handler) deletePlan(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id inválido"})
		return
	}
	if err := h.repo.DeletePlan(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) searchClients(c *gin.Context) {
	clients, err := h.repo.SearchClients(c.Query("q"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": clients})
}

func (h *Handler) createClient(c *gin.Context) {
	var cl Client
	if err := c.ShouldBindJSON(&cl); err != nil || cl.FullName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "datos inválidos"})
		return
	}
	if err := h.repo.CreateClient(&cl); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, cl)
}

// preview expone el cálculo autoritativo para que el formulario
// muestre precio y vencimiento antes de confirmar.
func (h *Handler) preview(c *gin.Context) {
	planID, _ := strconv.Atoi(c.Query("plan_id"))
	discount, _ := strconv.ParseFloat(c.DefaultQuery("discount", "0"), 64)

	details, err := h.svc.CalculateMembershipDetails(planID, c.Query("start_date"), discount)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrValidation) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *Handler) createMembership(c *gin.Context) {
	var input CreateMembershipInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "datos inválidos"})
		return
	}
	summary, err := h.svc.CreateCompleteMembership(input)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrValidation) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, summary)
}

func (h *Handler) renewMembership(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id inválido"})
		return
	}
	var input RenewalInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "datos inválidos"})
		return
	}
	summary, err := h.svc.RenewMembership(id, input)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrValidation) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) updateMembers(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id inválido"})
		return
	}
	var input struct {
		Members []string `json:"integrantes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "datos inválidos"})
		return
	}
	members, err := h.svc.UpdateFamilyMembers(id, input.Members)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrValidation) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"integrantes": members})
}

func (h *Handler) verify(c *gin.Context) {
	result := h.svc.VerifyMembership(c.Query("data"))
	status := http.StatusOK
	if result.Status == "error" {
		status = http.StatusBadRequest
	}
	c.JSON(status, result)
}

func (h *Handler) recordEntry(c *gin.Context) {
	var input struct {
		ActiveID int    `json:"id_activa"`
		Area     string `json:"area_acceso"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.ActiveID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "datos inválidos"})
		return
	}
	if input.Area == "" {
		input.Area = "General"
	}
	id, err := h.repo.RecordEntry(input.ActiveID, input.Area)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id_entrada": id})
}

func (h *Handler) accessHistory(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	entries, total, err := h.repo.GetEntriesByDate(date, accessHistoryPageSize, (page-1)*accessHistoryPageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  entries,
		"date":  date,
		"page":  page,
		"total": total,
	})
}
