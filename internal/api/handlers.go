package api

import (
	"net/http"
	"strconv"
	"time"

	"newsdesk/internal/apperr"
	"newsdesk/internal/model"
	"newsdesk/internal/newsroom"

	"github.com/gin-gonic/gin"
)

// Handler holds HTTP request handlers.
type Handler struct {
	svc *newsroom.Service
}

func NewHandler(svc *newsroom.Service) *Handler {
	return &Handler{svc: svc}
}

type articleRequest struct {
	Headline  string    `json:"headline"`
	Summary   string    `json:"summary"`
	Link      string    `json:"link"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

type summaryRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type ingestResponse struct {
	Reports []model.IngestReport `json:"reports"`
	Error   string               `json:"error,omitempty"`
	Code    string               `json:"code,omitempty"`
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "index_version": h.svc.Index().Version()})
}

func pageParams(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ = strconv.Atoi(c.Query("size"))
	return page, size
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "article id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) ListArticles(c *gin.Context) {
	page, size := pageParams(c)
	res, err := h.svc.Browse(c.Request.Context(), page, size)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetArticle(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	a, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) CreateArticle(c *gin.Context) {
	var req articleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	a, err := h.svc.Create(c.Request.Context(), model.Article{
		Headline:  req.Headline,
		Summary:   req.Summary,
		Link:      req.Link,
		Source:    req.Source,
		CreatedAt: req.CreatedAt,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) UpdateArticle(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var u model.ArticleUpdate
	if err := c.ShouldBindJSON(&u); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	a, err := h.svc.Update(c.Request.Context(), id, u)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) DeleteArticle(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Search(c *gin.Context) {
	page, size := pageParams(c)
	res, err := h.svc.Search(c.Request.Context(), c.Query("q"), c.Query("mode"), page, size)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Ingest runs every configured source, or only :source when given.
func (h *Handler) Ingest(c *gin.Context) {
	var names []string
	if src := c.Param("source"); src != "" {
		names = append(names, src)
	}
	reports, err := h.svc.IngestAll(c.Request.Context(), names...)
	if err != nil && reports == nil {
		fail(c, err)
		return
	}
	resp := ingestResponse{Reports: reports}
	status := http.StatusOK
	if err != nil {
		kind := apperr.KindOf(err)
		resp.Error, resp.Code = apperr.ReasonOf(err), codeOf(kind)
		status = statusOf(kind)
	}
	c.JSON(status, resp)
}

func (h *Handler) Stats(c *gin.Context) {
	st, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) Summary(c *gin.Context) {
	var req summaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	s, err := h.svc.Summarize(c.Request.Context(), req.Title, req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": s})
}

func (h *Handler) Analyze(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	a, err := h.svc.AnalyzeArticle(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}
