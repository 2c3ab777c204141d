package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"quizadmin/services"
	"quizadmin/store"

	"github.com/gin-gonic/gin"
)

type ContentHandler struct {
	content        *store.ContentStore
	contentService *services.ContentService
	searchService  *services.SearchService
}

func NewContentHandler(content *store.ContentStore, contentService *services.ContentService, searchService *services.SearchService) *ContentHandler {
	return &ContentHandler{
		content:        content,
		contentService: contentService,
		searchService:  searchService,
	}
}

func questionIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid question index"})
		return 0, false
	}
	return index, true
}

func questionBody(c *gin.Context) (json.RawMessage, bool) {
	body, err := c.GetRawData()
	if err != nil || !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid question body"})
		return nil, false
	}
	return body, true
}

func (h *ContentHandler) ListUnits(c *gin.Context) {
	c.JSON(http.StatusOK, h.content.Views())
}

func (h *ContentHandler) GetUnit(c *gin.Context) {
	view, ok := h.content.View(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unit not found"})
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *ContentHandler) AddQuestion(c *gin.Context) {
	raw, ok := questionBody(c)
	if !ok {
		return
	}

	index, question, err := h.contentService.AddQuestion(c.Request.Context(), c.Param("id"), raw)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"index": index, "question": question})
}

func (h *ContentHandler) EditQuestion(c *gin.Context) {
	index, ok := questionIndex(c)
	if !ok {
		return
	}

	raw, ok := questionBody(c)
	if !ok {
		return
	}

	question, err := h.contentService.EditQuestion(c.Request.Context(), c.Param("id"), index, raw)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"index": index, "question": question})
}

func (h *ContentHandler) DeleteQuestion(c *gin.Context) {
	index, ok := questionIndex(c)
	if !ok {
		return
	}

	if err := h.contentService.DeleteQuestion(c.Request.Context(), c.Param("id"), index); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Question deleted successfully"})
}

func (h *ContentHandler) Search(c *gin.Context) {
	results, err := h.searchService.Search(c.Param("id"), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}
