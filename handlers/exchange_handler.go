package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"quizadmin/services"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExchangeHandler struct {
	exchangeService *services.ExchangeService
}

func NewExchangeHandler(exchangeService *services.ExchangeService) *ExchangeHandler {
	return &ExchangeHandler{exchangeService: exchangeService}
}

func attachment(c *gin.Context, name string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
}

func (h *ExchangeHandler) ExportJSON(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.exchangeService.WriteJSON(&buf); err != nil {
		respondError(c, err)
		return
	}

	attachment(c, h.exchangeService.ExportFileName("json"))
	c.Data(http.StatusOK, "application/json; charset=utf-8", buf.Bytes())
}

func (h *ExchangeHandler) ExportExcel(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.exchangeService.WriteWorkbook(&buf); err != nil {
		respondError(c, err)
		return
	}

	attachment(c, h.exchangeService.ExportFileName("xlsx"))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Import accepts a multipart upload in the "file" field. The mode comes from
// the "mode" form value and defaults to merge.
func (h *ExchangeHandler) Import(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please choose a JSON file first"})
		return
	}

	file, err := header.Open()
	if err != nil {
		respondError(c, &services.ImportError{Stage: services.StageRead, Reason: "could not read the file", Err: err})
		return
	}
	defer file.Close()

	mode := services.ImportMode(c.DefaultPostForm("mode", string(services.ImportMerge)))
	result, err := h.exchangeService.Import(c.Request.Context(), services.ImportFile{
		Name: header.Filename,
		Size: header.Size,
		Body: file,
	}, mode, confirmed(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
