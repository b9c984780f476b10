package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"orderserver/automation"
	"orderserver/importer"
	"orderserver/interpret"
	apperrors "orderserver/server/errors"
	"orderserver/server/middleware"
	"orderserver/store"
)

// interpretRequest тело запроса интерпретации
type interpretRequest struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // Оценка транскрипции в (0,1], 0 = нет оценки
}

// interpretResponse ответ интерпретации
type interpretResponse struct {
	Status     string                 `json:"status"`
	Intent     *interpret.OrderIntent `json:"intent,omitempty"`
	Verdict    *automation.Verdict    `json:"verdict,omitempty"`
	OrderID    int64                  `json:"order_id,omitempty"`
	Candidates []interpret.Candidate  `json:"candidates,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// respondError отвечает JSON ошибкой и логирует детали с request ID
func respondError(c *gin.Context, appErr *apperrors.AppError) {
	reqID := middleware.GetRequestIDFromGin(c)
	log.Printf("[API] Error (request %s): %v", reqID, appErr)
	c.JSON(appErr.StatusCode(), gin.H{
		"error":      true,
		"message":    appErr.Message,
		"request_id": reqID,
	})
}

// handleHealth проверка живости сервера и базы
func (s *Server) handleHealth(c *gin.Context) {
	if err := s.db.Ping(); err != nil {
		respondError(c, apperrors.NewServiceUnavailableError("database unavailable", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":            "ok",
		"catalog_loaded_at": s.catalogCache.LoadedAt(),
	})
}

// handleInterpret прогоняет высказывание через конвейер и, при
// положительном вердикте автоматизации, исполняет заказ
func (s *Server) handleInterpret(c *gin.Context) {
	var req interpretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidationError("invalid request body", err))
		return
	}

	outcome, err := s.interpreter.Interpret(c.Request.Context(), req.Text, req.Confidence)
	if err != nil {
		respondError(c, apperrors.NewServiceUnavailableError("interpretation unavailable", err))
		return
	}

	switch outcome.Kind {
	case interpret.OutcomeFailure:
		c.JSON(http.StatusUnprocessableEntity, interpretResponse{
			Status: outcome.Kind.String(),
			Error:  outcome.Err.Error(),
		})

	case interpret.OutcomeDisambiguation:
		c.JSON(http.StatusOK, interpretResponse{
			Status:     outcome.Kind.String(),
			Candidates: outcome.Candidates,
		})

	case interpret.OutcomeSuccess:
		s.finalizeIntent(c, outcome.Intent, req.Text)
	}
}

// finalizeIntent принимает решение об автоматизации и исполняет заказ
func (s *Server) finalizeIntent(c *gin.Context, intent *interpret.OrderIntent, utterance string) {
	verdict := s.automation.Decide(intent, intent.Total)
	response := interpretResponse{
		Status:  "success",
		Intent:  intent,
		Verdict: &verdict,
	}

	if !verdict.Auto {
		c.JSON(http.StatusOK, response)
		return
	}

	order := &store.Order{
		CustomerID: intent.CustomerID,
		Total:      intent.Total,
		Payment:    intent.Payment.String(),
		Auto:       true,
		Utterance:  strings.TrimSpace(utterance),
	}
	for _, item := range intent.Items {
		order.Items = append(order.Items, store.OrderLine{
			ItemID:   item.Entry.ID,
			Quantity: item.Quantity,
			Price:    item.Entry.Price,
		})
	}

	orderID, err := s.db.AppendOrder(c.Request.Context(), order)
	if err != nil {
		if errors.Is(err, store.ErrStockExhausted) {
			respondError(c, apperrors.NewConflictError("stock changed since interpretation", err))
			return
		}
		respondError(c, apperrors.NewInternalError("failed to persist order", err))
		return
	}

	// Остатки изменились, следующая интерпретация должна видеть свежий
	// каталог
	if err := s.catalogCache.Reload(c.Request.Context()); err != nil {
		log.Printf("[API] Catalog reload after order failed: %v", err)
	}

	response.OrderID = orderID
	c.JSON(http.StatusOK, response)
}

// handleReverseOrder отменяет авто-исполненный заказ и возвращает остатки
func (s *Server) handleReverseOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, apperrors.NewValidationError("invalid order id", err))
		return
	}

	order, err := s.db.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			respondError(c, apperrors.NewNotFoundError(fmt.Sprintf("order %d not found", orderID), err))
			return
		}
		respondError(c, apperrors.NewInternalError("failed to load order", err))
		return
	}

	if err := s.db.ReverseOrder(c.Request.Context(), orderID); err != nil {
		if errors.Is(err, store.ErrAlreadyReversed) {
			respondError(c, apperrors.NewConflictError(fmt.Sprintf("order %d already reversed", orderID), err))
			return
		}
		respondError(c, apperrors.NewInternalError("failed to reverse order", err))
		return
	}

	// Отмена авто-исполненного заказа понижает точность автоматизации
	if order.Auto {
		s.automation.Stats().RecordReversal()
	}

	if err := s.catalogCache.Reload(c.Request.Context()); err != nil {
		log.Printf("[API] Catalog reload after reversal failed: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "reversed",
		"order_id": orderID,
	})
}

// stockUpdateRequest тело запроса изменения остатка
type stockUpdateRequest struct {
	Stock *int `json:"stock" binding:"required"`
}

// handleUpdateStock выставляет остаток позиции каталога
func (s *Server) handleUpdateStock(c *gin.Context) {
	itemID := c.Param("id")

	var req stockUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidationError("invalid request body", err))
		return
	}
	if *req.Stock < 0 {
		respondError(c, apperrors.NewValidationError(
			fmt.Sprintf("stock must not be negative, got %d", *req.Stock), nil))
		return
	}

	if err := s.db.UpdateStock(c.Request.Context(), itemID, *req.Stock); err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			respondError(c, apperrors.NewNotFoundError(fmt.Sprintf("catalog item %q not found", itemID), err))
			return
		}
		respondError(c, apperrors.NewInternalError("failed to update stock", err))
		return
	}

	// Следующая интерпретация должна видеть свежий остаток
	if err := s.catalogCache.Reload(c.Request.Context()); err != nil {
		log.Printf("[API] Catalog reload after stock update failed: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "updated",
		"item_id": itemID,
		"stock":   *req.Stock,
	})
}

// handleAutomationStats возвращает статистику автоматизации
func (s *Server) handleAutomationStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"policy": s.automation.Policy().Name,
		"stats":  s.automation.Stats().Snapshot(),
	})
}

// handleCatalogReload принудительно перезагружает кэши из базы
func (s *Server) handleCatalogReload(c *gin.Context) {
	ctx := c.Request.Context()

	if err := s.catalogCache.Reload(ctx); err != nil {
		respondError(c, apperrors.NewInternalError("failed to reload catalog", err))
		return
	}
	if err := s.customerCache.Reload(ctx); err != nil {
		respondError(c, apperrors.NewInternalError("failed to reload customers", err))
		return
	}

	index, err := s.catalogCache.Current(ctx)
	if err != nil {
		respondError(c, apperrors.NewInternalError("failed to read reloaded catalog", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "reloaded",
		"entries":   index.Size(),
		"loaded_at": s.catalogCache.LoadedAt(),
	})
}

// handleCatalogImport принимает Excel-файл каталога и замещает каталог
func (s *Server) handleCatalogImport(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, apperrors.NewValidationError("file is required", err))
		return
	}
	if ext := strings.ToLower(filepath.Ext(file.Filename)); ext != ".xlsx" {
		respondError(c, apperrors.NewValidationError(
			fmt.Sprintf("unsupported file type %q, expected .xlsx", ext), nil))
		return
	}

	tempPath := filepath.Join(s.config.UploadDir,
		fmt.Sprintf("catalog-%s.xlsx", middleware.NewRequestID()))
	if err := c.SaveUploadedFile(file, tempPath); err != nil {
		respondError(c, apperrors.NewInternalError("failed to save uploaded file", err))
		return
	}

	entries, err := importer.ParseCatalogExcelFile(tempPath)
	if err != nil {
		respondError(c, apperrors.NewUnprocessableError("failed to parse catalog file", err))
		return
	}

	ctx := c.Request.Context()
	if err := s.db.ReplaceCatalog(ctx, entries); err != nil {
		respondError(c, apperrors.NewInternalError("failed to store imported catalog", err))
		return
	}
	if err := s.catalogCache.Reload(ctx); err != nil {
		respondError(c, apperrors.NewInternalError("failed to reload imported catalog", err))
		return
	}

	log.Printf("[API] Catalog imported: %d entries from %s", len(entries), file.Filename)
	c.JSON(http.StatusOK, gin.H{
		"status":  "imported",
		"entries": len(entries),
	})
}
