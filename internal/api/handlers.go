package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/finsort/finsort/internal/common"
	"github.com/finsort/finsort/internal/model"
)

type assignRequest struct {
	CategoryID     int64 `json:"categoryId" binding:"required"`
	ApplyToSimilar bool  `json:"applyToSimilar"`
}

// assignCategory handles POST /api/transactions/:id/category.
func (s *Server) assignCategory(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.assigner.Assign(c.Request.Context(), c.Param("id"), req.CategoryID, req.ApplyToSimilar)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactionId":              result.TransactionID,
		"categoryId":                 result.CategoryID,
		"assignmentId":               result.AssignmentID,
		"similarTransactionsUpdated": result.SimilarUpdated,
	})
}

// removeCategory handles DELETE /api/transactions/:id/category. The
// transaction's status visibly resets to none; the row itself survives.
func (s *Server) removeCategory(c *gin.Context) {
	if err := s.assigner.Remove(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"transactionId": c.Param("id"),
		"status":        string(model.StatusNone),
	})
}

// autoCategorize handles POST /api/categorize/auto.
func (s *Server) autoCategorize(c *gin.Context) {
	result, err := s.auto.RunOnce(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"categorized": result.Categorized,
		"total":       result.Total,
	})
}

type transactionPayload struct {
	AccountNumber string `json:"accountNumber"`
	Date          string `json:"date" binding:"required"`
	Description   string `json:"description" binding:"required"`
	Description2  string `json:"description2"`
	Description3  string `json:"description3"`
	Debit         string `json:"debit"`
	Credit        string `json:"credit"`
}

type createTransactionsRequest struct {
	Transactions        []transactionPayload `json:"transactions" binding:"required,min=1"`
	AutoApplyCategories *bool                `json:"autoApplyCategories"`
}

// createTransactions handles POST /api/transactions. Lines whose content
// hash is already stored are skipped and reported as duplicates; only the
// ids of rows that actually exist go back to the caller. Unless the caller
// disables autoApplyCategories, each created transaction gets a single
// best-match lookup before it settles as uncategorized.
func (s *Server) createTransactions(c *gin.Context) {
	var req createTransactionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	txns := make([]model.Transaction, 0, len(req.Transactions))
	for i, payload := range req.Transactions {
		txn, err := payloadToTransaction(&payload)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "index": i})
			return
		}
		txns = append(txns, *txn)
	}

	ctx := c.Request.Context()
	insertedIDs, err := s.storage.SaveTransactions(ctx, txns)
	if err != nil {
		respondError(c, err)
		return
	}
	inserted := make(map[string]struct{}, len(insertedIDs))
	for _, id := range insertedIDs {
		inserted[id] = struct{}{}
	}

	autoApply := req.AutoApplyCategories == nil || *req.AutoApplyCategories
	categorized := 0
	if autoApply {
		for i := range txns {
			if _, ok := inserted[txns[i].ID]; !ok {
				continue
			}
			applied, err := s.auto.CategorizeTransaction(ctx, &txns[i])
			if err != nil {
				slog.Warn("auto-categorization failed for new transaction",
					"transaction_id", txns[i].ID,
					"error", err)
				continue
			}
			if applied {
				categorized++
			}
		}
	}

	if insertedIDs == nil {
		insertedIDs = []string{}
	}
	c.JSON(http.StatusCreated, gin.H{
		"transactionIds": insertedIDs,
		"created":        len(insertedIDs),
		"duplicates":     len(txns) - len(insertedIDs),
		"categorized":    categorized,
	})
}

// getTransaction handles GET /api/transactions/:id.
func (s *Server) getTransaction(c *gin.Context) {
	txn, err := s.storage.GetTransactionByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactionResponse(txn))
}

// deleteTransaction handles DELETE /api/transactions/:id, cascading the
// category link.
func (s *Server) deleteTransaction(c *gin.Context) {
	if err := s.storage.DeleteTransaction(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// listCategories handles GET /api/categories.
func (s *Server) listCategories(c *gin.Context) {
	categories, err := s.storage.GetCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// listRules handles GET /api/rules.
func (s *Server) listRules(c *gin.Context) {
	rules, err := s.storage.GetRules(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

func payloadToTransaction(payload *transactionPayload) (*model.Transaction, error) {
	var debit, credit *decimal.Decimal
	if payload.Debit != "" {
		d, err := decimal.NewFromString(payload.Debit)
		if err != nil {
			return nil, err
		}
		debit = &d
	}
	if payload.Credit != "" {
		d, err := decimal.NewFromString(payload.Credit)
		if err != nil {
			return nil, err
		}
		credit = &d
	}
	return model.NewTransaction(
		payload.AccountNumber, payload.Date,
		payload.Description, payload.Description2, payload.Description3,
		debit, credit,
	)
}

func transactionResponse(txn *model.Transaction) gin.H {
	resp := gin.H{
		"id":            txn.ID,
		"accountNumber": txn.AccountNumber,
		"date":          txn.Date,
		"description":   txn.Description,
		"status":        string(txn.Status),
	}
	if txn.Debit != nil {
		resp["debit"] = txn.Debit.String()
	}
	if txn.Credit != nil {
		resp["credit"] = txn.Credit.String()
	}
	if txn.CategoryID != nil {
		resp["categoryId"] = *txn.CategoryID
	}
	return resp
}

// respondError maps engine errors onto HTTP statuses: unknown ids become
// 404, everything else 500.
func respondError(c *gin.Context, err error) {
	if errors.Is(err, common.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	common.LogError(err, "request failed", common.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	})
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
