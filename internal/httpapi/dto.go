package httpapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/service/transaction"
)

// Monetary values travel as decimal strings ("123.45"), dates as "2006-01-02".
const dateLayout = "2006-01-02"

type postAccountRequest struct {
	UserID      uuid.UUID          `json:"user_id"`
	Name        string             `json:"name"`
	Type        ledger.AccountType `json:"type"`
	Balance     string             `json:"balance,omitempty"`
	Institution string             `json:"institution,omitempty"`
	Metadata    map[string]string  `json:"metadata,omitempty"`
}

type patchAccountRequest struct {
	UserID      uuid.UUID         `json:"user_id"`
	Name        *string           `json:"name,omitempty"`
	Institution *string           `json:"institution,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type accountResponse struct {
	ID          uuid.UUID          `json:"id"`
	UserID      uuid.UUID          `json:"user_id"`
	Name        string             `json:"name"`
	Type        ledger.AccountType `json:"type"`
	Balance     string             `json:"balance"`
	Institution string             `json:"institution,omitempty"`
	Metadata    map[string]string  `json:"metadata,omitempty"`
	Active      bool               `json:"active"`
}

func toAccountResponse(a ledger.Account) accountResponse {
	return accountResponse{
		ID:          a.ID,
		UserID:      a.UserID,
		Name:        a.Name,
		Type:        a.Type,
		Balance:     a.Balance.String(),
		Institution: a.Institution,
		Metadata:    a.Metadata,
		Active:      a.Active,
	}
}

type postCategoryRequest struct {
	UserID uuid.UUID           `json:"user_id"`
	Name   string              `json:"name"`
	Type   ledger.CategoryType `json:"type"`
}

type categoryResponse struct {
	ID        uuid.UUID           `json:"id"`
	UserID    uuid.UUID           `json:"user_id"`
	Name      string              `json:"name"`
	Type      ledger.CategoryType `json:"type"`
	IsDefault bool                `json:"is_default"`
}

func toCategoryResponse(c ledger.Category) categoryResponse {
	return categoryResponse{ID: c.ID, UserID: c.UserID, Name: c.Name, Type: c.Type, IsDefault: c.IsDefault}
}

type postBudgetRequest struct {
	UserID      uuid.UUID `json:"user_id"`
	CategoryID  uuid.UUID `json:"category_id"`
	Amount      string    `json:"amount"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Description string    `json:"description,omitempty"`
}

type budgetResponse struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	CategoryID  uuid.UUID `json:"category_id"`
	Amount      string    `json:"amount"`
	Spent       string    `json:"spent"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	AutoCreated bool      `json:"auto_created"`
	Description string    `json:"description,omitempty"`
}

func toBudgetResponse(b ledger.Budget) budgetResponse {
	return budgetResponse{
		ID:          b.ID,
		UserID:      b.UserID,
		CategoryID:  b.CategoryID,
		Amount:      b.Amount.String(),
		Spent:       b.Spent.String(),
		StartDate:   b.StartDate.Format(dateLayout),
		EndDate:     b.EndDate.Format(dateLayout),
		AutoCreated: b.AutoCreated,
		Description: b.Description,
	}
}

type recalculateRequest struct {
	UserID    uuid.UUID `json:"user_id"`
	StartDate string    `json:"start_date,omitempty"`
	EndDate   string    `json:"end_date,omitempty"`
}

type recalculateQuery struct {
	UserID uuid.UUID
	Start  *time.Time
	End    *time.Time
}

type postTransactionRequest struct {
	UserID      uuid.UUID              `json:"user_id"`
	AccountID   uuid.UUID              `json:"account_id,omitempty"`
	CategoryID  uuid.UUID              `json:"category_id,omitempty"`
	Category    string                 `json:"category,omitempty"`
	Amount      string                 `json:"amount"`
	Description string                 `json:"description,omitempty"`
	Vendor      string                 `json:"vendor,omitempty"`
	Purchaser   string                 `json:"purchaser,omitempty"`
	Note        string                 `json:"note,omitempty"`
	Type        ledger.TransactionType `json:"type"`
	Date        string                 `json:"date"`
}

type transactionResponse struct {
	ID          uuid.UUID              `json:"id"`
	UserID      uuid.UUID              `json:"user_id"`
	AccountID   uuid.UUID              `json:"account_id,omitempty"`
	CategoryID  uuid.UUID              `json:"category_id,omitempty"`
	Amount      string                 `json:"amount"`
	Description string                 `json:"description,omitempty"`
	Vendor      string                 `json:"vendor,omitempty"`
	Purchaser   string                 `json:"purchaser,omitempty"`
	Note        string                 `json:"note,omitempty"`
	Type        ledger.TransactionType `json:"type"`
	Date        string                 `json:"date"`
}

func toTransactionResponse(tx ledger.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		UserID:      tx.UserID,
		AccountID:   tx.AccountID,
		CategoryID:  tx.CategoryID,
		Amount:      tx.Amount.String(),
		Description: tx.Description,
		Vendor:      tx.Vendor,
		Purchaser:   tx.Purchaser,
		Note:        tx.Note,
		Type:        tx.Type,
		Date:        tx.Date.Format(dateLayout),
	}
}

type transactionWriteResponse struct {
	Transaction transactionResponse `json:"transaction"`
	Warnings    []string            `json:"warnings,omitempty"`
}

func toWriteResponse(tx ledger.Transaction, warns []transaction.Warning) transactionWriteResponse {
	return transactionWriteResponse{Transaction: toTransactionResponse(tx), Warnings: warningMessages(warns)}
}

func warningMessages(warns []transaction.Warning) []string {
	if len(warns) == 0 {
		return nil
	}
	out := make([]string, 0, len(warns))
	for _, w := range warns {
		out = append(out, w.Message())
	}
	return out
}

type bulkDeleteResponse struct {
	Deleted  int      `json:"deleted"`
	Warnings []string `json:"warnings,omitempty"`
}

type importRowRequest struct {
	Date        string    `json:"date"`
	Amount      string    `json:"amount"`
	Description string    `json:"description,omitempty"`
	Vendor      string    `json:"vendor,omitempty"`
	Type        string    `json:"type,omitempty"`
	Category    string    `json:"category,omitempty"`
	AccountID   uuid.UUID `json:"account_id,omitempty"`
}

type importRequest struct {
	UserID uuid.UUID          `json:"user_id"`
	Rows   []importRowRequest `json:"rows"`
}

type importSkip struct {
	Index int    `json:"index"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type importResponse struct {
	Created []transactionResponse `json:"created"`
	Skipped []importSkip          `json:"skipped,omitempty"`
}

type netWorthPoint struct {
	Month    string `json:"month"`
	NetWorth string `json:"net_worth"`
}

type netWorthResponse struct {
	Points []netWorthPoint `json:"points"`
}

type netWorthQuery struct {
	UserID uuid.UUID
	Months int
}

type postGoalRequest struct {
	UserID       uuid.UUID         `json:"user_id"`
	Name         string            `json:"name"`
	TargetAmount string            `json:"target_amount"`
	TargetDate   string            `json:"target_date,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

type contributeRequest struct {
	UserID uuid.UUID `json:"user_id"`
	Amount string    `json:"amount"`
}

type goalResponse struct {
	ID            uuid.UUID         `json:"id"`
	UserID        uuid.UUID         `json:"user_id"`
	Name          string            `json:"name"`
	TargetAmount  string            `json:"target_amount"`
	CurrentAmount string            `json:"current_amount"`
	TargetDate    string            `json:"target_date,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

func toGoalResponse(g ledger.Goal) goalResponse {
	resp := goalResponse{
		ID:            g.ID,
		UserID:        g.UserID,
		Name:          g.Name,
		TargetAmount:  g.TargetAmount.String(),
		CurrentAmount: g.CurrentAmount.String(),
		Metadata:      g.Metadata,
	}
	if g.TargetDate != nil {
		resp.TargetDate = g.TargetDate.Format(dateLayout)
	}
	return resp
}
