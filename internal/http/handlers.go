package http

import (
	"net/http"
	"strings"
	"time"

	"dompet/internal/core"
)

type categoryDTO struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Icon             string `json:"icon,omitempty"`
	Color            string `json:"color,omitempty"`
	BudgetLimitCents int64  `json:"budget_limit_cents,omitempty"`
	Type             string `json:"type"`
	SpentCents       int64  `json:"spent_cents"`
	Percentage       int    `json:"percentage"`
}

func toCategoryDTO(c core.Category) categoryDTO {
	return categoryDTO{
		ID:               c.ID,
		Name:             c.Name,
		Icon:             c.Icon,
		Color:            c.Color,
		BudgetLimitCents: c.BudgetLimit.Cents,
		Type:             string(c.Type),
		SpentCents:       c.Spent.Cents,
		Percentage:       c.Percentage,
	}
}

type transactionDTO struct {
	ID            int64  `json:"id"`
	CategoryID    int64  `json:"category_id"`
	AmountCents   int64  `json:"amount_cents"`
	Date          string `json:"date"`
	Note          string `json:"note,omitempty"`
	Type          string `json:"type"`
	ImageRef      string `json:"image_ref,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
	CategoryName  string `json:"category_name,omitempty"`
	CategoryIcon  string `json:"category_icon,omitempty"`
	CategoryColor string `json:"category_color,omitempty"`
}

func toTransactionDTO(t core.Transaction) transactionDTO {
	dto := transactionDTO{
		ID:            t.ID,
		CategoryID:    t.CategoryID,
		AmountCents:   t.Amount.Cents,
		Date:          t.Date,
		Note:          t.Note,
		Type:          string(t.Type),
		ImageRef:      t.ImageRef,
		CategoryName:  t.CategoryName,
		CategoryIcon:  t.CategoryIcon,
		CategoryColor: t.CategoryColor,
	}
	if !t.CreatedAt.IsZero() {
		dto.CreatedAt = t.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

type splitBillDTO struct {
	ID         int64  `json:"id"`
	Date       string `json:"date"`
	Name       string `json:"name"`
	TotalCents int64  `json:"total_cents"`
	ImageRef   string `json:"image_ref,omitempty"`
}

func toSplitBillDTO(b core.SplitBill) splitBillDTO {
	return splitBillDTO{
		ID:         b.ID,
		Date:       b.Date,
		Name:       b.Name,
		TotalCents: b.Total.Cents,
		ImageRef:   b.ImageRef,
	}
}

type splitMemberDTO struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	ShareCents int64  `json:"share_cents"`
	IsMe       bool   `json:"is_me"`
}

type summaryDTO struct {
	Month             string        `json:"month"`
	TotalIncomeCents  int64         `json:"total_income_cents"`
	TotalExpenseCents int64         `json:"total_expense_cents"`
	BalanceCents      int64         `json:"balance_cents"`
	Categories        []categoryDTO `json:"categories"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats := s.manager.Categories()
	out := make([]categoryDTO, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryDTO(c))
	}
	respondJSON(w, http.StatusOK, out)
}

type createCategoryRequest struct {
	Name             string `json:"name"`
	Icon             string `json:"icon"`
	Color            string `json:"color"`
	BudgetLimitCents int64  `json:"budget_limit_cents"`
	Type             string `json:"type"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	id, err := s.manager.AddCategory(r.Context(), core.Category{
		Name:        strings.TrimSpace(req.Name),
		Icon:        req.Icon,
		Color:       req.Color,
		BudgetLimit: core.Money{Cents: req.BudgetLimitCents},
		Type:        core.TransactionType(req.Type),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

type updateCategoryRequest struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid category id"})
		return
	}
	var req updateCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := s.manager.UpdateCategory(r.Context(), id, req.Name, req.Icon, req.Color); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid category id"})
		return
	}
	if err := s.manager.DeleteCategory(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs := s.manager.RecentTransactions()
	out := make([]transactionDTO, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionDTO(t))
	}
	respondJSON(w, http.StatusOK, out)
}

type createTransactionRequest struct {
	CategoryID  int64  `json:"category_id"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"` // decimal string alternative
	Date        string `json:"date"`
	Note        string `json:"note"`
	Type        string `json:"type"`
	ImageRef    string `json:"image_ref"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	cents := req.AmountCents
	if cents == 0 && req.Amount != "" {
		var err error
		cents, err = core.ParseAmountToCents(req.Amount)
		if err != nil {
			respondError(w, r, err)
			return
		}
	}

	id, err := s.manager.AddTransaction(r.Context(), core.Transaction{
		CategoryID: req.CategoryID,
		Amount:     core.Money{Cents: cents},
		Date:       req.Date,
		Note:       req.Note,
		Type:       core.TransactionType(req.Type),
		ImageRef:   req.ImageRef,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid transaction id"})
		return
	}
	if err := s.manager.DeleteTransaction(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSummary recomputes and returns the summary for the requested month
// (the current month when the parameter is absent).
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	month, err := queryMonth(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid month, want YYYY-MM"})
		return
	}
	if err := s.manager.RecalculateSummary(r.Context(), month); err != nil {
		respondError(w, r, err)
		return
	}

	sum := s.manager.Summary()
	out := summaryDTO{
		Month:             sum.Month.String(),
		TotalIncomeCents:  sum.TotalIncome.Cents,
		TotalExpenseCents: sum.TotalExpense.Cents,
		BalanceCents:      sum.Balance.Cents,
		Categories:        make([]categoryDTO, 0, len(sum.Categories)),
	}
	for _, c := range sum.Categories {
		out.Categories = append(out.Categories, toCategoryDTO(c))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleListSplitBills(w http.ResponseWriter, r *http.Request) {
	bills := s.manager.SplitBills()
	out := make([]splitBillDTO, 0, len(bills))
	for _, b := range bills {
		out = append(out, toSplitBillDTO(b))
	}
	respondJSON(w, http.StatusOK, out)
}

type createSplitMemberRequest struct {
	Name       string `json:"name"`
	ShareCents int64  `json:"share_cents"`
	IsMe       bool   `json:"is_me"`
}

type createSplitBillRequest struct {
	Date       string                     `json:"date"`
	Name       string                     `json:"name"`
	TotalCents int64                      `json:"total_cents"`
	ImageRef   string                     `json:"image_ref"`
	Members    []createSplitMemberRequest `json:"members"`

	// SplitEvenly distributes the total across members, overriding any
	// member shares.
	SplitEvenly bool `json:"split_evenly"`
}

func (s *Server) handleCreateSplitBill(w http.ResponseWriter, r *http.Request) {
	var req createSplitBillRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if len(req.Members) == 0 {
		respondError(w, r, core.ErrNoMembers)
		return
	}

	members := make([]core.SplitMember, len(req.Members))
	for i, m := range req.Members {
		members[i] = core.SplitMember{
			Name:  strings.TrimSpace(m.Name),
			Share: core.Money{Cents: m.ShareCents},
			IsMe:  m.IsMe,
		}
	}
	if req.SplitEvenly {
		shares := core.SplitEvenly(core.Money{Cents: req.TotalCents}, len(members))
		for i := range members {
			members[i].Share = shares[i]
		}
	}

	id, err := s.manager.AddSplitBill(r.Context(), core.SplitBill{
		Date:     req.Date,
		Name:     strings.TrimSpace(req.Name),
		Total:    core.Money{Cents: req.TotalCents},
		ImageRef: req.ImageRef,
	}, members)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleSplitMembers(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid split bill id"})
		return
	}
	members, err := s.manager.SplitMembers(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]splitMemberDTO, 0, len(members))
	for _, m := range members {
		out = append(out, splitMemberDTO{
			ID:         m.ID,
			Name:       m.Name,
			ShareCents: m.Share.Cents,
			IsMe:       m.IsMe,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteSplitBill(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid split bill id"})
		return
	}
	if err := s.manager.DeleteSplitBill(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type parseRequestDTO struct {
	Text string `json:"text"`
}

type parseResponseDTO struct {
	AmountCents int64  `json:"amount_cents"`
	Name        string `json:"name"`
	CategoryID  int64  `json:"category_id"`
	Category    string `json:"category"`
	Type        string `json:"type"`
}

// handleParse turns free-form text into a transaction draft. The matched
// category is resolved against the cached category set.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	if s.parser == nil {
		respondJSON(w, http.StatusNotImplemented, errorResponse{Error: "parse service not configured"})
		return
	}
	var req parseRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	cats := s.manager.Categories()
	var expense, income []string
	for _, c := range cats {
		if c.Type.Normalize() == core.Income {
			income = append(income, c.Name)
		} else {
			expense = append(expense, c.Name)
		}
	}

	result, err := s.parser.Parse(r.Context(), req.Text, expense, income)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var categoryID int64
	for _, c := range cats {
		if c.Name == result.Category {
			categoryID = c.ID
			break
		}
	}

	respondJSON(w, http.StatusOK, parseResponseDTO{
		AmountCents: result.AmountCents,
		Name:        result.Name,
		CategoryID:  categoryID,
		Category:    result.Category,
		Type:        string(result.Type),
	})
}
