package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"sparks/internal/logger"
	"sparks/internal/service"
)

const (
	defaultLimit = 20
	maxLimit     = 100
	historyLimit = 50
)

type categoryInfo struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type taskResponse struct {
	ID          uint         `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Category    categoryInfo `json:"category"`
	IsFree      bool         `json:"is_free"`
	IsCompleted bool         `json:"is_completed"`
}

type taskListResponse struct {
	Tasks         []taskResponse `json:"tasks"`
	Total         int64          `json:"total"`
	FreeRemaining int            `json:"free_remaining"`
	PaidAvailable int            `json:"paid_available"`
}

type dailyFreeCountResponse struct {
	Remaining     int       `json:"remaining"`
	ResetAt       time.Time `json:"reset_at"`
	PaidAvailable int       `json:"paid_available"`
}

type completeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Balance int64  `json:"balance"`
}

type purchaseResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	Balance       int64  `json:"balance"`
	FreeRemaining int    `json:"free_remaining"`
	PaidAvailable int    `json:"paid_available"`
}

type bonusStatusResponse struct {
	DayNumber   int       `json:"day_number"`
	BonusAmount int64     `json:"bonus_amount"`
	IsClaimed   bool      `json:"is_claimed"`
	CanClaim    bool      `json:"can_claim"`
	NextResetAt time.Time `json:"next_reset_at"`
	ClaimedDays []int     `json:"claimed_days"`
}

type bonusClaimResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message,omitempty"`
	BonusAmount int64  `json:"bonus_amount"`
	NewBalance  int64  `json:"new_balance"`
	DayNumber   int    `json:"day_number"`
}

type transactionResponse struct {
	Reference   string    `json:"reference"`
	Amount      int64     `json:"amount"`
	Type        string    `json:"transaction_type"`
	Method      string    `json:"payment_method,omitempty"`
	Status      string    `json:"status"`
	Description string    `json:"description,omitempty"`
	TonAmount   string    `json:"ton_amount,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toTaskResponse(it service.TaskItem) taskResponse {
	return taskResponse{
		ID:          it.ID,
		Title:       it.Title,
		Description: it.Description,
		Category:    categoryInfo{ID: it.Category.ID, Name: it.Category.Name, Color: it.Category.Color},
		IsFree:      it.IsFree,
		IsCompleted: it.IsCompleted,
	}
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q, msg := parseTaskQuery(r)
	if msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	page, err := s.svc.Tasks.EligibleTasks(r.Context(), userFrom(r.Context()), q)
	if err != nil {
		s.internalError(w, r, "list tasks", err)
		return
	}

	out := taskListResponse{
		Tasks:         make([]taskResponse, 0, len(page.Tasks)),
		Total:         page.Total,
		FreeRemaining: page.FreeRemaining,
		PaidAvailable: page.PaidAvailable,
	}
	for _, it := range page.Tasks {
		out.Tasks = append(out.Tasks, toTaskResponse(it))
	}
	writeJSON(w, http.StatusOK, out)
}

func parseTaskQuery(r *http.Request) (service.TaskQuery, string) {
	q := service.TaskQuery{Limit: defaultLimit}
	values := r.URL.Query()

	if raw := values.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLimit {
			return q, "limit must be between 1 and 100"
		}
		q.Limit = n
	}
	if raw := values.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return q, "offset must be a non-negative integer"
		}
		q.Offset = n
	}
	if raw := values.Get("category_id"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return q, "category_id must be an integer"
		}
		q.CategoryID = uint(n)
	}
	return q, ""
}

func (s *Server) handleDailyFreeCount(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.Entitlements.Summary(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		s.internalError(w, r, "daily free count", err)
		return
	}
	writeJSON(w, http.StatusOK, dailyFreeCountResponse{
		Remaining:     summary.FreeRemaining,
		ResetAt:       summary.ResetAt,
		PaidAvailable: summary.PaidAvailable,
	})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := taskIDParam(w, r)
	if !ok {
		return
	}
	item, err := s.svc.Tasks.GetTask(r.Context(), userFrom(r.Context()), taskID)
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, "task not found")
	case errors.Is(err, service.ErrTranslationMissing):
		writeError(w, http.StatusNotFound, "translation not found")
	case err != nil:
		s.internalError(w, r, "get task", err)
	default:
		writeJSON(w, http.StatusOK, toTaskResponse(*item))
	}
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := taskIDParam(w, r)
	if !ok {
		return
	}
	user := userFrom(r.Context())
	res, err := s.svc.Tasks.CompleteTask(r.Context(), user, taskID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, completeResponse{Success: true, Message: "Task completed", Balance: res.Balance})
	case errors.Is(err, service.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, "task not found")
	case service.IsSoft(err):
		writeJSON(w, http.StatusOK, completeResponse{Message: softMessage(err, s.svc.Tasks.ExtraCost()), Balance: s.balance(r, user.ID)})
	default:
		s.internalError(w, r, "complete task", err)
	}
}

func (s *Server) handlePurchaseExtra(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	res, err := s.svc.Tasks.PurchaseExtraTask(r.Context(), user)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, purchaseResponse{
			Success:       true,
			Message:       "Extra task purchased",
			Balance:       res.Balance,
			FreeRemaining: res.FreeRemaining,
			PaidAvailable: res.PaidAvailable,
		})
	case service.IsSoft(err):
		out := purchaseResponse{Message: softMessage(err, s.svc.Tasks.ExtraCost()), Balance: s.balance(r, user.ID)}
		if summary, serr := s.svc.Entitlements.Summary(r.Context(), user.ID); serr == nil {
			out.FreeRemaining = summary.FreeRemaining
			out.PaidAvailable = summary.PaidAvailable
		}
		writeJSON(w, http.StatusOK, out)
	default:
		s.internalError(w, r, "purchase extra task", err)
	}
}

func (s *Server) handleBonusStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Bonus.Status(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		s.internalError(w, r, "bonus status", err)
		return
	}
	writeJSON(w, http.StatusOK, bonusStatusResponse{
		DayNumber:   st.DayNumber,
		BonusAmount: st.BonusAmount,
		IsClaimed:   st.IsClaimed,
		CanClaim:    st.CanClaim,
		NextResetAt: st.NextResetAt,
		ClaimedDays: st.ClaimedDays,
	})
}

func (s *Server) handleBonusClaim(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	res, err := s.svc.Bonus.Claim(r.Context(), user.ID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, bonusClaimResponse{
			Success:     true,
			BonusAmount: res.BonusAmount,
			NewBalance:  res.NewBalance,
			DayNumber:   res.DayNumber,
		})
	case service.IsSoft(err):
		writeJSON(w, http.StatusOK, bonusClaimResponse{
			Message:    softMessage(err, 0),
			NewBalance: s.balance(r, user.ID),
		})
	default:
		s.internalError(w, r, "claim bonus", err)
	}
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	refs, err := s.svc.Categories.List(r.Context(), userFrom(r.Context()))
	if err != nil {
		s.internalError(w, r, "list categories", err)
		return
	}
	out := make([]categoryInfo, 0, len(refs))
	for _, c := range refs {
		out = append(out, categoryInfo{ID: c.ID, Name: c.Name, Color: c.Color})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"categories": out})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int64{"balance": s.balance(r, userFrom(r.Context()).ID)})
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.svc.Ledger.History(r.Context(), userFrom(r.Context()).ID, historyLimit)
	if err != nil {
		s.internalError(w, r, "list transactions", err)
		return
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		item := transactionResponse{
			Reference:   t.Reference,
			Amount:      t.Amount,
			Type:        string(t.Type),
			Method:      string(t.Method),
			Status:      string(t.Status),
			Description: t.Description,
			CreatedAt:   t.CreatedAt,
		}
		if t.TonAmount.Valid {
			item.TonAmount = t.TonAmount.Decimal.String()
		}
		out = append(out, item)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": out})
}

func taskIDParam(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "taskID"), 10, 64)
	if err != nil || id == 0 {
		writeError(w, http.StatusUnprocessableEntity, "task id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

// balance reads the current balance for soft-failure payloads; zero on error.
func (s *Server) balance(r *http.Request, userID uint) int64 {
	b, err := s.svc.Users.Balance(r.Context(), userID)
	if err != nil {
		logger.WithRequestID(r.Context(), s.log).Warn("read balance", zap.Error(err))
		return 0
	}
	return b
}

func softMessage(err error, extraCost int64) string {
	switch {
	case errors.Is(err, service.ErrAlreadyCompleted):
		return "Task already completed"
	case errors.Is(err, service.ErrEntitlementExhausted):
		return "No free tasks left today. Buy an extra task for " + strconv.FormatInt(extraCost, 10) + " sparks."
	case errors.Is(err, service.ErrInsufficientBalance):
		return "Not enough sparks to buy a task"
	case errors.Is(err, service.ErrAlreadyClaimedToday):
		return "Bonus already claimed today"
	}
	return err.Error()
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	logger.WithRequestID(r.Context(), s.log).Error(op, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
