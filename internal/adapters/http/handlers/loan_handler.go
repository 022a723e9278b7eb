package handlers

import (
	"microloan/internal/adapters/http/middleware"
	"microloan/internal/core/services"
	"microloan/internal/pkg/pagination"
	"microloan/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// LoanHandler handles loan product endpoints
type LoanHandler struct {
	loanService *services.LoanService
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(loanService *services.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// LoanRequest represents create/update loan product request
type LoanRequest struct {
	Title        string          `json:"title" validate:"required,max=200"`
	Description  string          `json:"description" validate:"max=5000"`
	Category     string          `json:"category" validate:"max=100"`
	InterestRate decimal.Decimal `json:"interestRate"`
	MaxLoanLimit decimal.Decimal `json:"maxLoanLimit"`
}

func (r *LoanRequest) toInput() *services.LoanInput {
	return &services.LoanInput{
		Title:        r.Title,
		Description:  r.Description,
		Category:     r.Category,
		InterestRate: r.InterestRate,
		MaxLoanLimit: r.MaxLoanLimit,
	}
}

// List lists loan products
// @Summary List loan products
// @Description Public catalogue ordered by max loan limit
// @Tags Loans
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /loans [get]
func (h *LoanHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	loans, total, err := h.loanService.List(c.UserContext(), params.ToPage())
	if err != nil {
		return response.FromError(c, err)
	}

	out := make([]*LoanResponse, len(loans))
	for i, l := range loans {
		out[i] = toLoanResponse(l)
	}
	return response.Paginated(c, "Loans retrieved", out, pagination.GetMeta(params, total))
}

// Get gets a loan product
// @Summary Get loan product
// @Tags Loans
// @Produce json
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id} [get]
func (h *LoanHandler) Get(c *fiber.Ctx) error {
	loan, err := h.loanService.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Loan retrieved", toLoanResponse(loan))
}

// Create creates a loan product
// @Summary Create loan product
// @Description Manager or admin only
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body LoanRequest true "Loan product"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /loans [post]
func (h *LoanHandler) Create(c *fiber.Ctx) error {
	var req LoanRequest
	if msg, ok := parseBody(c, &req); !ok {
		return response.BadRequest(c, msg)
	}

	loan, err := h.loanService.Create(c.UserContext(), middleware.Principal(c), req.toInput())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Loan created", toLoanResponse(loan))
}

// Update updates a loan product
// @Summary Update loan product
// @Description Manager or admin only
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Param body body LoanRequest true "Loan product"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id} [patch]
func (h *LoanHandler) Update(c *fiber.Ctx) error {
	var req LoanRequest
	if msg, ok := parseBody(c, &req); !ok {
		return response.BadRequest(c, msg)
	}

	loan, err := h.loanService.Update(c.UserContext(), middleware.Principal(c), c.Params("id"), req.toInput())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Loan updated", toLoanResponse(loan))
}

// Delete deletes a loan product
// @Summary Delete loan product
// @Description Manager or admin only
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id} [delete]
func (h *LoanHandler) Delete(c *fiber.Ctx) error {
	if err := h.loanService.Delete(c.UserContext(), middleware.Principal(c), c.Params("id")); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Loan deleted", nil)
}
