package handlers

import (
	"microloan/internal/adapters/http/middleware"
	"microloan/internal/core/domain"
	"microloan/internal/core/services"
	"microloan/internal/pkg/pagination"
	"microloan/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// ApplicationHandler handles loan application endpoints
type ApplicationHandler struct {
	appService *services.ApplicationService
}

// NewApplicationHandler creates a new application handler
func NewApplicationHandler(appService *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{appService: appService}
}

// SubmitApplicationRequest represents submit application request.
// Status and timestamps are server-assigned.
type SubmitApplicationRequest struct {
	LoanID     string          `json:"loanId" validate:"required"`
	LoanAmount decimal.Decimal `json:"loanAmount"`
	Purpose    string          `json:"purpose" validate:"max=2000"`
}

// UpdateStatusRequest represents approve/reject request
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected"`
}

// Submit submits a loan application
// @Summary Submit application
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SubmitApplicationRequest true "Application"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /applications [post]
func (h *ApplicationHandler) Submit(c *fiber.Ctx) error {
	var req SubmitApplicationRequest
	if msg, ok := parseBody(c, &req); !ok {
		return response.BadRequest(c, msg)
	}

	app, err := h.appService.Submit(c.UserContext(), middleware.Principal(c), &services.SubmitInput{
		LoanProductRef: req.LoanID,
		LoanAmount:     req.LoanAmount,
		Purpose:        req.Purpose,
		IPAddress:      getClientIP(c),
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Application submitted", toApplicationResponse(app))
}

// ListMine lists applications of a borrower
// @Summary List applications by borrower
// @Description Borrowers see their own; staff may pass any email
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param email query string false "Borrower email"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /applications [get]
func (h *ApplicationHandler) ListMine(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	apps, total, err := h.appService.ListByBorrower(c.UserContext(), middleware.Principal(c), c.Query("email"), params.ToPage())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Paginated(c, "Applications retrieved", toApplicationResponses(apps), pagination.GetMeta(params, total))
}

// ListPending lists pending applications
// @Summary List pending applications
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /applications/pending [get]
func (h *ApplicationHandler) ListPending(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	apps, total, err := h.appService.ListPending(c.UserContext(), middleware.Principal(c), params.ToPage())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Paginated(c, "Pending applications retrieved", toApplicationResponses(apps), pagination.GetMeta(params, total))
}

// ListApproved lists approved applications
// @Summary List approved applications
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /applications/approved [get]
func (h *ApplicationHandler) ListApproved(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	apps, total, err := h.appService.ListApproved(c.UserContext(), middleware.Principal(c), params.ToPage())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Paginated(c, "Approved applications retrieved", toApplicationResponses(apps), pagination.GetMeta(params, total))
}

// Get gets one application
// @Summary Get application
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Get(c *fiber.Ctx) error {
	app, err := h.appService.Get(c.UserContext(), middleware.Principal(c), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Application retrieved", toApplicationResponse(app))
}

// History lists the audit trail of an application
// @Summary Application history
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /applications/{id}/history [get]
func (h *ApplicationHandler) History(c *fiber.Ctx) error {
	events, err := h.appService.History(c.UserContext(), middleware.Principal(c), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	out := make([]*EventResponse, len(events))
	for i, e := range events {
		out[i] = toEventResponse(e)
	}
	return response.Success(c, "History retrieved", out)
}

// UpdateStatus approves or rejects an application
// @Summary Update application status
// @Description Manager or admin only
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param body body UpdateStatusRequest true "New status"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /applications/status/{id} [patch]
func (h *ApplicationHandler) UpdateStatus(c *fiber.Ctx) error {
	var req UpdateStatusRequest
	if msg, ok := parseBody(c, &req); !ok {
		return response.BadRequest(c, msg)
	}

	app, err := h.appService.SetStatus(c.UserContext(), c.Params("id"), domain.ApplicationStatus(req.Status),
		middleware.Principal(c), getClientIP(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Application status updated", toApplicationResponse(app))
}

// Withdraw deletes a pending application
// @Summary Withdraw application
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /applications/{id} [delete]
func (h *ApplicationHandler) Withdraw(c *fiber.Ctx) error {
	if err := h.appService.Withdraw(c.UserContext(), c.Params("id"), middleware.Principal(c)); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Application withdrawn", nil)
}
