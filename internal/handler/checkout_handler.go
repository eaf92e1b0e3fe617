package handler

import (
	"net/http"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

func NewCheckoutHandler(uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

type CheckoutRequest struct {
	DeliveryAddress  string `json:"delivery_address"`
	PaymentMethod    string `json:"payment_method"`
	Notes            string `json:"notes"`
	ClientTotalMinor *int64 `json:"client_total_minor"`
}

type ConfirmCheckoutRequest struct {
	Token string `json:"token"`
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/checkout")
	g.Use(middleware.AuthJWT(cfg))

	g.POST("", h.request)
	g.POST("/confirm", h.confirm)
}

// 1段階目：検証してトークンを返す（まだ注文は作らない）
func (h *CheckoutHandler) request(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.RequestCheckout(c.Request().Context(), userID, usecase.CheckoutInput{
		DeliveryAddress:  req.DeliveryAddress,
		PaymentMethod:    model.PaymentMethod(req.PaymentMethod),
		Notes:            req.Notes,
		ClientTotalMinor: req.ClientTotalMinor,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// 2段階目：トークンで確定。注文を作ってredirect URLを返す。
func (h *CheckoutHandler) confirm(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req ConfirmCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.Token == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "token required"})
	}

	out, err := h.uc.ConfirmCheckout(c.Request().Context(), userID, req.Token)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}
