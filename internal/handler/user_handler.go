package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"clinic-console/internal/model"
)

func (h *Handler) ListUsers(c echo.Context) error {
	return c.JSON(http.StatusOK, h.clinic.Users())
}

func (h *Handler) GetUser(c echo.Context) error {
	a, err := h.clinic.Account(idParam(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, a.User)
}

func (h *Handler) UpdateUser(c echo.Context) error {
	var req model.UserUpdate
	if err := bind(c, &req); err != nil {
		return err
	}
	u, err := h.clinic.UpdateUser(idParam(c), req)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) DeleteUser(c echo.Context) error {
	id := idParam(c)
	if model.ID(caller(c.Request().Context()).UserID) == id {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot delete your own account")
	}
	if err := h.clinic.DeleteUser(id); err != nil {
		return fail(err)
	}
	return message(c, http.StatusOK, "User deleted")
}
