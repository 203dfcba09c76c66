package v1

import (
	"errors"
	"net/http"

	"subsonic-backend/internal/delivery/http/response"
	"subsonic-backend/internal/domain"
	"subsonic-backend/pkg/apperror"
	"subsonic-backend/pkg/security"
	"subsonic-backend/pkg/validation"

	"github.com/gin-gonic/gin"
)

const MsgContactSent = "¡Mensaje enviado con éxito!"

type ContactHandler struct {
	contactUC domain.ContactUsecase
}

// NewContactHandler registers the quote form on every given group (public, no auth).
func NewContactHandler(contactUC domain.ContactUsecase, limiter gin.HandlerFunc, groups ...*gin.RouterGroup) *ContactHandler {
	handler := &ContactHandler{
		contactUC: contactUC,
	}
	for _, g := range groups {
		g.POST("/contact", limiter, handler.SubmitContact)
	}
	return handler
}

// SubmitContact godoc
// @Summary      Submit quote request
// @Description  Receives the quote form from the site. Storage and the owner notification are best effort.
// @Tags         contact
// @Accept       json
// @Produce      json
// @Param        contact  body      domain.ContactRequest  true  "Quote form"
// @Success      200      {object}  response.Message
// @Failure      400      {object}  response.Failure
// @Failure      429      {object}  response.Failure
// @Failure      500      {object}  response.Failure
// @Router       /contact [post]
func (h *ContactHandler) SubmitContact(c *gin.Context) {
	var req domain.ContactRequest
	// Bodies that are not a JSON object of strings are treated as server errors.
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.Internal(err))
		return
	}

	if err := h.contactUC.SubmitQuote(c.Request.Context(), &req); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == http.StatusBadRequest {
			logValidationFailed(c, req.Email, appErr.Err)
		}
		_ = c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, MsgContactSent)
}

func logValidationFailed(c *gin.Context, email string, err error) {
	sl := security.DefaultLogger()
	if sl == nil {
		return
	}
	sl.LogValidationFailed(
		c.Request.Context(),
		email,
		c.ClientIP(),
		c.GetHeader("User-Agent"),
		c.GetString("RequestID"),
		validation.FormatValidationErrors(err),
	)
}
