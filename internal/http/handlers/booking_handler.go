// README: Booking handlers for history lookup, get and cancel.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"tripbot/internal/http/middleware"
	"tripbot/internal/modules/booking"
)

type BookingHandler struct {
	bookings *booking.Service
	timeout  time.Duration
}

func NewBookingHandler(svc *booking.Service, timeout time.Duration) *BookingHandler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BookingHandler{bookings: svc, timeout: timeout}
}

// List handles GET /api/bookings?email=. Authenticated callers may only list
// their own email and default to it.
func (h *BookingHandler) List(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if middleware.Authenticated(c) {
		caller := middleware.CallerEmail(c)
		if email == "" {
			email = caller
		}
		if !strings.EqualFold(email, caller) {
			writeError(c, http.StatusForbidden, "forbidden")
			return
		}
	}
	if email == "" {
		writeError(c, http.StatusBadRequest, "missing email")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	list, err := h.bookings.ListByEmail(ctx, email)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	if list == nil {
		list = []booking.Booking{}
	}
	writeJSON(c, http.StatusOK, map[string]any{"bookings": list})
}

// Get handles GET /api/bookings/:ref.
func (h *BookingHandler) Get(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	b, ok := h.load(ctx, c)
	if !ok {
		return
	}
	writeJSON(c, http.StatusOK, b)
}

// Cancel handles POST /api/bookings/:ref/cancel.
func (h *BookingHandler) Cancel(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if _, ok := h.load(ctx, c); !ok {
		return
	}
	b, err := h.bookings.Cancel(ctx, c.Param("ref"))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"reference": b.Reference, "status": b.Status})
}

// load fetches the booking in the path and enforces ownership for
// authenticated callers.
func (h *BookingHandler) load(ctx context.Context, c *gin.Context) (*booking.Booking, bool) {
	ref := strings.TrimSpace(c.Param("ref"))
	if ref == "" {
		writeError(c, http.StatusBadRequest, "missing booking reference")
		return nil, false
	}
	b, err := h.bookings.Get(ctx, ref)
	if err != nil {
		writeBookingError(c, err)
		return nil, false
	}
	if middleware.Authenticated(c) && !strings.EqualFold(b.TravelerEmail, middleware.CallerEmail(c)) {
		writeError(c, http.StatusForbidden, "forbidden")
		return nil, false
	}
	return b, true
}
