package api

import (
	"bytes"
	"fmt"
	"net/http"

	"butterfly/internal/export"
	"butterfly/internal/models"
)

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var input models.BookingInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	booking, err := s.bookings.CreateBooking(r.Context(), input)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.BookingResponse{
		Success:   true,
		Message:   "Booking created successfully",
		Reference: booking.Reference,
		Booking:   booking,
	})
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.bookings.ListBookings(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	writeJSON(w, http.StatusOK, models.BookingListResponse{Success: true, Bookings: bookings})
}

func (s *HTTPServer) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var update models.StatusUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	booking, err := s.bookings.UpdateStatus(r.Context(), update)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.BookingResponse{
		Success: true,
		Message: "Booking status updated successfully",
		Booking: booking,
	})
}

func (s *HTTPServer) handleFindBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := s.bookings.FindByReference(r.Context(), r.PathValue("reference"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.BookingResponse{
		Success: true,
		Message: "Booking found",
		Booking: booking,
	})
}

func (s *HTTPServer) handleExportBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.bookings.ListBookings(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteBookings(&buf, bookings); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	name := export.FileName(s.now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *HTTPServer) handleListMenu(w http.ResponseWriter, r *http.Request) {
	items, err := s.menu.ListItems(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if items == nil {
		items = []models.MenuItem{}
	}

	writeJSON(w, http.StatusOK, models.MenuListResponse{
		Success: true,
		Message: "Menu items retrieved successfully",
		Items:   items,
	})
}

func (s *HTTPServer) handleGetMenuItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.menu.GetItem(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.MenuResponse{
		Success: true,
		Message: "Menu item retrieved successfully",
		Item:    item,
	})
}

func (s *HTTPServer) handleCreateMenuItem(w http.ResponseWriter, r *http.Request) {
	var input models.MenuItemInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	item, err := s.menu.CreateItem(r.Context(), input)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.MenuResponse{
		Success: true,
		Message: "Menu item created successfully",
		Item:    item,
	})
}

func (s *HTTPServer) handleUpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	var patch models.MenuItemPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	item, err := s.menu.UpdateItem(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.MenuResponse{
		Success: true,
		Message: "Menu item updated successfully",
		Item:    item,
	})
}

func (s *HTTPServer) handleDeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.menu.DeleteItem(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.MenuResponse{
		Success: true,
		Message: "Menu item deleted successfully",
		Item:    item,
	})
}

func (s *HTTPServer) handleToggleMenuItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.menu.ToggleAvailability(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	state := "disabled"
	if item.Available {
		state = "enabled"
	}
	writeJSON(w, http.StatusOK, models.MenuResponse{
		Success: true,
		Message: fmt.Sprintf("Menu item %s successfully", state),
		Item:    item,
	})
}

func (s *HTTPServer) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": s.cfg.PingMessage})
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
