// export.go implements GET /admin/reservations/export.
// Returns every reservation as a flat table.
// Supports content negotiation via ?format=csv (CSV) or default (JSON).

package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/room-reservation/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"reservation_id", "email", "room_number", "room_type", "status",
	"check_in_date", "check_out_date", "nights", "number_of_guests",
	"total_price", "reserved_at", "cancelled_at", "cancellation_reason",
}

// ExportRow is the JSON form of one exported reservation.
type ExportRow struct {
	ReservationID      uuid.UUID          `json:"reservation_id"`
	Email              string             `json:"email"`
	RoomNumber         string             `json:"room_number"`
	RoomType           string             `json:"room_type"`
	Status             string             `json:"status"`
	CheckIn            openapi_types.Date `json:"check_in_date"`
	CheckOut           openapi_types.Date `json:"check_out_date"`
	Nights             int                `json:"nights"`
	Guests             int                `json:"number_of_guests"`
	TotalPrice         string             `json:"total_price"`
	ReservedAt         time.Time          `json:"reserved_at"`
	CancelledAt        *time.Time         `json:"cancelled_at,omitempty"`
	CancellationReason *string            `json:"cancellation_reason,omitempty"`
}

// getExport handles GET /admin/reservations/export.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) getExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format != "" && format != "csv" && format != "json" {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("format must be csv or json"))
		return
	}

	rows, err := s.svc.Export.Export(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if format == "csv" {
		writeCSV(w, rows)
		return
	}
	writeJSON(w, http.StatusOK, buildJSONRows(rows))
}

// buildJSONRows converts domain rows to their JSON form.
func buildJSONRows(rows []domain.ExportRow) []ExportRow {
	out := make([]ExportRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, domainRowToResponse(r))
	}
	return out
}

// writeCSV encodes domain rows as CSV with a header row.
func writeCSV(w http.ResponseWriter, rows []domain.ExportRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	cw.Write(csvHeaders)
	for _, r := range rows {
		//nolint:errcheck
		cw.Write(domainRowToCSVRecord(r))
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="reservations.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck
	buf.WriteTo(w)
}

// domainRowToResponse maps a domain.ExportRow to its JSON form.
// An empty cancellation reason becomes a nil pointer (omitted in JSON).
func domainRowToResponse(r domain.ExportRow) ExportRow {
	id, _ := uuid.Parse(r.ReservationID)
	row := ExportRow{
		ReservationID: id,
		Email:         r.Email,
		RoomNumber:    r.RoomNumber,
		RoomType:      r.RoomType,
		Status:        r.Status,
		CheckIn:       mustParseDate(r.CheckIn),
		CheckOut:      mustParseDate(r.CheckOut),
		Nights:        r.Nights,
		Guests:        r.Guests,
		TotalPrice:    r.TotalPrice,
		ReservedAt:    r.ReservedAt,
		CancelledAt:   r.CancelledAt,
	}
	if r.Reason != "" {
		row.CancellationReason = &r.Reason
	}
	return row
}

// domainRowToCSVRecord encodes a domain.ExportRow as a flat string slice.
// Nil time pointers are encoded as empty strings.
func domainRowToCSVRecord(r domain.ExportRow) []string {
	return []string{
		r.ReservationID,
		r.Email,
		r.RoomNumber,
		r.RoomType,
		r.Status,
		r.CheckIn,
		r.CheckOut,
		strconv.Itoa(r.Nights),
		strconv.Itoa(r.Guests),
		r.TotalPrice,
		r.ReservedAt.UTC().Format(time.RFC3339),
		formatOptionalTime(r.CancelledAt),
		r.Reason,
	}
}

// mustParseDate parses an "2006-01-02" string into an openapi_types.Date.
// Panics on malformed input; callers are expected to pass service-generated dates.
func mustParseDate(s string) openapi_types.Date {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic("handler: malformed date from service: " + s)
	}
	return openapi_types.Date{Time: t}
}

// formatOptionalTime returns the RFC3339 representation of t, or "" if t is nil.
func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
