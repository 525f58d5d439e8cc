package handler_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/room-reservation/internal/domain"
	"github.com/pkordes/room-reservation/internal/handler"
)

const exportPath = "/admin/reservations/export"

// newExportHTTPHandler wires a Server with only the export service mock.
func newExportHTTPHandler(exportSvc handler.ExportServicer) http.Handler {
	return newHTTPHandler(handler.Services{Export: exportSvc})
}

// exportRowFixture returns a fully-populated cancelled domain.ExportRow.
func exportRowFixture() domain.ExportRow {
	reservedAt := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	cancelledAt := time.Date(2024, 6, 3, 18, 0, 0, 0, time.UTC)

	return domain.ExportRow{
		ReservationID: uuid.New().String(),
		Email:         "guest@example.com",
		RoomNumber:    "101",
		RoomType:      "Deluxe",
		Status:        "CANCELLED",
		CheckIn:       "2024-06-15",
		CheckOut:      "2024-06-18",
		Nights:        3,
		Guests:        2,
		TotalPrice:    "360.00",
		ReservedAt:    reservedAt,
		CancelledAt:   &cancelledAt,
		Reason:        "plans changed, sorry",
	}
}

func staticExport(rows ...domain.ExportRow) *mockExportServicer {
	return &mockExportServicer{
		export: func(_ context.Context) ([]domain.ExportRow, error) {
			return rows, nil
		},
	}
}

// ---- GET /admin/reservations/export, JSON ----------------------------------

func TestGetExport_DefaultJSON_EmptyResult(t *testing.T) {
	rec := do(t, newExportHTTPHandler(staticExport()), http.MethodGet, exportPath, adminToken, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var rows []handler.ExportRow
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rows))
	assert.Empty(t, rows)
}

func TestGetExport_FormatJSON_ExplicitParam(t *testing.T) {
	row := exportRowFixture()

	rec := do(t, newExportHTTPHandler(staticExport(row)), http.MethodGet, exportPath+"?format=json", adminToken, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var rows []handler.ExportRow
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rows))
	require.Len(t, rows, 1)
	assert.Equal(t, row.ReservationID, rows[0].ReservationID.String())
	assert.Equal(t, "2024-06-15", rows[0].CheckIn.String())
	assert.Equal(t, 3, rows[0].Nights)
	require.NotNil(t, rows[0].CancellationReason)
	assert.Equal(t, row.Reason, *rows[0].CancellationReason)
}

func TestGetExport_JSON_ActiveReservation_OmitsCancellation(t *testing.T) {
	row := exportRowFixture()
	row.Status = "CONFIRMED"
	row.CancelledAt = nil
	row.Reason = ""

	rec := do(t, newExportHTTPHandler(staticExport(row)), http.MethodGet, exportPath, adminToken, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "cancelled_at")
	assert.NotContains(t, rec.Body.String(), "cancellation_reason")
}

// ---- GET /admin/reservations/export, CSV -----------------------------------

func TestGetExport_CSV_EmptyResult_HasHeaderRow(t *testing.T) {
	rec := do(t, newExportHTTPHandler(staticExport()), http.MethodGet, exportPath+"?format=csv", adminToken, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "reservation_id,"), "CSV should start with header row, got: %q", body)
}

func TestGetExport_CSV_OneRow_QuotesCommas(t *testing.T) {
	row := exportRowFixture()

	rec := do(t, newExportHTTPHandler(staticExport(row)), http.MethodGet, exportPath+"?format=csv", adminToken, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	// Header + 1 data row.
	require.Len(t, records, 2)
	assert.Equal(t, "reservation_id", records[0][0])
	assert.Equal(t, row.ReservationID, records[1][0])
	assert.Equal(t, "3", records[1][7])
	assert.Equal(t, "2024-06-03T18:00:00Z", records[1][11])
	assert.Equal(t, "plans changed, sorry", records[1][12])
}

func TestGetExport_UnknownFormat_Returns422(t *testing.T) {
	rec := do(t, newExportHTTPHandler(staticExport()), http.MethodGet, exportPath+"?format=xml", adminToken, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

// ---- access and errors -----------------------------------------------------

func TestGetExport_GuestForbidden(t *testing.T) {
	rec := do(t, newExportHTTPHandler(staticExport()), http.MethodGet, exportPath, guestToken, nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetExport_ServiceError_Returns500(t *testing.T) {
	svc := &mockExportServicer{
		export: func(_ context.Context) ([]domain.ExportRow, error) {
			return nil, fmt.Errorf("database unavailable")
		},
	}

	rec := do(t, newExportHTTPHandler(svc), http.MethodGet, exportPath, adminToken, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decodeError(t, rec).Code)
}
