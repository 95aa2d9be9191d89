package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"

	"github.com/surajmeruva0786/restosaas2/internal/domain"
	syncctx "github.com/surajmeruva0786/restosaas2/internal/sync"
)

// ExportHandler produces CSV and XLSX downloads of the tenant directory
// with its billing state, for the platform operator.
type ExportHandler struct {
	Platform *syncctx.PlatformContext
}

func (h ExportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/restaurants/export", h.export)
}

func (h ExportHandler) export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	restaurants := h.Platform.Restaurants()
	filenameSuffix := time.Now().Format("20060102_150405")

	switch format {
	case "csv":
		data, err := exportRestaurantsCSV(restaurants)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"restaurants_%s.csv\"", filenameSuffix))
		_, _ = w.Write(data)
		return
	case "xlsx", "excel":
		data, err := exportRestaurantsXLSX(restaurants)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"restaurants_%s.xlsx\"", filenameSuffix))
		_, _ = w.Write(data)
		return
	default:
		writeError(w, http.StatusBadRequest, "invalid format (use csv or xlsx)")
		return
	}
}

func exportRestaurantsCSV(restaurants []domain.Restaurant) ([]byte, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"id", "name", "slug", "phone", "email", "active", "subscription", "due_amount", "last_payment", "created_at"})
	for _, rest := range restaurants {
		_ = w.Write([]string{
			rest.ID,
			rest.Name,
			rest.Slug,
			rest.Phone,
			rest.Email,
			strconv.FormatBool(rest.IsActive),
			string(rest.Subscription),
			strconv.FormatFloat(rest.DueAmount, 'f', 2, 64),
			rest.LastPaymentAt,
			rest.CreatedAt.Format("2006-01-02"),
		})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func exportRestaurantsXLSX(restaurants []domain.Restaurant) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "Restaurants"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	header := []string{"ID", "Name", "Slug", "Phone", "Email", "Active", "Subscription", "Due Amount", "Last Payment", "Created At"}
	for c, v := range header {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		_ = f.SetCellValue(sheet, cell, v)
	}
	for r, rest := range restaurants {
		row := r + 2
		values := []any{
			rest.ID,
			rest.Name,
			rest.Slug,
			rest.Phone,
			rest.Email,
			rest.IsActive,
			string(rest.Subscription),
			rest.DueAmount,
			rest.LastPaymentAt,
			rest.CreatedAt.Format("2006-01-02"),
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 24)
	_ = f.SetColWidth(sheet, "B", "B", 28)
	_ = f.SetColWidth(sheet, "C", "C", 24)
	_ = f.SetColWidth(sheet, "D", "D", 20)
	_ = f.SetColWidth(sheet, "E", "F", 22)
	_ = f.SetColWidth(sheet, "G", "H", 12)
	_ = f.SetColWidth(sheet, "I", "I", 14)
	_ = f.SetColWidth(sheet, "J", "J", 22)

	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F2937"}, Pattern: 1},
	})
	_ = f.SetCellStyle(sheet, "A1", "J1", style)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
