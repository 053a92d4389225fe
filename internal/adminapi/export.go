package adminapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/go-pdf/fpdf"
	"github.com/gocarina/gocsv"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"gorm.io/gorm"

	"github.com/evercart/evercart/internal/domain"
	"github.com/evercart/evercart/pkg/common"
)

const exportTimeLayout = "2006-01-02 15:04:05"

func attachmentHeaders(c echo.Context, filename, contentType string) {
	c.Response().Header().Set(echo.HeaderContentType, contentType)
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s"`, filename))
}

// writeExcel streams a single-sheet workbook.
func writeExcel(c echo.Context, filename string, headers []string, rows [][]interface{}) error {
	f := excelize.NewFile()
	const sheet = "Sheet1"
	for col, h := range headers {
		f.SetCellValue(sheet, fmt.Sprintf("%s1", excelize.ToAlphaString(col)), h)
	}
	for i, row := range rows {
		for col, val := range row {
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", excelize.ToAlphaString(col), i+2), val)
		}
	}
	attachmentHeaders(c, filename, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	return f.Write(c.Response())
}

// writeCSV marshals a typed slice with csv struct tags.
func writeCSV(c echo.Context, filename string, rows interface{}) error {
	attachmentHeaders(c, filename, "text/csv")
	return gocsv.Marshal(rows, c.Response())
}

// writePDF renders a landscape table, one header band plus data rows.
func writePDF(c echo.Context, filename, title string, headers []string, rows [][]string) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colW := (pageW - left - right) / float64(len(headers))

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, h := range headers {
		pdf.CellFormat(colW, 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, row := range rows {
		for _, cell := range row {
			if len(cell) > 48 {
				cell = cell[:45] + "..."
			}
			pdf.CellFormat(colW, 6, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	attachmentHeaders(c, filename, "application/pdf")
	return pdf.Output(c.Response())
}

type productExportRow struct {
	ID          string  `csv:"id"`
	Name        string  `csv:"name"`
	Brand       string  `csv:"brand"`
	Description string  `csv:"description"`
	Price       float64 `csv:"price"`
	Stock       int     `csv:"stock"`
	Category    string  `csv:"category"`
	CreatedAt   string  `csv:"created_at"`
}

func exportProducts(c echo.Context) error {
	var products []domain.Product
	if err := GetDB(c).Preload("Category").Order("created_at DESC").Find(&products).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	rows := make([]productExportRow, 0, len(products))
	for _, p := range products {
		category := ""
		if p.Category != nil {
			category = p.Category.Name
		}
		rows = append(rows, productExportRow{
			ID:          strconv.FormatInt(p.ID, 10),
			Name:        p.Name,
			Brand:       p.Brand,
			Description: p.Description,
			Price:       p.Price,
			Stock:       p.Stock,
			Category:    category,
			CreatedAt:   p.CreatedAt.Format(exportTimeLayout),
		})
	}

	stamp := time.Now().Format("20060102150405")
	audit(c, "export_product", domain.LogStatusSuccess,
		fmt.Sprintf("exported %d products", len(rows)))

	switch strings.ToLower(c.QueryParam("format")) {
	case "csv":
		return writeCSV(c, "products-"+stamp+".csv", &rows)
	case "pdf":
		headers := []string{"Name", "Brand", "Price", "Stock", "Category", "Created"}
		table := make([][]string, 0, len(rows))
		for _, r := range rows {
			table = append(table, []string{
				r.Name, r.Brand, fmt.Sprintf("%.2f", r.Price),
				strconv.Itoa(r.Stock), r.Category, r.CreatedAt,
			})
		}
		return writePDF(c, "products-"+stamp+".pdf", "Products", headers, table)
	default:
		headers := []string{"ID", "Name", "Brand", "Description", "Price", "Stock", "Category", "Created"}
		table := make([][]interface{}, 0, len(rows))
		for _, r := range rows {
			table = append(table, []interface{}{
				r.ID, r.Name, r.Brand, r.Description, r.Price, r.Stock, r.Category, r.CreatedAt,
			})
		}
		return writeExcel(c, "products-"+stamp+".xlsx", headers, table)
	}
}

// importProducts ingests an uploaded workbook. The first row is the
// header; columns are matched by name so column order is free. Unknown
// categories are created on the fly.
func importProducts(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Upload file is required", err.Error())
	}
	src, err := file.Open()
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to open upload", err.Error())
	}
	defer src.Close()

	book, err := excelize.OpenReader(src)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Not a valid spreadsheet", err.Error())
	}
	sheet := book.GetSheetName(book.GetActiveSheetIndex())
	allRows := book.GetRows(sheet)
	if len(allRows) < 2 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Spreadsheet has no data rows", nil)
	}

	colIndex := map[string]int{}
	for i, h := range allRows[0] {
		colIndex[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, found := colIndex["name"]; !found {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Missing required column: name", nil)
	}
	cell := func(row []string, name string) string {
		idx, found := colIndex[name]
		if !found || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	db := GetDB(c)
	categoryIDs := map[string]int64{}
	imported, skipped := 0, 0
	for _, row := range allRows[1:] {
		name := cell(row, "name")
		if name == "" {
			skipped++
			continue
		}
		product := domain.Product{
			ID:          common.UUIDint64(),
			Name:        name,
			Brand:       cell(row, "brand"),
			Description: cell(row, "description"),
			Price:       cast.ToFloat64(cell(row, "price")),
			Stock:       cast.ToInt(cell(row, "stock")),
			Image:       cell(row, "image"),
		}
		if catName := cell(row, "category"); catName != "" {
			id, err := resolveCategory(db, categoryIDs, catName)
			if err != nil {
				skipped++
				continue
			}
			product.CategoryID = id
		}
		if err := db.Create(&product).Error; err != nil {
			skipped++
			continue
		}
		imported++
	}

	audit(c, "import_product", domain.LogStatusSuccess,
		fmt.Sprintf("imported %d products, skipped %d rows", imported, skipped))
	return ok(c, map[string]interface{}{"imported": imported, "skipped": skipped})
}

func resolveCategory(db *gorm.DB, cache map[string]int64, name string) (int64, error) {
	key := strings.ToLower(name)
	if id, found := cache[key]; found {
		return id, nil
	}
	var category domain.Category
	err := db.Where("name = ?", name).First(&category).Error
	if err != nil {
		category = domain.Category{ID: common.UUIDint64(), Name: name}
		if err := db.Create(&category).Error; err != nil {
			return 0, err
		}
	}
	cache[key] = category.ID
	return category.ID, nil
}
