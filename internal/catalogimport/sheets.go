package catalogimport

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperjump/osusume/internal/models"
	"github.com/xuri/excelize/v2"
)

type preference struct {
	userID     int64
	productIDs []int64
}

type workbook struct {
	products     []*models.Product
	stores       []*models.Store
	preferences  []preference
	transactions []*models.Transaction
}

// row maps lower-cased header names to trimmed cell values.
type row map[string]string

func readWorkbook(f *excelize.File) (*workbook, error) {
	sheets := make(map[string]string)
	for _, name := range f.GetSheetList() {
		sheets[strings.ToLower(strings.TrimSpace(name))] = name
	}
	wb := &workbook{}
	var err error
	if wb.products, err = parseSheet(f, sheets, SheetProducts, parseProduct); err != nil {
		return nil, err
	}
	if wb.stores, err = parseSheet(f, sheets, SheetStores, parseStore); err != nil {
		return nil, err
	}
	if wb.preferences, err = parseSheet(f, sheets, SheetPreferences, parsePreference); err != nil {
		return nil, err
	}

	rows, err := sheetRows(f, sheets, SheetTransactions)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*models.Transaction)
	for i, r := range rows {
		id, err := requiredInt(r, "id")
		if err != nil {
			return nil, fmt.Errorf("sheet %q row %d: %w", SheetTransactions, i+2, err)
		}
		customer, err := requiredInt(r, "customer_id")
		if err != nil {
			return nil, fmt.Errorf("sheet %q row %d: %w", SheetTransactions, i+2, err)
		}
		detail := &models.TransactionDetail{}
		if detail.ProductID, err = optionalInt(r, "product_id"); err != nil {
			return nil, fmt.Errorf("sheet %q row %d: %w", SheetTransactions, i+2, err)
		}
		if detail.StoreID, err = optionalInt(r, "store_id"); err != nil {
			return nil, fmt.Errorf("sheet %q row %d: %w", SheetTransactions, i+2, err)
		}
		t, ok := byID[id]
		if !ok {
			t = &models.Transaction{ID: id, CustomerID: customer}
			byID[id] = t
			wb.transactions = append(wb.transactions, t)
		}
		if detail.ProductID != nil || detail.StoreID != nil {
			t.Details = append(t.Details, detail)
		}
	}
	return wb, nil
}

func parseSheet[T any](f *excelize.File, sheets map[string]string, name string, parse func(row) (T, error)) ([]T, error) {
	rows, err := sheetRows(f, sheets, name)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for i, r := range rows {
		v, err := parse(r)
		if err != nil {
			return nil, fmt.Errorf("sheet %q row %d: %w", name, i+2, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// sheetRows returns the data rows of the named sheet, or nil when the workbook has no
// such sheet. The first row is the header. Blank rows are skipped.
func sheetRows(f *excelize.File, sheets map[string]string, name string) ([]row, error) {
	sheet, ok := sheets[name]
	if !ok {
		return nil, nil
	}
	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheet, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	header := make([]string, len(raw[0]))
	for i, h := range raw[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}
	var rows []row
	for _, cells := range raw[1:] {
		r := make(row, len(header))
		blank := true
		for i, c := range cells {
			if i >= len(header) || header[i] == "" {
				continue
			}
			c = strings.TrimSpace(c)
			if c != "" {
				blank = false
			}
			r[header[i]] = c
		}
		if !blank {
			rows = append(rows, r)
		}
	}
	return rows, nil
}

func parseProduct(r row) (*models.Product, error) {
	id, err := requiredInt(r, "id")
	if err != nil {
		return nil, err
	}
	owner, err := requiredInt(r, "user_id")
	if err != nil {
		return nil, err
	}
	price, err := optionalFloat(r, "price")
	if err != nil {
		return nil, err
	}
	return &models.Product{
		ID:          id,
		UserID:      owner,
		Name:        optionalString(r, "name"),
		Description: optionalString(r, "description"),
		Price:       price,
		Category:    optionalString(r, "category"),
		Region:      optionalString(r, "region"),
		Technique:   optionalString(r, "technique"),
		Material:    optionalString(r, "material"),
		Color:       optionalString(r, "color"),
	}, nil
}

func parseStore(r row) (*models.Store, error) {
	id, err := requiredInt(r, "id")
	if err != nil {
		return nil, err
	}
	owner, err := requiredInt(r, "user_id")
	if err != nil {
		return nil, err
	}
	lat, err := optionalFloat(r, "latitude")
	if err != nil {
		return nil, err
	}
	lon, err := optionalFloat(r, "longitude")
	if err != nil {
		return nil, err
	}
	return &models.Store{
		ID:        id,
		UserID:    owner,
		Name:      optionalString(r, "name"),
		District:  optionalString(r, "district"),
		Region:    optionalString(r, "region"),
		Latitude:  lat,
		Longitude: lon,
	}, nil
}

// parsePreference accepts selected_preferences as a JSON array ("[1, 2]") or a list of
// ids separated by commas or spaces.
func parsePreference(r row) (preference, error) {
	userID, err := requiredInt(r, "user_id")
	if err != nil {
		return preference{}, err
	}
	raw := r["selected_preferences"]
	ids := []int64{}
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &ids); err != nil {
			return preference{}, fmt.Errorf("%w: selected_preferences: %v", ErrInvalidRow, err)
		}
		return preference{userID: userID, productIDs: ids}, nil
	}
	for _, field := range strings.FieldsFunc(raw, func(c rune) bool { return c == ',' || c == ' ' || c == ';' }) {
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return preference{}, fmt.Errorf("%w: selected_preferences: %q is not an id", ErrInvalidRow, field)
		}
		ids = append(ids, id)
	}
	return preference{userID: userID, productIDs: ids}, nil
}

func requiredInt(r row, col string) (int64, error) {
	raw, ok := r[col]
	if !ok || raw == "" {
		return 0, fmt.Errorf("%w: missing %s", ErrInvalidRow, col)
	}
	v, err := parseInt(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidRow, col, err)
	}
	return v, nil
}

func optionalInt(r row, col string) (*int64, error) {
	raw := r[col]
	if raw == "" {
		return nil, nil
	}
	v, err := parseInt(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRow, col, err)
	}
	return &v, nil
}

// parseInt also accepts integral floats such as "12.0", which spreadsheets often produce.
func parseInt(raw string) (int64, error) {
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, fmt.Errorf("%q is not an integer", raw)
	}
	return int64(f), nil
}

func optionalFloat(r row, col string) (*float64, error) {
	raw := r[col]
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %q is not a number", ErrInvalidRow, col, raw)
	}
	return &v, nil
}

func optionalString(r row, col string) *string {
	v, ok := r[col]
	if !ok || v == "" {
		return nil
	}
	return &v
}
