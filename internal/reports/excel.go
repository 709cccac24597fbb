package reports

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const dateLayout = "2006-01-02"

func newSheet(name string, headers []string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return nil, err
	}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(name, cell, h); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func setRow(f *excelize.File, sheet string, rowNum int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

// GSTWorkbook renders a GST summary as a spreadsheet.
func GSTWorkbook(s *GSTSummary) (*excelize.File, error) {
	const sheet = "GST Summary"
	f, err := newSheet(sheet, []string{"Line", "Amount"})
	if err != nil {
		return nil, err
	}
	rows := [][]any{
		{"Period", fmt.Sprintf("%s to %s", s.From.Format(dateLayout), s.To.Format(dateLayout))},
		{"Finalized invoices", s.InvoiceCount},
		{"Taxable amount", FormatINR(s.TaxableAmount)},
		{"CGST collected", FormatINR(s.CGST)},
		{"SGST collected", FormatINR(s.SGST)},
		{"IGST collected", FormatINR(s.IGST)},
		{"Credit note CGST", FormatINR(s.CreditCGST)},
		{"Credit note SGST", FormatINR(s.CreditSGST)},
		{"Debit note CGST", FormatINR(s.DebitCGST)},
		{"Debit note SGST", FormatINR(s.DebitSGST)},
		{"Net CGST", FormatINR(s.NetCGST)},
		{"Net SGST", FormatINR(s.NetSGST)},
		{"Net IGST", FormatINR(s.NetIGST)},
		{"Net tax liability", FormatINR(s.NetTax)},
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// SalesWorkbook renders per-day sales as a spreadsheet.
func SalesWorkbook(days []DailySales) (*excelize.File, error) {
	const sheet = "Sales"
	f, err := newSheet(sheet, []string{"Date", "Invoices", "Revenue", "Tax", "Collected"})
	if err != nil {
		return nil, err
	}
	for i, d := range days {
		row := []any{
			d.Date.Format(dateLayout),
			d.InvoiceCount,
			FormatINR(d.Revenue),
			FormatINR(d.TaxCollected),
			FormatINR(d.Collected),
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// ValuationWorkbook renders the stock valuation as a spreadsheet.
func ValuationWorkbook(categories []CategoryValuation) (*excelize.File, error) {
	const sheet = "Stock Valuation"
	f, err := newSheet(sheet, []string{"Category", "Products", "Units", "Value"})
	if err != nil {
		return nil, err
	}
	for i, v := range categories {
		row := []any{v.CategoryName, v.ProductCount, v.Units, FormatINR(v.Value)}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return nil, err
		}
	}
	return f, nil
}
