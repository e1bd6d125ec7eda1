package pipeline

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/surgeone-ai/ria-pipeline/internal/model"
)

// exportRow is the flat output schema, one row per firm.
type exportRow struct {
	CRD          int    `csv:"CRD"`
	Company      string `csv:"Company"`
	LegalName    string `csv:"Legal_Name"`
	City         string `csv:"City"`
	State        string `csv:"State"`
	Phone        string `csv:"Phone"`
	Website      string `csv:"Website"`
	Registered   string `csv:"Registered"`
	Status       string `csv:"Status"`
	Employees    int    `csv:"Employees"`
	Clients      int    `csv:"Clients"`
	AUM          int64  `csv:"AUM"`
	FitScore     string `csv:"Fit_Score"`
	FitReasons   string `csv:"Fit_Reasons"`
	ContactName  string `csv:"Contact_Name"`
	ContactEmail string `csv:"Contact_Email"`
	ContactTitle string `csv:"Contact_Title"`
}

func toExportRow(e *model.EnrichedFirm) exportRow {
	registered := ""
	if !e.Registered.IsZero() {
		registered = e.Registered.Format("2006-01-02")
	}
	return exportRow{
		CRD:          e.CRD,
		Company:      e.Company,
		LegalName:    e.LegalName,
		City:         e.City,
		State:        e.State,
		Phone:        e.Phone,
		Website:      e.Website,
		Registered:   registered,
		Status:       e.Status,
		Employees:    e.Employees,
		Clients:      e.Clients,
		AUM:          e.AUM,
		FitScore:     e.FitScore.String(),
		FitReasons:   model.JoinReasons(e.FitReasons),
		ContactName:  e.Contact.Name,
		ContactEmail: e.Contact.Email,
		ContactTitle: e.Contact.Title,
	}
}

// WriteCSV renders enriched records as CSV, header row first.
func WriteCSV(w io.Writer, records []model.EnrichedFirm) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	for i := range records {
		if err := enc.Encode(toExportRow(&records[i])); err != nil {
			return eris.Wrap(err, "export: encode row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteXLSX renders enriched records as a single-sheet workbook.
func WriteXLSX(w io.Writer, records []model.EnrichedFirm) error {
	wb := xlsx.NewFile()
	sheet, err := wb.AddSheet("Prospects")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, name := range []string{
		"CRD", "Company", "Legal_Name", "City", "State", "Phone", "Website",
		"Registered", "Status", "Employees", "Clients", "AUM",
		"Fit_Score", "Fit_Reasons", "Contact_Name", "Contact_Email", "Contact_Title",
	} {
		header.AddCell().SetString(name)
	}

	for i := range records {
		row := toExportRow(&records[i])
		r := sheet.AddRow()
		r.AddCell().SetInt(row.CRD)
		r.AddCell().SetString(row.Company)
		r.AddCell().SetString(row.LegalName)
		r.AddCell().SetString(row.City)
		r.AddCell().SetString(row.State)
		r.AddCell().SetString(row.Phone)
		r.AddCell().SetString(row.Website)
		r.AddCell().SetString(row.Registered)
		r.AddCell().SetString(row.Status)
		r.AddCell().SetInt(row.Employees)
		r.AddCell().SetInt(row.Clients)
		r.AddCell().SetString(strconv.FormatInt(row.AUM, 10))
		r.AddCell().SetString(row.FitScore)
		r.AddCell().SetString(row.FitReasons)
		r.AddCell().SetString(row.ContactName)
		r.AddCell().SetString(row.ContactEmail)
		r.AddCell().SetString(row.ContactTitle)
	}

	return eris.Wrap(wb.Write(w), "export: write workbook")
}
