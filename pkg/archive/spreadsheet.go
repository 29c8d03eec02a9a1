package archive

import (
	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/pepedot/pkg/annotation"
)

const sheetName = "Points"

var sheetHeader = []any{"No", "Title", "Date", "Time", "Note", "Author", "Document", "Page", "X", "Y", "Photo"}

// spreadsheetRows returns one row per point, ordered by document, page and
// id. No is the point's ordinal on its page.
func spreadsheetRows(p *annotation.Project) [][]any {
	ordinals := annotation.Ordinals(p.Points)
	sorted := annotation.SortForExport(p.Points)
	rows := make([][]any, 0, len(sorted))
	for _, pt := range sorted {
		doc := ""
		if pt.DocumentIndex >= 0 && pt.DocumentIndex < len(p.Documents) {
			doc = p.Documents[pt.DocumentIndex].Name
		}
		photo := "no"
		if pt.HasPhoto() {
			photo = "yes"
		}
		rows = append(rows, []any{
			ordinals[pt.ID], pt.Title, pt.DateISO, pt.TimeISO, pt.Note, pt.AuthorInitials,
			doc, pt.Page, pt.X, pt.Y, photo,
		})
	}
	return rows
}

func buildSpreadsheet(p *annotation.Project) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheetName, "A1", &sheetHeader); err != nil {
		return nil, err
	}
	for i, row := range spreadsheetRows(p) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(sheetName, "B", "B", 24); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheetName, "E", "E", 40); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
