package export

import (
	"bytes"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/EQAR/eqar-db/models"
)

const sheetName = "Applications"

var applicationHeaders = []string{
	"ID", "Label", "Agency", "Type", "Review", "Stage", "Submitted",
	"Eligibility", "Site visit", "Report", "Result", "Decision date", "Previous",
}

// Applications renders apps as an xlsx workbook. agencies resolves the
// agency column; unknown ids are shown as [id=N].
func Applications(apps []models.Application, agencies map[int]models.Agency) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.WithError(err).Error("failed to close workbook")
		}
	}()
	sheet := "Sheet1"

	row, err := writeHeader(f, sheet, 0, applicationHeaders)
	if err != nil {
		return nil, errors.Wrap(err, "failed to write xlsx header")
	}
	if len(apps) != 0 {
		if err := applyDataCellStyle(f, sheet, 1, row+1, len(applicationHeaders), row+len(apps)); err != nil {
			return nil, errors.Wrap(err, "failed to style xlsx data")
		}
	}
	for _, app := range apps {
		row++
		agency, ok := agencies[app.AgencyID]
		if !ok {
			agency = models.Agency{ID: app.AgencyID}
		}
		values := []interface{}{
			app.ID,
			app.Label,
			agency.String(),
			string(app.Type),
			string(app.Review),
			app.Stage.String(),
			app.SubmitDate.String(),
			dateCell(app.EligibilityDate),
			dateCell(app.SitevisitDate),
			dateCell(app.ReportDate),
			string(app.Result),
			dateCell(app.DecisionDate),
			intCell(app.PreviousID),
		}
		for i, v := range values {
			if v == nil {
				continue
			}
			if err := writeColumn(f, sheet, i+1, row, v); err != nil {
				return nil, errors.Wrapf(err, "failed to write application %d", app.ID)
			}
		}
	}

	if err := f.SetSheetName(sheet, sheetName); err != nil {
		return nil, errors.Wrap(err, "failed to rename sheet")
	}
	return f.WriteToBuffer()
}

func dateCell(d *models.Date) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func intCell(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func writeColumn(f *excelize.File, sheet string, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, value)
}

func writeHeader(f *excelize.File, sheet string, row int, headers []string) (int, error) {
	row++
	style, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Font:      &excelize.Font{Bold: true, Family: "Calibri", Size: 11},
	})
	if err != nil {
		return row, err
	}
	cellFirst, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return row, err
	}
	cellLast, err := excelize.CoordinatesToCellName(len(headers), row)
	if err != nil {
		return row, err
	}
	if err = f.SetCellStyle(sheet, cellFirst, cellLast, style); err != nil {
		return row, err
	}
	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return row, err
	}
	if err = f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		return row, err
	}
	for idx, value := range headers {
		if err = writeColumn(f, sheet, idx+1, row, value); err != nil {
			return row, err
		}
	}
	return row, nil
}

func applyDataCellStyle(f *excelize.File, sheet string, colFrom, rowFrom, colTo, rowTo int) error {
	style, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
		Font:      &excelize.Font{Family: "Calibri", Size: 11},
	})
	if err != nil {
		return err
	}
	cellFirst, err := excelize.CoordinatesToCellName(colFrom, rowFrom)
	if err != nil {
		return err
	}
	cellLast, err := excelize.CoordinatesToCellName(colTo, rowTo)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cellFirst, cellLast, style)
}
