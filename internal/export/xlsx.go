package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"impactmatrix/api/internal/grid"
	"impactmatrix/api/internal/store"
)

const (
	SheetIdeas         = "Ideas"
	SheetCategories    = "Categories"
	SheetMetadata      = "Metadata"
	SheetFilterPresets = "Filter Presets"

	workbookCreator = "Impact Matrix"
	exportVersion   = "1.0"
	isoMillis       = "2006-01-02T15:04:05.000Z"
)

type column struct {
	header string
	width  float64
}

var (
	ideaColumns = []column{
		{"ID", 25}, {"Title *", 30}, {"Description", 40}, {"Effort *", 10},
		{"Business Value *", 15}, {"Weight *", 10}, {"Status *", 15}, {"Category", 20},
		{"Position X", 12}, {"Position Y", 12}, {"Quadrant", 20}, {"Has Drift", 10},
	}
	categoryColumns = []column{{"ID", 25}, {"Name *", 20}, {"Description", 40}, {"Color *", 12}}
	metadataColumns = []column{{"Key", 25}, {"Value", 50}}
	presetColumns   = []column{{"ID", 25}, {"Name *", 30}, {"Filters JSON", 80}}
)

// Columns K and L of the Ideas sheet are recomputed from scores and positions.
const (
	derivedFirstColumn = "K"
	derivedLastColumn  = "L"
	statusColumn       = "G"
)

type workbook struct {
	file *excelize.File
}

// BuildWorkbook renders the matrix into XLSX bytes. The Filter Presets sheet is
// only added when presets is non-empty.
func BuildWorkbook(data store.MatrixExport, presets []store.FilterPreset, exportedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	wb := &workbook{file: f}

	if err := f.SetSheetName("Sheet1", SheetIdeas); err != nil {
		return nil, err
	}
	for _, name := range []string{SheetCategories, SheetMetadata} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	if err := wb.ideasSheet(data.Ideas); err != nil {
		return nil, fmt.Errorf("ideas sheet: %w", err)
	}
	if err := wb.categoriesSheet(data.Categories); err != nil {
		return nil, fmt.Errorf("categories sheet: %w", err)
	}
	if err := wb.metadataSheet(data, exportedAt); err != nil {
		return nil, fmt.Errorf("metadata sheet: %w", err)
	}
	if len(presets) > 0 {
		if _, err := f.NewSheet(SheetFilterPresets); err != nil {
			return nil, err
		}
		if err := wb.presetsSheet(presets); err != nil {
			return nil, fmt.Errorf("filter presets sheet: %w", err)
		}
	}

	stamp := exportedAt.UTC().Format(time.RFC3339)
	if err := f.SetDocProps(&excelize.DocProperties{
		Creator:        workbookCreator,
		LastModifiedBy: workbookCreator,
		Created:        stamp,
		Modified:       stamp,
		Title:          data.Matrix.Name,
	}); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// header writes the header row, column widths and the frozen first row.
func (w *workbook) header(sheet, color string, columns []column) error {
	f := w.file
	headers := make([]any, len(columns))
	for i, col := range columns {
		headers[i] = col.header
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, col.width); err != nil {
			return err
		}
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}

	style, err := f.NewStyle(&excelize.Style{
		Fill:      solidFill(color),
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Alignment: &excelize.Alignment{Vertical: "center", Horizontal: "left"},
	})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}
	if err := f.SetRowHeight(sheet, 1, 20); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func (w *workbook) ideasSheet(ideas []store.Idea) error {
	f := w.file
	if err := w.header(SheetIdeas, "3B82F6", ideaColumns); err != nil {
		return err
	}

	for i, idea := range ideas {
		row := i + 2
		placement := grid.Locate(idea.PositionX, idea.PositionY, idea.Effort, idea.BusinessValue)
		values := []any{
			idea.ID,
			idea.Title,
			idea.Description,
			idea.Effort,
			idea.BusinessValue,
			idea.Weight,
			string(idea.Status),
			idea.CategoryName(),
			optionalFloat(idea.PositionX),
			optionalFloat(idea.PositionY),
			placement.Quadrant.Label(),
			placement.HasDrift,
		}
		if err := f.SetSheetRow(SheetIdeas, "A"+strconv.Itoa(row), &values); err != nil {
			return err
		}
	}
	if len(ideas) == 0 {
		return nil
	}

	lastRow := strconv.Itoa(len(ideas) + 1)
	derived, err := f.NewStyle(&excelize.Style{Fill: solidFill("E5E7EB")})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetIdeas, derivedFirstColumn+"2", derivedLastColumn+lastRow, derived); err != nil {
		return err
	}

	validation := excelize.NewDataValidation(false)
	validation.Sqref = statusColumn + "2:" + statusColumn + lastRow
	statuses := make([]string, 0, 4)
	for _, status := range store.IdeaStatuses() {
		statuses = append(statuses, string(status))
	}
	if err := validation.SetDropList(statuses); err != nil {
		return err
	}
	return f.AddDataValidation(SheetIdeas, validation)
}

func (w *workbook) categoriesSheet(categories []store.Category) error {
	f := w.file
	if err := w.header(SheetCategories, "22C55E", categoryColumns); err != nil {
		return err
	}

	for i, category := range categories {
		row := strconv.Itoa(i + 2)
		values := []any{category.ID, category.Name, category.Description, category.Color}
		if err := f.SetSheetRow(SheetCategories, "A"+row, &values); err != nil {
			return err
		}

		hex := strings.TrimPrefix(category.Color, "#")
		if _, err := strconv.ParseUint(hex, 16, 32); err != nil || len(hex) != 6 {
			continue
		}
		style, err := f.NewStyle(&excelize.Style{
			Fill: solidFill(hex),
			Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		})
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetCategories, "D"+row, "D"+row, style); err != nil {
			return err
		}
	}
	return nil
}

func (w *workbook) metadataSheet(data store.MatrixExport, exportedAt time.Time) error {
	f := w.file
	if err := w.header(SheetMetadata, "3B82F6", metadataColumns); err != nil {
		return err
	}

	description := data.Matrix.Description
	if description == "" {
		description = "—"
	}
	var projectName, organizationName string
	if project := data.Matrix.Project; project != nil {
		projectName = project.Name
		if project.Organization != nil {
			organizationName = project.Organization.Name
		}
	}

	entries := [][2]string{
		{"Matrix ID", data.Matrix.ID},
		{"Matrix Name", data.Matrix.Name},
		{"Matrix Description", description},
		{"Project", projectName},
		{"Organization", organizationName},
		{"Export Date", exportedAt.UTC().Format(isoMillis)},
		{"Total Ideas", strconv.Itoa(len(data.Ideas))},
		{"Total Categories", strconv.Itoa(len(data.Categories))},
		{"Export Version", exportVersion},
	}
	for i, entry := range entries {
		values := []any{entry[0], entry[1]}
		if err := f.SetSheetRow(SheetMetadata, "A"+strconv.Itoa(i+2), &values); err != nil {
			return err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	return f.SetCellStyle(SheetMetadata, "A2", "A"+strconv.Itoa(len(entries)+1), bold)
}

func (w *workbook) presetsSheet(presets []store.FilterPreset) error {
	f := w.file
	if err := w.header(SheetFilterPresets, "EAB308", presetColumns); err != nil {
		return err
	}

	for i, preset := range presets {
		values := []any{preset.ID, preset.Name, string(preset.Filters)}
		if err := f.SetSheetRow(SheetFilterPresets, "A"+strconv.Itoa(i+2), &values); err != nil {
			return err
		}
	}

	mono, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Family: "Courier New", Size: 10}})
	if err != nil {
		return err
	}
	return f.SetCellStyle(SheetFilterPresets, "C2", "C"+strconv.Itoa(len(presets)+1), mono)
}

func solidFill(color string) excelize.Fill {
	return excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
}

// optionalFloat leaves the cell empty for nil.
func optionalFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
