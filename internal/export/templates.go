package export

import (
	"bytes"
	"embed"
	"html/template"
	"strconv"
	"strings"
	"time"

	"impactmatrix/api/internal/grid"
	"impactmatrix/api/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

var matrixTemplate = template.Must(
	template.New("matrix.html").Funcs(template.FuncMap{
		"lower": strings.ToLower,
		"formatDate": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
		"px": func(v float64) string {
			return strconv.FormatFloat(v, 'f', 1, 64) + "px"
		},
	}).ParseFS(templateFS, "templates/matrix.html"),
)

// ReportData holds data for the matrix report template
type ReportData struct {
	MatrixName       string
	Description      string
	ProjectName      string
	OrganizationName string
	ExportedAt       time.Time
	GridWidth        float64
	GridHeight       float64
	Quadrants        []ReportQuadrant
	Ideas            []ReportIdea
	Categories       []store.Category
}

// ReportQuadrant is one background region of the canvas.
type ReportQuadrant struct {
	Label       string
	Description string
	Color       string
	Left        float64
	Top         float64
	Width       float64
	Height      float64
	Count       int
}

// ReportIdea is an idea plotted at its effective position.
type ReportIdea struct {
	Title            string
	Effort           int
	BusinessValue    int
	Weight           int
	Status           string
	Category         string
	Color            string
	X                float64
	Y                float64
	Quadrant         string
	HasDrift         bool
	DriftDescription string
}

const defaultIdeaColor = "#64748b"

// NewReportData places every idea on the canvas and counts ideas per quadrant.
func NewReportData(data store.MatrixExport, exportedAt time.Time) ReportData {
	report := ReportData{
		MatrixName:  data.Matrix.Name,
		Description: data.Matrix.Description,
		ExportedAt:  exportedAt,
		GridWidth:   grid.GridWidth,
		GridHeight:  grid.GridHeight,
		Categories:  data.Categories,
	}
	if project := data.Matrix.Project; project != nil {
		report.ProjectName = project.Name
		if project.Organization != nil {
			report.OrganizationName = project.Organization.Name
		}
	}

	counts := make(map[grid.Quadrant]int, 4)
	for _, idea := range data.Ideas {
		placement := grid.Locate(idea.PositionX, idea.PositionY, idea.Effort, idea.BusinessValue)
		counts[placement.Quadrant]++
		color := defaultIdeaColor
		if idea.Category != nil && idea.Category.Color != "" {
			color = idea.Category.Color
		}
		report.Ideas = append(report.Ideas, ReportIdea{
			Title:            idea.Title,
			Effort:           idea.Effort,
			BusinessValue:    idea.BusinessValue,
			Weight:           idea.Weight,
			Status:           string(idea.Status),
			Category:         idea.CategoryName(),
			Color:            color,
			X:                placement.Position.X,
			Y:                placement.Position.Y,
			Quadrant:         placement.Quadrant.Label(),
			HasDrift:         placement.HasDrift,
			DriftDescription: placement.DriftDescription,
		})
	}

	halfWidth := float64(grid.Midpoint * grid.CellWidth)
	halfHeight := float64(grid.Midpoint * grid.CellHeight)
	regions := map[grid.Quadrant][2]float64{
		grid.QuickWins:      {0, 0},
		grid.MajorProjects:  {halfWidth, 0},
		grid.FillIns:        {0, halfHeight},
		grid.ThanklessTasks: {halfWidth, halfHeight},
	}
	for _, q := range grid.Quadrants() {
		info := q.Info()
		origin := regions[q]
		report.Quadrants = append(report.Quadrants, ReportQuadrant{
			Label:       info.Label,
			Description: info.Description,
			Color:       info.Color,
			Left:        origin[0],
			Top:         origin[1],
			Width:       grid.GridWidth - halfWidth,
			Height:      grid.GridHeight - halfHeight,
			Count:       counts[q],
		})
	}
	return report
}

// RenderMatrixHTML renders the matrix report template with provided data
func RenderMatrixHTML(data ReportData) (string, error) {
	var buf bytes.Buffer
	if err := matrixTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
