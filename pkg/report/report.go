// Package report renders vehicle groups for people and for other programs.
package report

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/BitPonyLLC/huegroups/pkg/colors"
	"github.com/BitPonyLLC/huegroups/pkg/grouping"
	"github.com/BitPonyLLC/huegroups/pkg/termwrap"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	FormatJSON     = "json"
	FormatDetailed = "detailed"
	FormatText     = "text"
)

// Formats lists the names accepted by Write.
var Formats = []string{FormatJSON, FormatDetailed, FormatText}

// ImageSeparator joins the image names of a group in JSON output.
const ImageSeparator = ", "

const indent = "    "

// Color is the JSON form of an RGB color.
type Color struct {
	R int `json:"R"`
	G int `json:"G"`
	B int `json:"B"`
}

// GroupInfo is one group in JSON output.
type GroupInfo struct {
	Color  Color  `json:"color"`
	Images string `json:"images"`
}

// Response is the top level of JSON output.
type Response struct {
	VehicleGroups []GroupInfo `json:"vehicle_groups"`
}

// NewResponse converts groups into their JSON form.
func NewResponse(groups []grouping.VehicleGroup) *Response {
	resp := &Response{VehicleGroups: make([]GroupInfo, 0, len(groups))}
	for _, g := range groups {
		resp.VehicleGroups = append(resp.VehicleGroups, GroupInfo{
			Color:  Color{R: int(g.Color.R), G: int(g.Color.G), B: int(g.Color.B)},
			Images: strings.Join(g.Images, ImageSeparator),
		})
	}
	return resp
}

// JSON writes groups as {"vehicle_groups":[{"color":{...},"images":"a, b"}]}.
func JSON(w io.Writer, groups []grouping.VehicleGroup) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewResponse(groups))
}

// Detailed writes the whole report, curve and chosen count included, as JSON.
func Detailed(w io.Writer, report *grouping.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// Text writes a human readable listing of groups wrapped at width.
func Text(w io.Writer, root string, groups []grouping.VehicleGroup, width int) error {
	tw := termwrap.Fixed(width)
	title := cases.Title(language.English)

	view := textView{Root: root, Groups: make([]groupView, 0, len(groups))}
	for _, g := range groups {
		view.Groups = append(view.Groups, groupView{
			Title:  title.String(g.Name),
			Hex:    g.Color.Hex(),
			Color:  g.Color,
			Count:  len(g.Images),
			Images: tw.IndentedParagraph(indent, strings.Join(g.Images, " "), len(indent)*4),
		})
	}

	return textTemplate.Execute(w, view)
}

// Write renders report in the named format.
func Write(w io.Writer, format string, report *grouping.Report, width int) error {
	switch format {
	case FormatJSON, "":
		return JSON(w, report.Groups)
	case FormatDetailed:
		return Detailed(w, report)
	case FormatText:
		return Text(w, report.Root, report.Groups, width)
	}

	return fmt.Errorf("unknown report format %q (expected one of %s)", format, strings.Join(Formats, ", "))
}

//--------------------------------------------------------------------------------
// private

//go:embed report.tmpl
var textSource string

var textTemplate = template.Must(template.New("report").Parse(textSource))

type textView struct {
	Root   string
	Groups []groupView
}

type groupView struct {
	Title  string
	Hex    string
	Color  colors.RGB
	Count  int
	Images string
}
