package parser

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/skelgen/internal/vnode"
)

// CSVParser handles CSV files. The first row becomes the table header.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*vnode.Node, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	if len(records) == 0 {
		return vnode.Fragment(), nil
	}

	headers := make([]*vnode.Node, 0, len(records[0]))
	for _, h := range records[0] {
		headers = append(headers, textElement("th", h))
	}
	thead := vnode.Element("thead", nil, vnode.Element("tr", nil, headers...))

	rows := make([]*vnode.Node, 0, len(records)-1)
	for _, record := range records[1:] {
		cells := make([]*vnode.Node, 0, len(record))
		for _, cell := range record {
			cells = append(cells, textElement("td", cell))
		}
		rows = append(rows, vnode.Element("tr", nil, cells...))
	}
	tbody := vnode.Element("tbody", nil, rows...)

	return vnode.Fragment(vnode.Element("table", nil, thead, tbody)), nil
}
