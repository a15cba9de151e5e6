package gazette

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
)

// Date layouts seen in Gazette exports.
var dateLayouts = []string{"2006-01-02", "02/01/2006", "02 January 2006"}

// ParseCSV reads a Gazette monitor CSV into subjects. Column order is not
// fixed; columns are located by header name. Rows carrying neither a company
// name nor a number are skipped rather than fatal, matching the dirty-source
// expectations of the rest of the pipeline.
func ParseCSV(r io.Reader) ([]InsolvencySubject, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read gazette header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols["company_name"]; !ok {
		return nil, fmt.Errorf("gazette csv missing company_name column")
	}

	field := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var subjects []InsolvencySubject
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read gazette record: %w", err)
		}

		name := field(record, "company_name")
		number := strings.ToUpper(field(record, "company_number"))
		if name == "" && number == "" {
			continue
		}

		subjects = append(subjects, InsolvencySubject{
			CompanyName:      name,
			CompanyNumber:    number,
			InsolvencyType:   field(record, "insolvency_type"),
			NoticeDate:       parseDate(field(record, "notice_date")),
			PractitionerName: field(record, "ip_name"),
			PractitionerFirm: field(record, "ip_firm"),
		})
	}
	return subjects, nil
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
