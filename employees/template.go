package employees

import "strings"

// TemplateFileName is the download name of the sample import file
const TemplateFileName = "employee-import-template.csv"

var templateRows = []string{
	"John,Doe,john.doe@company.com,EMP-001,2024-01-15,Software Engineer,full_time,active,+1-555-0100,john.personal@email.com,New York",
	"Jane,Smith,jane.smith@company.com,EMP-002,2024-02-01,Product Manager,full_time,active,+1-555-0101,,San Francisco",
	`Bob,Johnson,bob.johnson@company.com,EMP-003,2024-03-10,"Designer, UX",contract,active,,,Remote`,
}

// TemplateCSV returns the sample import file: header plus three example rows
func TemplateCSV() []byte {
	var b strings.Builder
	b.WriteString(strings.Join(ImportColumns, ","))
	b.WriteString("\n")
	for _, row := range templateRows {
		b.WriteString(row)
		b.WriteString("\n")
	}
	return []byte(b.String())
}
