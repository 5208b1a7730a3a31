package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteSpreadsheet renders the report as an XML Spreadsheet 2003 workbook.
// The format carries multiple worksheets in a single self-contained file
// that Excel and LibreOffice open directly.
func WriteSpreadsheet(w io.Writer, r Report) error {
	var buf []byte
	buf = append(buf, `<?xml version="1.0"?>
<?mso-application progid="Excel.Sheet"?>
<Workbook xmlns="urn:schemas-microsoft-com:office:spreadsheet"
 xmlns:o="urn:schemas-microsoft-com:office:office"
 xmlns:x="urn:schemas-microsoft-com:office:excel"
 xmlns:ss="urn:schemas-microsoft-com:office:spreadsheet"
 xmlns:html="http://www.w3.org/TR/REC-html40">
 <Styles>
  <Style ss:ID="Default" ss:Name="Normal">
   <Alignment ss:Vertical="Bottom"/>
   <Borders/>
   <Font ss:FontName="Calibri" x:Family="Swiss" ss:Size="11" ss:Color="#000000"/>
   <Interior/>
   <NumberFormat/>
   <Protection/>
  </Style>
 </Styles>
`...)

	for _, sheet := range r.Sheets {
		buf = append(buf, ` <Worksheet ss:Name="`+escape(sheet.Name)+"\">\n  <Table>\n"...)
		buf = append(buf, "   <Row>\n"...)
		for _, h := range sheet.Headers {
			buf = append(buf, `    <Cell><Data ss:Type="String">`+escape(h)+"</Data></Cell>\n"...)
		}
		buf = append(buf, "   </Row>\n"...)
		for _, row := range sheet.Rows {
			buf = append(buf, "   <Row>\n"...)
			for _, cell := range row {
				buf = append(buf, "    "+cellXML(cell)+"\n"...)
			}
			buf = append(buf, "   </Row>\n"...)
		}
		buf = append(buf, "  </Table>\n </Worksheet>\n"...)
	}
	buf = append(buf, "</Workbook>"...)

	_, err := w.Write(buf)
	return err
}

func cellXML(cell any) string {
	switch v := cell.(type) {
	case float64:
		return `<Cell><Data ss:Type="Number">` + strconv.FormatFloat(v, 'f', -1, 64) + `</Data></Cell>`
	case int:
		return `<Cell><Data ss:Type="Number">` + strconv.Itoa(v) + `</Data></Cell>`
	case nil:
		return `<Cell><Data ss:Type="String"></Data></Cell>`
	default:
		return `<Cell><Data ss:Type="String">` + escape(fmt.Sprint(v)) + `</Data></Cell>`
	}
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escape(s string) string {
	return xmlEscaper.Replace(s)
}
