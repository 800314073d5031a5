package parsers

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/pdf-data-extractor/constants"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/core/tabular"
)

var gstTotalAmount = regexp.MustCompile(`Total Amount\s+([\d,]+)`)

// BuiltIn returns the built-in definitions in classification order.
// The slice is freshly allocated; callers may keep it.
func BuiltIn() []Definition {
	return []Definition{
		{
			Name:     "GST Challan",
			Matches:  []string{"GOODS AND SERVICES TAX", "PAYMENT RECEIPT"},
			Metadata: `(?s)Date : (?<DepositDate>\d\d[/-]\d\d[/-]\d{4}) .* GSTIN: (?<GSTIN>.*?) .* Name:\s+(?<Name>.*?) Address.* \s+(?<StateName>[^\d]+?)\s+SGST`,
			Table:    `(?<name>\w+)\(.*?\)\s+(?<tax>-|\d+)\s+(?<interest>-|\d+)\s+(?<penalty>-|\d+)\s+(?<fees>-|\d+)\s+(?<others>-|\d+)\s+(?<total>-|\d+)\s+`,
			Extract:  extractGSTChallan,
		},
		{
			Name:     "GSTR-3B",
			Matches:  []string{"Form GSTR-3B", "See rule 61(5)"},
			Metadata: `Year (?<Year>[\d-]+)\s+Period\s+(?<Period>.*)\s+GSTIN\s+of\s+the\s+supplier\s+(?<GSTIN>\w+)\s+2\(a\)\.\s+Legal\s+name\s+of\s+the\s+registered\s+person\s+(?<Name>.*)\s+2\(b\).*Date of ARN (?<ARN_Date>[\d/]+)`,
			Table:    `\([a-e]\s?\) (?<Particular>[A-Z].*?) (?<TaxableValue>\d+\.\d\d|-)\s+(?<IGST>\d+\.\d\d|-)\s+(?<CGST>\d+\.\d\d|-)\s+(?<SGST>\d+\.\d\d|-)\s+(?<Cess>\d+\.\d\d|-)\s+`,
		},
		{
			Name:     "TDS",
			Matches:  []string{"INCOME TAX DEPARTMENT", "Challan Receipt"},
			Metadata: `Name : (?<Name>.*?)\s+Ass.* Nature of Payment : (?<SectionNo>\w+)\s+Amount \(in\s+Rs\.\) : ₹ (?<Amount>\d[\d,.]*).*(?<DepositDate>\d\d-\s?\w{3}-\d{4})`,
		},
		{
			Name:     "Union Bank Statement",
			Matches:  []string{"Union Bank of India", "Statement of Account"},
			Metadata: `(?is)Statement of Account\s+(?<Account_Holder_Name>.*?)\s+.* Account No\s+(?<Account_Number>\d+)`,
			Table:    `(?<date>\d\d-\d\d-\d{4})\s+\d\d:\d\d:\d\d\s+(?<particulars>.*?)\s+(?<amt>[\d,]+\.\d\s?\d)\s+(?<bal>-?\s?[\d,]+\.\d\s?\d)`,
		},
		{
			Name:     "Canara Bank Statement",
			Matches:  []string{"Canara Bank does not"},
			Metadata: `(?s)Account Number (?<Account_Number>\d+).* Opening Balance Rs\. (?<Opening_Balance>-?[\d,]+\.\d\d)\s+Closing Balance Rs\. (?<Closing_Balance>-?[\d,]+\.\d\d)`,
			Table:    `\s\s(?<date>\d\d-\d\d-\d{4})\s+\d\d:\d\d:\d\d\s+(?<particulars>.*?)\s+(?<amt>[\d+,]+\.\d\d)\s+(?<bal>-?[\d+,]+\.\d\d)`,
		},
		{
			Name:     "RBL Bank Statement",
			Matches:  []string{"RBL BANK LTD"},
			Metadata: `(?s)Account Name: (?<Account_Name>.*?) Home Branch: .* in Account Number:\s+(?<Account_Number>\d+)\s+.* Opening Balance: ₹ (?<Opening_Balance>[\d,]+\.\d{2})\s+Count Of Debit: \d+\s+Closing Balance: ₹ (?<Closing_Balance>[\d,]+\.\d{2})`,
			Table:    `(?<date>\d\d/\d\d/\d{4})\s+\d\d/\d\d/\d{4}\s+(?<particular>.*?)\s+(?<amt>[\d,]+\.\s?\d\s?\d)\s+(?<bal>[\d,]+\s?\.\s?\d\s?\d)`,
			Extract:  tabular.Extract,
		},
		{
			Name:     "IDBI Bank Statement",
			Matches:  []string{"IDBI Bank or other authorities"},
			Metadata: `(?s)^(?<Name>.*?) Address .* A/C NO: (?<AccNo>\d+)`,
			Table:    `(?<date>\d\d/\d\d/\d{4})\s+(?<particular>.*?)\s+(?<type>Dr\.|Cr\.)\s+\w{3}\s+(?<Amt>[\d,]+\.\d{2})\s+\d\d/\d\d/\d{4}\s+\d\d:\d\d:\d\d\s+(?<serialNo>\d+)\s+(?<Bal>-?[\d,]+\.\d{2})`,
			Extract:  extractIDBIStatement,
		},
		{
			Name:     "PNB",
			Matches:  []string{"Stk Stmt: Stock Statement", "Trf: Transfer"},
			Metadata: `Account Number (?<AccountNumber>\d+).*?Account Name: (?<Name>.*?) Customer Address`,
			Table:    `(?<TxnNo>[A-Z]{1}\d+) (?<date>\d\d/\d\d/\d{4}) (?<description>.*?) (?<Amt>-?\s?\d[\d,.\s]+\d) (?<bal>\d[\d,.\s]+\d) (?<Effect>Cr|Dr)`,
		},
		{
			Name:     "ICICI",
			Matches:  []string{"PAN can be updated online or at the nearest ICICI Bank Branch ."},
			Metadata: `(?s)^.*?  (?<Name>.*?)  .* (?<OpeningDate>\d\d-\d\d-\d{4}) B/F (?<OpeningBalance>[\d,.]+)`,
			Table:    `(?<Date>\d\d-\d\d-\d{4}) (?<Particular>.*?) (?<Amount>[\d,]+\.\d\d) (?<Balance>[\d,.]+) `,
		},
		{
			Name:     "Professional Tax Challan",
			Matches:  []string{"CHALLAN MTR Form Number-6"},
			Metadata: `(?s)Full Name (?<name>.*) Location.*From (?<period>.*) Flat.*TAX (?<amt>\d+\.\d{2}).*RBI Date (?<paymentDate>\d\d/\d\d/\d{4})`,
		},
		{
			Name:     "Provident Fund Challan Receipts",
			Matches:  []string{"Payment Confirmation Receipt", "TRRN No"},
			Metadata: `(?s)ID : (?<Name>.*?) Establishment Name .*? (?<WageMonth>\w+-\d{2,4}) Wage Month : (?<Amt>\d[\d,.]*).*? (Payment|Realization|Payment Confirmation) Date : (?<PaymentDate>\d{2}-\w+-\d{4})`,
		},
		{
			Name:     "Provident Fund Challan",
			Matches:  []string{"COMBINED CHALLAN OF A/C NO. 01, 02, 10, 21 & 22 (With EMPLOYEES' PROVIDENT FUND ORGANISATION"},
			Metadata: `(?s)(?<Month>\w+) (?<Year>\d{4}) (?<TRRN>\d{13}) (?<Name>.*) Total Subscribers .* (?<Amt>[\d,]+) Grand Total :`,
		},
	}
}

// extractGSTChallan uses fixed column headers and appends a Grand Total row
// when the challan prints a total amount but no "Total" head row.
func extractGSTChallan(text string, metadata, table *regexp.Regexp) tabular.Result {
	fields := tabular.ExtractMetadata(text, metadata)
	rows := tabular.MetadataRows(fields, constants.CanonicalWidth)
	rows = append(rows, []string{"Head", "Tax", "Interest", "Penalty", "Fees", "Others", "Total"})

	hasTotal := false
	if table != nil {
		for _, m := range table.FindAllStringSubmatch(text, -1) {
			row := namedRow(table, m, "name", "tax", "interest", "penalty", "fees", "others", "total")
			if row[0] == "Total" {
				hasTotal = true
			}
			rows = append(rows, row)
		}
	}
	if m := gstTotalAmount.FindStringSubmatch(text); m != nil && !hasTotal {
		rows = append(rows, []string{"Grand Total", "-", "-", "-", "-", "-", strings.ReplaceAll(m[1], ",", "")})
	}
	return tabular.Result{Metadata: fields, Rows: rows}
}

// extractIDBIStatement renames the account fields, defaults them to N/A and
// encodes debits as negative amounts.
func extractIDBIStatement(text string, metadata, table *regexp.Regexp) tabular.Result {
	found := tabular.ExtractMetadata(text, metadata)
	fields := tabular.Fields{}
	fields.Set("Account Name", orDefault(found, "Name", "N/A"))
	fields.Set("Account Number", orDefault(found, "AccNo", "N/A"))

	rows := tabular.MetadataRows(fields, constants.CanonicalWidth)
	rows = append(rows, []string{"Date", "Particulars/Description", "Type", "Amount", "Serial No", "Balance", ""})
	if table != nil {
		for _, m := range table.FindAllStringSubmatch(text, -1) {
			g := namedRow(table, m, "date", "particular", "type", "Amt", "serialNo", "Bal")
			amount := g[3]
			if g[2] == "Dr." {
				amount = "-" + amount
			}
			rows = append(rows, []string{
				g[0],
				strings.TrimSpace(g[1]),
				g[2],
				strings.ReplaceAll(amount, ",", ""),
				g[4],
				strings.ReplaceAll(g[5], ",", ""),
				"",
			})
		}
	}
	return tabular.Result{Metadata: fields, Rows: rows}
}

// namedRow picks the submatches for names, in order.
func namedRow(re *regexp.Regexp, m []string, names ...string) []string {
	row := make([]string, len(names))
	for i, name := range names {
		if idx := re.SubexpIndex(name); idx > 0 && idx < len(m) {
			row[i] = m[idx]
		}
	}
	return row
}

func orDefault(f tabular.Fields, key, def string) string {
	if v, ok := f.Get(key); ok && v != "" {
		return v
	}
	return def
}
