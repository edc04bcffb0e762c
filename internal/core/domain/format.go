package domain

import "strings"

// XrdFormat identifies a supported source format. Two formats may share a
// suffix; the registry disambiguates those by content.
type XrdFormat struct {
	Name   string `json:"name"`
	Suffix string `json:"suffix"`
}

// Built-in formats
var (
	FormatStoeRaw   = XrdFormat{Name: "stoe_raw", Suffix: "raw"}
	FormatBrukerRaw = XrdFormat{Name: "bruker_raw", Suffix: "raw"}
	FormatCIF       = XrdFormat{Name: "cif", Suffix: "cif"}
	FormatCSV       = XrdFormat{Name: "csv", Suffix: "csv"}
	FormatXLSX      = XrdFormat{Name: "xlsx", Suffix: "xlsx"}
	FormatXLS       = XrdFormat{Name: "xls", Suffix: "xls"}
	FormatDat       = XrdFormat{Name: "dat", Suffix: "dat"}
)

// ConverterFormats lists the vendor formats whose byte-level decoding is
// delegated to the external converter. Name and suffix coincide.
var ConverterFormats = []XrdFormat{
	{Name: "rd", Suffix: "rd"},
	{Name: "udf", Suffix: "udf"},
	{Name: "xrdml", Suffix: "xrdml"},
	{Name: "uxd", Suffix: "uxd"},
	{Name: "gss", Suffix: "gss"},
	{Name: "spe", Suffix: "spe"},
	{Name: "cpi", Suffix: "cpi"},
	{Name: "dbw", Suffix: "dbw"},
	{Name: "mca", Suffix: "mca"},
	{Name: "cnf", Suffix: "cnf"},
	{Name: "xdd", Suffix: "xdd"},
	{Name: "vms", Suffix: "vms"},
	{Name: "xsyg", Suffix: "xsyg"},
	{Name: "txt", Suffix: "txt"},
	{Name: "spc", Suffix: "spc"},
}

// AllFormats returns every built-in format in a stable order
func AllFormats() []XrdFormat {
	formats := []XrdFormat{
		FormatStoeRaw, FormatBrukerRaw, FormatCIF,
		FormatCSV, FormatXLSX, FormatXLS, FormatDat,
	}
	return append(formats, ConverterFormats...)
}

// NormalizeSuffix lowercases a suffix and strips a leading dot
func NormalizeSuffix(suffix string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(suffix)), ".")
}

// String returns the format name
func (f XrdFormat) String() string {
	return f.Name
}
