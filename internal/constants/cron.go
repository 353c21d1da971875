package constants

// Output formats of `repeatq list`.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// PreviewTimeLayout is used when printing fire times.
const PreviewTimeLayout = "2006-01-02 15:04:05 MST"
